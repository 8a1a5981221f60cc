package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var usernameAdjectives = [...]string{
	"Swift", "Brave", "Clever", "Bright", "Noble", "Wise", "Bold", "Quick",
	"Silent", "Mighty", "Gentle", "Fierce", "Calm", "Wild", "Free", "True",
	"Dark", "Light", "Storm", "Frost", "Fire", "Wind", "Ocean", "Sky",
}

var usernameNouns = [...]string{
	"Fox", "Wolf", "Bear", "Eagle", "Lion", "Tiger", "Hawk", "Raven",
	"Dragon", "Phoenix", "Falcon", "Panther", "Leopard", "Jaguar", "Cobra",
	"Viper", "Shark", "Whale", "Dolphin", "Orca", "Lynx", "Puma", "Cheetah",
}

const (
	usernameNumberMin = 100
	usernameNumberMax = 999
)

// IntnFunc returns a uniform integer in [0, n).
type IntnFunc func(n int) (int, error)

// CryptoIntn draws from crypto/rand.
func CryptoIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// GenerateUsername builds an AdjectiveNounNNN candidate such as "SwiftFox421".
func GenerateUsername(intn IntnFunc) (string, error) {
	a, err := intn(len(usernameAdjectives))
	if err != nil {
		return "", fmt.Errorf("pick adjective: %w", err)
	}
	n, err := intn(len(usernameNouns))
	if err != nil {
		return "", fmt.Errorf("pick noun: %w", err)
	}
	num, err := intn(usernameNumberMax - usernameNumberMin + 1)
	if err != nil {
		return "", fmt.Errorf("pick number: %w", err)
	}
	return fmt.Sprintf("%s%s%d", usernameAdjectives[a], usernameNouns[n], usernameNumberMin+num), nil
}
