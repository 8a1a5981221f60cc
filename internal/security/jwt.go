package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MercureClaims follows the Mercure hub authorization format: the
// "mercure" claim lists the topics a token may publish to.
type MercureClaims struct {
	Mercure MercureGrant `json:"mercure"`
	jwt.RegisteredClaims
}

type MercureGrant struct {
	Publish   []string `json:"publish,omitempty"`
	Subscribe []string `json:"subscribe,omitempty"`
}

type PublisherJWT struct {
	secret []byte
}

func NewPublisherJWT(secret string) *PublisherJWT {
	return &PublisherJWT{secret: []byte(secret)}
}

// Sign issues a publisher token for topics. An empty topic list grants
// publishing on every topic.
func (p *PublisherJWT) Sign(topics []string, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", errors.New("publisher jwt secret is empty")
	}
	if len(topics) == 0 {
		topics = []string{"*"}
	}
	now := time.Now()
	claims := MercureClaims{
		Mercure: MercureGrant{Publish: topics},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *PublisherJWT) Parse(raw string) (*MercureClaims, error) {
	claims := &MercureClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if len(claims.Mercure.Publish) == 0 {
		return nil, fmt.Errorf("token grants no publish topics")
	}
	return claims, nil
}

// CanPublish reports whether the claims allow publishing to topic.
func (c *MercureClaims) CanPublish(topic string) bool {
	for _, t := range c.Mercure.Publish {
		if t == "*" || t == topic {
			return true
		}
	}
	return false
}
