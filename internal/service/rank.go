package service

import "github.com/sandeepkv93/api-playground-backend/internal/domain"

type rankTier struct {
	name  string
	below int64
}

var rankTiers = []rankTier{
	{name: "Beginner", below: 25},
	{name: "Explorer", below: 100},
	{name: "Builder", below: 250},
	{name: "Expert", below: 500},
}

const topRank = "Master"

type badgeRule struct {
	name   string
	earned func(s domain.UserStats) bool
}

// Badge order is part of the API response and must stay stable.
var badgeRules = []badgeRule{
	{"first-request", func(s domain.UserStats) bool { return s.RequestsMade >= 1 }},
	{"task-starter", func(s domain.UserStats) bool { return s.TasksCreated >= 1 }},
	{"finisher", func(s domain.UserStats) bool { return s.TasksCompleted >= 1 }},
	{"note-taker", func(s domain.UserStats) bool { return s.NotesCreated >= 1 }},
	{"reliable", func(s domain.UserStats) bool { return s.RequestsMade >= 20 && SuccessRate(s) >= 95 }},
	{"power-user", func(s domain.UserStats) bool { return s.RequestsMade >= 100 }},
	{"completionist", func(s domain.UserStats) bool { return s.TasksCompleted >= 10 }},
}

// RankPoints weighs the counters that feed the rank ladder.
func RankPoints(s domain.UserStats) int64 {
	return s.RequestsMade + 2*s.TasksCreated + 3*s.TasksCompleted + 2*s.NotesCreated
}

// EvaluateRank derives rank and badges from counters. It is pure so the
// repository can call it inside the increment transaction.
func EvaluateRank(s domain.UserStats) (string, []string) {
	rank := topRank
	points := RankPoints(s)
	for _, tier := range rankTiers {
		if points < tier.below {
			rank = tier.name
			break
		}
	}
	badges := make([]string, 0, len(badgeRules))
	for _, rule := range badgeRules {
		if rule.earned(s) {
			badges = append(badges, rule.name)
		}
	}
	return rank, badges
}

// AverageResponseTime is integer milliseconds, 0 before the first request.
func AverageResponseTime(s domain.UserStats) int64 {
	if s.RequestsMade == 0 {
		return 0
	}
	return s.TotalResponseTimeMs / s.RequestsMade
}

// SuccessRate is a percentage, 0 before the first request.
func SuccessRate(s domain.UserStats) float64 {
	if s.RequestsMade == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.RequestsMade) * 100
}
