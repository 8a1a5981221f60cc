package domain

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultRank = "Beginner"

// UserStats holds running usage counters for one username. Counters only
// move through atomic increments in the repository.
type UserStats struct {
	ID                  uint                        `gorm:"primaryKey" json:"-"`
	Username            string                      `gorm:"size:75;uniqueIndex;not null" json:"username"`
	RequestsMade        int64                       `gorm:"not null;default:0" json:"requests_made"`
	SuccessfulRequests  int64                       `gorm:"not null;default:0" json:"successful_requests"`
	TotalResponseTimeMs int64                       `gorm:"not null;default:0" json:"total_response_time_ms"`
	TasksCreated        int64                       `gorm:"not null;default:0" json:"tasks_created"`
	TasksCompleted      int64                       `gorm:"not null;default:0" json:"tasks_completed"`
	NotesCreated        int64                       `gorm:"not null;default:0" json:"notes_created"`
	Rank                string                      `gorm:"size:32;not null" json:"rank"`
	Badges              datatypes.JSONSlice[string] `json:"badges"`
	CreatedAt           time.Time                   `json:"created_at"`
	LastActivity        time.Time                   `gorm:"index" json:"last_activity"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// StatsDelta is the set of counter increments applied in one write.
type StatsDelta struct {
	RequestsMade        int64
	SuccessfulRequests  int64
	TotalResponseTimeMs int64
	TasksCreated        int64
	TasksCompleted      int64
	NotesCreated        int64
}

func (d StatsDelta) IsZero() bool {
	return d == StatsDelta{}
}
