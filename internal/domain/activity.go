package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is an append-only record of a user-visible mutation.
type Activity struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Username  string            `gorm:"size:75;index;not null" json:"username"`
	Type      string            `gorm:"size:64;index;not null" json:"type"`
	Message   string            `gorm:"size:512;not null" json:"message"`
	Data      datatypes.JSONMap `gorm:"type:json" json:"data"`
	Timestamp time.Time         `gorm:"index;not null" json:"timestamp"`
}
