package domain

import "time"

type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1000" json:"description"`
	Completed   bool      `gorm:"not null" json:"completed"`
	Username    string    `gorm:"size:75;index;not null" json:"username"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Username  string    `gorm:"size:75;index;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GlobalCounter is a single shared row (ID 1) every session can bump.
type GlobalCounter struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Value       int64     `gorm:"not null;default:0" json:"value"`
	LastUpdated time.Time `json:"last_updated"`
}

const GlobalCounterID uint = 1
