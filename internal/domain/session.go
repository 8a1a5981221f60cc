package domain

import "time"

// Session is an anonymous playground identity. A row is immutable after
// issuance except for IsActive.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:75;uniqueIndex;not null" json:"username"`
	Token     string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpireAt  time.Time `gorm:"index;not null" json:"expire_at"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
}

// Identity is the authenticated caller resolved for a single request.
type Identity struct {
	SessionID uint
	Username  string
	Token     string
}
