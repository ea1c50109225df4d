package models

import "time"

// RefreshToken stores one refresh credential per active session. Refresh must
// delete the consumed row before issuing a replacement.
type RefreshToken struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Token     string    `gorm:"column:token;type:text;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
