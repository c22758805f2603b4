package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a platform participant identified by their Telegram ID.
// Points are mutated only through the assignment ledger; ReferralCode is
// generated once at registration and never changes afterwards.
type User struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	TgID         string  `gorm:"uniqueIndex;not null" json:"tg_id"`
	Name         string  `gorm:"not null" json:"name"`
	Points       int64   `gorm:"not null;default:0" json:"points"`
	Avatar       *string `json:"avatar,omitempty"`
	Wallet       *string `json:"wallet,omitempty"`
	ReferralCode string  `gorm:"uniqueIndex;not null" json:"referral_code"`

	// InvitedBy holds the inviter's referral code verbatim. It is an opaque
	// attribution tag: it is never checked against a real referrer.
	InvitedBy *string `gorm:"index" json:"invited_by,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
