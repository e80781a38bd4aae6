package domain

import "time"

// BlockedIP is a persisted decision that an address should be treated as blocked.
type BlockedIP struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"-"`

	// IP holds the dotted-decimal IPv4 string exactly as it was extracted.
	// Not unique: the check before insert is the only guard against duplicates.
	IP string `gorm:"size:45;index;not null" json:"ip"`

	Country string `gorm:"size:128;not null;default:''" json:"country"`
	IsTor   bool   `gorm:"not null;default:false" json:"is_tor"`

	BlockedAt time.Time `gorm:"autoCreateTime" json:"blocked_at"`
}

func (BlockedIP) TableName() string {
	return "blocked_ips"
}
