package entities

import (
	"time"

	"github.com/google/uuid"
)

type LoginHistory struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	WalletAddress string    `gorm:"index:idx_login_wallet_time,priority:1;not null" json:"wallet_address"`
	LoginTime     time.Time `gorm:"index:idx_login_wallet_time,priority:2,sort:desc" json:"login_time"`
	IPAddress     string    `json:"ip_address,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	Status        string    `json:"status"` // success, failed
	Message       string    `json:"message,omitempty"`
}
