package entities

import (
	"github.com/google/uuid"
)

// BatchMetadata is the list-view projection of a Product keyed by the id
// recorded on the ledger. It may be stale or missing.
type BatchMetadata struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	BatchID               string     `gorm:"uniqueIndex;not null" json:"batch_id"`
	ProductName           string     `gorm:"not null" json:"product_name"`
	LatestTransactionHash string     `json:"latest_transaction_hash"`
	OwnerID               *uuid.UUID `gorm:"type:uuid" json:"owner_id,omitempty"`
	ImageURL              string     `json:"image_url,omitempty"`
	Description           string     `gorm:"type:text" json:"description,omitempty"`
	QRCodeURL             string     `json:"qr_code_url,omitempty"`

	Timestamp
}

func (BatchMetadata) TableName() string {
	return "batch_metadata"
}
