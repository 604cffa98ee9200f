package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	UpdateTypeCreate        = "CREATE"
	UpdateTypeInfo          = "UPDATE_INFO"
	UpdateTypeCertification = "UPDATE_CERTIFICATION"
	UpdateTypeDates         = "UPDATE_DATES"
)

var ErrProductUpdateImmutable = errors.New("product update history is append-only")

// ProductSnapshot is the full mutable state of a product at one point in time.
type ProductSnapshot struct {
	Name            string          `json:"name"`
	Supplier        string          `json:"supplier"`
	FarmerName      string          `json:"farmerName"`
	Location        string          `json:"location"`
	PackingLocation string          `json:"packingLocation"`
	LotNumber       string          `json:"lotNumber"`
	HarvestDate     time.Time       `json:"harvestDate"`
	PackingDate     *time.Time      `json:"packingDate"`
	DeliveryDate    *time.Time      `json:"deliveryDate"`
	Certifications  []Certification `json:"certifications"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"imageUrl"`
}

type ProductUpdate struct {
	ID              uuid.UUID                           `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ProductID       string                              `gorm:"index:idx_product_updates_product_ts,priority:1;not null" json:"productId"`
	UpdateType      string                              `gorm:"default:'UPDATE_INFO'" json:"updateType"`
	UpdatedFields   datatypes.JSONMap                   `gorm:"type:jsonb" json:"updatedFields"`
	Snapshot        datatypes.JSONType[ProductSnapshot] `gorm:"type:jsonb" json:"snapshot"`
	BlockchainHash  string                              `json:"blockchainHash"`
	TransactionHash string                              `json:"transactionHash"`
	IsOnBlockchain  bool                                `json:"isOnBlockchain"`
	UpdatedBy       string                              `gorm:"not null" json:"updatedBy"`
	Reason          string                              `json:"reason"`
	Timestamp       time.Time                           `gorm:"index:idx_product_updates_product_ts,priority:2,sort:desc;not null" json:"timestamp"`
}

func (u *ProductUpdate) BeforeUpdate(tx *gorm.DB) error {
	return ErrProductUpdateImmutable
}

func (u *ProductUpdate) BeforeDelete(tx *gorm.DB) error {
	return ErrProductUpdateImmutable
}
