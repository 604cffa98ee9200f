package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Certification struct {
	Name              string     `json:"name"`
	Standard          string     `json:"standard,omitempty"`
	CertificateNumber string     `json:"certificateNumber,omitempty"`
	ValidUntil        *time.Time `json:"validUntil,omitempty"`
	IssuedBy          string     `json:"issuedBy,omitempty"`
	DocumentURL       string     `json:"documentUrl,omitempty"`
}

type Product struct {
	ID              uuid.UUID                          `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ProductID       string                             `gorm:"uniqueIndex;not null" json:"productId"`
	Name            string                             `gorm:"not null" json:"name"`
	Category        string                             `gorm:"default:'other'" json:"category"` // vegetable, fruit, grain, herb, other
	Description     string                             `gorm:"type:text" json:"description"`
	FarmerID        string                             `gorm:"index" json:"farmerId"`
	FarmerName      string                             `json:"farmerName"`
	Supplier        string                             `json:"supplier"`
	Location        string                             `json:"location"`
	PackingLocation string                             `json:"packingLocation"`
	LotNumber       string                             `json:"lotNumber"`
	HarvestDate     time.Time                          `json:"harvestDate"`
	PackingDate     *time.Time                         `json:"packingDate,omitempty"`
	DeliveryDate    *time.Time                         `json:"deliveryDate,omitempty"`
	Certifications  datatypes.JSONSlice[Certification] `gorm:"type:jsonb" json:"certifications"`
	Quantity        decimal.Decimal                    `gorm:"type:numeric(14,3)" json:"quantity"`
	Unit            string                             `json:"unit"` // kg, ton, bunch, piece, box
	ImageURL        string                             `json:"imageUrl,omitempty"`
	Status          string                             `gorm:"default:'harvested'" json:"status"` // harvested, processing, in-transit, delivered, sold
	CreatedBy       string                             `gorm:"index" json:"createdBy"`

	Timestamp
}
