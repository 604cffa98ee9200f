package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var TraceStages = []string{
	"planting",
	"growing",
	"harvesting",
	"processing",
	"packaging",
	"shipping",
	"distribution",
	"retail",
}

type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type TraceLocation struct {
	Address     string       `json:"address,omitempty" validate:"max=300"`
	Province    string       `json:"province,omitempty" validate:"max=100"`
	Coordinates *Coordinates `json:"coordinates,omitempty" validate:"omitempty"`
}

type TraceDocument struct {
	Name string `json:"name" validate:"required,max=200"`
	URL  string `json:"url" validate:"required,max=500"`
	Type string `json:"type,omitempty"`
}

type TraceMetadata struct {
	Temperature string `json:"temperature,omitempty"`
	Humidity    string `json:"humidity,omitempty"`
	Weight      string `json:"weight,omitempty"`
	Quality     string `json:"quality,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// TraceabilityRecord is a supply-chain event kept in the database. Each new
// record is mirrored to the ledger as a trace when possible.
type TraceabilityRecord struct {
	ID               uuid.UUID                          `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ProductRef       uuid.UUID                          `gorm:"type:uuid;not null" json:"productRef"`
	ProductID        string                             `gorm:"index:idx_trace_records_product_ts,priority:1;not null" json:"productId"`
	Stage            string                             `gorm:"not null" json:"stage"`
	Title            string                             `gorm:"not null" json:"title"`
	Description      string                             `gorm:"type:text;not null" json:"description"`
	Location         datatypes.JSONType[TraceLocation]  `gorm:"type:jsonb" json:"location"`
	PerformerWallet  string                             `gorm:"index" json:"performerWallet"`
	Images           datatypes.JSONSlice[string]        `gorm:"type:jsonb" json:"images"`
	Documents        datatypes.JSONSlice[TraceDocument] `gorm:"type:jsonb" json:"documents"`
	Metadata         datatypes.JSONType[TraceMetadata]  `gorm:"type:jsonb" json:"metadata"`
	BlockchainTxHash string                             `json:"blockchainTxHash,omitempty"`
	RecordedAt       time.Time                          `gorm:"index:idx_trace_records_product_ts,priority:2;not null" json:"timestamp"`

	Timestamp
}
