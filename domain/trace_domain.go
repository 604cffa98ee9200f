package domain

import (
	"errors"

	"GreenOrigin-Backend/entities"
)

var (
	MessageSuccessCreateTraceRecord = "trace record created successfully"
	MessageSuccessGetTraceRecords   = "trace records retrieved successfully"
	MessageSuccessGetTraceRecord    = "trace record retrieved successfully"
	MessageSuccessUpdateTraceRecord = "trace record updated successfully"
	MessageSuccessDeleteTraceRecord = "trace record deleted successfully"
	MessageSuccessGetTimeline       = "product timeline retrieved successfully"

	MessageFailedCreateTraceRecord = "failed to create trace record"
	MessageFailedGetTraceRecords   = "failed to retrieve trace records"
	MessageFailedGetTraceRecord    = "failed to retrieve trace record"
	MessageFailedUpdateTraceRecord = "failed to update trace record"
	MessageFailedDeleteTraceRecord = "failed to delete trace record"
	MessageFailedGetTimeline       = "failed to retrieve product timeline"

	ErrTraceRecordNotFound = errors.New("trace record not found")
)

type (
	CreateTraceRecordRequest struct {
		ProductID   string                   `json:"productId" validate:"required"`
		Stage       string                   `json:"stage" validate:"required,oneof=planting growing harvesting processing packaging shipping distribution retail"`
		Title       string                   `json:"title" validate:"required,max=200"`
		Description string                   `json:"description" validate:"required,max=2000"`
		Location    entities.TraceLocation   `json:"location"`
		Images      []string                 `json:"images" validate:"omitempty,max=10,dive,max=500"`
		Documents   []entities.TraceDocument `json:"documents" validate:"omitempty,max=10,dive"`
		Metadata    entities.TraceMetadata   `json:"metadata"`
	}

	// UpdateTraceRecordRequest changes only the fields it carries.
	UpdateTraceRecordRequest struct {
		Stage       *string                  `json:"stage" validate:"omitempty,oneof=planting growing harvesting processing packaging shipping distribution retail"`
		Title       *string                  `json:"title" validate:"omitempty,min=1,max=200"`
		Description *string                  `json:"description" validate:"omitempty,min=1,max=2000"`
		Location    *entities.TraceLocation  `json:"location" validate:"omitempty"`
		Images      []string                 `json:"images" validate:"omitempty,max=10,dive,max=500"`
		Documents   []entities.TraceDocument `json:"documents" validate:"omitempty,max=10,dive"`
		Metadata    *entities.TraceMetadata  `json:"metadata" validate:"omitempty"`
	}

	CreateTraceRecordResponse struct {
		*entities.TraceabilityRecord
		IsOnBlockchain bool   `json:"isOnBlockchain"`
		LedgerError    string `json:"blockchainError,omitempty"`
	}

	TraceRecordsResponse struct {
		ProductID string                        `json:"productId"`
		Count     int                           `json:"count"`
		Records   []entities.TraceabilityRecord `json:"records"`
	}

	TraceProductSummary struct {
		ProductID string `json:"productId"`
		Name      string `json:"name"`
		Category  string `json:"category"`
	}

	TraceRecordDetailResponse struct {
		*entities.TraceabilityRecord
		Product *TraceProductSummary `json:"product,omitempty"`
	}

	TimelineResponse struct {
		Product  *entities.Product             `json:"product"`
		Timeline []entities.TraceabilityRecord `json:"timeline"`
	}
)
