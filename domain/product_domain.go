package domain

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"time"

	"GreenOrigin-Backend/entities"

	"github.com/shopspring/decimal"
)

var (
	MessageSuccessCreateProduct     = "product created successfully"
	MessageSuccessGetProducts       = "products retrieved successfully"
	MessageSuccessGetProduct        = "product retrieved successfully"
	MessageSuccessUpdateProduct     = "product updated successfully"
	MessageSuccessDeleteProduct     = "product deleted successfully"
	MessageSuccessGetProductHistory = "product history retrieved successfully"

	MessageFailedCreateProduct     = "failed to create product"
	MessageFailedGetProducts       = "failed to retrieve products"
	MessageFailedGetProduct        = "failed to retrieve product"
	MessageFailedUpdateProduct     = "failed to update product"
	MessageFailedDeleteProduct     = "failed to delete product"
	MessageFailedGetProductHistory = "failed to retrieve product history"
	MessageFailedUploadImage       = "failed to upload image"

	ErrProductNotFound  = errors.New("product not found")
	ErrProductExists    = errors.New("product with this productId already exists")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD or RFC3339")
	ErrInvalidQuantity  = errors.New("quantity must not be negative")
	ErrInvalidField     = errors.New("invalid field value")
)

const (
	DefaultHistoryLimit = 50
	DefaultUpdateReason = "product information updated"
	SystemActor         = "system"
)

// AppendOnlyFields are the product fields accepted by the history-recording
// update, in the order they are reported.
var AppendOnlyFields = []string{
	"name",
	"supplier",
	"farmerName",
	"location",
	"packingLocation",
	"lotNumber",
	"harvestDate",
	"packingDate",
	"deliveryDate",
	"certifications",
	"description",
}

type (
	CreateProductRequest struct {
		ProductID       string                   `json:"productId" form:"productId" validate:"required,max=100"`
		Name            string                   `json:"name" form:"name" validate:"required,max=200"`
		Category        string                   `json:"category" form:"category" validate:"omitempty,oneof=vegetable fruit grain herb other"`
		Description     string                   `json:"description" form:"description"`
		FarmerID        string                   `json:"farmerId" form:"farmerId" validate:"required"`
		FarmerName      string                   `json:"farmerName" form:"farmerName"`
		Supplier        string                   `json:"supplier" form:"supplier"`
		Location        string                   `json:"location" form:"location"`
		PackingLocation string                   `json:"packingLocation" form:"packingLocation"`
		LotNumber       string                   `json:"lotNumber" form:"lotNumber"`
		HarvestDate     string                   `json:"harvestDate" form:"harvestDate"`
		PackingDate     string                   `json:"packingDate" form:"packingDate"`
		DeliveryDate    string                   `json:"deliveryDate" form:"deliveryDate"`
		Certifications  []entities.Certification `json:"certifications" form:"-" validate:"omitempty,dive"`
		Quantity        decimal.Decimal          `json:"quantity" form:"-"`
		Unit            string                   `json:"unit" form:"unit" validate:"omitempty,oneof=kg ton bunch piece box"`
		Status          string                   `json:"status" form:"status" validate:"omitempty,oneof=harvested processing in-transit delivered sold"`
		Image           *multipart.FileHeader    `json:"-" form:"-"`
	}

	// UpdateProductRequest overwrites every non-empty field it carries.
	UpdateProductRequest struct {
		Name            string                   `json:"name" form:"name" validate:"omitempty,max=200"`
		Category        string                   `json:"category" form:"category" validate:"omitempty,oneof=vegetable fruit grain herb other"`
		Description     string                   `json:"description" form:"description"`
		FarmerName      string                   `json:"farmerName" form:"farmerName"`
		Supplier        string                   `json:"supplier" form:"supplier"`
		Location        string                   `json:"location" form:"location"`
		PackingLocation string                   `json:"packingLocation" form:"packingLocation"`
		LotNumber       string                   `json:"lotNumber" form:"lotNumber"`
		HarvestDate     string                   `json:"harvestDate" form:"harvestDate"`
		PackingDate     string                   `json:"packingDate" form:"packingDate"`
		DeliveryDate    string                   `json:"deliveryDate" form:"deliveryDate"`
		Certifications  []entities.Certification `json:"certifications" form:"-" validate:"omitempty,dive"`
		Quantity        *decimal.Decimal         `json:"quantity" form:"-"`
		Unit            string                   `json:"unit" form:"unit" validate:"omitempty,oneof=kg ton bunch piece box"`
		Status          string                   `json:"status" form:"status" validate:"omitempty,oneof=harvested processing in-transit delivered sold"`
		Image           *multipart.FileHeader    `json:"-" form:"-"`
	}

	// AppendUpdateRequest carries the raw body of a history-recording update
	// so that field presence can be told apart from zero values.
	AppendUpdateRequest struct {
		Fields map[string]json.RawMessage
		Reason string
	}

	ProductListFilter struct {
		Category string
		FarmerID string
		Page     int
		Limit    int
	}

	UpdateRecordResponse struct {
		ID             string    `json:"id"`
		BlockchainHash string    `json:"blockchainHash"`
		Timestamp      time.Time `json:"timestamp"`
		UpdatedFields  []string  `json:"updatedFields"`
	}

	AppendUpdateResponse struct {
		Product      *entities.Product    `json:"product"`
		UpdateRecord UpdateRecordResponse `json:"updateRecord"`
	}

	CreateProductResponse struct {
		*entities.Product
		TransactionHash string `json:"transactionHash,omitempty"`
		IsOnBlockchain  bool   `json:"isOnBlockchain"`
		LedgerError     string `json:"blockchainError,omitempty"`
	}
)

// ParseDate accepts a calendar date or an RFC3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

type HistoryEntryResponse struct {
	entities.ProductUpdate
	HashValid bool `json:"hashValid"`
}
