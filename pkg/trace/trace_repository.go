package trace

import (
	"context"

	"GreenOrigin-Backend/entities"

	"gorm.io/gorm"
)

type (
	TraceRepository interface {
		CreateRecord(ctx context.Context, record *entities.TraceabilityRecord) error
		GetRecordByID(ctx context.Context, id string) (*entities.TraceabilityRecord, error)
		GetRecordsByProductID(ctx context.Context, productID string) ([]entities.TraceabilityRecord, error)
		UpdateRecord(ctx context.Context, record *entities.TraceabilityRecord) error
		UpdateTransactionHash(ctx context.Context, id, txHash string) error
		DeleteRecord(ctx context.Context, id string) error
	}

	traceRepository struct {
		db *gorm.DB
	}
)

func NewTraceRepository(db *gorm.DB) TraceRepository {
	return &traceRepository{db: db}
}

func (r *traceRepository) CreateRecord(ctx context.Context, record *entities.TraceabilityRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *traceRepository) GetRecordByID(ctx context.Context, id string) (*entities.TraceabilityRecord, error) {
	var record entities.TraceabilityRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRecordsByProductID returns the records oldest first.
func (r *traceRepository) GetRecordsByProductID(ctx context.Context, productID string) ([]entities.TraceabilityRecord, error) {
	records := []entities.TraceabilityRecord{}
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("recorded_at asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *traceRepository) UpdateRecord(ctx context.Context, record *entities.TraceabilityRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *traceRepository) UpdateTransactionHash(ctx context.Context, id, txHash string) error {
	return r.db.WithContext(ctx).Model(&entities.TraceabilityRecord{}).
		Where("id = ?", id).
		Update("blockchain_tx_hash", txHash).Error
}

func (r *traceRepository) DeleteRecord(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.TraceabilityRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
