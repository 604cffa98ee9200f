package batch

import (
	"context"
	"errors"

	"GreenOrigin-Backend/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	BatchRepository interface {
		UpsertBatch(ctx context.Context, metadata *entities.BatchMetadata) error
		GetBatchByID(ctx context.Context, batchID string) (*entities.BatchMetadata, error)
		GetBatches(ctx context.Context) ([]entities.BatchMetadata, error)
		UpdateDisplayFields(ctx context.Context, batchID, productName, description, imageURL string) error
		UpdateTransactionHash(ctx context.Context, batchID, txHash string) error
	}

	batchRepository struct {
		db *gorm.DB
	}
)

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

// UpsertBatch inserts or refreshes the row keyed by batch_id. An empty
// transaction hash never overwrites a known one.
func (r *batchRepository) UpsertBatch(ctx context.Context, metadata *entities.BatchMetadata) error {
	columns := []string{"product_name", "owner_id", "image_url", "description", "qr_code_url", "updated_at"}
	if metadata.LatestTransactionHash != "" {
		columns = append(columns, "latest_transaction_hash")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "batch_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(metadata).Error
}

func (r *batchRepository) GetBatchByID(ctx context.Context, batchID string) (*entities.BatchMetadata, error) {
	var metadata entities.BatchMetadata
	if err := r.db.WithContext(ctx).Where("batch_id = ?", batchID).First(&metadata).Error; err != nil {
		return nil, err
	}
	return &metadata, nil
}

func (r *batchRepository) GetBatches(ctx context.Context) ([]entities.BatchMetadata, error) {
	var batches []entities.BatchMetadata
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *batchRepository) UpdateDisplayFields(ctx context.Context, batchID, productName, description, imageURL string) error {
	res := r.db.WithContext(ctx).Model(&entities.BatchMetadata{}).
		Where("batch_id = ?", batchID).
		Updates(map[string]interface{}{
			"product_name": productName,
			"description":  description,
			"image_url":    imageURL,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *batchRepository) UpdateTransactionHash(ctx context.Context, batchID, txHash string) error {
	res := r.db.WithContext(ctx).Model(&entities.BatchMetadata{}).
		Where("batch_id = ?", batchID).
		Update("latest_transaction_hash", txHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
