package product

import (
	"context"

	"GreenOrigin-Backend/domain"
	"GreenOrigin-Backend/entities"

	"gorm.io/gorm"
)

type (
	ProductRepository interface {
		CreateProduct(ctx context.Context, product *entities.Product) error
		GetProductByID(ctx context.Context, id string) (*entities.Product, error)
		GetProductByProductID(ctx context.Context, productID string) (*entities.Product, error)
		ExistsByProductID(ctx context.Context, productID string) (bool, error)
		GetProducts(ctx context.Context, filter domain.ProductListFilter) ([]entities.Product, int64, error)
		UpdateProduct(ctx context.Context, product *entities.Product) error
		DeleteProduct(ctx context.Context, id string) error

		// History is append-only: there is no update or delete.
		CreateProductUpdate(ctx context.Context, update *entities.ProductUpdate) error
		GetProductUpdates(ctx context.Context, productID string, limit int) ([]entities.ProductUpdate, error)
	}

	productRepository struct {
		db *gorm.DB
	}
)

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) CreateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetProductByProductID(ctx context.Context, productID string) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ExistsByProductID(ctx context.Context, productID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Product{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepository) GetProducts(ctx context.Context, filter domain.ProductListFilter) ([]entities.Product, int64, error) {
	var products []entities.Product
	var count int64

	query := r.db.WithContext(ctx).Model(&entities.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.FarmerID != "" {
		query = query.Where("farmer_id = ?", filter.FarmerID)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Product{}).Error
}

func (r *productRepository) CreateProductUpdate(ctx context.Context, update *entities.ProductUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}

func (r *productRepository) GetProductUpdates(ctx context.Context, productID string, limit int) ([]entities.ProductUpdate, error) {
	var updates []entities.ProductUpdate
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("timestamp desc").
		Limit(limit).
		Find(&updates).Error
	return updates, err
}
