package web3auth

import (
	"context"

	"GreenOrigin-Backend/entities"

	"gorm.io/gorm"
)

type (
	Web3AuthRepository interface {
		CreateLoginHistory(ctx context.Context, history *entities.LoginHistory) error
		GetLoginHistory(ctx context.Context, walletAddress string, limit int) ([]entities.LoginHistory, error)
	}

	web3AuthRepository struct {
		db *gorm.DB
	}
)

func NewWeb3AuthRepository(db *gorm.DB) Web3AuthRepository {
	return &web3AuthRepository{db: db}
}

func (r *web3AuthRepository) CreateLoginHistory(ctx context.Context, history *entities.LoginHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *web3AuthRepository) GetLoginHistory(ctx context.Context, walletAddress string, limit int) ([]entities.LoginHistory, error) {
	var histories []entities.LoginHistory
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Order("login_time desc").
		Limit(limit).
		Find(&histories).Error
	return histories, err
}
