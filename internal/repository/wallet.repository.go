package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/krobus00/portfolio-service/internal/entity"
)

type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) ([]entity.Wallet, error) {
	var wallets []entity.Wallet
	err := r.db.SelectContext(ctx, &wallets, "SELECT * FROM wallets WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return wallets, err
}
