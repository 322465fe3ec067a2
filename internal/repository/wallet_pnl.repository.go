package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/portfolio-service/internal/entity"
)

type WalletPnlRepository struct {
	db *sqlx.DB
}

func NewWalletPnlRepository(db *sqlx.DB) *WalletPnlRepository {
	return &WalletPnlRepository{db: db}
}

// UpsertDaily writes the snapshot for data.CreatedAt's calendar day. A repeat
// write for the same (user, day) overwrites balances instead of inserting a
// second row.
func (r *WalletPnlRepository) UpsertDaily(ctx context.Context, data *entity.WalletPnl) error {
	if data.ID == "" {
		data.ID = uuid.NewString()
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(data.TableName()).
		Columns(
			"id",
			"user_id",
			"balances",
			"created_at",
			"updated_at",
		).
		Values(
			data.ID,
			data.UserID,
			data.Balances,
			data.CreatedAt,
			data.UpdatedAt,
		).
		Suffix(`ON CONFLICT (user_id, created_at)
DO UPDATE SET
	balances = EXCLUDED.balances,
	updated_at = EXCLUDED.updated_at
RETURNING id`)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	var id string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err != nil {
		return err
	}

	data.ID = id

	return nil
}

func (r *WalletPnlRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*entity.WalletPnl, error) {
	var snapshot entity.WalletPnl
	err := r.db.GetContext(ctx, &snapshot, "SELECT * FROM wallet_pnls WHERE user_id = $1 AND created_at = $2", userID, date)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *WalletPnlRepository) GetRange(ctx context.Context, userID string, from, to time.Time) ([]entity.WalletPnl, error) {
	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("*").
		From("wallet_pnls").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.LtOrEq{"created_at": to}).
		OrderBy("created_at asc")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var snapshots []entity.WalletPnl
	err = r.db.SelectContext(ctx, &snapshots, query, args...)
	return snapshots, err
}
