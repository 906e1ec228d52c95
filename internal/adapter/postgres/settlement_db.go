package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

const settlementColumns = `id, idempotency_key, bike_id, sale_type, cash_portion, trade_in_valuation,
	final_sell_price, trade_in_bike_id, status, failure_reason, created_at, updated_at`

type SettlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func scanSettlement(row rowScanner) (*domain.Settlement, error) {
	st := &domain.Settlement{}
	err := row.Scan(
		&st.ID,
		&st.IdempotencyKey,
		&st.BikeID,
		&st.SaleType,
		&st.CashPortion,
		&st.TradeInValuation,
		&st.FinalSellPrice,
		&st.TradeInBikeID,
		&st.Status,
		&st.FailureReason,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (r *SettlementRepository) CreateSettlement(ctx context.Context, st *domain.Settlement) (*domain.Settlement, error) {
	query := `INSERT INTO settlements (id, idempotency_key, bike_id, sale_type, cash_portion,
		trade_in_valuation, final_sell_price, trade_in_bike_id, status, failure_reason, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING ` + settlementColumns

	created, err := scanSettlement(conn(ctx, r.db).QueryRowContext(ctx, query,
		st.ID,
		st.IdempotencyKey,
		st.BikeID,
		st.SaleType,
		st.CashPortion,
		st.TradeInValuation,
		st.FinalSellPrice,
		st.TradeInBikeID,
		st.Status,
		st.FailureReason,
		st.CreatedAt,
		st.UpdatedAt,
	))
	if err != nil {
		return nil, mapError(err, "create settlement")
	}
	return created, nil
}

func (r *SettlementRepository) GetSettlementByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`

	st, err := scanSettlement(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("settlement %s", id))
	}
	return st, nil
}

func (r *SettlementRepository) GetSettlementByKey(ctx context.Context, key string) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE idempotency_key = $1`

	st, err := scanSettlement(conn(ctx, r.db).QueryRowContext(ctx, query, key))
	if err != nil {
		return nil, mapError(err, "settlement by key")
	}
	return st, nil
}

func (r *SettlementRepository) UpdateSettlement(ctx context.Context, st *domain.Settlement) (*domain.Settlement, error) {
	query := `UPDATE settlements
		SET sale_type = $1,
			cash_portion = $2,
			trade_in_valuation = $3,
			final_sell_price = $4,
			trade_in_bike_id = $5,
			status = $6,
			failure_reason = $7,
			updated_at = $8
		WHERE id = $9
		RETURNING ` + settlementColumns

	updated, err := scanSettlement(conn(ctx, r.db).QueryRowContext(ctx, query,
		st.SaleType,
		st.CashPortion,
		st.TradeInValuation,
		st.FinalSellPrice,
		st.TradeInBikeID,
		st.Status,
		st.FailureReason,
		st.UpdatedAt,
		st.ID,
	))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("settlement %s", st.ID))
	}
	return updated, nil
}

func (r *SettlementRepository) ListSettlements(ctx context.Context, status domain.SettlementStatus) ([]*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list settlements")
	}
	defer rows.Close()

	settlements := []*domain.Settlement{}
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, mapError(err, "scan settlement")
		}
		settlements = append(settlements, st)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err, "list settlements")
	}
	return settlements, nil
}
