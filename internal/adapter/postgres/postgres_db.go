package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

const bikeColumns = `id, ref_number, serial_number, brand, model, type, size,
	purchase_price, additional_costs, sell_price, final_sell_price, sold_date,
	observations, image_url, status, entry_date, trade_in_bike_id, trade_in_for_bike_id,
	deleted_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type BikeRepository struct {
	db *sql.DB
}

func NewBikeRepository(db *sql.DB) *BikeRepository {
	return &BikeRepository{
		db,
	}
}

func scanBike(row rowScanner) (*domain.InventoryBike, error) {
	bike := &domain.InventoryBike{}
	err := row.Scan(
		&bike.ID,
		&bike.RefNumber,
		&bike.SerialNumber,
		&bike.Brand,
		&bike.Model,
		&bike.Type,
		&bike.Size,
		&bike.PurchasePrice,
		&bike.AdditionalCosts,
		&bike.SellPrice,
		&bike.FinalSellPrice,
		&bike.SoldDate,
		&bike.Observations,
		&bike.ImageURL,
		&bike.Status,
		&bike.EntryDate,
		&bike.TradeInBikeID,
		&bike.TradeInForBikeID,
		&bike.DeletedAt,
		&bike.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bike, nil
}

func (r *BikeRepository) CreateBike(ctx context.Context, bike *domain.InventoryBike) (*domain.InventoryBike, error) {
	query := `INSERT INTO bikes (ref_number, serial_number, brand, model, type, size,
		purchase_price, additional_costs, sell_price, observations, image_url, status,
		entry_date, trade_in_for_bike_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	RETURNING ` + bikeColumns

	created, err := scanBike(conn(ctx, r.db).QueryRowContext(ctx, query,
		bike.RefNumber,
		bike.SerialNumber,
		bike.Brand,
		bike.Model,
		bike.Type,
		bike.Size,
		bike.PurchasePrice,
		bike.AdditionalCosts,
		bike.SellPrice,
		bike.Observations,
		bike.ImageURL,
		bike.Status,
		bike.EntryDate,
		bike.TradeInForBikeID,
	))
	if err != nil {
		return nil, mapError(err, "create bike")
	}
	return created, nil
}

func (r *BikeRepository) GetBikeByID(ctx context.Context, id int64) (*domain.InventoryBike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = $1`

	bike, err := scanBike(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("bike %d", id))
	}
	return bike, nil
}

func (r *BikeRepository) ListBikes(ctx context.Context, filter domain.BikeFilter) ([]*domain.InventoryBike, error) {
	var where []string
	var args []interface{}
	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		n := len(args)
		where = append(where, fmt.Sprintf("(ref_number ILIKE $%d OR (brand || ' ' || model) ILIKE $%d OR serial_number ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + bikeColumns + ` FROM bikes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ref_number DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list bikes")
	}
	defer rows.Close()

	bikes := []*domain.InventoryBike{}
	for rows.Next() {
		bike, err := scanBike(rows)
		if err != nil {
			return nil, mapError(err, "scan bike")
		}
		bikes = append(bikes, bike)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err, "list bikes")
	}
	return bikes, nil
}

func (r *BikeRepository) ListRefNumbers(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT ref_number FROM bikes`)
	if err != nil {
		return nil, mapError(err, "list ref numbers")
	}
	defer rows.Close()

	refs := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, mapError(err, "scan ref number")
		}
		refs = append(refs, ref)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err, "list ref numbers")
	}
	return refs, nil
}

// UpdateBike writes only the columns present in patch. Empty serial number
// and image URL become NULL. A status change never leaves Sold.
func (r *BikeRepository) UpdateBike(ctx context.Context, id int64, patch *domain.BikePatch) (*domain.InventoryBike, error) {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.SerialNumber != nil {
		set("serial_number", nullIfEmpty(*patch.SerialNumber))
	}
	if patch.Brand != nil {
		set("brand", *patch.Brand)
	}
	if patch.Model != nil {
		set("model", *patch.Model)
	}
	if patch.Type != nil {
		set("type", *patch.Type)
	}
	if patch.Size != nil {
		set("size", *patch.Size)
	}
	if patch.PurchasePrice != nil {
		set("purchase_price", *patch.PurchasePrice)
	}
	if patch.AdditionalCosts != nil {
		set("additional_costs", *patch.AdditionalCosts)
	}
	if patch.SellPrice != nil {
		set("sell_price", *patch.SellPrice)
	}
	if patch.Observations != nil {
		set("observations", *patch.Observations)
	}
	if patch.ImageURL != nil {
		set("image_url", nullIfEmpty(*patch.ImageURL))
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if len(sets) == 0 {
		return r.GetBikeByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE bikes SET ` + strings.Join(sets, ", ") + `, updated_at = CURRENT_TIMESTAMP
		WHERE id = $` + fmt.Sprint(len(args)) + ` AND deleted_at IS NULL`
	if patch.Status != nil {
		query += ` AND status <> 'Sold'`
	}
	query += ` RETURNING ` + bikeColumns

	bike, err := scanBike(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, r.explainMiss(ctx, id)
	}
	if err != nil {
		return nil, mapError(err, "update bike")
	}
	return bike, nil
}

// MarkBikeSold is a compare-and-swap on status: only Available or Reserved
// bikes are sold.
func (r *BikeRepository) MarkBikeSold(ctx context.Context, id int64, sale domain.SaleRecord) (*domain.InventoryBike, error) {
	query := `UPDATE bikes
		SET status = 'Sold',
			final_sell_price = $1,
			sold_date = $2,
			trade_in_bike_id = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND deleted_at IS NULL AND status IN ('Available', 'Reserved')
		RETURNING ` + bikeColumns

	bike, err := scanBike(conn(ctx, r.db).QueryRowContext(ctx, query,
		sale.FinalSellPrice,
		sale.SoldDate,
		sale.TradeInBikeID,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, r.explainMiss(ctx, id)
	}
	if err != nil {
		return nil, mapError(err, "mark bike sold")
	}
	return bike, nil
}

func (r *BikeRepository) TombstoneBike(ctx context.Context, id int64, at time.Time) (*domain.InventoryBike, error) {
	query := `UPDATE bikes
		SET serial_number = NULL,
			brand = '',
			model = '',
			size = '',
			purchase_price = 0,
			additional_costs = 0,
			sell_price = 0,
			observations = '',
			image_url = NULL,
			deleted_at = $1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING ` + bikeColumns

	bike, err := scanBike(conn(ctx, r.db).QueryRowContext(ctx, query, at, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("bike %d", id))
	}
	return bike, nil
}

// explainMiss tells a missing or deleted bike apart from a guarded write that
// lost against the bike's current status.
func (r *BikeRepository) explainMiss(ctx context.Context, id int64) error {
	bike, err := r.GetBikeByID(ctx, id)
	if err != nil {
		return err
	}
	if bike.IsDeleted() {
		return fmt.Errorf("%w: bike %d was deleted", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: bike %d is %s", domain.ErrInvalidTransition, id, bike.Status)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches v literally anywhere in an ILIKE operand.
func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}

func nullIfEmpty(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
