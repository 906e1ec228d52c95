package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

const loanerColumns = `id, ref_number, serial_number, brand, model, size, observations,
	image_url, status, entry_date, loan_details, updated_at`

type LoanerRepository struct {
	db *sql.DB
}

func NewLoanerRepository(db *sql.DB) *LoanerRepository {
	return &LoanerRepository{db: db}
}

func scanLoaner(row rowScanner) (*domain.LoanerBike, error) {
	bike := &domain.LoanerBike{}
	var details []byte
	err := row.Scan(
		&bike.ID,
		&bike.RefNumber,
		&bike.SerialNumber,
		&bike.Brand,
		&bike.Model,
		&bike.Size,
		&bike.Observations,
		&bike.ImageURL,
		&bike.Status,
		&bike.EntryDate,
		&details,
		&bike.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 && string(details) != "null" {
		bike.LoanDetails = &domain.LoanDetails{}
		if err := json.Unmarshal(details, bike.LoanDetails); err != nil {
			return nil, fmt.Errorf("decode loan details of loaner %d: %w", bike.ID, err)
		}
	}
	return bike, nil
}

func (r *LoanerRepository) CreateLoanerBike(ctx context.Context, bike *domain.LoanerBike) (*domain.LoanerBike, error) {
	query := `INSERT INTO loaner_bikes (ref_number, serial_number, brand, model, size,
		observations, image_url, status, entry_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING ` + loanerColumns

	created, err := scanLoaner(conn(ctx, r.db).QueryRowContext(ctx, query,
		bike.RefNumber,
		bike.SerialNumber,
		bike.Brand,
		bike.Model,
		bike.Size,
		bike.Observations,
		bike.ImageURL,
		bike.Status,
		bike.EntryDate,
	))
	if err != nil {
		return nil, mapError(err, "create loaner bike")
	}
	return created, nil
}

func (r *LoanerRepository) GetLoanerBikeByID(ctx context.Context, id int64) (*domain.LoanerBike, error) {
	query := `SELECT ` + loanerColumns + ` FROM loaner_bikes WHERE id = $1`

	bike, err := scanLoaner(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("loaner bike %d", id))
	}
	return bike, nil
}

// ListLoanerBikes returns the requested page and the unpaged total. A zero
// PageSize returns every match.
func (r *LoanerRepository) ListLoanerBikes(ctx context.Context, filter domain.LoanerFilter) ([]*domain.LoanerBike, int, error) {
	var where []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, containsPattern(filter.Search))
		n := len(args)
		where = append(where, fmt.Sprintf("(ref_number ILIKE $%d OR (brand || ' ' || model) ILIKE $%d OR serial_number ILIKE $%d)", n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = ` WHERE ` + strings.Join(where, " AND ")
	}

	q := conn(ctx, r.db)
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM loaner_bikes`+clause, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "count loaner bikes")
	}

	query := `SELECT ` + loanerColumns + ` FROM loaner_bikes` + clause + ` ORDER BY ref_number DESC`
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "list loaner bikes")
	}
	defer rows.Close()

	bikes := []*domain.LoanerBike{}
	for rows.Next() {
		bike, err := scanLoaner(rows)
		if err != nil {
			return nil, 0, mapError(err, "scan loaner bike")
		}
		bikes = append(bikes, bike)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, mapError(err, "list loaner bikes")
	}
	return bikes, total, nil
}

func (r *LoanerRepository) ListLoanerRefNumbers(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT ref_number FROM loaner_bikes`)
	if err != nil {
		return nil, mapError(err, "list loaner ref numbers")
	}
	defer rows.Close()

	refs := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, mapError(err, "scan loaner ref number")
		}
		refs = append(refs, ref)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(err, "list loaner ref numbers")
	}
	return refs, nil
}

func (r *LoanerRepository) UpdateLoanerBike(ctx context.Context, id int64, patch *domain.LoanerBikePatch) (*domain.LoanerBike, error) {
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
	if patch.Size != nil {
		set("size", *patch.Size)
	}
	if patch.Observations != nil {
		set("observations", *patch.Observations)
	}
	if patch.ImageURL != nil {
		set("image_url", nullIfEmpty(*patch.ImageURL))
	}
	if len(sets) == 0 {
		return r.GetLoanerBikeByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE loaner_bikes SET ` + strings.Join(sets, ", ") + `, updated_at = CURRENT_TIMESTAMP
		WHERE id = $` + fmt.Sprint(len(args)) + ` RETURNING ` + loanerColumns

	bike, err := scanLoaner(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("loaner bike %d", id))
	}
	return bike, nil
}

// SetLoanerStatus only writes when the current status equals expected.
func (r *LoanerRepository) SetLoanerStatus(ctx context.Context, id int64, expected, status domain.LoanerStatus, details *domain.LoanDetails) (*domain.LoanerBike, error) {
	var payload interface{}
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("encode loan details: %w", err)
		}
		payload = string(data)
	}

	query := `UPDATE loaner_bikes
		SET status = $1,
			loan_details = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4
		RETURNING ` + loanerColumns

	bike, err := scanLoaner(conn(ctx, r.db).QueryRowContext(ctx, query, status, payload, id, expected))
	if err == sql.ErrNoRows {
		current, getErr := r.GetLoanerBikeByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: loaner bike %d is %s", domain.ErrInvalidTransition, id, current.Status)
	}
	if err != nil {
		return nil, mapError(err, "set loaner status")
	}
	return bike, nil
}

func (r *LoanerRepository) DeleteLoanerBike(ctx context.Context, id int64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM loaner_bikes WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete loaner bike")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, "delete loaner bike")
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: loaner bike %d", domain.ErrNotFound, id)
	}
	return nil
}
