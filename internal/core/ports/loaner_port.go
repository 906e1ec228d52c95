package ports

import (
	"context"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

// LoanerRepository is the record store for the loaner_bikes collection.
type LoanerRepository interface {
	CreateLoanerBike(ctx context.Context, bike *domain.LoanerBike) (*domain.LoanerBike, error)
	GetLoanerBikeByID(ctx context.Context, id int64) (*domain.LoanerBike, error)
	ListLoanerBikes(ctx context.Context, filter domain.LoanerFilter) ([]*domain.LoanerBike, int, error)
	ListLoanerRefNumbers(ctx context.Context) ([]string, error)
	UpdateLoanerBike(ctx context.Context, id int64, patch *domain.LoanerBikePatch) (*domain.LoanerBike, error)
	// SetLoanerStatus writes status and details only if the current status equals expected.
	SetLoanerStatus(ctx context.Context, id int64, expected, status domain.LoanerStatus, details *domain.LoanDetails) (*domain.LoanerBike, error)
	DeleteLoanerBike(ctx context.Context, id int64) error
}
