package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

type SettlementRepository interface {
	CreateSettlement(ctx context.Context, settlement *domain.Settlement) (*domain.Settlement, error)
	GetSettlementByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error)
	GetSettlementByKey(ctx context.Context, key string) (*domain.Settlement, error)
	UpdateSettlement(ctx context.Context, settlement *domain.Settlement) (*domain.Settlement, error)
	ListSettlements(ctx context.Context, status domain.SettlementStatus) ([]*domain.Settlement, error)
}

// Transactor runs fn inside one storage transaction. Repositories called with
// the ctx handed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
