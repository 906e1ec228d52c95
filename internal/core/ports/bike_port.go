package ports

import (
	"context"
	"time"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

//go:generate mockgen -destination=mock/bike_repository.go -package=mock . BikeRepository

// BikeRepository is the record store for the bikes collection.
type BikeRepository interface {
	CreateBike(ctx context.Context, bike *domain.InventoryBike) (*domain.InventoryBike, error)
	GetBikeByID(ctx context.Context, id int64) (*domain.InventoryBike, error)
	ListBikes(ctx context.Context, filter domain.BikeFilter) ([]*domain.InventoryBike, error)
	// ListRefNumbers returns every ref number ever assigned, tombstones included.
	ListRefNumbers(ctx context.Context) ([]string, error)
	UpdateBike(ctx context.Context, id int64, patch *domain.BikePatch) (*domain.InventoryBike, error)
	// MarkBikeSold only succeeds while the bike is Available or Reserved.
	MarkBikeSold(ctx context.Context, id int64, sale domain.SaleRecord) (*domain.InventoryBike, error)
	TombstoneBike(ctx context.Context, id int64, at time.Time) (*domain.InventoryBike, error)
}
