package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/finance"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
)

// BikeService is the inventory lifecycle engine.
type BikeService struct {
	bikeRepo       ports.BikeRepository
	settlementRepo ports.SettlementRepository
	tx             ports.Transactor
	images         ports.ImageStore
	logger         ports.LoggerPort
	validate       *validator.Validate
	metrics        ports.MetricsPort
	cache          *cacheStore
	now            func() time.Time
}

// NewBikeService wires the engine. tx may be nil, in which case Sell runs as
// a saga over the settlement log instead of a single transaction.
func NewBikeService(
	bikeRepo ports.BikeRepository,
	settlementRepo ports.SettlementRepository,
	tx ports.Transactor,
	images ports.ImageStore,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
	metrics ports.MetricsPort,
) *BikeService {
	return &BikeService{
		bikeRepo:       bikeRepo,
		settlementRepo: settlementRepo,
		tx:             tx,
		images:         images,
		logger:         logger,
		validate:       validate,
		metrics:        metrics,
		cache:          &cacheStore{cache: cache, logger: logger, ttl: DefaultCacheTTL},
		now:            time.Now,
	}
}

func (s *BikeService) WithCacheTTL(ttl time.Duration) *BikeService {
	if ttl > 0 {
		s.cache.ttl = ttl
	}
	return s
}

func (s *BikeService) NextRefNumber(ctx context.Context, auth *domain.TokenPayload) (string, error) {
	if err := authorize(auth, permCreate); err != nil {
		return "", err
	}
	return s.nextRef(ctx)
}

func (s *BikeService) nextRef(ctx context.Context) (string, error) {
	refs, err := s.bikeRepo.ListRefNumbers(ctx)
	if err != nil {
		s.logger.Error("Failed to list ref numbers", map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}
	return finance.NextInventoryRef(refs), nil
}

func (s *BikeService) CreateBike(ctx context.Context, auth *domain.TokenPayload, in *domain.BikeInput) (*domain.InventoryBike, error) {
	if err := authorize(auth, permCreate); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: empty bike", domain.ErrValidation)
	}
	if in.RefNumber == "" {
		ref, err := s.nextRef(ctx)
		if err != nil {
			return nil, err
		}
		in.RefNumber = ref
	}
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Bike validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, validationError(err)
	}

	now := s.now()
	bike := &domain.InventoryBike{
		RefNumber:     in.RefNumber,
		SerialNumber:  nonEmpty(in.SerialNumber),
		Brand:         in.Brand,
		Model:         in.Model,
		Type:          in.Type,
		Size:          in.Size,
		PurchasePrice: *in.PurchasePrice,
		SellPrice:     *in.SellPrice,
		Observations:  in.Observations,
		ImageURL:      nonEmpty(in.ImageURL),
		Status:        domain.StatusAvailable,
		EntryDate:     &now,
	}
	if in.AdditionalCosts != nil {
		bike.AdditionalCosts = *in.AdditionalCosts
	}

	created, err := s.bikeRepo.CreateBike(ctx, bike)
	if err != nil {
		s.logger.Error("Failed to create bike", map[string]interface{}{
			"error":      err.Error(),
			"ref_number": bike.RefNumber,
		})
		return nil, err
	}
	s.cache.invalidate(bikesCacheKey)

	s.logger.Info("Bike created successfully", map[string]interface{}{
		"bike_id":    created.ID,
		"ref_number": created.RefNumber,
	})

	return created, nil
}

// GetBikeByID also returns tombstoned bikes so trade-in links stay resolvable.
func (s *BikeService) GetBikeByID(ctx context.Context, auth *domain.TokenPayload, id int64) (*domain.InventoryBike, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}
	return s.getBike(ctx, id)
}

func (s *BikeService) getBike(ctx context.Context, id int64) (*domain.InventoryBike, error) {
	var cached domain.InventoryBike
	if s.cache.load(bikeCacheKey(id), &cached) {
		s.logger.Debug("Bike found in cache", map[string]interface{}{
			"bike_id": id,
		})
		return &cached, nil
	}

	bike, err := s.bikeRepo.GetBikeByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		return nil, err
	}
	s.cache.store(bikeCacheKey(id), bike)

	return bike, nil
}

// liveBike reads through to the store; mutations never trust the cache.
func (s *BikeService) liveBike(ctx context.Context, id int64) (*domain.InventoryBike, error) {
	bike, err := s.bikeRepo.GetBikeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bike.IsDeleted() {
		return nil, fmt.Errorf("%w: bike %d was deleted", domain.ErrNotFound, id)
	}
	return bike, nil
}

func (s *BikeService) ListBikes(ctx context.Context, auth *domain.TokenPayload, filter domain.BikeFilter) ([]*domain.InventoryBike, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrValidation, filter.Type)
	}

	bikes, err := s.bikeRepo.ListBikes(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list bikes", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return bikes, nil
}

// Snapshot returns every live bike, served from the collection cache when warm.
func (s *BikeService) Snapshot(ctx context.Context, auth *domain.TokenPayload) ([]*domain.InventoryBike, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}

	var cached []*domain.InventoryBike
	if s.cache.load(bikesCacheKey, &cached) {
		return cached, nil
	}

	bikes, err := s.bikeRepo.ListBikes(ctx, domain.BikeFilter{})
	if err != nil {
		s.logger.Error("Failed to load bikes", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	s.cache.store(bikesCacheKey, bikes)

	return bikes, nil
}

// UpdateBike applies a partial update. A status change in the patch follows
// the same rules as ChangeStatus; a replaced image is removed from the store.
func (s *BikeService) UpdateBike(ctx context.Context, auth *domain.TokenPayload, id int64, patch *domain.BikePatch) (*domain.InventoryBike, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	if patch == nil {
		patch = &domain.BikePatch{}
	}
	if err := s.validate.Struct(patch); err != nil {
		s.logger.Error("Bike validation failed", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		return nil, validationError(err)
	}
	if patch.ImageURL != nil && *patch.ImageURL != "" {
		if err := s.validate.Var(*patch.ImageURL, "url"); err != nil {
			return nil, fmt.Errorf("%w: imageUrl must be a URL", domain.ErrValidation)
		}
	}
	if patch.Status != nil {
		if err := checkStatusChange(*patch.Status); err != nil {
			return nil, err
		}
	}

	current, err := s.liveBike(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		return nil, err
	}
	if patch.Status != nil {
		if *patch.Status == current.Status {
			patch.Status = nil
		} else if current.Status == domain.StatusSold {
			return nil, fmt.Errorf("%w: bike %d is sold", domain.ErrInvalidTransition, id)
		}
	}
	if patch.Empty() {
		return current, nil
	}

	return s.applyPatch(ctx, current, patch)
}

func (s *BikeService) applyPatch(ctx context.Context, current *domain.InventoryBike, patch *domain.BikePatch) (*domain.InventoryBike, error) {
	updated, err := s.bikeRepo.UpdateBike(ctx, current.ID, patch)
	if err != nil {
		s.logger.Error("Failed to update bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": current.ID,
		})
		return nil, err
	}
	s.cache.invalidate(bikesCacheKey, bikeCacheKey(current.ID))

	if patch.ImageURL != nil && current.ImageURL != nil && *current.ImageURL != *patch.ImageURL {
		s.deleteImage(ctx, *current.ImageURL, current.ID)
	}

	s.logger.Info("Bike updated successfully", map[string]interface{}{
		"bike_id": current.ID,
	})

	return updated, nil
}

// ChangeStatus moves a bike between Available, Reserved and Unavailable.
// Sold is only reachable through SellBike.
func (s *BikeService) ChangeStatus(ctx context.Context, auth *domain.TokenPayload, id int64, status domain.BikeStatus) (*domain.InventoryBike, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	if err := checkStatusChange(status); err != nil {
		return nil, err
	}

	current, err := s.liveBike(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		return nil, err
	}
	if current.Status == domain.StatusSold {
		return nil, fmt.Errorf("%w: bike %d is sold", domain.ErrInvalidTransition, id)
	}
	if current.Status == status {
		return current, nil
	}

	return s.applyPatch(ctx, current, &domain.BikePatch{Status: &status})
}

func checkStatusChange(status domain.BikeStatus) error {
	if status == domain.StatusSold {
		return fmt.Errorf("%w: use the sell operation to mark a bike sold", domain.ErrInvalidTransition)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return nil
}

// DeleteBike tombstones the bike: business fields are cleared while id, ref
// number and trade-in links survive. The image is removed afterwards.
func (s *BikeService) DeleteBike(ctx context.Context, auth *domain.TokenPayload, id int64) error {
	if err := authorize(auth, permDelete); err != nil {
		return err
	}

	current, err := s.liveBike(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		return err
	}

	if _, err := s.bikeRepo.TombstoneBike(ctx, id, s.now()); err != nil {
		s.logger.Error("Failed to delete bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		return err
	}
	s.cache.invalidate(bikesCacheKey, bikeCacheKey(id))

	if current.ImageURL != nil {
		s.deleteImage(ctx, *current.ImageURL, id)
	}

	s.logger.Info("Bike deleted successfully", map[string]interface{}{
		"bike_id":    id,
		"ref_number": current.RefNumber,
	})

	return nil
}

// SetBikeImage uploads an already compressed image and points the bike at it.
func (s *BikeService) SetBikeImage(ctx context.Context, auth *domain.TokenPayload, id int64, data []byte, contentType string) (*domain.InventoryBike, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	current, err := s.liveBike(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, data, contentType)
	if err != nil {
		s.logger.Error("Failed to upload bike image", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": id,
		})
		return nil, err
	}

	updated, err := s.applyPatch(ctx, current, &domain.BikePatch{ImageURL: &url})
	if err != nil {
		s.deleteImage(ctx, url, id)
		return nil, err
	}
	return updated, nil
}

func (s *BikeService) deleteImage(ctx context.Context, url string, bikeID int64) {
	removed, err := s.images.Delete(ctx, url)
	if err != nil {
		s.logger.Warn("Failed to delete bike image", map[string]interface{}{
			"error":     err.Error(),
			"bike_id":   bikeID,
			"image_url": url,
		})
		return
	}
	if !removed {
		s.logger.Debug("Image not owned by store, skipped", map[string]interface{}{
			"bike_id":   bikeID,
			"image_url": url,
		})
	}
}

type BikeFinancials struct {
	BikeID    int64  `json:"bikeId"`
	RefNumber string `json:"refNumber"`
	finance.Breakdown
	FinalSellPrice    *int64  `json:"finalSellPrice"`
	TotalCostLabel    string  `json:"totalCostLabel"`
	ProfitLabel       string  `json:"profitLabel"`
	FinalSellLabel    string  `json:"finalSellLabel"`
	TradeInBikeRef    *string `json:"tradeInBikeRef"`
	TradeInForBikeRef *string `json:"tradeInForBikeRef"`
}

func (s *BikeService) GetFinancials(ctx context.Context, auth *domain.TokenPayload, id int64) (*BikeFinancials, error) {
	bike, err := s.GetBikeByID(ctx, auth, id)
	if err != nil {
		return nil, err
	}

	breakdown := finance.BreakdownFor(bike)
	totalCost := breakdown.TotalCost
	out := &BikeFinancials{
		BikeID:         bike.ID,
		RefNumber:      bike.RefNumber,
		Breakdown:      breakdown,
		FinalSellPrice: bike.FinalSellPrice,
		TotalCostLabel: finance.FormatCurrency(&totalCost),
		ProfitLabel:    finance.FormatCurrency(breakdown.Profit),
		FinalSellLabel: finance.FormatCurrency(bike.FinalSellPrice),
	}
	out.TradeInBikeRef = s.partnerRef(ctx, bike.TradeInBikeID)
	out.TradeInForBikeRef = s.partnerRef(ctx, bike.TradeInForBikeID)

	return out, nil
}

func (s *BikeService) partnerRef(ctx context.Context, id *int64) *string {
	if id == nil {
		return nil
	}
	partner, err := s.getBike(ctx, *id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Failed to resolve trade-in partner", map[string]interface{}{
				"error":   err.Error(),
				"bike_id": *id,
			})
		}
		return nil
	}
	return &partner.RefNumber
}

func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
