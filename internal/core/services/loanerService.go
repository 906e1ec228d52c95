package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/finance"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
)

const (
	DefaultLoanerPageSize = 10
	MaxLoanerPageSize     = 100
)

// LoanerService is the loaner lifecycle engine.
type LoanerService struct {
	loanerRepo ports.LoanerRepository
	images     ports.ImageStore
	logger     ports.LoggerPort
	validate   *validator.Validate
	cache      *cacheStore
	now        func() time.Time
}

func NewLoanerService(
	loanerRepo ports.LoanerRepository,
	images ports.ImageStore,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
) *LoanerService {
	return &LoanerService{
		loanerRepo: loanerRepo,
		images:     images,
		logger:     logger,
		validate:   validate,
		cache:      &cacheStore{cache: cache, logger: logger, ttl: DefaultCacheTTL},
		now:        time.Now,
	}
}

func (s *LoanerService) WithCacheTTL(ttl time.Duration) *LoanerService {
	if ttl > 0 {
		s.cache.ttl = ttl
	}
	return s
}

func (s *LoanerService) NextRefNumber(ctx context.Context, auth *domain.TokenPayload) (string, error) {
	if err := authorize(auth, permCreate); err != nil {
		return "", err
	}
	return s.nextRef(ctx)
}

func (s *LoanerService) nextRef(ctx context.Context) (string, error) {
	refs, err := s.loanerRepo.ListLoanerRefNumbers(ctx)
	if err != nil {
		s.logger.Error("Failed to list loaner ref numbers", map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}
	return finance.NextLoanerRef(refs), nil
}

func (s *LoanerService) CreateLoanerBike(ctx context.Context, auth *domain.TokenPayload, in *domain.LoanerBikeInput) (*domain.LoanerBike, error) {
	if err := authorize(auth, permCreate); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: empty loaner bike", domain.ErrValidation)
	}
	if in.RefNumber == "" {
		ref, err := s.nextRef(ctx)
		if err != nil {
			return nil, err
		}
		in.RefNumber = ref
	}
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Loaner bike validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, validationError(err)
	}

	now := s.now()
	created, err := s.loanerRepo.CreateLoanerBike(ctx, &domain.LoanerBike{
		RefNumber:    in.RefNumber,
		SerialNumber: nonEmpty(in.SerialNumber),
		Brand:        in.Brand,
		Model:        in.Model,
		Size:         in.Size,
		Observations: in.Observations,
		ImageURL:     nonEmpty(in.ImageURL),
		Status:       domain.LoanerAvailable,
		EntryDate:    &now,
	})
	if err != nil {
		s.logger.Error("Failed to create loaner bike", map[string]interface{}{
			"error":      err.Error(),
			"ref_number": in.RefNumber,
		})
		return nil, err
	}
	s.cache.invalidate(loanersCacheKey)

	s.logger.Info("Loaner bike created successfully", map[string]interface{}{
		"loaner_id":  created.ID,
		"ref_number": created.RefNumber,
	})

	return created, nil
}

func (s *LoanerService) GetLoanerBikeByID(ctx context.Context, auth *domain.TokenPayload, id int64) (*domain.LoanerBike, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}

	var cached domain.LoanerBike
	if s.cache.load(loanerCacheKey(id), &cached) {
		return &cached, nil
	}

	bike, err := s.loanerRepo.GetLoanerBikeByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, err
	}
	s.cache.store(loanerCacheKey(id), bike)

	return bike, nil
}

// ListLoanerBikes returns one page of loaners; page numbering starts at 1.
func (s *LoanerService) ListLoanerBikes(ctx context.Context, auth *domain.TokenPayload, filter domain.LoanerFilter) (*domain.LoanerPage, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = DefaultLoanerPageSize
	}
	if filter.PageSize > MaxLoanerPageSize {
		filter.PageSize = MaxLoanerPageSize
	}

	bikes, total, err := s.loanerRepo.ListLoanerBikes(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list loaner bikes", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	return domain.NewLoanerPage(bikes, total, filter.Page, filter.PageSize), nil
}

// Snapshot returns every loaner, served from the collection cache when warm.
func (s *LoanerService) Snapshot(ctx context.Context, auth *domain.TokenPayload) ([]*domain.LoanerBike, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}

	var cached []*domain.LoanerBike
	if s.cache.load(loanersCacheKey, &cached) {
		return cached, nil
	}

	bikes, _, err := s.loanerRepo.ListLoanerBikes(ctx, domain.LoanerFilter{})
	if err != nil {
		s.logger.Error("Failed to load loaner bikes", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	s.cache.store(loanersCacheKey, bikes)

	return bikes, nil
}

func (s *LoanerService) UpdateLoanerBike(ctx context.Context, auth *domain.TokenPayload, id int64, patch *domain.LoanerBikePatch) (*domain.LoanerBike, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	if patch == nil {
		patch = &domain.LoanerBikePatch{}
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}
	if patch.ImageURL != nil && *patch.ImageURL != "" {
		if err := s.validate.Var(*patch.ImageURL, "url"); err != nil {
			return nil, fmt.Errorf("%w: imageUrl must be a URL", domain.ErrValidation)
		}
	}

	current, err := s.loanerRepo.GetLoanerBikeByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	return s.applyPatch(ctx, current, patch)
}

func (s *LoanerService) applyPatch(ctx context.Context, current *domain.LoanerBike, patch *domain.LoanerBikePatch) (*domain.LoanerBike, error) {
	updated, err := s.loanerRepo.UpdateLoanerBike(ctx, current.ID, patch)
	if err != nil {
		s.logger.Error("Failed to update loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": current.ID,
		})
		return nil, err
	}
	s.cache.invalidate(loanersCacheKey, loanerCacheKey(current.ID))

	if patch.ImageURL != nil && current.ImageURL != nil && *current.ImageURL != *patch.ImageURL {
		s.deleteImage(ctx, *current.ImageURL, current.ID)
	}

	s.logger.Info("Loaner bike updated successfully", map[string]interface{}{
		"loaner_id": current.ID,
	})

	return updated, nil
}

// LoanOrRent hands an Available loaner over. The status write is conditional
// on the bike still being Available, so two concurrent loans cannot both win.
func (s *LoanerService) LoanOrRent(ctx context.Context, auth *domain.TokenPayload, id int64, details *domain.LoanDetails) (*domain.LoanerBike, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	if details == nil {
		return nil, fmt.Errorf("%w: loan details are required", domain.ErrValidation)
	}
	if err := s.validate.Struct(details); err != nil {
		s.logger.Error("Loan details validation failed", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, validationError(err)
	}

	current, err := s.loanerRepo.GetLoanerBikeByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, err
	}
	if current.Status != domain.LoanerAvailable {
		return nil, fmt.Errorf("%w: loaner %d is %s", domain.ErrInvalidTransition, id, current.Status)
	}

	handover := *details
	handover.Normalize()
	handover.StartDate = s.now()
	status := handover.LoanType.StatusFor()

	updated, err := s.loanerRepo.SetLoanerStatus(ctx, id, domain.LoanerAvailable, status, &handover)
	if err != nil {
		s.logger.Error("Failed to hand over loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, err
	}
	s.cache.invalidate(loanersCacheKey, loanerCacheKey(id))

	s.logger.Info("Loaner bike handed over", map[string]interface{}{
		"loaner_id": id,
		"status":    status,
		"loan_type": handover.LoanType,
	})

	return updated, nil
}

// ReturnLoanerBike makes the bike Available again. Returning an Available
// bike is a no-op that answers with its current state.
func (s *LoanerService) ReturnLoanerBike(ctx context.Context, auth *domain.TokenPayload, id int64) (*domain.LoanerBike, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}

	current, err := s.loanerRepo.GetLoanerBikeByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, err
	}
	if current.Status == domain.LoanerAvailable {
		return current, nil
	}

	updated, err := s.loanerRepo.SetLoanerStatus(ctx, id, current.Status, domain.LoanerAvailable, nil)
	if err != nil {
		s.logger.Error("Failed to return loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, err
	}
	s.cache.invalidate(loanersCacheKey, loanerCacheKey(id))

	s.logger.Info("Loaner bike returned", map[string]interface{}{
		"loaner_id": id,
	})

	return updated, nil
}

func (s *LoanerService) DeleteLoanerBike(ctx context.Context, auth *domain.TokenPayload, id int64) error {
	if err := authorize(auth, permDelete); err != nil {
		return err
	}

	current, err := s.loanerRepo.GetLoanerBikeByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return err
	}

	if err := s.loanerRepo.DeleteLoanerBike(ctx, id); err != nil {
		s.logger.Error("Failed to delete loaner bike", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return err
	}
	s.cache.invalidate(loanersCacheKey, loanerCacheKey(id))

	if current.ImageURL != nil {
		s.deleteImage(ctx, *current.ImageURL, id)
	}

	s.logger.Info("Loaner bike deleted successfully", map[string]interface{}{
		"loaner_id":  id,
		"ref_number": current.RefNumber,
	})

	return nil
}

func (s *LoanerService) SetLoanerImage(ctx context.Context, auth *domain.TokenPayload, id int64, data []byte, contentType string) (*domain.LoanerBike, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	current, err := s.loanerRepo.GetLoanerBikeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, data, contentType)
	if err != nil {
		s.logger.Error("Failed to upload loaner image", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
		})
		return nil, err
	}

	updated, err := s.applyPatch(ctx, current, &domain.LoanerBikePatch{ImageURL: &url})
	if err != nil {
		s.deleteImage(ctx, url, id)
		return nil, err
	}
	return updated, nil
}

func (s *LoanerService) deleteImage(ctx context.Context, url string, id int64) {
	if _, err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn("Failed to delete loaner image", map[string]interface{}{
			"error":     err.Error(),
			"loaner_id": id,
			"image_url": url,
		})
	}
}
