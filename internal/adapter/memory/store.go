// Package memory is a process-local record store used for development and
// tests. It honours the same contracts as the postgres adapter, including
// the conditional status writes.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

type Store struct {
	mu          sync.RWMutex
	bikes       map[int64]*domain.InventoryBike
	loaners     map[int64]*domain.LoanerBike
	settlements map[uuid.UUID]*domain.Settlement
	nextBikeID  int64
	nextLoaner  int64
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		bikes:       map[int64]*domain.InventoryBike{},
		loaners:     map[int64]*domain.LoanerBike{},
		settlements: map[uuid.UUID]*domain.Settlement{},
		now:         time.Now,
	}
}

func (s *Store) CreateBike(ctx context.Context, bike *domain.InventoryBike) (*domain.InventoryBike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bikes {
		if b.RefNumber == bike.RefNumber {
			return nil, fmt.Errorf("%w: ref number %s already exists", domain.ErrConflict, bike.RefNumber)
		}
	}

	s.nextBikeID++
	stored := cloneBike(bike)
	stored.ID = s.nextBikeID
	stored.UpdatedAt = s.now()
	s.bikes[stored.ID] = stored

	return cloneBike(stored), nil
}

func (s *Store) GetBikeByID(ctx context.Context, id int64) (*domain.InventoryBike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bikes[id]
	if !ok {
		return nil, fmt.Errorf("%w: bike %d", domain.ErrNotFound, id)
	}
	return cloneBike(b), nil
}

// ListBikes orders by ref number, newest first.
func (s *Store) ListBikes(ctx context.Context, filter domain.BikeFilter) ([]*domain.InventoryBike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.InventoryBike{}
	for _, b := range s.bikes {
		if filter.Matches(b) {
			out = append(out, cloneBike(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RefNumber > out[j].RefNumber })
	return out, nil
}

func (s *Store) ListRefNumbers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]string, 0, len(s.bikes))
	for _, b := range s.bikes {
		refs = append(refs, b.RefNumber)
	}
	return refs, nil
}

func (s *Store) UpdateBike(ctx context.Context, id int64, patch *domain.BikePatch) (*domain.InventoryBike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bikes[id]
	if !ok || b.IsDeleted() {
		return nil, fmt.Errorf("%w: bike %d", domain.ErrNotFound, id)
	}
	if patch.Status != nil && b.Status == domain.StatusSold && *patch.Status != domain.StatusSold {
		return nil, fmt.Errorf("%w: bike %d is sold", domain.ErrInvalidTransition, id)
	}

	if patch.SerialNumber != nil {
		b.SerialNumber = optional(*patch.SerialNumber)
	}
	if patch.Brand != nil {
		b.Brand = *patch.Brand
	}
	if patch.Model != nil {
		b.Model = *patch.Model
	}
	if patch.Type != nil {
		b.Type = *patch.Type
	}
	if patch.Size != nil {
		b.Size = *patch.Size
	}
	if patch.PurchasePrice != nil {
		b.PurchasePrice = *patch.PurchasePrice
	}
	if patch.AdditionalCosts != nil {
		b.AdditionalCosts = *patch.AdditionalCosts
	}
	if patch.SellPrice != nil {
		b.SellPrice = *patch.SellPrice
	}
	if patch.Observations != nil {
		b.Observations = *patch.Observations
	}
	if patch.ImageURL != nil {
		b.ImageURL = optional(*patch.ImageURL)
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	b.UpdatedAt = s.now()

	return cloneBike(b), nil
}

func (s *Store) MarkBikeSold(ctx context.Context, id int64, sale domain.SaleRecord) (*domain.InventoryBike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bikes[id]
	if !ok || b.IsDeleted() {
		return nil, fmt.Errorf("%w: bike %d", domain.ErrNotFound, id)
	}
	if !b.InStock() {
		return nil, fmt.Errorf("%w: bike %d is %s", domain.ErrInvalidTransition, id, b.Status)
	}

	price := sale.FinalSellPrice
	soldDate := sale.SoldDate
	b.Status = domain.StatusSold
	b.FinalSellPrice = &price
	b.SoldDate = &soldDate
	b.TradeInBikeID = copyID(sale.TradeInBikeID)
	b.UpdatedAt = s.now()

	return cloneBike(b), nil
}

func (s *Store) TombstoneBike(ctx context.Context, id int64, at time.Time) (*domain.InventoryBike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bikes[id]
	if !ok || b.IsDeleted() {
		return nil, fmt.Errorf("%w: bike %d", domain.ErrNotFound, id)
	}

	deleted := at
	b.SerialNumber = nil
	b.Brand = ""
	b.Model = ""
	b.Size = ""
	b.PurchasePrice = 0
	b.AdditionalCosts = 0
	b.SellPrice = 0
	b.Observations = ""
	b.ImageURL = nil
	b.DeletedAt = &deleted
	b.UpdatedAt = s.now()

	return cloneBike(b), nil
}

func (s *Store) CreateLoanerBike(ctx context.Context, bike *domain.LoanerBike) (*domain.LoanerBike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.loaners {
		if b.RefNumber == bike.RefNumber {
			return nil, fmt.Errorf("%w: ref number %s already exists", domain.ErrConflict, bike.RefNumber)
		}
	}

	s.nextLoaner++
	stored := cloneLoaner(bike)
	stored.ID = s.nextLoaner
	stored.UpdatedAt = s.now()
	s.loaners[stored.ID] = stored

	return cloneLoaner(stored), nil
}

func (s *Store) GetLoanerBikeByID(ctx context.Context, id int64) (*domain.LoanerBike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.loaners[id]
	if !ok {
		return nil, fmt.Errorf("%w: loaner bike %d", domain.ErrNotFound, id)
	}
	return cloneLoaner(b), nil
}

// ListLoanerBikes returns the requested page and the unpaged total. A zero
// PageSize returns every match.
func (s *Store) ListLoanerBikes(ctx context.Context, filter domain.LoanerFilter) ([]*domain.LoanerBike, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []*domain.LoanerBike{}
	for _, b := range s.loaners {
		if filter.Matches(b) {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RefNumber > all[j].RefNumber })

	total := len(all)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start > total {
			start = total
		}
		end := start + filter.PageSize
		if end > total {
			end = total
		}
		all = all[start:end]
	}

	out := make([]*domain.LoanerBike, 0, len(all))
	for _, b := range all {
		out = append(out, cloneLoaner(b))
	}
	return out, total, nil
}

func (s *Store) ListLoanerRefNumbers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]string, 0, len(s.loaners))
	for _, b := range s.loaners {
		refs = append(refs, b.RefNumber)
	}
	return refs, nil
}

func (s *Store) UpdateLoanerBike(ctx context.Context, id int64, patch *domain.LoanerBikePatch) (*domain.LoanerBike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.loaners[id]
	if !ok {
		return nil, fmt.Errorf("%w: loaner bike %d", domain.ErrNotFound, id)
	}
	if patch.SerialNumber != nil {
		b.SerialNumber = optional(*patch.SerialNumber)
	}
	if patch.Brand != nil {
		b.Brand = *patch.Brand
	}
	if patch.Model != nil {
		b.Model = *patch.Model
	}
	if patch.Size != nil {
		b.Size = *patch.Size
	}
	if patch.Observations != nil {
		b.Observations = *patch.Observations
	}
	if patch.ImageURL != nil {
		b.ImageURL = optional(*patch.ImageURL)
	}
	b.UpdatedAt = s.now()

	return cloneLoaner(b), nil
}

func (s *Store) SetLoanerStatus(ctx context.Context, id int64, expected, status domain.LoanerStatus, details *domain.LoanDetails) (*domain.LoanerBike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.loaners[id]
	if !ok {
		return nil, fmt.Errorf("%w: loaner bike %d", domain.ErrNotFound, id)
	}
	if b.Status != expected {
		return nil, fmt.Errorf("%w: loaner bike %d is %s", domain.ErrInvalidTransition, id, b.Status)
	}

	b.Status = status
	b.LoanDetails = nil
	if details != nil {
		d := *details
		b.LoanDetails = &d
	}
	b.UpdatedAt = s.now()

	return cloneLoaner(b), nil
}

func (s *Store) DeleteLoanerBike(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loaners[id]; !ok {
		return fmt.Errorf("%w: loaner bike %d", domain.ErrNotFound, id)
	}
	delete(s.loaners, id)
	return nil
}

func (s *Store) CreateSettlement(ctx context.Context, st *domain.Settlement) (*domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.settlements {
		if existing.IdempotencyKey == st.IdempotencyKey {
			return nil, fmt.Errorf("%w: idempotency key %s already used", domain.ErrConflict, st.IdempotencyKey)
		}
	}
	if _, ok := s.settlements[st.ID]; ok {
		return nil, fmt.Errorf("%w: settlement %s already exists", domain.ErrConflict, st.ID)
	}

	stored := cloneSettlement(st)
	s.settlements[st.ID] = stored
	return cloneSettlement(stored), nil
}

func (s *Store) GetSettlementByID(ctx context.Context, id uuid.UUID) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settlements[id]
	if !ok {
		return nil, fmt.Errorf("%w: settlement %s", domain.ErrNotFound, id)
	}
	return cloneSettlement(st), nil
}

func (s *Store) GetSettlementByKey(ctx context.Context, key string) (*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.settlements {
		if st.IdempotencyKey == key {
			return cloneSettlement(st), nil
		}
	}
	return nil, fmt.Errorf("%w: settlement with key %s", domain.ErrNotFound, key)
}

func (s *Store) UpdateSettlement(ctx context.Context, st *domain.Settlement) (*domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settlements[st.ID]; !ok {
		return nil, fmt.Errorf("%w: settlement %s", domain.ErrNotFound, st.ID)
	}
	stored := cloneSettlement(st)
	s.settlements[st.ID] = stored
	return cloneSettlement(stored), nil
}

// ListSettlements orders by creation time, newest first.
func (s *Store) ListSettlements(ctx context.Context, status domain.SettlementStatus) ([]*domain.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Settlement{}
	for _, st := range s.settlements {
		if status == "" || st.Status == status {
			out = append(out, cloneSettlement(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func cloneBike(b *domain.InventoryBike) *domain.InventoryBike {
	c := *b
	c.SerialNumber = copyString(b.SerialNumber)
	c.ImageURL = copyString(b.ImageURL)
	c.FinalSellPrice = copyID(b.FinalSellPrice)
	c.TradeInBikeID = copyID(b.TradeInBikeID)
	c.TradeInForBikeID = copyID(b.TradeInForBikeID)
	c.SoldDate = copyTime(b.SoldDate)
	c.EntryDate = copyTime(b.EntryDate)
	c.DeletedAt = copyTime(b.DeletedAt)
	return &c
}

func cloneLoaner(b *domain.LoanerBike) *domain.LoanerBike {
	c := *b
	c.SerialNumber = copyString(b.SerialNumber)
	c.ImageURL = copyString(b.ImageURL)
	c.EntryDate = copyTime(b.EntryDate)
	if b.LoanDetails != nil {
		d := *b.LoanDetails
		c.LoanDetails = &d
	}
	return &c
}

func cloneSettlement(st *domain.Settlement) *domain.Settlement {
	c := *st
	c.TradeInBikeID = copyID(st.TradeInBikeID)
	return &c
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyID(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
