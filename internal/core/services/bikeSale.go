package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/finance"
)

const (
	tradeInRefAttempts = 3

	interruptedReason = "sale interrupted after the trade-in bike was created"
)

// SellBike settles a sale. With a Transactor the trade-in bike, the sold bike
// and the settlement row are written in one transaction. Without one the
// settlement row tracks progress and a failure after the trade-in bike exists
// is returned as *domain.PartialFailureError.
//
// Requests carrying an idempotency key that already completed return the
// stored outcome with Replayed set and write nothing.
func (s *BikeService) SellBike(ctx context.Context, auth *domain.TokenPayload, req *domain.SaleRequest) (*domain.SaleResult, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	if err := s.validateSale(req); err != nil {
		s.logger.Error("Sale validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}

	previous, err := s.settlementRepo.GetSettlementByKey(ctx, req.IdempotencyKey)
	switch {
	case err == nil:
		if result, err := s.replaySettlement(ctx, req, previous); result != nil || err != nil {
			return result, err
		}
	case errors.Is(err, domain.ErrNotFound):
		previous = nil
	default:
		s.logger.Error("Failed to look up settlement", map[string]interface{}{
			"error":           err.Error(),
			"idempotency_key": req.IdempotencyKey,
		})
		return nil, err
	}

	bike, err := s.liveBike(ctx, req.BikeID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": req.BikeID,
		})
		return nil, err
	}
	if !bike.InStock() {
		return nil, fmt.Errorf("%w: bike %d is %s", domain.ErrInvalidTransition, bike.ID, bike.Status)
	}

	st := s.newSettlement(req, previous)

	var result *domain.SaleResult
	if s.tx != nil {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.saveSettlement(ctx, st, previous != nil); err != nil {
				return err
			}
			var err error
			result, err = s.settle(ctx, req, st, true)
			if err != nil {
				return err
			}
			st.Status = domain.SettlementCompleted
			st.UpdatedAt = s.now()
			_, err = s.settlementRepo.UpdateSettlement(ctx, st)
			return err
		})
	} else {
		result, err = s.settleSaga(ctx, req, st, previous != nil)
	}
	s.cache.invalidate(bikesCacheKey, bikeCacheKey(req.BikeID))

	if err != nil {
		outcome := string(domain.SettlementFailed)
		var partial *domain.PartialFailureError
		if errors.As(err, &partial) {
			outcome = string(domain.SettlementNeedsReconciliation)
		}
		s.metrics.RecordSettlement(string(req.SaleType), outcome)
		s.logger.Error("Failed to sell bike", map[string]interface{}{
			"error":         err.Error(),
			"bike_id":       req.BikeID,
			"settlement_id": st.ID.String(),
		})
		return nil, err
	}

	result.Settlement = st
	s.metrics.RecordSettlement(string(req.SaleType), string(domain.SettlementCompleted))
	s.logger.Info("Bike sold successfully", map[string]interface{}{
		"bike_id":          req.BikeID,
		"sale_type":        req.SaleType,
		"final_sell_price": st.FinalSellPrice,
		"settlement_id":    st.ID.String(),
	})

	return result, nil
}

func (s *BikeService) validateSale(req *domain.SaleRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty sale", domain.ErrValidation)
	}
	if err := s.validate.Struct(req); err != nil {
		return validationError(err)
	}
	switch {
	case req.SaleType == domain.SaleTradeIn && req.TradeIn == nil:
		return fmt.Errorf("%w: trade-in details are required for a trade-in sale", domain.ErrValidation)
	case req.SaleType == domain.SaleCash && req.TradeIn != nil:
		return fmt.Errorf("%w: a cash sale takes no trade-in details", domain.ErrValidation)
	}
	return nil
}

// replaySettlement decides what a known idempotency key means. A nil result
// and nil error tell the caller to run the sale again on the same row.
func (s *BikeService) replaySettlement(ctx context.Context, req *domain.SaleRequest, st *domain.Settlement) (*domain.SaleResult, error) {
	if st.BikeID != req.BikeID {
		return nil, fmt.Errorf("%w: idempotency key already used for bike %d", domain.ErrConflict, st.BikeID)
	}

	switch st.Status {
	case domain.SettlementCompleted, domain.SettlementResolved:
		result, err := s.loadSaleResult(ctx, st)
		if err != nil {
			return nil, err
		}
		result.Replayed = true
		s.metrics.RecordSettlement(string(st.SaleType), "replayed")
		s.logger.Info("Replayed settled sale", map[string]interface{}{
			"bike_id":       st.BikeID,
			"settlement_id": st.ID.String(),
		})
		return result, nil
	case domain.SettlementNeedsReconciliation:
		return nil, s.partialFailure(ctx, st, errors.New(st.FailureReason))
	case domain.SettlementPending:
		if st.TradeInBikeID != nil {
			s.markInterrupted(ctx, st)
			return nil, s.partialFailure(ctx, st, errors.New(st.FailureReason))
		}
		// nothing was written for this key, the sold bike is checked again
		return nil, nil
	case domain.SettlementFailed:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: settlement %s is %s", domain.ErrConflict, st.ID, st.Status)
	}
}

// markInterrupted moves a pending settlement that already owns a trade-in
// bike to needs_reconciliation. A failed write is logged and the settlement
// is still handled as needing reconciliation.
func (s *BikeService) markInterrupted(ctx context.Context, st *domain.Settlement) {
	st.Status = domain.SettlementNeedsReconciliation
	if st.FailureReason == "" {
		st.FailureReason = interruptedReason
	}
	st.UpdatedAt = s.now()
	if _, err := s.settlementRepo.UpdateSettlement(ctx, st); err != nil {
		s.logger.Error("Failed to record interrupted settlement", map[string]interface{}{
			"error":         err.Error(),
			"settlement_id": st.ID.String(),
		})
		return
	}
	s.logger.Warn("Interrupted sale needs reconciliation", map[string]interface{}{
		"settlement_id":    st.ID.String(),
		"bike_id":          st.BikeID,
		"trade_in_bike_id": *st.TradeInBikeID,
	})
}

func (s *BikeService) loadSaleResult(ctx context.Context, st *domain.Settlement) (*domain.SaleResult, error) {
	sold, err := s.bikeRepo.GetBikeByID(ctx, st.BikeID)
	if err != nil {
		return nil, err
	}
	result := &domain.SaleResult{Bike: sold, Settlement: st}
	if st.TradeInBikeID != nil {
		result.TradeInBike, err = s.bikeRepo.GetBikeByID(ctx, *st.TradeInBikeID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *BikeService) partialFailure(ctx context.Context, st *domain.Settlement, cause error) error {
	pf := &domain.PartialFailureError{SettlementID: st.ID, Err: cause}
	if st.TradeInBikeID != nil {
		pf.OrphanBikeID = *st.TradeInBikeID
		if orphan, err := s.bikeRepo.GetBikeByID(ctx, *st.TradeInBikeID); err == nil {
			pf.OrphanRefNumber = orphan.RefNumber
		}
	}
	return pf
}

func (s *BikeService) newSettlement(req *domain.SaleRequest, previous *domain.Settlement) *domain.Settlement {
	now := s.now()
	var valuation int64
	if req.TradeIn != nil {
		valuation = *req.TradeIn.PurchasePrice
	}

	st := &domain.Settlement{
		ID:        uuid.New(),
		CreatedAt: now,
	}
	if previous != nil {
		st.ID = previous.ID
		st.CreatedAt = previous.CreatedAt
	}
	st.IdempotencyKey = req.IdempotencyKey
	st.BikeID = req.BikeID
	st.SaleType = req.SaleType
	st.CashPortion = *req.CashPortion
	st.TradeInValuation = valuation
	st.FinalSellPrice = finance.FinalSellPrice(req.SaleType, *req.CashPortion, valuation)
	st.Status = domain.SettlementPending
	st.UpdatedAt = now
	return st
}

func (s *BikeService) saveSettlement(ctx context.Context, st *domain.Settlement, exists bool) error {
	var err error
	if exists {
		_, err = s.settlementRepo.UpdateSettlement(ctx, st)
	} else {
		_, err = s.settlementRepo.CreateSettlement(ctx, st)
	}
	return err
}

// settle performs the two writes of a sale: the optional trade-in bike, then
// the compare-and-swap of the sold bike.
func (s *BikeService) settle(ctx context.Context, req *domain.SaleRequest, st *domain.Settlement, inTx bool) (*domain.SaleResult, error) {
	result := &domain.SaleResult{}

	if req.TradeIn != nil {
		tradeIn, err := s.createTradeInBike(ctx, req, inTx)
		if err != nil {
			return nil, err
		}
		result.TradeInBike = tradeIn
		st.TradeInBikeID = &tradeIn.ID
		s.logger.Info("Trade-in bike created", map[string]interface{}{
			"bike_id":              tradeIn.ID,
			"ref_number":           tradeIn.RefNumber,
			"trade_in_for_bike_id": req.BikeID,
		})

		if !inTx {
			st.UpdatedAt = s.now()
			if _, err := s.settlementRepo.UpdateSettlement(ctx, st); err != nil {
				s.logger.Warn("Failed to record trade-in bike on settlement", map[string]interface{}{
					"error":         err.Error(),
					"settlement_id": st.ID.String(),
				})
			}
		}
	}

	sold, err := s.bikeRepo.MarkBikeSold(ctx, req.BikeID, domain.SaleRecord{
		FinalSellPrice: st.FinalSellPrice,
		SoldDate:       s.now(),
		TradeInBikeID:  st.TradeInBikeID,
	})
	if err != nil {
		return result, err
	}
	result.Bike = sold

	return result, nil
}

func (s *BikeService) createTradeInBike(ctx context.Context, req *domain.SaleRequest, inTx bool) (*domain.InventoryBike, error) {
	in := req.TradeIn
	entry := s.now()
	soldID := req.BikeID
	bike := &domain.InventoryBike{
		SerialNumber:     nonEmpty(in.SerialNumber),
		Brand:            in.Brand,
		Model:            in.Model,
		Type:             in.Type,
		Size:             in.Size,
		PurchasePrice:    *in.PurchasePrice,
		SellPrice:        *in.SellPrice,
		Observations:     in.Observations,
		ImageURL:         nonEmpty(in.ImageURL),
		Status:           domain.StatusAvailable,
		EntryDate:        &entry,
		TradeInForBikeID: &soldID,
	}
	if in.AdditionalCosts != nil {
		bike.AdditionalCosts = *in.AdditionalCosts
	}

	attempts := tradeInRefAttempts
	if inTx {
		// a failed insert aborts the transaction
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		bike.RefNumber, err = s.nextRef(ctx)
		if err != nil {
			return nil, err
		}
		var created *domain.InventoryBike
		created, err = s.bikeRepo.CreateBike(ctx, bike)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	return nil, err
}

func (s *BikeService) settleSaga(ctx context.Context, req *domain.SaleRequest, st *domain.Settlement, exists bool) (*domain.SaleResult, error) {
	if err := s.saveSettlement(ctx, st, exists); err != nil {
		return nil, err
	}

	result, err := s.settle(ctx, req, st, false)
	if err != nil {
		st.FailureReason = err.Error()
		st.UpdatedAt = s.now()
		st.Status = domain.SettlementFailed
		if st.TradeInBikeID != nil {
			st.Status = domain.SettlementNeedsReconciliation
		}
		if _, uerr := s.settlementRepo.UpdateSettlement(ctx, st); uerr != nil {
			s.logger.Error("Failed to record settlement failure", map[string]interface{}{
				"error":         uerr.Error(),
				"settlement_id": st.ID.String(),
				"status":        st.Status,
			})
		}
		if st.Status == domain.SettlementNeedsReconciliation {
			if result != nil && result.TradeInBike != nil {
				s.cache.invalidate(bikeCacheKey(result.TradeInBike.ID))
				return nil, &domain.PartialFailureError{
					SettlementID:    st.ID,
					OrphanBikeID:    result.TradeInBike.ID,
					OrphanRefNumber: result.TradeInBike.RefNumber,
					Err:             err,
				}
			}
			return nil, s.partialFailure(ctx, st, err)
		}
		return nil, err
	}

	st.Status = domain.SettlementCompleted
	st.FailureReason = ""
	st.UpdatedAt = s.now()
	if _, err := s.settlementRepo.UpdateSettlement(ctx, st); err != nil {
		s.logger.Error("Failed to complete settlement", map[string]interface{}{
			"error":         err.Error(),
			"settlement_id": st.ID.String(),
		})
	}
	return result, nil
}

func (s *BikeService) ListSettlements(ctx context.Context, auth *domain.TokenPayload, status domain.SettlementStatus) ([]*domain.Settlement, error) {
	if err := authorize(auth, permView); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown settlement status %q", domain.ErrValidation, status)
	}

	settlements, err := s.settlementRepo.ListSettlements(ctx, status)
	if err != nil {
		s.logger.Error("Failed to list settlements", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return settlements, nil
}

// ResolveSettlement finishes a sale left in needs_reconciliation, or pending
// with a trade-in bike already recorded. link retries marking the bike sold
// against the orphan trade-in; discard tombstones the orphan and leaves the
// original bike unsold.
func (s *BikeService) ResolveSettlement(ctx context.Context, auth *domain.TokenPayload, id uuid.UUID, action domain.ResolveAction) (*domain.Settlement, error) {
	if err := authorize(auth, permEdit); err != nil {
		return nil, err
	}
	if action != domain.ResolveLink && action != domain.ResolveDiscard {
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, action)
	}

	st, err := s.settlementRepo.GetSettlementByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get settlement", map[string]interface{}{
			"error":         err.Error(),
			"settlement_id": id.String(),
		})
		return nil, err
	}
	if !awaitsReconciliation(st) {
		return nil, fmt.Errorf("%w: settlement %s is %s", domain.ErrInvalidTransition, st.ID, st.Status)
	}

	switch action {
	case domain.ResolveLink:
		err = s.linkTradeIn(ctx, st)
		st.Status = domain.SettlementResolved
	case domain.ResolveDiscard:
		_, err = s.bikeRepo.TombstoneBike(ctx, *st.TradeInBikeID, s.now())
		st.Status = domain.SettlementDiscarded
	}
	if err != nil {
		s.logger.Error("Failed to resolve settlement", map[string]interface{}{
			"error":         err.Error(),
			"settlement_id": st.ID.String(),
			"action":        action,
		})
		return nil, err
	}
	s.cache.invalidate(bikesCacheKey, bikeCacheKey(st.BikeID), bikeCacheKey(*st.TradeInBikeID))

	st.UpdatedAt = s.now()
	updated, err := s.settlementRepo.UpdateSettlement(ctx, st)
	if err != nil {
		s.logger.Error("Failed to update settlement", map[string]interface{}{
			"error":         err.Error(),
			"settlement_id": st.ID.String(),
		})
		return nil, err
	}

	s.logger.Info("Settlement resolved", map[string]interface{}{
		"settlement_id": st.ID.String(),
		"action":        action,
		"bike_id":       st.BikeID,
	})

	return updated, nil
}

// awaitsReconciliation reports whether a settlement left a trade-in bike
// behind without finishing the sale. A pending row with a trade-in bike was
// interrupted between the two writes.
func awaitsReconciliation(st *domain.Settlement) bool {
	if st.TradeInBikeID == nil {
		return false
	}
	return st.Status == domain.SettlementNeedsReconciliation || st.Status == domain.SettlementPending
}

// linkTradeIn marks the bike sold against the settlement's trade-in bike. A
// bike already sold against that same trade-in counts as linked, so a link
// whose settlement update failed can be retried.
func (s *BikeService) linkTradeIn(ctx context.Context, st *domain.Settlement) error {
	_, err := s.bikeRepo.MarkBikeSold(ctx, st.BikeID, domain.SaleRecord{
		FinalSellPrice: st.FinalSellPrice,
		SoldDate:       s.now(),
		TradeInBikeID:  st.TradeInBikeID,
	})
	if err == nil || !errors.Is(err, domain.ErrInvalidTransition) {
		return err
	}

	current, gerr := s.bikeRepo.GetBikeByID(ctx, st.BikeID)
	if gerr != nil {
		return err
	}
	if current.Status == domain.StatusSold && current.TradeInBikeID != nil && *current.TradeInBikeID == *st.TradeInBikeID {
		return nil
	}
	return err
}
