package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// PartialFailureError reports a sale whose trade-in bike was created but whose
// sold bike could not be updated. The orphan stays Available until an operator
// resolves the settlement.
type PartialFailureError struct {
	SettlementID    uuid.UUID
	OrphanBikeID    int64
	OrphanRefNumber string
	Err             error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("sale partially applied: trade-in bike %d (ref %s) has no sold counterpart, settlement %s needs reconciliation: %v",
		e.OrphanBikeID, e.OrphanRefNumber, e.SettlementID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
