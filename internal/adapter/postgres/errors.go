package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

// mapError translates driver failures into the domain taxonomy. what names
// the operation for the message.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %s: %s", domain.ErrConflict, what, pqErr.Detail)
		case pqErr.Code == "23502":
			return fmt.Errorf("%w: %s: required field %s is missing", domain.ErrValidation, what, pqErr.Column)
		case pqErr.Code == "23503", pqErr.Code == "23514":
			return fmt.Errorf("%w: %s: %s", domain.ErrValidation, what, pqErr.Message)
		case strings.HasPrefix(string(pqErr.Code), "08"), pqErr.Code == "57P01":
			return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, what, err)
		}
		return fmt.Errorf("error in %s: %w", what, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, what, err)
	}

	return fmt.Errorf("error in %s: %w", what, err)
}
