package services

import (
	"fmt"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
)

type permission string

const (
	permView   permission = "canView"
	permCreate permission = "canCreate"
	permEdit   permission = "canEdit"
	permDelete permission = "canDelete"
	permExport permission = "canExport"
)

// authorize rejects callers whose role lacks perm. A nil payload has no permissions.
func authorize(auth *domain.TokenPayload, perm permission) error {
	p := auth.Permissions()

	var ok bool
	switch perm {
	case permView:
		ok = p.CanView
	case permCreate:
		ok = p.CanCreate
	case permEdit:
		ok = p.CanEdit
	case permDelete:
		ok = p.CanDelete
	case permExport:
		ok = p.CanExport
	}
	if !ok {
		return fmt.Errorf("%w: %s required", domain.ErrForbidden, perm)
	}
	return nil
}

func validationError(err error) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
}
