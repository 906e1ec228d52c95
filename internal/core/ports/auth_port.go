package ports

import "github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"

type TokenService interface {
	VerifyToken(token string) (*domain.TokenPayload, error)
}
