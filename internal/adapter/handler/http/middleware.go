package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
)

const (
	authorizationHeaderKey  = "Authorization"
	authorizationTypeBearer = "bearer"
	authorizationPayloadKey = "authorization_payload"
)

// AuthMiddleware verifies the bearer token and stores its payload on the context.
func AuthMiddleware(tokenService ports.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeaderKey)
		fields := strings.Fields(header)
		if len(fields) != 2 || strings.ToLower(fields[0]) != authorizationTypeBearer {
			newErrorResponse(c, http.StatusUnauthorized, "Authorization header is missing or malformed")
			c.Abort()
			return
		}

		payload, err := tokenService.VerifyToken(fields[1])
		if err != nil {
			newErrorResponse(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		c.Set(authorizationPayloadKey, payload)
		c.Next()
	}
}

func getAuthPayload(c *gin.Context, key string) (*domain.TokenPayload, bool) {
	value, exists := c.Get(key)
	if !exists {
		return nil, false
	}
	payload, ok := value.(*domain.TokenPayload)
	return payload, ok && payload != nil
}

// authPayload answers 401 when the middleware left no payload behind.
func authPayload(c *gin.Context, logger ports.LoggerPort, handler string) (*domain.TokenPayload, bool) {
	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		logger.Warn("Unauthorized access attempt to "+handler, map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
	}
	return payload, exists
}
