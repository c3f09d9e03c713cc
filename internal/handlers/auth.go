package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/pathlight-edu/assessment-service/internal/config"
	"github.com/pathlight-edu/assessment-service/internal/utils"
)

// ContextPrincipalID is the gin context key holding the authenticated
// principal's identifier.
const ContextPrincipalID = "principal_id"

// InitAuth configures the Casdoor SDK used to verify bearer tokens.
func InitAuth(cfg config.CasdoorConfig) {
	casdoorsdk.InitConfig(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
}

// AuthMiddleware verifies the Authorization bearer token and stores the
// principal id in the request context. Requests without a valid token are
// rejected before reaching any handler.
func AuthMiddleware(logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Rejected invalid bearer token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid bearer token",
			})
			return
		}

		c.Set(ContextPrincipalID, claims.Id)
		c.Next()
	}
}
