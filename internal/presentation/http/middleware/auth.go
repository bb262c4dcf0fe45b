package middleware

import (
	"strings"

	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/session"
	"github.com/dukabook/ledger-api/internal/presentation/http/dto/response"
	"github.com/dukabook/ledger-api/pkg/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and builds the request
// session from its claims plus the client-declared connectivity mode.
// Websocket clients cannot set headers, so a token query parameter is
// accepted as a fallback.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		sess := session.New(claims.UserID, claims.Email, enum.Role(claims.Role), connectivityMode(c))
		c.Set("session", sess)
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// connectivityMode reads the client's declared mode. Anything other than
// an explicit offline declaration is treated as online.
func connectivityMode(c *gin.Context) enum.ConnectivityMode {
	if strings.EqualFold(c.GetHeader("X-Connectivity-Mode"), enum.ModeOffline.String()) {
		return enum.ModeOffline
	}
	return enum.ModeOnline
}
