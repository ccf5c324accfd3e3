package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pharmchat/pharmchat-backend/internal/pkg/dbctx"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/envutil"
	"github.com/pharmchat/pharmchat-backend/internal/pkg/logger"
	"github.com/pharmchat/pharmchat-backend/internal/requestdata"
	"github.com/pharmchat/pharmchat-backend/internal/services"
)

// identityClaims is what the IdP signs into the session token.
type identityClaims struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
	users  services.UserService
}

func NewAuthMiddleware(log *logger.Logger, users services.UserService) *AuthMiddleware {
	mwLog := log.With("Middleware", "AuthMiddleware")
	secret := envutil.GetEnv("AUTH_JWT_SECRET", "", mwLog)
	if secret == "" {
		mwLog.Warn("AUTH_JWT_SECRET is not set, all requests will be rejected")
	}
	return &AuthMiddleware{log: mwLog, secret: []byte(secret), users: users}
}

// RequireAuth verifies the bearer token, makes sure the identity has user and
// profile rows, and attaches the request identity to the context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" || len(am.secret) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		claims := &identityClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return am.secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}

		u, err := am.users.EnsureUser(dbctx.Context{Ctx: c.Request.Context()}, services.IdentityClaims{
			ExternalID: claims.Subject,
			Name:       claims.Name,
			Surname:    claims.Surname,
			Email:      claims.Email,
			Image:      claims.Picture,
		})
		if err != nil {
			am.log.Error("User ensure failed", "external_id", claims.Subject, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "unauthorized", "code": "unauthorized"},
			})
			return
		}

		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			UserID:     u.ID,
			ExternalID: u.ExternalID,
			Name:       u.Name,
			Surname:    u.Surname,
			Email:      u.Email,
			Image:      u.Image,
		})
		c.Request = c.Request.WithContext(ctx)

		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "forbidden", "code": "forbidden"},
			})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
