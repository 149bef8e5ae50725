package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
	"github.com/lin4lins/WeatherInBox-API/pkg/response"
)

const (
	ctxKeyUserID  = "user_id"
	ctxKeyIsAdmin = "is_admin"
)

// AuthMiddleware validates the Bearer token and stores user_id/is_admin in
// both gin.Context and the request context (logctx picks user_id up from
// there).
func AuthMiddleware(cfg *cfgpkg.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid token"))
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid token claims"))
			return
		}
		isAdmin, _ := claims["is_admin"].(bool)

		c.Set(ctxKeyUserID, userID)
		c.Set(ctxKeyIsAdmin, isAdmin)
		ctx := context.WithValue(c.Request.Context(), ctxKeyUserID, userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin gates admin-only routes. Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxKeyIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				response.ErrorT[any](response.APIResponseCodeForbidden, "admin access required"))
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from gin.Context.
func UserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}
