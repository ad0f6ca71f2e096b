// Package middleware contains any custom middleware used in the app
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fileshare/media-api/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewJWTMiddleware validates the bearer token and loads the matching user
// into the request context as userID/role. The signing secret is captured
// here once; rotating it requires a restart.
//
// The token is read from the Authorization header first and from the
// "token" query parameter second. The query form exists because <img> and
// <video> elements can't set headers; a URL carrying it grants the same
// access as the header for the token's validity window.
func NewJWTMiddleware(d *gorm.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": requestID,
			})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}

			return secret, nil
		})
		if err != nil {
			status := "token_invalid"
			if errors.Is(err, jwt.ErrTokenExpired) {
				status = "token_expired"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     status,
				"requestID": requestID,
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "token_invalid",
				"requestID": requestID,
			})
			return
		}

		// Tokens outlive account deletion, so the user must still exist
		var user model.User
		err = d.Where("id = ?", userID).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "user_not_found",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", user.ID)
		c.Set("role", user.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after
	}

	return c.Query("token")
}

// RequireRole rejects requests whose authenticated role ranks below min.
// Runs after the JWT middleware, so a missing role means a wiring bug
// rather than a client error.
func RequireRole(min string) gin.HandlerFunc {
	level := model.RoleLevel(min)

	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)
		role := c.GetString("role")

		if model.RoleLevel(role) < level {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Insufficient permissions",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
