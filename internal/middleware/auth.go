package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys populated by AuthMiddleware.
const (
	ctxUserID     = "auth.user_id"
	ctxTelegramID = "auth.telegram_id"
	ctxRole       = "auth.role"
)

// AuthMiddleware verifies the bearer token issued at sign-in and loads
// its identity claims into the request context. Tokens are HS256 with
// sub carrying the user id, plus telegram_id and role.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid subject"})
			return
		}
		c.Set(ctxUserID, userID)

		if telegramID, ok := claims["telegram_id"].(float64); ok {
			c.Set(ctxTelegramID, int64(telegramID))
		}
		role, _ := claims["role"].(string)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxUserID)
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetTelegramID(c *gin.Context) int64 {
	id, _ := c.Get(ctxTelegramID)
	tid, _ := id.(int64)
	return tid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get(ctxRole)
	r, _ := role.(string)
	return r
}
