package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"base0-backend/internal/auth"
)

const WalletAddressKey = "wallet_address"

// AuthMiddleware requires a valid session JWT and stores the wallet
// address in the request context.
func AuthMiddleware(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			c.Abort()
			return
		}

		address, err := sessions.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "message": err.Error()})
			c.Abort()
			return
		}

		c.Set(WalletAddressKey, address)
		c.Next()
	}
}

// WalletAddress reads the authenticated wallet address from the context.
func WalletAddress(c *gin.Context) string {
	if v, ok := c.Get(WalletAddressKey); ok {
		if addr, ok := v.(string); ok {
			return addr
		}
	}
	return ""
}
