package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"cookie-cutter-backend/internal/config"
	"cookie-cutter-backend/internal/models"
)

const ActorKey = "actor"

// Actor returns the authenticated actor set by AuthMiddleware.
func Actor(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// AuthMiddleware verifies the bearer token and stores the resulting actor
// in the gin context. Tokens are HS256 with role, email, and baker_id
// claims; the core trusts the identity provider's claims as given.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

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

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))

		if err != nil {
			var errorMsg string
			if strings.Contains(err.Error(), "signature is invalid") {
				errorMsg = "token signature is invalid"
			} else if strings.Contains(err.Error(), "token is expired") {
				errorMsg = "token has expired"
			} else {
				errorMsg = err.Error()
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "message": errorMsg})
			c.Abort()
			return
		}

		if !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		email, _ := claims["email"].(string)
		roleStr, _ := claims["role"].(string)
		if email == "" || roleStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token missing email or role claim"})
			c.Abort()
			return
		}

		role := models.Role(roleStr)
		if role != models.RoleAdmin && role != models.RoleBaker {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown role", "message": roleStr})
			c.Abort()
			return
		}

		bakerID, _ := claims["baker_id"].(string)
		if role == models.RoleBaker && bakerID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "baker token missing baker_id claim"})
			c.Abort()
			return
		}

		c.Set(ActorKey, models.Actor{Role: role, BakerID: bakerID, Email: email})
		c.Next()
	}
}
