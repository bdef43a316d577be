package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/models"
	"github.com/locallens/presence_backend/utils"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func sessionTTL() time.Duration {
	hours := utils.IntFromEnv("TOKEN_HOUR_LIFESPAN", 24)
	return time.Duration(hours) * time.Hour
}

// LoginHandler exchanges credentials for a signed session token. The token is
// cached in Redis so the session middleware can resolve it without hitting
// the DB on every request.
func LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		user, err := models.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if user.IsActive == nil || !*user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := utils.ComparePassword(user.Password, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := utils.JwtGenerate(user.ID, user.OrgId, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ttl := sessionTTL()
		if err := config.SetRedisValue("Token:"+token, user.Username, ttl); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		_ = config.SetRedisObject("User:"+user.Username, user, ttl)

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"name":     user.Name,
				"org_id":   user.OrgId,
				"role":     user.Role,
			},
		})
	}
}

// LogoutHandler invalidates the current session token.
func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.GetTokenFromContext(c.Request.Context())
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		username, _ := utils.GetUsernameFromContext(c.Request.Context())
		keys := []string{"Token:" + token}
		if username != "" {
			keys = append(keys, "User:"+username)
		}
		if err := config.RemoveRedisKey(keys...); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
