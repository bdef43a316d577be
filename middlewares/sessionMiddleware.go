package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/models"
	"github.com/locallens/presence_backend/utils"
)

// SessionMiddleware resolves the opaque session token into the user and the
// user's organization, which every tenant-scoped query below requires.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, username)

		var user models.User
		cached, err := config.GetRedisObject("User:"+username, &user)
		if err != nil || !cached {
			u, err := models.GetUserByUsername(ctx, username)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			user = *u
		}
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		if user.OrgId != "" {
			ctx = utils.SetOrgIdInContext(ctx, user.OrgId)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
