package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type MiddlewareConfig struct {
	RedisClient *redis.Client
	DB          *gorm.DB
}

const sessionCacheTTL = 10 * time.Minute

// AuthMiddleware resolves the bearer session token to {user, profile} and
// stashes user_id/role/town_id in the gin context. When required is false an
// anonymous request passes through with nothing set.
func AuthMiddleware(cfg *MiddlewareConfig, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
				return
			}
			c.Next()
			return
		}

		var userID uuid.UUID
		var role, townID string

		cacheKey := "session:" + token
		val, err := cfg.RedisClient.HGetAll(ctx, cacheKey).Result()
		if err == nil && len(val) > 0 {
			userID, _ = uuid.Parse(val["user_id"])
			role = val["role"]
			townID = val["town_id"]
		} else {
			var record struct {
				UserID uuid.UUID
				Role   string
				TownID *uuid.UUID
			}
			err := cfg.DB.Raw(`
				SELECT sessions.user_id, profiles.role, profiles.town_id
				FROM sessions
				JOIN users ON users.id = sessions.user_id
				LEFT JOIN profiles ON profiles.user_id = users.id
				WHERE sessions.token = ? AND sessions.expires_at > ?
			`, token, time.Now()).Scan(&record).Error
			if err != nil || record.UserID == uuid.Nil {
				if required {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
					return
				}
				c.Next()
				return
			}
			userID = record.UserID
			role = record.Role
			if record.TownID != nil {
				townID = record.TownID.String()
			}

			cfg.RedisClient.HSet(ctx, cacheKey, map[string]interface{}{
				"user_id": userID.String(),
				"role":    role,
				"town_id": townID,
			})
			cfg.RedisClient.Expire(ctx, cacheKey, sessionCacheTTL)
		}

		c.Set("user_id", userID)
		c.Set("role", role)
		if townID != "" {
			if id, err := uuid.Parse(townID); err == nil {
				c.Set("town_id", id)
			}
		}
		c.Next()
	}
}

// CronSecretMiddleware guards endpoints invoked by the external scheduler.
func CronSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || c.GetHeader("X-Cron-Secret") != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
			return
		}
		c.Next()
	}
}
