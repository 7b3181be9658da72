package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"greenhub-web-go/internal/config"
)

// CORS configures cross-origin access for the browser client. The session
// cookie requires credentials, so the allowed origin must be explicit.
func CORS(appConfig *config.Config) gin.HandlerFunc {
	if appConfig == nil || appConfig.ClientURL == "" {
		panic("ClientURL for CORS is not configured")
	}
	return cors.New(cors.Config{
		AllowOrigins:     []string{appConfig.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
