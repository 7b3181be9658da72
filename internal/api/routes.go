package api

import (
	"net/http"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greenhub-web-go/internal/config"
	"greenhub-web-go/internal/greenhub"
	"greenhub-web-go/internal/identity"
	"greenhub-web-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (Logging, Recovery, CORS) are applied to
// the `router` instance before this function is called, in `main.go`.
func SetupRoutes(
	router *gin.Engine,
	appConfig *config.Config,
	logger *zap.Logger,
	provider *identity.Provider,
	service *greenhub.Service,
	authClient *fbauth.Client, // may be nil; bearer verification is then disabled
) {
	sessionAuth := middleware.NewSessionAuth(provider, authClient, logger)

	authHandler := NewAuthHandler(provider, appConfig.SessionTTL(), appConfig.ClientURL, logger)
	issueHandler := NewIssueHandler(service, logger)
	contributionHandler := NewContributionHandler(service, issueHandler, logger)

	apiV1 := router.Group("/api/v1")
	{
		// --- Authentication Endpoints ---
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.GET("/google", authHandler.GoogleBegin)
			authGroup.GET("/google/callback", authHandler.GoogleCallback)

			authGroup.GET("/me", sessionAuth.Require(), authHandler.Me)
			authGroup.PUT("/profile", sessionAuth.Require(), authHandler.UpdateProfile)
		}

		// --- Issue Endpoints ---
		// Browsing is public; reporting and editing require a session.
		issuesGroup := apiV1.Group("/issues")
		{
			issuesGroup.GET("", sessionAuth.Resolve(), issueHandler.ListIssues)
			issuesGroup.GET("/:issueId", sessionAuth.Resolve(), issueHandler.GetIssue)

			issuesGroup.POST("", sessionAuth.Require(), issueHandler.CreateIssue)
			issuesGroup.PUT("/:issueId", sessionAuth.Require(), issueHandler.UpdateIssue)
			issuesGroup.DELETE("/:issueId", sessionAuth.Require(), issueHandler.DeleteIssue)

			issuesGroup.POST("/:issueId/contributions", sessionAuth.Require(), contributionHandler.Contribute)
		}

		// --- Per-User Listings ---
		apiV1.GET("/my-issues", sessionAuth.Require(), issueHandler.MyIssues)
		apiV1.GET("/my-contributions", sessionAuth.Require(), contributionHandler.MyContributions)
	}

	// --- General Health Check Endpoint ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "GreenHub backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
