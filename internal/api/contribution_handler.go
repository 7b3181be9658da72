package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greenhub-web-go/internal/forms"
	"greenhub-web-go/internal/greenhub"
	"greenhub-web-go/internal/middleware"
	"greenhub-web-go/internal/models"
)

// ContributionHandler handles the contribution endpoints.
type ContributionHandler struct {
	service *greenhub.Service
	issues  *IssueHandler // shares error mapping with the issue endpoints
	logger  *zap.Logger
}

// NewContributionHandler creates a new ContributionHandler.
func NewContributionHandler(service *greenhub.Service, issues *IssueHandler, logger *zap.Logger) *ContributionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContributionHandler{service: service, issues: issues, logger: logger}
}

// MyContributions handles GET /my-contributions with the same search and
// sort parameters as the issue listings.
func (h *ContributionHandler) MyContributions(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}
	list := h.service.MyContributions(c.Request.Context(), session, listOptions(c))
	c.JSON(http.StatusOK, list)
}

// Contribute handles POST /issues/:issueId/contributions.
func (h *ContributionHandler) Contribute(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}

	var form forms.ContributionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	issue, err := h.service.GetIssue(c.Request.Context(), c.Param("issueId"))
	if err != nil {
		h.issues.mapIssueError(c, err)
		return
	}

	var contribution *models.Contribution
	err = forms.NewFlow().Submit(c.Request.Context(), form.Validate, func(ctx context.Context) error {
		var submitErr error
		contribution, submitErr = h.service.Contribute(ctx, session, issue, &form)
		return submitErr
	})
	if err != nil {
		h.issues.mapIssueError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contribution)
}
