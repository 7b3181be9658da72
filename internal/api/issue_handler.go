package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greenhub-web-go/internal/forms"
	"greenhub-web-go/internal/greenhub"
	"greenhub-web-go/internal/middleware"
	"greenhub-web-go/internal/models"
	"greenhub-web-go/internal/views"
)

// IssueHandler handles the issue browsing and reporting endpoints.
type IssueHandler struct {
	service *greenhub.Service
	logger  *zap.Logger
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(service *greenhub.Service, logger *zap.Logger) *IssueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueHandler{service: service, logger: logger}
}

// mapIssueError maps service and validation errors to HTTP status codes.
func (h *IssueHandler) mapIssueError(c *gin.Context, err error) {
	var fieldErr *forms.FieldError
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.As(err, &fieldErr):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: fieldErr.Message, Field: fieldErr.Field}
	case errors.Is(err, greenhub.ErrIssueNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: greenhub.ErrIssueNotFound.Error()}
	case errors.Is(err, greenhub.ErrNotOwner):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: greenhub.ErrNotOwner.Error()}
	case errors.Is(err, greenhub.ErrReauthRequired):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: greenhub.ErrReauthRequired.Error()}
	case errors.Is(err, greenhub.ErrLocalRecord):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: greenhub.ErrLocalRecord.Error()}
	case errors.Is(err, greenhub.ErrUpstream):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: "Backend request failed", Details: err.Error()}
	case errors.Is(err, forms.ErrSubmissionInFlight):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: forms.ErrSubmissionInFlight.Error()}
	default:
		h.logger.Error("Unhandled issue error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

func listOptions(c *gin.Context) greenhub.ListOptions {
	return greenhub.ListOptions{
		Search: c.Query("search"),
		Sort:   views.ParseSortKey(c.Query("sort")),
	}
}

// ListIssues handles GET /issues. The listing always succeeds; a failing
// backend degrades to the fallback source, reported via the origin field.
func (h *IssueHandler) ListIssues(c *gin.Context) {
	list := h.service.ListIssues(c.Request.Context(), listOptions(c))
	c.JSON(http.StatusOK, list)
}

// MyIssues handles GET /my-issues, the authenticated user's own reports.
func (h *IssueHandler) MyIssues(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}
	list := h.service.MyIssues(c.Request.Context(), session.Email, listOptions(c))
	c.JSON(http.StatusOK, list)
}

// GetIssue handles GET /issues/:issueId. The detail payload bundles the
// issue with its contributions and funding progress.
func (h *IssueHandler) GetIssue(c *gin.Context) {
	issue, err := h.service.GetIssue(c.Request.Context(), c.Param("issueId"))
	if err != nil {
		h.mapIssueError(c, err)
		return
	}

	contribs := h.service.ContributionsForIssue(c.Request.Context(), issue)
	c.JSON(http.StatusOK, IssueDetailResponse{
		Issue:         *issue,
		Contributions: contribs,
		Progress:      h.service.Progress(issue, contribs),
	})
}

// CreateIssue handles POST /issues.
func (h *IssueHandler) CreateIssue(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}

	var form forms.IssueForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	var created *models.Issue
	err := forms.NewFlow().Submit(c.Request.Context(), form.Validate, func(ctx context.Context) error {
		var submitErr error
		created, submitErr = h.service.CreateIssue(ctx, session, &form)
		return submitErr
	})
	if err != nil {
		h.mapIssueError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateIssue handles PUT /issues/:issueId.
func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}

	var form forms.IssueForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	issue, err := h.service.GetIssue(c.Request.Context(), c.Param("issueId"))
	if err != nil {
		h.mapIssueError(c, err)
		return
	}

	var updated *models.Issue
	err = forms.NewFlow().Submit(c.Request.Context(), form.Validate, func(ctx context.Context) error {
		var submitErr error
		updated, submitErr = h.service.UpdateIssue(ctx, session, *issue, &form)
		return submitErr
	})
	if err != nil {
		h.mapIssueError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteIssue handles DELETE /issues/:issueId.
func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}

	issue, err := h.service.GetIssue(c.Request.Context(), c.Param("issueId"))
	if err != nil {
		h.mapIssueError(c, err)
		return
	}

	if err := h.service.DeleteIssue(c.Request.Context(), session, *issue); err != nil {
		h.mapIssueError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Issue deleted."})
}
