package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greenhub-web-go/internal/forms"
	"greenhub-web-go/internal/identity"
	"greenhub-web-go/internal/middleware"
)

// flowCookie holds the federated sign-in flow ID between the redirect to
// the provider and the callback. Short-lived on purpose.
const flowCookie = "gh_flow"

// AuthHandler handles login, registration, logout, password reset and
// profile endpoints. It owns the session cookie lifecycle.
type AuthHandler struct {
	provider   *identity.Provider
	sessionTTL time.Duration
	clientURL  string
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(provider *identity.Provider, sessionTTL time.Duration, clientURL string, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{provider: provider, sessionTTL: sessionTTL, clientURL: clientURL, logger: logger}
}

// mapAuthError maps identity and validation errors to HTTP status codes.
func (h *AuthHandler) mapAuthError(c *gin.Context, err error) {
	var fieldErr *forms.FieldError
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.As(err, &fieldErr):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: fieldErr.Message, Field: fieldErr.Field}
	case errors.Is(err, identity.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: identity.ErrInvalidCredentials.Error()}
	case errors.Is(err, identity.ErrEmailAlreadyInUse):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: identity.ErrEmailAlreadyInUse.Error()}
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, identity.ErrInvalidEmail):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: err.Error()}
	case errors.Is(err, identity.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: identity.ErrUserNotFound.Error()}
	case errors.Is(err, identity.ErrFederatedCancelled):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: identity.ErrFederatedCancelled.Error()}
	case errors.Is(err, identity.ErrNoSession), errors.Is(err, identity.ErrSessionNotFound):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: "Not signed in"}
	case errors.Is(err, forms.ErrSubmissionInFlight):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: forms.ErrSubmissionInFlight.Error()}
	default:
		h.logger.Error("Unhandled auth error", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

func sessionResponse(s *identity.Session) SessionResponse {
	return SessionResponse{
		UID:         s.UID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		PhotoURL:    s.PhotoURL,
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sessionID, int(h.sessionTTL.Seconds()), "/", "", false, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var form forms.LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	var session *identity.Session
	err := forms.NewFlow().Submit(c.Request.Context(), form.Validate, func(ctx context.Context) error {
		var submitErr error
		session, submitErr = h.provider.Login(ctx, form.Email, form.Password)
		return submitErr
	})
	if err != nil {
		h.mapAuthError(c, err)
		return
	}

	h.setSessionCookie(c, session.ID)
	c.JSON(http.StatusOK, sessionResponse(session))
}

// Register handles POST /auth/register. A new account is signed in
// immediately, mirroring the sign-up screen.
func (h *AuthHandler) Register(c *gin.Context) {
	var form forms.RegisterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	var session *identity.Session
	err := forms.NewFlow().Submit(c.Request.Context(), form.Validate, func(ctx context.Context) error {
		var submitErr error
		session, submitErr = h.provider.Register(ctx, form.Name, form.Email, form.Password, form.PhotoURL)
		return submitErr
	})
	if err != nil {
		h.mapAuthError(c, err)
		return
	}

	h.setSessionCookie(c, session.ID)
	c.JSON(http.StatusCreated, sessionResponse(session))
}

// Logout handles POST /auth/logout. Logging out without a session is not an
// error; the cookie is cleared either way.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.SessionCookie); err == nil && sessionID != "" {
		if err := h.provider.Logout(c.Request.Context(), sessionID); err != nil {
			h.logger.Warn("Logout failed to drop session", zap.Error(err))
		}
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out."})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var form forms.ResetForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	err := forms.NewFlow().Submit(c.Request.Context(), form.Validate, func(ctx context.Context) error {
		return h.provider.ResetPassword(ctx, form.Email)
	})
	if err != nil {
		h.mapAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Password reset email sent."})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// UpdateProfile handles PUT /auth/profile. Only cookie sessions can update
// their profile; bearer-verified callers hold no server-side session.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok || session.ID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not signed in"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	updated, err := h.provider.UpdateProfile(c.Request.Context(), session.ID, req.DisplayName, req.PhotoURL)
	if err != nil {
		h.mapAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(updated))
}

// GoogleBegin handles GET /auth/google. It responds with the provider
// redirect URI; the flow ID travels in a short-lived cookie to the callback.
func (h *AuthHandler) GoogleBegin(c *gin.Context) {
	continueURI := c.Query("continue")
	if continueURI == "" {
		continueURI = callbackURI(c)
	}

	authURI, flowID, err := h.provider.FederatedBegin(c.Request.Context(), continueURI)
	if err != nil {
		h.mapAuthError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flowCookie, flowID, int((10 * time.Minute).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, FederatedBeginResponse{AuthURI: authURI, FlowID: flowID})
}

// GoogleCallback handles GET /auth/google/callback, the return leg of the
// provider redirect. On success the browser is sent back to the client app.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	flowID, err := c.Cookie(flowCookie)
	if err != nil || flowID == "" {
		flowID = c.Query("flowId")
	}
	if flowID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Sign-in flow expired, please try again"})
		return
	}

	requestURI := callbackURI(c) + "?" + c.Request.URL.RawQuery
	session, err := h.provider.FederatedComplete(c.Request.Context(), requestURI, flowID)
	if err != nil {
		h.mapAuthError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flowCookie, "", -1, "/", "", false, true)
	h.setSessionCookie(c, session.ID)

	if h.clientURL != "" {
		c.Redirect(http.StatusSeeOther, h.clientURL)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// callbackURI rebuilds this server's callback URL from the incoming request.
func callbackURI(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/api/v1/auth/google/callback"
}
