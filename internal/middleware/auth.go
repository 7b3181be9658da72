package middleware

import (
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greenhub-web-go/internal/identity"
)

// SessionCookie is the browser's opaque handle to its server-held session.
const SessionCookie = "gh_session"

// Context keys populated for downstream handlers.
const (
	CtxSession         = "session"
	CtxUserID          = "userID"
	CtxUserEmail       = "userEmail"
	CtxUserDisplayName = "userDisplayName"
	CtxUserPhotoURL    = "userPhotoURL"
)

// ErrorResponse mirrors the API error shape; defined locally to avoid an
// import cycle with the api package.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SessionAuth resolves the caller's identity from the session cookie, or
// from a Firebase ID token presented as a bearer credential when an Admin
// Auth client is available.
type SessionAuth struct {
	provider   *identity.Provider
	authClient *fbauth.Client // optional; nil disables bearer verification
	logger     *zap.Logger
}

// NewSessionAuth creates the auth middleware. authClient may be nil.
func NewSessionAuth(provider *identity.Provider, authClient *fbauth.Client, logger *zap.Logger) *SessionAuth {
	if provider == nil {
		panic("SessionAuth requires a non-nil identity.Provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionAuth{provider: provider, authClient: authClient, logger: logger}
}

// Resolve populates identity context keys when a credential is present but
// never rejects the request. List screens are public; they just render less.
func (m *SessionAuth) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.resolve(c)
		c.Next()
	}
}

// Require rejects the request with 401 when no identity can be resolved.
func (m *SessionAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.resolve(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		c.Next()
	}
}

func (m *SessionAuth) resolve(c *gin.Context) bool {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		session, err := m.provider.Current(c.Request.Context(), cookie)
		if err == nil {
			c.Set(CtxSession, session)
			c.Set(CtxUserID, session.UID)
			c.Set(CtxUserEmail, session.Email)
			c.Set(CtxUserDisplayName, session.DisplayName)
			c.Set(CtxUserPhotoURL, session.PhotoURL)
			return true
		}
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || m.authClient == nil {
		return false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	token, err := m.authClient.VerifyIDToken(c.Request.Context(), parts[1])
	if err != nil {
		m.logger.Warn("bearer token verification failed", zap.Error(err))
		return false
	}

	// Carry the presented token so upstream calls can reuse it; there is no
	// stored session to refresh against.
	session := &identity.Session{UID: token.UID, IDToken: parts[1]}
	if email, ok := token.Claims["email"].(string); ok {
		session.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		session.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		session.PhotoURL = picture
	}
	c.Set(CtxSession, session)
	c.Set(CtxUserID, session.UID)
	c.Set(CtxUserEmail, session.Email)
	c.Set(CtxUserDisplayName, session.DisplayName)
	c.Set(CtxUserPhotoURL, session.PhotoURL)
	return true
}

// SessionFrom extracts the resolved session from the Gin context.
func SessionFrom(c *gin.Context) (*identity.Session, bool) {
	raw, ok := c.Get(CtxSession)
	if !ok {
		return nil, false
	}
	session, ok := raw.(*identity.Session)
	return session, ok
}
