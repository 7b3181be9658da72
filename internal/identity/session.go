package identity

import "time"

// Session is the server-held representation of an authenticated identity.
// The browser carries only the opaque session ID; tokens never leave the
// server.
type Session struct {
	ID           string    `json:"id"`
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PhotoURL     string    `json:"photoURL,omitempty"`
	IDToken      string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

// tokenRefreshSkew is how close to expiry an ID token may get before Token
// refreshes it instead of handing it out.
const tokenRefreshSkew = 2 * time.Minute

// tokenStale reports whether the session's ID token needs refreshing.
func (s *Session) tokenStale(now time.Time) bool {
	return now.Add(tokenRefreshSkew).After(s.ExpiresAt)
}
