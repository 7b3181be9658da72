package api

import (
	"greenhub-web-go/internal/models"
	"greenhub-web-go/internal/views"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Field   string `json:"field,omitempty"`   // Set when the error is a single-field validation failure
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SessionResponse shapes the authenticated user for the client. Tokens never
// leave the server; the browser only holds the opaque session cookie.
type SessionResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// IssueDetailResponse aggregates a single issue with its contribution list
// and funding progress, the full detail-screen payload in one round trip.
type IssueDetailResponse struct {
	Issue         models.Issue          `json:"issue"`
	Contributions []models.Contribution `json:"contributions"`
	Progress      views.Progress        `json:"progress"`
}

// FederatedBeginResponse carries the provider redirect for a Google sign-in.
type FederatedBeginResponse struct {
	AuthURI string `json:"authUri"`
	FlowID  string `json:"flowId"`
}
