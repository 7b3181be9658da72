package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultIdentityEndpoint    = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenEndpoint = "https://securetoken.googleapis.com/v1"
)

// AccountTokens is the credential bundle the identity service returns after
// a successful sign-in, sign-up, or refresh.
type AccountTokens struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Client is a REST client for the Google Identity Toolkit and Secure Token
// endpoints. The Admin SDK cannot perform end-user email/password sign-in,
// so session establishment goes through these public endpoints keyed by the
// project's web API key.
type Client struct {
	apiKey           string
	httpClient       *http.Client
	identityEndpoint string
	tokenEndpoint    string
}

// NewClient creates an identity client for the given web API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:           apiKey,
		httpClient:       &http.Client{Timeout: 15 * time.Second},
		identityEndpoint: defaultIdentityEndpoint,
		tokenEndpoint:    defaultSecureTokenEndpoint,
	}
}

// NewClientWithEndpoints creates a client against custom endpoints. Used by
// tests and by deployments pointing at the Firebase Auth emulator.
func NewClientWithEndpoints(apiKey, identityEndpoint, tokenEndpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		apiKey:           apiKey,
		httpClient:       httpClient,
		identityEndpoint: strings.TrimRight(identityEndpoint, "/"),
		tokenEndpoint:    strings.TrimRight(tokenEndpoint, "/"),
	}
}

type tokenResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

func (r tokenResponse) tokens() *AccountTokens {
	seconds, _ := strconv.Atoi(r.ExpiresIn)
	if seconds <= 0 {
		seconds = 3600
	}
	return &AccountTokens{
		UID:          r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PhotoURL:     r.PhotoURL,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    time.Duration(seconds) * time.Second,
	}
}

// SignInWithPassword performs an email/password sign-in.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AccountTokens, error) {
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	var resp tokenResponse
	if err := c.post(ctx, "accounts:signInWithPassword", body, &resp); err != nil {
		return nil, mapSignInError(err)
	}
	return resp.tokens(), nil
}

// SignUp creates a new email/password account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*AccountTokens, error) {
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	var resp tokenResponse
	if err := c.post(ctx, "accounts:signUp", body, &resp); err != nil {
		return nil, mapAccountError(err)
	}
	return resp.tokens(), nil
}

// UpdateAccount sets the display name and/or photo URL on the account the
// ID token belongs to. Empty fields are left untouched.
func (c *Client) UpdateAccount(ctx context.Context, idToken, displayName, photoURL string) error {
	body := map[string]any{"idToken": idToken, "returnSecureToken": false}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}
	var resp tokenResponse
	if err := c.post(ctx, "accounts:update", body, &resp); err != nil {
		return mapAccountError(err)
	}
	return nil
}

// SendPasswordReset triggers an out-of-band password reset email.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]any{"requestType": "PASSWORD_RESET", "email": email}
	var resp struct {
		Email string `json:"email"`
	}
	if err := c.post(ctx, "accounts:sendOobCode", body, &resp); err != nil {
		return mapResetError(err)
	}
	return nil
}

// CreateAuthURI starts a federated sign-in flow and returns the provider's
// authorization URL plus the opaque session ID that must be echoed back to
// SignInWithIDP on callback.
func (c *Client) CreateAuthURI(ctx context.Context, providerID, continueURI string) (authURI, sessionID string, err error) {
	body := map[string]any{
		"providerId":  providerID,
		"continueUri": continueURI,
	}
	var resp struct {
		AuthURI   string `json:"authUri"`
		SessionID string `json:"sessionId"`
	}
	if err := c.post(ctx, "accounts:createAuthUri", body, &resp); err != nil {
		return "", "", err
	}
	return resp.AuthURI, resp.SessionID, nil
}

// SignInWithIDP completes a federated sign-in with the provider's callback
// URI. A denied or abandoned consent screen maps to ErrFederatedCancelled.
func (c *Client) SignInWithIDP(ctx context.Context, requestURI, sessionID string) (*AccountTokens, error) {
	body := map[string]any{
		"requestUri":        requestURI,
		"sessionId":         sessionID,
		"returnSecureToken": true,
		"returnIdpCredential": true,
	}
	var resp tokenResponse
	if err := c.post(ctx, "accounts:signInWithIdp", body, &resp); err != nil {
		return nil, mapFederatedError(err)
	}
	return resp.tokens(), nil
}

// Refresh exchanges a refresh token for a fresh ID token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AccountTokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", c.tokenEndpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("secure token request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseAPIError(httpResp)
	}

	var resp struct {
		UserID       string `json:"user_id"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode secure token response: %w", err)
	}
	seconds, _ := strconv.Atoi(resp.ExpiresIn)
	if seconds <= 0 {
		seconds = 3600
	}
	return &AccountTokens{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    time.Duration(seconds) * time.Second,
	}, nil
}

func (c *Client) post(ctx context.Context, action string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/%s?key=%s", c.identityEndpoint, action, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request %s failed: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response for %s: %w", action, err)
	}
	return nil
}

// apiError carries the provider's error code, e.g. "EMAIL_EXISTS" or
// "WEAK_PASSWORD : Password should be at least 6 characters".
type apiError struct {
	Status int
	Code   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("identity service error %d: %s", e.Status, e.Code)
}

func parseAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var wire struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	code := ""
	if err := json.Unmarshal(raw, &wire); err == nil {
		code = wire.Error.Message
	}
	// The message may carry a human suffix after the code.
	if idx := strings.Index(code, " :"); idx > 0 {
		code = code[:idx]
	}
	return &apiError{Status: resp.StatusCode, Code: strings.TrimSpace(code)}
}

func errorCode(err error) string {
	var api *apiError
	if errors.As(err, &api) {
		return api.Code
	}
	return ""
}

func mapSignInError(err error) error {
	switch errorCode(err) {
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "USER_DISABLED":
		return ErrInvalidCredentials
	case "INVALID_EMAIL":
		return ErrInvalidEmail
	}
	return err
}

func mapAccountError(err error) error {
	switch errorCode(err) {
	case "EMAIL_EXISTS":
		return ErrEmailAlreadyInUse
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "INVALID_EMAIL":
		return ErrInvalidEmail
	}
	return err
}

func mapResetError(err error) error {
	switch errorCode(err) {
	case "EMAIL_NOT_FOUND":
		return ErrUserNotFound
	case "INVALID_EMAIL":
		return ErrInvalidEmail
	}
	return err
}

func mapFederatedError(err error) error {
	switch errorCode(err) {
	case "USER_CANCELLED", "MISSING_OR_INVALID_NONCE", "INVALID_IDP_RESPONSE":
		return ErrFederatedCancelled
	}
	return err
}
