package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greenhub-web-go/internal/apiclient"
	"greenhub-web-go/internal/config"
	"greenhub-web-go/internal/greenhub"
	"greenhub-web-go/internal/identity"
	"greenhub-web-go/internal/middleware"
)

// testStack wires the full request path against fake identity and backend
// servers.
type testStack struct {
	router   *gin.Engine
	provider *identity.Provider
}

func newTestStack(t *testing.T, backend http.Handler) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "accounts:signInWithPassword", "accounts:signUp":
			json.NewEncoder(w).Encode(map[string]string{
				"localId":      "uid-1",
				"email":        "alex@example.com",
				"displayName":  "Alex",
				"idToken":      "id-tok",
				"refreshToken": "refresh-tok",
				"expiresIn":    "3600",
			})
		case "accounts:update", "accounts:sendOobCode":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"error":{"message":"UNKNOWN_ACTION"}}`)
		}
	}))
	t.Cleanup(idServer.Close)

	if backend == nil {
		backend = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
	}
	backendServer := httptest.NewServer(backend)
	t.Cleanup(backendServer.Close)

	idClient := identity.NewClientWithEndpoints("test-key", idServer.URL, idServer.URL, idServer.Client())
	provider := identity.NewProvider(idClient, identity.NewMemoryStore(), time.Hour, nil)
	t.Cleanup(func() { provider.Close() })

	apiClient := apiclient.NewWithHTTPClient(backendServer.URL, nil, backendServer.Client())
	service := greenhub.NewService(apiClient, provider, nil, 500*time.Millisecond, nil)

	cfg := &config.Config{
		Port:              "0",
		FirebaseAPIKey:    "test-key",
		FirebaseProjectID: "test-project",
		APIBaseURL:        backendServer.URL,
		LoadTimeoutMS:     500,
		SessionTTLHours:   1,
	}

	router := gin.New()
	SetupRoutes(router, cfg, zap.NewNop(), provider, service, nil)
	return &testStack{router: router, provider: provider}
}

func (ts *testStack) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, c := range res.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestStack(t, nil)
	rec := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "UP")
}

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestStack(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alex@example.com","password":"Abcdef"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "uid-1", resp.UID)
	assert.Equal(t, "alex@example.com", resp.Email)
}

func TestLoginValidationReportsField(t *testing.T) {
	ts := newTestStack(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "email", resp.Field)
}

func TestMeRequiresSession(t *testing.T) {
	ts := newTestStack(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	login := ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alex@example.com","password":"Abcdef"}`)
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	rec = ts.do(http.MethodGet, "/api/v1/auth/me", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alex@example.com")
}

func TestLogoutClearsCookieAndSession(t *testing.T) {
	ts := newTestStack(t, nil)

	login := ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alex@example.com","password":"Abcdef"}`)
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	rec := ts.do(http.MethodPost, "/api/v1/auth/logout", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	rec = ts.do(http.MethodGet, "/api/v1/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out again without a session still succeeds.
	rec = ts.do(http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListIssuesIsPublic(t *testing.T) {
	ts := newTestStack(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"1","title":"Potholes","category":"Road Damage","amount":900}]`))
	}))

	rec := ts.do(http.MethodGet, "/api/v1/issues", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp greenhub.IssueList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "Potholes", resp.Issues[0].Title)
}

func TestCreateIssueRequiresSession(t *testing.T) {
	ts := newTestStack(t, nil)

	body := `{"title":"Bins","category":"Garbage","location":"Park","description":"Overflowing","amount":"5000"}`
	rec := ts.do(http.MethodPost, "/api/v1/issues", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateIssueRoundTrip(t *testing.T) {
	ts := newTestStack(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/issues" {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["_id"] = "created-1"
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(body)
			return
		}
		w.Write([]byte(`[]`))
	}))

	login := ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alex@example.com","password":"Abcdef"}`)
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	body := `{"title":"Bins","category":"Garbage","location":"Park","description":"Overflowing","amount":"5000"}`
	rec := ts.do(http.MethodPost, "/api/v1/issues", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "created-1")
}

func TestCreateIssueValidationError(t *testing.T) {
	ts := newTestStack(t, nil)

	login := ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alex@example.com","password":"Abcdef"}`)
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	rec := ts.do(http.MethodPost, "/api/v1/issues", `{"title":""}`, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "title", resp.Field)
}

func TestGetIssueDetailBundlesContributions(t *testing.T) {
	ts := newTestStack(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/issues/1":
			w.Write([]byte(`{"_id":"1","title":"Potholes","category":"Road Damage","amount":100}`))
		case r.URL.Path == "/contributions":
			w.Write([]byte(`[{"_id":"c1","issueId":"1","issueTitle":"Potholes","amount":40}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	rec := ts.do(http.MethodGet, "/api/v1/issues/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detail IssueDetailResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "Potholes", detail.Issue.Title)
	require.Len(t, detail.Contributions, 1)
	assert.Equal(t, 40.0, detail.Progress.Collected)
	assert.Equal(t, 40.0, detail.Progress.Percentage)
}

func TestGetIssueNotFound(t *testing.T) {
	ts := newTestStack(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := ts.do(http.MethodGet, "/api/v1/issues/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContributeRoundTrip(t *testing.T) {
	ts := newTestStack(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/issues/1":
			w.Write([]byte(`{"_id":"1","title":"Potholes","category":"Road Damage","amount":100}`))
		case r.Method == http.MethodPost && r.URL.Path == "/my-contribution":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["_id"] = "contrib-1"
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	login := ts.do(http.MethodPost, "/api/v1/auth/login", `{"email":"alex@example.com","password":"Abcdef"}`)
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	body := `{"amount":"40","contributorName":"Alex","phone":"555-0101","address":"12 Mill Road"}`
	rec := ts.do(http.MethodPost, "/api/v1/issues/1/contributions", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Potholes", "issue title is denormalized onto the record")
}

func TestMyContributionsRequiresSession(t *testing.T) {
	ts := newTestStack(t, nil)
	rec := ts.do(http.MethodGet, "/api/v1/my-contributions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
