package fallback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenhub-web-go/internal/apiclient"
	"greenhub-web-go/internal/models"
)

const seedJSON = `[
	{"title": "Overflowing bins", "category": "Garbage", "amount": "5000"},
	{"id": "kept-id", "title": "Potholes", "category": "Road Damage", "amount": 900, "status": "ended"}
]`

func writeSeedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "issues.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o600))
	return path
}

func TestFileSourceTagsRecords(t *testing.T) {
	src := FileSource{Path: writeSeedFile(t)}
	issues, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, models.OriginLocal, issues[0].Origin)
	assert.True(t, strings.HasPrefix(issues[0].ID, "local-"), "missing IDs get a synthetic local ID")
	assert.Equal(t, models.StatusOngoing, issues[0].Status, "missing status defaults during decode")
	assert.Equal(t, models.Amount(5000), issues[0].Amount)

	assert.Equal(t, "kept-id", issues[1].ID, "present IDs are kept")
	assert.Equal(t, models.OriginLocal, issues[1].Origin)
	assert.Equal(t, models.StatusEnded, issues[1].Status)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFileSourceMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := FileSource{Path: path}.Fetch(context.Background())
	assert.Error(t, err)
}

func TestEndpointSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(seedJSON))
	}))
	defer server.Close()

	src := EndpointSource{
		Client: apiclient.NewWithHTTPClient(server.URL, nil, server.Client()),
		URL:    "/seed",
	}
	issues, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, models.OriginLocal, issues[0].Origin)
}

func TestEndpointSourceNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := EndpointSource{
		Client: apiclient.NewWithHTTPClient(server.URL, nil, server.Client()),
		URL:    "/seed",
	}
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}
