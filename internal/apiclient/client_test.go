package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	c := New("https://api.example.com/", nil)

	assert.Equal(t, "https://api.example.com/issues", c.BuildURL("/issues"))
	assert.Equal(t, "https://api.example.com/issues", c.BuildURL("issues"))
	assert.Equal(t, "https://other.example.com/x", c.BuildURL("https://other.example.com/x"))
	assert.Equal(t, "HTTP://other.example.com/x", c.BuildURL("HTTP://other.example.com/x"))

	noSlash := New("https://api.example.com", nil)
	assert.Equal(t, "https://api.example.com/issues", noSlash.BuildURL("/issues"))
}

func TestDoSetsHeaders(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	tokens := TokenFunc(func(ctx context.Context) (string, error) { return "tok-123", nil })
	c := NewWithHTTPClient(server.URL, tokens, server.Client())

	resp, err := c.Do(context.Background(), http.MethodPost, "/issues", Options{
		Body:        map[string]string{"title": "x"},
		RequireAuth: true,
	})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
}

func TestDoWithoutTokenGoesOutUnauthenticated(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := TokenFunc(func(ctx context.Context) (string, error) { return "", errors.New("no session") })
	c := NewWithHTTPClient(server.URL, tokens, server.Client())

	resp, err := c.Do(context.Background(), http.MethodGet, "/my-issues", Options{RequireAuth: true})
	require.NoError(t, err, "a non-2xx status is not a transport error")
	resp.Body.Close()

	assert.Empty(t, authHeader)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWithTokensDoesNotMutateOriginal(t *testing.T) {
	c := New("https://api.example.com", nil)
	bound := c.WithTokens(TokenFunc(func(ctx context.Context) (string, error) { return "t", nil }))

	assert.Nil(t, c.tokens)
	assert.NotNil(t, bound.tokens)
	assert.Equal(t, c.baseURL, bound.baseURL)
}

func TestDecodeListBareArray(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	items, err := DecodeList[item](strings.NewReader(`[{"name":"a"},{"name":"b"}]`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].Name)
}

func TestDecodeListResultWrapper(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	items, err := DecodeList[item](strings.NewReader(`{"result":[{"name":"a"}]}`))
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = DecodeList[item](strings.NewReader(``))
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = DecodeList[item](strings.NewReader(`not json`))
	assert.Error(t, err)
}
