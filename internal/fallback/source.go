// Package fallback provides the secondary issue sources the resilient
// loader falls back on: a static JSON document, or an alternate endpoint.
// Records from either carry synthetic IDs because the static resource has
// no stable identifier field.
package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"

	"greenhub-web-go/internal/apiclient"
	"greenhub-web-go/internal/loader"
	"greenhub-web-go/internal/models"
)

// FileSource reads issue records from a static JSON file on disk.
type FileSource struct {
	Path string
}

// Fetch implements loader.Source. Records are tagged local with synthetic
// IDs; a missing status defaults to ongoing during decode.
func (s FileSource) Fetch(_ context.Context) ([]models.Issue, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback file %s: %w", s.Path, err)
	}
	var issues []models.Issue
	if err := json.Unmarshal(raw, &issues); err != nil {
		return nil, fmt.Errorf("failed to decode fallback file %s: %w", s.Path, err)
	}
	return Tag(issues), nil
}

// EndpointSource fetches issue records from an alternate URL with a plain
// unauthenticated GET.
type EndpointSource struct {
	Client *apiclient.Client
	URL    string
}

// Fetch implements loader.Source.
func (s EndpointSource) Fetch(ctx context.Context) ([]models.Issue, error) {
	resp, err := s.Client.Get(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback endpoint returned status %d", resp.StatusCode)
	}
	issues, err := apiclient.DecodeList[models.Issue](resp.Body)
	if err != nil {
		return nil, err
	}
	return Tag(issues), nil
}

// Tag stamps fallback-origin records with synthetic IDs so downstream code
// cannot mistake them for backend keys.
func Tag(issues []models.Issue) []models.Issue {
	tagged := make([]models.Issue, len(issues))
	for i, issue := range issues {
		issue.Origin = models.OriginLocal
		if issue.ID == "" {
			issue.ID = "local-" + uuid.NewString()
		}
		tagged[i] = issue
	}
	return tagged
}

var _ loader.Source[models.Issue] = FileSource{}
var _ loader.Source[models.Issue] = EndpointSource{}
