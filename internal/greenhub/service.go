// Package greenhub is the screen-level service: it acquires issue and
// contribution lists through the resilient loader, derives rendered views,
// and runs the validated submission flows against the upstream backend.
package greenhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"greenhub-web-go/internal/apiclient"
	"greenhub-web-go/internal/forms"
	"greenhub-web-go/internal/identity"
	"greenhub-web-go/internal/loader"
	"greenhub-web-go/internal/models"
	"greenhub-web-go/internal/views"
)

// Sentinel errors mapped to HTTP statuses at the handler boundary.
var (
	ErrIssueNotFound  = errors.New("issue not found")
	ErrNotOwner       = errors.New("only the reporting user may modify this issue")
	ErrReauthRequired = errors.New("authentication rejected by the backend, please log in again")
	ErrUpstream       = errors.New("backend request failed")
	ErrLocalRecord    = errors.New("record has no backend identity")
)

// Service wires the request helper, the resilient loader, and the identity
// provider into the operations the screens need.
type Service struct {
	api      *apiclient.Client
	provider *identity.Provider
	fallback loader.Source[models.Issue]
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService creates the screen service. fallback may be nil when no static
// resource is configured.
func NewService(api *apiclient.Client, provider *identity.Provider, fallback loader.Source[models.Issue], timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:      api,
		provider: provider,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

// ListOptions carry the view transform parameters for list screens.
type ListOptions struct {
	Search string
	Sort   views.SortKey
}

// IssueList is a committed, transformed issue listing.
type IssueList struct {
	Issues []models.Issue `json:"issues"`
	Origin loader.Origin  `json:"origin"`
}

// ContributionList is a committed, transformed contribution listing.
type ContributionList struct {
	Contributions []models.Contribution `json:"contributions"`
	Total         float64               `json:"total"`
	Origin        loader.Origin         `json:"origin"`
}

// sessionTokens binds a session to the provider as a bearer source. A
// session without a store ID (bearer-verified caller) reuses its presented
// token directly.
func (s *Service) sessionTokens(session *identity.Session) apiclient.TokenSource {
	return apiclient.TokenFunc(func(ctx context.Context) (string, error) {
		if session.ID == "" {
			if session.IDToken == "" {
				return "", identity.ErrNoSession
			}
			return session.IDToken, nil
		}
		return s.provider.Token(ctx, session.ID)
	})
}

// issuesPrimary fetches GET /issues and tags records as server-origin.
func (s *Service) issuesPrimary() loader.Source[models.Issue] {
	return loader.SourceFunc[models.Issue](func(ctx context.Context) ([]models.Issue, error) {
		resp, err := s.api.Get(ctx, "/issues")
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: GET /issues returned status %d", ErrUpstream, resp.StatusCode)
		}
		issues, err := apiclient.DecodeList[models.Issue](resp.Body)
		if err != nil {
			return nil, err
		}
		return tagServer(issues), nil
	})
}

// ListIssues loads all community issues, racing the backend against the
// bounded wait and degrading to the static fallback.
func (s *Service) ListIssues(ctx context.Context, opts ListOptions) IssueList {
	l := &loader.Loader[models.Issue]{
		Primary:  s.issuesPrimary(),
		Fallback: s.fallback,
		Timeout:  s.timeout,
		Logger:   s.logger,
	}
	result := l.Load(ctx)
	return s.transform(result, opts)
}

// MyIssues loads the issues reported by the given email.
func (s *Service) MyIssues(ctx context.Context, email string, opts ListOptions) IssueList {
	l := &loader.Loader[models.Issue]{
		Primary:  s.issuesPrimary(),
		Fallback: s.fallback,
		Timeout:  s.timeout,
		Scope:    func(i models.Issue) bool { return i.Email == email },
		Logger:   s.logger,
	}
	result := l.Load(ctx)
	return s.transform(result, opts)
}

func (s *Service) transform(result loader.Result[models.Issue], opts ListOptions) IssueList {
	issues := views.FilterIssues(result.Items, opts.Search)
	issues = views.SortIssues(issues, opts.Sort)
	return IssueList{Issues: issues, Origin: result.Origin}
}

// GetIssue fetches a single issue by its backend ID.
func (s *Service) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	resp, err := s.api.Get(ctx, "/issues/"+url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrIssueNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: GET /issues/%s returned status %d", ErrUpstream, id, resp.StatusCode)
	}
	var issue models.Issue
	if err := decodeJSON(resp, &issue); err != nil {
		return nil, err
	}
	issue.Origin = models.OriginServer
	return &issue, nil
}

// CreateIssue validates the form and reports a new issue, stamping the
// session's email as the ownership key.
func (s *Service) CreateIssue(ctx context.Context, session *identity.Session, form *forms.IssueForm) (*models.Issue, error) {
	if fieldErr := form.Validate(); fieldErr != nil {
		return nil, fieldErr
	}
	amount, _ := forms.ParseAmount(form.Amount)
	status := form.Status
	if status == "" {
		status = models.StatusOngoing
	}
	issue := models.Issue{
		Title:       form.Title,
		Category:    form.Category,
		Location:    form.Location,
		Description: form.Description,
		Image:       form.Image,
		Amount:      models.Amount(amount),
		Status:      status,
		Date:        time.Now().UTC().Format(time.RFC3339),
		Email:       session.Email,
	}
	resp, err := s.api.WithTokens(s.sessionTokens(session)).Do(ctx, http.MethodPost, "/issues", apiclient.Options{
		Body:        issue,
		RequireAuth: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if err := checkWriteStatus(resp.StatusCode, "POST /issues"); err != nil {
		return nil, err
	}
	created := issue
	// The backend echoes the stored record; fall back to our copy when the
	// body is not decodable.
	if err := decodeJSON(resp, &created); err != nil {
		created = issue
	}
	created.Origin = models.OriginServer
	return &created, nil
}

// UpdateIssue overwrites an issue in place. Only the owning email may
// update, enforced here client-side; the backend is trusted to enforce it
// authoritatively. Fallback-origin records have no backend identity and are
// patched locally only.
func (s *Service) UpdateIssue(ctx context.Context, session *identity.Session, issue models.Issue, form *forms.IssueForm) (*models.Issue, error) {
	if issue.Email != session.Email {
		return nil, ErrNotOwner
	}
	if fieldErr := form.Validate(); fieldErr != nil {
		return nil, fieldErr
	}
	amount, _ := forms.ParseAmount(form.Amount)

	updated := issue
	updated.Title = form.Title
	updated.Category = form.Category
	updated.Location = form.Location
	updated.Description = form.Description
	updated.Amount = models.Amount(amount)
	if form.Image != "" {
		updated.Image = form.Image
	}
	if form.Status != "" {
		updated.Status = form.Status
	}

	if issue.Origin == models.OriginLocal {
		// No backend key to address; the caller keeps the change in local
		// state for the life of the page.
		return &updated, ErrLocalRecord
	}

	resp, err := s.api.WithTokens(s.sessionTokens(session)).Do(ctx, http.MethodPut, "/issues/"+url.PathEscape(issue.ID), apiclient.Options{
		Body:        updated,
		RequireAuth: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrIssueNotFound
	}
	if err := checkWriteStatus(resp.StatusCode, "PUT /issues/"+issue.ID); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteIssue removes an issue. The same ownership and fallback-origin
// rules as UpdateIssue apply.
func (s *Service) DeleteIssue(ctx context.Context, session *identity.Session, issue models.Issue) error {
	if issue.Email != session.Email {
		return ErrNotOwner
	}
	if issue.Origin == models.OriginLocal {
		return ErrLocalRecord
	}
	resp, err := s.api.WithTokens(s.sessionTokens(session)).Do(ctx, http.MethodDelete, "/issues/"+url.PathEscape(issue.ID), apiclient.Options{
		RequireAuth: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrIssueNotFound
	}
	return checkWriteStatus(resp.StatusCode, "DELETE /issues/"+issue.ID)
}

// MyContributions loads the session's contributions, newest first. The
// listing degrades to empty on failure; it has no secondary source.
func (s *Service) MyContributions(ctx context.Context, session *identity.Session, opts ListOptions) ContributionList {
	primary := loader.SourceFunc[models.Contribution](func(ctx context.Context) ([]models.Contribution, error) {
		resp, err := s.api.WithTokens(s.sessionTokens(session)).Do(ctx, http.MethodGet, "/my-contribution", apiclient.Options{RequireAuth: true})
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: GET /my-contribution returned status %d", ErrUpstream, resp.StatusCode)
		}
		contribs, err := apiclient.DecodeList[models.Contribution](resp.Body)
		if err != nil {
			return nil, err
		}
		return tagServerContribs(contribs), nil
	})

	l := &loader.Loader[models.Contribution]{
		Primary: primary,
		Timeout: s.timeout,
		Scope:   func(c models.Contribution) bool { return c.Email == session.Email },
		Logger:  s.logger,
	}
	result := l.Load(ctx)
	contribs := views.FilterContributions(result.Items, opts.Search)
	contribs = views.SortContributions(contribs, opts.Sort)
	return ContributionList{
		Contributions: contribs,
		Total:         views.TotalAmount(contribs),
		Origin:        result.Origin,
	}
}

// ContributionsForIssue loads all contributions recorded against an issue,
// newest first, degrading to empty when the backend cannot serve them.
func (s *Service) ContributionsForIssue(ctx context.Context, issue *models.Issue) []models.Contribution {
	key := contributionKey(issue)
	primary := loader.SourceFunc[models.Contribution](func(ctx context.Context) ([]models.Contribution, error) {
		resp, err := s.api.Get(ctx, "/contributions?issueId="+url.QueryEscape(key))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: GET /contributions returned status %d", ErrUpstream, resp.StatusCode)
		}
		contribs, err := apiclient.DecodeList[models.Contribution](resp.Body)
		if err != nil {
			return nil, err
		}
		return tagServerContribs(contribs), nil
	})

	l := &loader.Loader[models.Contribution]{
		Primary: primary,
		Timeout: s.timeout,
		Logger:  s.logger,
	}
	result := l.Load(ctx)
	return views.SortContributions(result.Items, views.SortDateDesc)
}

// Progress derives the fundraising aggregate for an issue.
func (s *Service) Progress(issue *models.Issue, contribs []models.Contribution) views.Progress {
	return views.IssueProgress(float64(issue.Amount), contribs)
}

// Contribute validates the form and records a contribution against the
// issue, denormalizing the issue's title and category onto the record.
func (s *Service) Contribute(ctx context.Context, session *identity.Session, issue *models.Issue, form *forms.ContributionForm) (*models.Contribution, error) {
	if fieldErr := form.Validate(); fieldErr != nil {
		return nil, fieldErr
	}
	amount, _ := forms.ParseAmount(form.Amount)
	contribution := models.Contribution{
		IssueID:         contributionKey(issue),
		IssueTitle:      issue.Title,
		Category:        issue.Category,
		Amount:          models.Amount(amount),
		ContributorName: form.ContributorName,
		Email:           session.Email,
		Phone:           form.Phone,
		Address:         form.Address,
		Date:            time.Now().UTC().Format(time.RFC3339),
		UserPhotoURL:    session.PhotoURL,
	}
	resp, err := s.api.WithTokens(s.sessionTokens(session)).Do(ctx, http.MethodPost, "/my-contribution", apiclient.Options{
		Body:        contribution,
		RequireAuth: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if err := checkWriteStatus(resp.StatusCode, "POST /my-contribution"); err != nil {
		return nil, err
	}
	created := contribution
	if err := decodeJSON(resp, &created); err != nil {
		created = contribution
	}
	created.Origin = models.OriginServer
	return &created, nil
}

// contributionKey picks the foreign key a contribution records: the backend
// ID when one exists, otherwise the issue title as a surrogate. The title
// surrogate is a known fragility inherited from the system's early life.
func contributionKey(issue *models.Issue) string {
	if issue.Origin == models.OriginServer && issue.ID != "" {
		return issue.ID
	}
	return issue.Title
}

func checkWriteStatus(status int, op string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrReauthRequired
	case status < 200 || status > 299:
		return fmt.Errorf("%w: %s returned status %d", ErrUpstream, op, status)
	}
	return nil
}

func decodeJSON(resp *http.Response, out any) error {
	return json.NewDecoder(resp.Body).Decode(out)
}

func tagServer(issues []models.Issue) []models.Issue {
	for i := range issues {
		issues[i].Origin = models.OriginServer
	}
	return issues
}

func tagServerContribs(contribs []models.Contribution) []models.Contribution {
	for i := range contribs {
		contribs[i].Origin = models.OriginServer
	}
	return contribs
}
