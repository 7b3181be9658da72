// Package views holds the pure list transforms applied to loaded data
// before render: text filtering, stable sorting, ownership scoping, and the
// contribution progress aggregate. Inputs are never mutated.
package views

import (
	"sort"
	"strings"

	"greenhub-web-go/internal/models"
)

// SortKey selects a comparator for list ordering.
type SortKey string

const (
	SortDateDesc   SortKey = "date_desc"
	SortDateAsc    SortKey = "date_asc"
	SortTitleAsc   SortKey = "title_asc"
	SortTitleDesc  SortKey = "title_desc"
	SortAmountAsc  SortKey = "amount_asc"
	SortAmountDesc SortKey = "amount_desc"
)

// ParseSortKey returns the sort key for s, defaulting to newest first.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortDateAsc, SortTitleAsc, SortTitleDesc, SortAmountAsc, SortAmountDesc:
		return SortKey(s)
	default:
		return SortDateDesc
	}
}

func matches(term string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// FilterIssues keeps issues whose title, category, location, or description
// contains the search term, case-insensitively. An empty term passes all.
func FilterIssues(issues []models.Issue, term string) []models.Issue {
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if matches(term, issue.Title, issue.Category, issue.Location, issue.Description) {
			out = append(out, issue)
		}
	}
	return out
}

// FilterContributions keeps contributions whose issue title or category
// contains the search term.
func FilterContributions(contribs []models.Contribution, term string) []models.Contribution {
	out := make([]models.Contribution, 0, len(contribs))
	for _, c := range contribs {
		if matches(term, c.IssueTitle, c.Category) {
			out = append(out, c)
		}
	}
	return out
}

// SortIssues returns a stably sorted copy. Missing dates sort as the epoch,
// missing titles as the empty string, missing amounts as zero.
func SortIssues(issues []models.Issue, key SortKey) []models.Issue {
	out := make([]models.Issue, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch key {
		case SortDateAsc:
			return a.When().Before(b.When())
		case SortTitleAsc:
			return a.Title < b.Title
		case SortTitleDesc:
			return a.Title > b.Title
		case SortAmountAsc:
			return a.Amount < b.Amount
		case SortAmountDesc:
			return a.Amount > b.Amount
		default: // SortDateDesc
			return b.When().Before(a.When())
		}
	})
	return out
}

// SortContributions returns a stably sorted copy; title keys compare the
// denormalized issue title.
func SortContributions(contribs []models.Contribution, key SortKey) []models.Contribution {
	out := make([]models.Contribution, len(contribs))
	copy(out, contribs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch key {
		case SortDateAsc:
			return a.When().Before(b.When())
		case SortTitleAsc:
			return a.IssueTitle < b.IssueTitle
		case SortTitleDesc:
			return a.IssueTitle > b.IssueTitle
		case SortAmountAsc:
			return a.Amount < b.Amount
		case SortAmountDesc:
			return a.Amount > b.Amount
		default:
			return b.When().Before(a.When())
		}
	})
	return out
}

// owned is satisfied by records scoped to a reporter/contributor email.
type owned interface {
	OwnerEmail() string
}

// OwnedBy keeps records whose email exactly equals the session's email.
// Comparison is case-sensitive, matching the backend's filtering.
func OwnedBy[T owned](list []T, email string) []T {
	out := make([]T, 0, len(list))
	for _, item := range list {
		if item.OwnerEmail() == email {
			out = append(out, item)
		}
	}
	return out
}

// Progress is the derived fundraising state of an issue.
type Progress struct {
	Collected   float64 `json:"collected"`
	Target      float64 `json:"target"`
	Percentage  float64 `json:"percentage"`
	GoalReached bool    `json:"goalReached"`
}

// IssueProgress aggregates contributions against a target amount. The
// percentage is clamped to [0, 100]; a non-positive target yields zero.
func IssueProgress(target float64, contribs []models.Contribution) Progress {
	var total float64
	for _, c := range contribs {
		total += float64(c.Amount)
	}
	p := Progress{Collected: total, Target: target}
	if target > 0 {
		pct := total / target * 100
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
		p.Percentage = pct
		p.GoalReached = total >= target
	}
	return p
}

// RemoveIssue returns a copy of the list without the issue carrying the
// given ID, so a confirmed delete patches the rendered list without a
// reload.
func RemoveIssue(issues []models.Issue, id string) []models.Issue {
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.ID != id {
			out = append(out, issue)
		}
	}
	return out
}

// TotalAmount sums contribution amounts for display.
func TotalAmount(contribs []models.Contribution) float64 {
	var total float64
	for _, c := range contribs {
		total += float64(c.Amount)
	}
	return total
}
