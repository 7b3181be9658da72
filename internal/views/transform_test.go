package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenhub-web-go/internal/models"
)

func sampleIssues() []models.Issue {
	return []models.Issue{
		{ID: "1", Title: "Garbage pileup", Category: "Garbage", Location: "Park", Amount: 500, Date: "2026-03-01"},
		{ID: "2", Title: "Broken bench", Category: "Broken Public Property", Location: "Riverside", Amount: 200, Date: "2026-01-15"},
		{ID: "3", Title: "Potholes", Category: "Road Damage", Location: "Station Road", Amount: 900, Date: "2026-02-10"},
	}
}

func TestFilterIssuesMatchesAcrossFields(t *testing.T) {
	issues := sampleIssues()

	assert.Len(t, FilterIssues(issues, "garbage"), 1)
	assert.Len(t, FilterIssues(issues, "ROAD"), 1)
	assert.Len(t, FilterIssues(issues, "riverside"), 1)
	assert.Len(t, FilterIssues(issues, "  "), 3)
	assert.Empty(t, FilterIssues(issues, "nothing matches this"))
}

func TestFilterIssuesEmptyTermIsIdentity(t *testing.T) {
	issues := sampleIssues()
	assert.Equal(t, issues, FilterIssues(issues, ""))
}

func TestSortIssuesDoesNotMutateInput(t *testing.T) {
	issues := sampleIssues()
	sorted := SortIssues(issues, SortAmountAsc)
	assert.Equal(t, "1", issues[0].ID, "input order must be preserved")
	assert.Equal(t, "2", sorted[0].ID)
}

func TestSortIssuesKeys(t *testing.T) {
	issues := sampleIssues()

	byDateDesc := SortIssues(issues, SortDateDesc)
	require.Len(t, byDateDesc, 3)
	assert.Equal(t, "1", byDateDesc[0].ID)
	assert.Equal(t, "2", byDateDesc[2].ID)

	byDateAsc := SortIssues(issues, SortDateAsc)
	assert.Equal(t, "2", byDateAsc[0].ID)

	byTitle := SortIssues(issues, SortTitleAsc)
	assert.Equal(t, "Broken bench", byTitle[0].Title)

	byAmountDesc := SortIssues(issues, SortAmountDesc)
	assert.Equal(t, models.Amount(900), byAmountDesc[0].Amount)
}

func TestParseSortKeyDefaultsToDateDesc(t *testing.T) {
	assert.Equal(t, SortDateDesc, ParseSortKey(""))
	assert.Equal(t, SortDateDesc, ParseSortKey("bogus"))
	assert.Equal(t, SortAmountAsc, ParseSortKey("amount_asc"))
}

func TestOwnedByIsCaseSensitive(t *testing.T) {
	issues := []models.Issue{
		{ID: "1", Email: "alex@example.com"},
		{ID: "2", Email: "Alex@example.com"},
		{ID: "3", Email: "other@example.com"},
	}
	mine := OwnedBy(issues, "alex@example.com")
	require.Len(t, mine, 1)
	assert.Equal(t, "1", mine[0].ID)
}

func TestIssueProgress(t *testing.T) {
	contribs := []models.Contribution{{Amount: 40}, {Amount: 35}}

	p := IssueProgress(100, contribs)
	assert.Equal(t, 75.0, p.Collected)
	assert.Equal(t, 75.0, p.Percentage)
	assert.False(t, p.GoalReached)

	p = IssueProgress(100, append(contribs, models.Contribution{Amount: 30}))
	assert.Equal(t, 105.0, p.Collected)
	assert.Equal(t, 100.0, p.Percentage, "percentage is clamped")
	assert.True(t, p.GoalReached)
}

func TestIssueProgressZeroTarget(t *testing.T) {
	p := IssueProgress(0, []models.Contribution{{Amount: 50}})
	assert.Equal(t, 50.0, p.Collected)
	assert.Equal(t, 0.0, p.Percentage)
	assert.False(t, p.GoalReached)
}

func TestRemoveIssue(t *testing.T) {
	issues := sampleIssues()
	patched := RemoveIssue(issues, "2")
	require.Len(t, patched, 2)
	assert.Equal(t, "1", patched[0].ID)
	assert.Equal(t, "3", patched[1].ID)
	assert.Len(t, issues, 3, "input must not be mutated")

	assert.Len(t, RemoveIssue(issues, "missing"), 3)
}

func TestTotalAmount(t *testing.T) {
	assert.Equal(t, 0.0, TotalAmount(nil))
	assert.Equal(t, 120.5, TotalAmount([]models.Contribution{{Amount: 100}, {Amount: 20.5}}))
}

func TestFilterContributions(t *testing.T) {
	contribs := []models.Contribution{
		{ID: "a", IssueTitle: "Garbage pileup", Category: "Garbage"},
		{ID: "b", IssueTitle: "Potholes", Category: "Road Damage"},
	}
	assert.Len(t, FilterContributions(contribs, "pothole"), 1)
	assert.Len(t, FilterContributions(contribs, "damage"), 1)
	assert.Len(t, FilterContributions(contribs, ""), 2)
}
