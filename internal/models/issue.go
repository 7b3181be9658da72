package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Origin distinguishes records that came from the backend (stable ID) from
// records recovered from the static fallback resource (synthetic ID).
type Origin string

const (
	// OriginServer marks a record whose ID was assigned by the backend.
	OriginServer Origin = "server"
	// OriginLocal marks a fallback-origin record carrying a synthetic ID.
	// A local ID must never be sent back to the backend as a document key.
	OriginLocal Origin = "local"
)

// Issue statuses.
const (
	StatusOngoing = "ongoing"
	StatusEnded   = "ended"
)

// Categories is the fixed set of issue categories the community app accepts.
var Categories = []string{
	"Garbage",
	"Illegal Construction",
	"Broken Public Property",
	"Road Damage",
	"Water Issues",
	"Waste Management",
	"Tree Plantation",
	"Infrastructure",
}

// ValidCategory reports whether s is one of the fixed categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known issue status.
func ValidStatus(s string) bool {
	return s == StatusOngoing || s == StatusEnded
}

// Amount is a decimal money field that tolerates the loose shapes the
// backend and the static fallback file produce: JSON numbers, numeric
// strings, null, or garbage. Malformed input decodes to zero instead of
// failing the whole document.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*a = 0
			return nil
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

// Issue is a reported environmental/infrastructure problem with a suggested
// fix budget. Records from the static fallback have no backend ID; callers
// must check Origin before treating ID as a backend key.
type Issue struct {
	ID          string `json:"id"`
	Origin      Origin `json:"origin,omitempty"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Amount      Amount `json:"amount"`
	Status      string `json:"status"`
	Date        string `json:"date,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	Email       string `json:"email"`
}

// UnmarshalJSON accepts both "id" and Mongo-style "_id" keys and defaults a
// missing status to ongoing.
func (i *Issue) UnmarshalJSON(data []byte) error {
	type alias Issue
	aux := struct {
		*alias
		AltID string `json:"_id"`
	}{alias: (*alias)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if i.ID == "" {
		i.ID = aux.AltID
	}
	if i.Status == "" {
		i.Status = StatusOngoing
	}
	return nil
}

// When returns the issue's timestamp for ordering, preferring the date field
// over createdAt. Missing or unparseable dates collapse to the zero time so
// sorting never fails on sparse records.
func (i Issue) When() time.Time {
	if t, ok := ParseWhen(i.Date); ok {
		return t
	}
	if t, ok := ParseWhen(i.CreatedAt); ok {
		return t
	}
	return time.Time{}
}

// OwnerEmail returns the email the record is scoped by.
func (i Issue) OwnerEmail() string { return i.Email }

// whenLayouts are the timestamp shapes observed across the backend and the
// fallback file.
var whenLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// ParseWhen parses a timestamp string in any of the tolerated layouts.
func ParseWhen(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
