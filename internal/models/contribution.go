package models

import (
	"encoding/json"
	"time"
)

// Contribution is a monetary pledge against a specific issue. The issue's
// title and category are denormalized onto the record at creation time.
type Contribution struct {
	ID              string `json:"id"`
	Origin          Origin `json:"origin,omitempty"`
	IssueID         string `json:"issueId"`
	IssueTitle      string `json:"issueTitle"`
	Category        string `json:"category"`
	Amount          Amount `json:"amount"`
	ContributorName string `json:"contributorName"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Address         string `json:"address,omitempty"`
	Date            string `json:"date,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
	UserPhotoURL    string `json:"userPhotoURL,omitempty"`
}

// UnmarshalJSON accepts both "id" and Mongo-style "_id" keys.
func (c *Contribution) UnmarshalJSON(data []byte) error {
	type alias Contribution
	aux := struct {
		*alias
		AltID string `json:"_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.AltID
	}
	return nil
}

// When returns the contribution's timestamp for ordering.
func (c Contribution) When() time.Time {
	if t, ok := ParseWhen(c.Date); ok {
		return t
	}
	if t, ok := ParseWhen(c.CreatedAt); ok {
		return t
	}
	return time.Time{}
}

// OwnerEmail returns the email the record is scoped by.
func (c Contribution) OwnerEmail() string { return c.Email }
