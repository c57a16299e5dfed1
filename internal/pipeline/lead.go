package pipeline

import (
	"strings"

	"loanpipe-backend/internal/crm"
)

// Lead is the dashboard's view of a remote contact. It is derived on
// every read and never persisted; the contact record stays the source of
// truth.
type Lead struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	LoanType   string   `json:"loanType,omitempty"`
	LoanAmount string   `json:"loanAmount,omitempty"`
	Stage      Stage    `json:"stage"`
	Labels     []string `json:"labels"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	UpdatedAt  string   `json:"updatedAt,omitempty"`
}

func LeadFromContact(c crm.Contact) Lead {
	stage := ResolveStage(c.CustomFields, c.Tags)
	_, labels := SplitTags(c.Tags)

	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = c.Email
	}

	return Lead{
		ID:         c.ID,
		Name:       name,
		Email:      c.Email,
		Phone:      c.Phone,
		LoanType:   c.CustomFields["loanType"],
		LoanAmount: c.CustomFields["loanAmount"],
		Stage:      stage,
		Labels:     labels,
		CreatedAt:  c.DateAdded,
		UpdatedAt:  c.DateUpdated,
	}
}
