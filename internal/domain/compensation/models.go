package compensation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the gross pay owed to one worker on one project. The charges
// calculator only reads ProjectID and TotalAmount.
type Record struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"projectId"`
	ProjectName string          `json:"projectName"`
	ContactID   string          `json:"contactId"`
	ContactName string          `json:"contactName"`
	Role        string          `json:"role"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourlyRate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	Notes       string          `json:"notes,omitempty"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Filter struct {
	Search    string
	ProjectID string
	ContactID string
	Status    string
	StartDate time.Time
	EndDate   time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

type CreateInput struct {
	ProjectID   string
	ProjectName string
	ContactID   string
	ContactName string
	Role        string
	Hours       decimal.Decimal
	HourlyRate  decimal.Decimal
	TotalAmount decimal.Decimal
	Currency    string
	Status      string
	StartDate   time.Time
	EndDate     time.Time
	Notes       string
}
