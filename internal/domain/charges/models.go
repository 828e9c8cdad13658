package charges

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate is one contribution category expressed as a percentage of gross pay.
type Rate struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Percent     decimal.Decimal `json:"rate"`
}

func (r Rate) Apply(base decimal.Decimal) decimal.Decimal {
	return base.Mul(r.Percent.Shift(-2))
}

// RateSchedule is the rate table in force from EffectiveFrom (YYYY-MM, empty
// meaning "always").
type RateSchedule struct {
	EffectiveFrom string          `json:"effectiveFrom,omitempty"`
	EmployeeRate  decimal.Decimal `json:"employeeRate"`
	EmployerRates []Rate          `json:"employerRates"`
}

type BreakdownEntry struct {
	Type        string          `json:"type"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// Result is one calculation. TotalEmployerCharges is always the sum of the
// Breakdown amounts; both are produced together by newResult.
type Result struct {
	ProjectID            string           `json:"projectId"`
	Period               string           `json:"period"`
	TotalGross           decimal.Decimal  `json:"totalGross"`
	TotalEmployerCharges decimal.Decimal  `json:"employerCharges"`
	TotalEmployeeCharges decimal.Decimal  `json:"employeeCharges"`
	TotalNet             decimal.Decimal  `json:"totalNet"`
	TotalCharges         decimal.Decimal  `json:"totalCharges"`
	Breakdown            []BreakdownEntry `json:"breakdown"`
}

// Record is a saved Result.
type Record struct {
	Result
	ID          string         `json:"id"`
	ProjectName string         `json:"projectName"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedBy   string         `json:"createdBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type Filter struct {
	ProjectID string
	Period    string
}

type SaveInput struct {
	ProjectID string
	Period    string
	Metadata  map[string]any
}

type Stats struct {
	Count        int             `json:"count"`
	TotalGross   decimal.Decimal `json:"totalGross"`
	TotalNet     decimal.Decimal `json:"totalNet"`
	TotalCharges decimal.Decimal `json:"totalCharges"`
	AverageRate  decimal.Decimal `json:"averageRate"`
}
