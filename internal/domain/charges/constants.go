package charges

import "github.com/shopspring/decimal"

const (
	TypeSocialContributions   = "social_contributions"
	TypeUnemploymentInsurance = "unemployment_insurance"
	TypeProfessionalTraining  = "professional_training"
	TypeHousingAssistanceFund = "housing_assistance_fund"
	TypeTemporaryContribution = "temporary_exceptional_contribution"

	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"

	periodLayout = "2006-01"
)

// DefaultSchedule is the rate table applied when no rates file is configured.
// Percentages, not fractions.
func DefaultSchedule() RateSchedule {
	return RateSchedule{
		EmployeeRate: decimal.NewFromInt(15),
		EmployerRates: []Rate{
			{Type: TypeSocialContributions, Percent: decimal.RequireFromString("22.0"), Description: "Employer social contributions"},
			{Type: TypeUnemploymentInsurance, Percent: decimal.RequireFromString("4.0"), Description: "Employer unemployment insurance"},
			{Type: TypeProfessionalTraining, Percent: decimal.RequireFromString("1.0"), Description: "Employer professional training levy"},
			{Type: TypeHousingAssistanceFund, Percent: decimal.RequireFromString("0.5"), Description: "National housing assistance fund (FNAL)"},
			{Type: TypeTemporaryContribution, Percent: decimal.RequireFromString("0.3"), Description: "Temporary exceptional contribution"},
		},
	}
}
