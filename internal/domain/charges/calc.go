package charges

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"regie/internal/domain/compensation"
)

// Calculate derives the payroll overhead of every record belonging to
// projectID. Records are selected by project only; period is carried into the
// result but does not narrow the record set (see InPeriod). It returns false,
// and no result, when projectID or period is blank.
func Calculate(records []compensation.Record, projectID, period string, schedule RateSchedule) (Result, bool) {
	projectID = strings.TrimSpace(projectID)
	period = strings.TrimSpace(period)
	if projectID == "" || period == "" {
		return Result{}, false
	}

	gross := decimal.Zero
	for _, record := range records {
		if record.ProjectID == projectID {
			gross = gross.Add(record.TotalAmount)
		}
	}

	result := newResult(gross, schedule)
	result.ProjectID = projectID
	result.Period = period
	return result, true
}

func newResult(gross decimal.Decimal, schedule RateSchedule) Result {
	breakdown := make([]BreakdownEntry, 0, len(schedule.EmployerRates))
	employer := decimal.Zero
	for _, rate := range schedule.EmployerRates {
		amount := rate.Apply(gross)
		breakdown = append(breakdown, BreakdownEntry{
			Type:        rate.Type,
			Rate:        rate.Percent,
			Amount:      amount,
			Description: rate.Description,
		})
		employer = employer.Add(amount)
	}

	employee := gross.Mul(schedule.EmployeeRate.Shift(-2))
	return Result{
		TotalGross:           gross,
		TotalEmployerCharges: employer,
		TotalEmployeeCharges: employee,
		TotalNet:             gross.Sub(employee),
		TotalCharges:         employer.Add(employee),
		Breakdown:            breakdown,
	}
}

// InPeriod keeps the records whose start date falls in the YYYY-MM period.
// An unparseable period keeps nothing.
func InPeriod(records []compensation.Record, period string) []compensation.Record {
	start, err := time.Parse(periodLayout, strings.TrimSpace(period))
	if err != nil {
		return nil
	}
	end := start.AddDate(0, 1, 0)
	var out []compensation.Record
	for _, record := range records {
		day := time.Date(record.StartDate.Year(), record.StartDate.Month(), record.StartDate.Day(), 0, 0, 0, 0, time.UTC)
		if !day.Before(start) && day.Before(end) {
			out = append(out, record)
		}
	}
	return out
}
