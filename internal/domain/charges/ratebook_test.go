package charges

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedule(from, employee string, employer ...Rate) RateSchedule {
	if len(employer) == 0 {
		employer = DefaultSchedule().EmployerRates
	}
	return RateSchedule{EffectiveFrom: from, EmployeeRate: dec(employee), EmployerRates: employer}
}

func TestDefaultRateBook(t *testing.T) {
	book := DefaultRateBook()
	got := book.ForPeriod("2024-01")
	assert.True(t, got.EmployeeRate.Equal(decimal.NewFromInt(15)))
	assert.Len(t, got.EmployerRates, 5)
	require.NoError(t, got.Validate())
}

func TestRateBookForPeriod(t *testing.T) {
	book, err := NewRateBook(
		schedule("2025-01", "16"),
		schedule("2023-07", "14"),
		schedule("2024-01", "15"),
	)
	require.NoError(t, err)

	cases := map[string]string{
		"2023-07":   "14",
		"2023-12":   "14",
		"2024-01":   "15",
		"2024-12":   "15",
		"2025-01":   "16",
		"2030-06":   "16",
		"2020-01":   "14",
		"not-month": "16",
		"":          "16",
	}
	for period, want := range cases {
		got := book.ForPeriod(period)
		assert.True(t, got.EmployeeRate.Equal(dec(want)), "period %q: want employee rate %s, got %s", period, want, got.EmployeeRate)
	}

	schedules := book.Schedules()
	require.Len(t, schedules, 3)
	assert.Equal(t, "2023-07", schedules[0].EffectiveFrom)
	assert.Equal(t, "2025-01", schedules[2].EffectiveFrom)
}

func TestNewRateBookRejectsInvalidSchedules(t *testing.T) {
	cases := map[string][]RateSchedule{
		"empty":              nil,
		"duplicate period":   {schedule("2024-01", "15"), schedule("2024-01", "16")},
		"bad period":         {schedule("2024/01", "15")},
		"negative employee":  {schedule("", "-1")},
		"employee over 100":  {schedule("", "100.5")},
		"no employer rates":  {{EmployeeRate: dec("15")}},
		"blank employer":     {schedule("", "15", Rate{Type: " ", Percent: dec("1")})},
		"duplicate employer": {schedule("", "15", Rate{Type: "a", Percent: dec("1")}, Rate{Type: "a", Percent: dec("2")})},
		"negative employer":  {schedule("", "15", Rate{Type: "a", Percent: dec("-0.1")})},
	}
	for name, schedules := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRateBook(schedules...)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRateBookTOML(t *testing.T) {
	path := writeFile(t, "rates.toml", `
[[schedule]]
effective_from = "2024-01"
employee_rate = 15

  [[schedule.employer]]
  type = "social_contributions"
  description = "Employer social contributions"
  rate = 22.0

  [[schedule.employer]]
  type = "housing_assistance_fund"
  rate = 0.5

[[schedule]]
effective_from = "2025-01"
employee_rate = 15.5

  [[schedule.employer]]
  type = "social_contributions"
  rate = 23.0
`)

	book, err := LoadRateBook(path)
	require.NoError(t, err)
	require.Len(t, book.Schedules(), 2)

	early := book.ForPeriod("2024-06")
	require.Len(t, early.EmployerRates, 2)
	assert.Equal(t, "social_contributions", early.EmployerRates[0].Type)
	assert.Equal(t, "Employer social contributions", early.EmployerRates[0].Description)
	assert.True(t, early.EmployerRates[1].Percent.Equal(dec("0.5")))

	late := book.ForPeriod("2025-03")
	assert.True(t, late.EmployeeRate.Equal(dec("15.5")))
	assert.True(t, late.EmployerRates[0].Percent.Equal(dec("23")))
}

func TestLoadRateBookYAML(t *testing.T) {
	path := writeFile(t, "rates.yaml", `
schedules:
  - effective_from: "2024-01"
    employee_rate: 15
    employer:
      - type: social_contributions
        rate: 22
      - type: unemployment_insurance
        rate: 4
`)

	book, err := LoadRateBook(path)
	require.NoError(t, err)

	result, ok := Calculate(nil, "p", "2024-02", book.ForPeriod("2024-02"))
	require.True(t, ok)
	assert.Len(t, result.Breakdown, 2)
	assert.True(t, result.TotalGross.IsZero())
}

func TestLoadRateBookErrors(t *testing.T) {
	_, err := LoadRateBook(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadRateBook(writeFile(t, "rates.json", `{}`))
	assert.Error(t, err)

	_, err = LoadRateBook(writeFile(t, "rates.yml", "schedules: []\n"))
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = LoadRateBook(writeFile(t, "rates.toml", "[[schedule]\n"))
	assert.Error(t, err)
}
