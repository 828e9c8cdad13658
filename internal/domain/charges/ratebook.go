package charges

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var hundred = decimal.NewFromInt(100)

// RateBook holds schedules ordered by EffectiveFrom, oldest first.
type RateBook struct {
	schedules []RateSchedule
}

func DefaultRateBook() RateBook {
	return RateBook{schedules: []RateSchedule{DefaultSchedule()}}
}

func NewRateBook(schedules ...RateSchedule) (RateBook, error) {
	if len(schedules) == 0 {
		return RateBook{}, fmt.Errorf("%w: no schedules", ErrInvalidSchedule)
	}
	seen := make(map[string]bool, len(schedules))
	out := make([]RateSchedule, 0, len(schedules))
	for _, schedule := range schedules {
		if err := schedule.Validate(); err != nil {
			return RateBook{}, err
		}
		if seen[schedule.EffectiveFrom] {
			return RateBook{}, fmt.Errorf("%w: duplicate effective period %q", ErrInvalidSchedule, schedule.EffectiveFrom)
		}
		seen[schedule.EffectiveFrom] = true
		out = append(out, schedule)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveFrom < out[j].EffectiveFrom
	})
	return RateBook{schedules: out}, nil
}

func (b RateBook) Schedules() []RateSchedule {
	out := make([]RateSchedule, len(b.schedules))
	copy(out, b.schedules)
	return out
}

// ForPeriod picks the newest schedule already in force for a YYYY-MM period.
// Periods that do not parse use the newest schedule; periods older than every
// schedule use the oldest.
func (b RateBook) ForPeriod(period string) RateSchedule {
	if len(b.schedules) == 0 {
		return DefaultSchedule()
	}
	newest := b.schedules[len(b.schedules)-1]
	period = strings.TrimSpace(period)
	if _, err := time.Parse(periodLayout, period); err != nil {
		return newest
	}
	for i := len(b.schedules) - 1; i >= 0; i-- {
		if b.schedules[i].EffectiveFrom <= period {
			return b.schedules[i]
		}
	}
	return b.schedules[0]
}

func (s RateSchedule) Validate() error {
	if s.EffectiveFrom != "" {
		if _, err := time.Parse(periodLayout, s.EffectiveFrom); err != nil {
			return fmt.Errorf("%w: effective period %q is not YYYY-MM", ErrInvalidSchedule, s.EffectiveFrom)
		}
	}
	if !validPercent(s.EmployeeRate) {
		return fmt.Errorf("%w: employee rate %s outside [0,100]", ErrInvalidSchedule, s.EmployeeRate)
	}
	if len(s.EmployerRates) == 0 {
		return fmt.Errorf("%w: at least one employer rate is required", ErrInvalidSchedule)
	}
	types := make(map[string]bool, len(s.EmployerRates))
	for _, rate := range s.EmployerRates {
		name := strings.TrimSpace(rate.Type)
		if name == "" {
			return fmt.Errorf("%w: employer rate without type", ErrInvalidSchedule)
		}
		if types[name] {
			return fmt.Errorf("%w: duplicate employer rate %q", ErrInvalidSchedule, name)
		}
		types[name] = true
		if !validPercent(rate.Percent) {
			return fmt.Errorf("%w: rate %q = %s outside [0,100]", ErrInvalidSchedule, name, rate.Percent)
		}
	}
	return nil
}

func validPercent(value decimal.Decimal) bool {
	return !value.IsNegative() && value.LessThanOrEqual(hundred)
}

type rateFile struct {
	Schedules []scheduleFile `toml:"schedule" yaml:"schedules"`
}

type scheduleFile struct {
	EffectiveFrom string      `toml:"effective_from" yaml:"effective_from"`
	EmployeeRate  float64     `toml:"employee_rate" yaml:"employee_rate"`
	Employer      []rateEntry `toml:"employer" yaml:"employer"`
}

type rateEntry struct {
	Type        string  `toml:"type" yaml:"type"`
	Description string  `toml:"description" yaml:"description"`
	Rate        float64 `toml:"rate" yaml:"rate"`
}

// LoadRateBook reads a rate book from a .toml or .yaml/.yml file.
func LoadRateBook(path string) (RateBook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RateBook{}, fmt.Errorf("read rates file: %w", err)
	}

	var file rateFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &file); err != nil {
			return RateBook{}, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return RateBook{}, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return RateBook{}, fmt.Errorf("unsupported rates file %q", path)
	}

	schedules := make([]RateSchedule, 0, len(file.Schedules))
	for _, entry := range file.Schedules {
		schedule := RateSchedule{
			EffectiveFrom: strings.TrimSpace(entry.EffectiveFrom),
			EmployeeRate:  decimal.NewFromFloat(entry.EmployeeRate),
		}
		for _, rate := range entry.Employer {
			schedule.EmployerRates = append(schedule.EmployerRates, Rate{
				Type:        strings.TrimSpace(rate.Type),
				Description: rate.Description,
				Percent:     decimal.NewFromFloat(rate.Rate),
			})
		}
		schedules = append(schedules, schedule)
	}
	return NewRateBook(schedules...)
}
