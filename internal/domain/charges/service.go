package charges

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"regie/internal/platform/events"
)

// CalculationRecorder counts calculations by outcome.
type CalculationRecorder interface {
	ObserveCalculation(outcome string)
}

type Option func(*Service)

func WithRateBook(book RateBook) Option {
	return func(s *Service) { s.book = book }
}

// WithPeriodFilter narrows the summed records to the requested period
// instead of every record of the project.
func WithPeriodFilter(enabled bool) Option {
	return func(s *Service) { s.filterByPeriod = enabled }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

func WithRecorder(recorder CalculationRecorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type Service struct {
	store          StoreAPI
	records        RecordSource
	book           RateBook
	filterByPeriod bool
	publisher      events.Publisher
	recorder       CalculationRecorder
	logger         *zap.Logger
}

func NewService(store StoreAPI, records RecordSource, opts ...Option) *Service {
	s := &Service{
		store:     store,
		records:   records,
		book:      DefaultRateBook(),
		publisher: events.Nop{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) RateBook() RateBook {
	return s.book
}

// Preview runs the calculator without persisting anything.
func (s *Service) Preview(ctx context.Context, tenantID, projectID, period string) (Result, error) {
	result, _, err := s.calculate(ctx, tenantID, projectID, period)
	return result, err
}

// Save recalculates server-side and stores the result.
func (s *Service) Save(ctx context.Context, tenantID, userID string, input SaveInput) (Record, error) {
	result, projectName, err := s.calculate(ctx, tenantID, input.ProjectID, input.Period)
	if err != nil {
		return Record{}, err
	}
	record := Record{
		Result:      result,
		ProjectName: projectName,
		Metadata:    input.Metadata,
		CreatedBy:   userID,
	}
	created, err := s.store.Create(ctx, tenantID, record)
	if err != nil {
		return Record{}, fmt.Errorf("save social charges: %w", err)
	}
	s.publish(ctx, tenantID, events.TypeChargesSaved, created)
	return created, nil
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Record, int, error) {
	total, err := s.store.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count social charges: %w", err)
	}
	records, err := s.store.List(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list social charges: %w", err)
	}
	return records, total, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (Record, error) {
	record, err := s.store.Get(ctx, tenantID, id)
	if errors.Is(err, ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get social charges: %w", err)
	}
	return record, nil
}

// Duplicate stores a copy of an existing calculation under a new id. The
// copy keeps the original figures; it is not recalculated.
func (s *Service) Duplicate(ctx context.Context, tenantID, userID, id string) (Record, error) {
	original, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return Record{}, err
	}
	metadata := make(map[string]any, len(original.Metadata)+1)
	for key, value := range original.Metadata {
		metadata[key] = value
	}
	metadata["duplicatedFrom"] = original.ID

	breakdown := make([]BreakdownEntry, len(original.Breakdown))
	copy(breakdown, original.Breakdown)
	copyRecord := Record{
		Result:      original.Result,
		ProjectName: original.ProjectName,
		Metadata:    metadata,
		CreatedBy:   userID,
	}
	copyRecord.Breakdown = breakdown

	created, err := s.store.Create(ctx, tenantID, copyRecord)
	if err != nil {
		return Record{}, fmt.Errorf("duplicate social charges: %w", err)
	}
	s.publish(ctx, tenantID, events.TypeChargesSaved, created)
	return created, nil
}

func (s *Service) Delete(ctx context.Context, tenantID string, ids []string) (int, error) {
	ids = compactIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	removed, err := s.store.Delete(ctx, tenantID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete social charges: %w", err)
	}
	for _, id := range removed {
		s.publish(ctx, tenantID, events.TypeChargesDeleted, Record{ID: id})
	}
	return len(removed), nil
}

// Stats aggregates saved calculations. AverageRate is total charges as a
// percentage of total gross, rounded to two decimals.
func (s *Service) Stats(ctx context.Context, tenantID string, filter Filter) (Stats, error) {
	stats, err := s.store.Totals(ctx, tenantID, filter)
	if err != nil {
		return Stats{}, fmt.Errorf("social charges stats: %w", err)
	}
	stats.AverageRate = decimal.Zero
	if stats.TotalGross.IsPositive() {
		stats.AverageRate = stats.TotalCharges.Div(stats.TotalGross).Mul(hundred).Round(2)
	}
	return stats, nil
}

func (s *Service) calculate(ctx context.Context, tenantID, projectID, period string) (Result, string, error) {
	projectID = strings.TrimSpace(projectID)
	period = strings.TrimSpace(period)
	if projectID == "" || period == "" {
		s.observe(OutcomeSkipped)
		return Result{}, "", ErrMissingInput
	}

	records, err := s.records.ListForProject(ctx, tenantID, projectID)
	if err != nil {
		s.observe(OutcomeFailed)
		return Result{}, "", fmt.Errorf("load compensation records: %w", err)
	}
	if s.filterByPeriod {
		records = InPeriod(records, period)
	}

	result, ok := Calculate(records, projectID, period, s.book.ForPeriod(period))
	if !ok {
		s.observe(OutcomeSkipped)
		return Result{}, "", ErrMissingInput
	}
	s.observe(OutcomeOK)

	projectName := ""
	for _, record := range records {
		if record.ProjectName != "" {
			projectName = record.ProjectName
			break
		}
	}
	s.logger.Debug("social charges calculated",
		zap.String("tenantId", tenantID),
		zap.String("projectId", projectID),
		zap.String("period", period),
		zap.Int("records", len(records)),
		zap.Stringer("totalGross", result.TotalGross),
	)
	return result, projectName, nil
}

func (s *Service) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveCalculation(outcome)
	}
}

// publish never fails the caller; the stored calculation is the source of truth.
func (s *Service) publish(ctx context.Context, tenantID, eventType string, record Record) {
	evt := events.Event{
		Type:         eventType,
		TenantID:     tenantID,
		EntityID:     record.ID,
		ProjectID:    record.ProjectID,
		Period:       record.Period,
		TotalCharges: record.TotalCharges,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("publish charges event failed",
			zap.String("type", eventType),
			zap.String("id", record.ID),
			zap.Error(err),
		)
	}
}

func compactIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
