package compensation

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Record, int, error) {
	total, err := s.store.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count compensation records: %w", err)
	}
	records, err := s.store.List(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list compensation records: %w", err)
	}
	return records, total, nil
}

// ListForProject returns every record of the project regardless of period;
// this is what the charges calculator consumes.
func (s *Service) ListForProject(ctx context.Context, tenantID, projectID string) ([]Record, error) {
	records, err := s.store.ListForProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list compensation records for project: %w", err)
	}
	return records, nil
}

func (s *Service) Create(ctx context.Context, tenantID, userID string, input CreateInput) (Record, error) {
	record := Normalize(input)
	record.CreatedBy = userID
	created, err := s.store.Create(ctx, tenantID, record)
	if err != nil {
		return Record{}, fmt.Errorf("create compensation record: %w", err)
	}
	return created, nil
}

// Normalize applies creation defaults: EUR currency, PENDING status, and a
// total derived from hours × hourly rate when none was given.
func Normalize(input CreateInput) Record {
	record := Record{
		ProjectID:   strings.TrimSpace(input.ProjectID),
		ProjectName: strings.TrimSpace(input.ProjectName),
		ContactID:   strings.TrimSpace(input.ContactID),
		ContactName: strings.TrimSpace(input.ContactName),
		Role:        strings.TrimSpace(input.Role),
		Hours:       input.Hours,
		HourlyRate:  input.HourlyRate,
		TotalAmount: input.TotalAmount,
		Currency:    strings.ToUpper(strings.TrimSpace(input.Currency)),
		Status:      strings.ToUpper(strings.TrimSpace(input.Status)),
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Notes:       strings.TrimSpace(input.Notes),
	}
	if record.Currency == "" {
		record.Currency = DefaultCurrency
	}
	if record.Status == "" {
		record.Status = StatusPending
	}
	if record.TotalAmount.IsZero() {
		record.TotalAmount = record.Hours.Mul(record.HourlyRate)
	}
	return record
}
