package compensation

import (
	"context"
	"fmt"
	"strings"

	"regie/internal/platform/querier"
)

const recordColumns = `id::text, project_id, project_name, contact_id, contact_name, role,
    hours, hourly_rate, total_amount, currency, status, start_date, end_date, notes, created_by, created_at`

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Count(ctx context.Context, tenantID string, filter Filter) (int, error) {
	query, args := buildFilterQuery("SELECT COUNT(1)", tenantID, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, tenantID string, filter Filter, limit, offset int) ([]Record, error) {
	query, args := buildFilterQuery("SELECT "+recordColumns, tenantID, filter)
	query += fmt.Sprintf(" ORDER BY start_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.query(ctx, query, args...)
}

func (s *Store) ListForProject(ctx context.Context, tenantID, projectID string) ([]Record, error) {
	return s.query(ctx, `
    SELECT `+recordColumns+`
    FROM compensation_records
    WHERE tenant_id = $1 AND project_id = $2
    ORDER BY start_date, created_at
  `, tenantID, projectID)
}

func (s *Store) Create(ctx context.Context, tenantID string, record Record) (Record, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO compensation_records (tenant_id, project_id, project_name, contact_id, contact_name, role,
      hours, hourly_rate, total_amount, currency, status, start_date, end_date, notes, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING id::text, created_at
  `, tenantID, record.ProjectID, record.ProjectName, record.ContactID, record.ContactName, record.Role,
		record.Hours, record.HourlyRate, record.TotalAmount, record.Currency, record.Status,
		record.StartDate, record.EndDate, record.Notes, record.CreatedBy).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.ProjectName, &rec.ContactID, &rec.ContactName, &rec.Role,
			&rec.Hours, &rec.HourlyRate, &rec.TotalAmount, &rec.Currency, &rec.Status,
			&rec.StartDate, &rec.EndDate, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func buildFilterQuery(prefix, tenantID string, filter Filter) (string, []any) {
	query := prefix + " FROM compensation_records WHERE tenant_id = $1"
	args := []any{tenantID}
	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}
	if filter.ProjectID != "" {
		add("project_id = $%d", filter.ProjectID)
	}
	if filter.ContactID != "" {
		add("contact_id = $%d", filter.ContactID)
	}
	if filter.Status != "" {
		add("status = $%d", strings.ToUpper(filter.Status))
	}
	if !filter.StartDate.IsZero() {
		add("end_date >= $%d", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		add("start_date <= $%d", filter.EndDate)
	}
	if filter.MinAmount != nil {
		add("total_amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		add("total_amount <= $%d", *filter.MaxAmount)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (role ILIKE $%d OR contact_name ILIKE $%d OR project_name ILIKE $%d)", len(args), len(args), len(args))
	}
	return query, args
}
