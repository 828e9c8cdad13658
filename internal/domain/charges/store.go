package charges

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"regie/internal/platform/querier"
)

const chargesColumns = `id::text, project_id, project_name, period, total_gross, total_net,
    employer_charges, employee_charges, total_charges, breakdown_json, metadata_json, created_by, created_at, updated_at`

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, tenantID string, record Record) (Record, error) {
	breakdownJSON, err := json.Marshal(record.Breakdown)
	if err != nil {
		return Record{}, err
	}
	metadata := record.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return Record{}, err
	}

	err = s.DB.QueryRow(ctx, `
    INSERT INTO social_charges (tenant_id, project_id, project_name, period, total_gross, total_net,
      employer_charges, employee_charges, total_charges, breakdown_json, metadata_json, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING id::text, created_at, updated_at
  `, tenantID, record.ProjectID, record.ProjectName, record.Period, record.TotalGross, record.TotalNet,
		record.TotalEmployerCharges, record.TotalEmployeeCharges, record.TotalCharges,
		breakdownJSON, metadataJSON, record.CreatedBy).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *Store) Get(ctx context.Context, tenantID, id string) (Record, error) {
	records, err := s.query(ctx, `
    SELECT `+chargesColumns+`
    FROM social_charges
    WHERE tenant_id = $1 AND id::text = $2
  `, tenantID, id)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, ErrNotFound
	}
	return records[0], nil
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
	query, args := buildFilterQuery("SELECT "+chargesColumns, tenantID, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.query(ctx, query, args...)
}

func (s *Store) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]Record, error) {
	return s.query(ctx, `
    SELECT `+chargesColumns+`
    FROM social_charges
    WHERE tenant_id = $1 AND id::text = ANY($2)
    ORDER BY created_at DESC
  `, tenantID, ids)
}

func (s *Store) Delete(ctx context.Context, tenantID string, ids []string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    DELETE FROM social_charges
    WHERE tenant_id = $1 AND id::text = ANY($2)
    RETURNING id::text
  `, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		removed = append(removed, id)
	}
	return removed, rows.Err()
}

func (s *Store) Totals(ctx context.Context, tenantID string, filter Filter) (Stats, error) {
	query, args := buildFilterQuery(
		"SELECT COUNT(1), COALESCE(SUM(total_gross),0), COALESCE(SUM(total_net),0), COALESCE(SUM(total_charges),0)",
		tenantID, filter)
	var stats Stats
	err := s.DB.QueryRow(ctx, query, args...).Scan(&stats.Count, &stats.TotalGross, &stats.TotalNet, &stats.TotalCharges)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
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
		var breakdownJSON, metadataJSON []byte
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.ProjectName, &rec.Period, &rec.TotalGross, &rec.TotalNet,
			&rec.TotalEmployerCharges, &rec.TotalEmployeeCharges, &rec.TotalCharges,
			&breakdownJSON, &metadataJSON, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if err := decodeColumns(&rec, breakdownJSON, metadataJSON); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// decodeColumns fills the JSONB columns of rec. A NULL metadata column is
// fine; an undecodable one is an error.
func decodeColumns(rec *Record, breakdownJSON, metadataJSON []byte) error {
	if err := json.Unmarshal(breakdownJSON, &rec.Breakdown); err != nil {
		return fmt.Errorf("decode breakdown of %s: %w", rec.ID, err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return fmt.Errorf("decode metadata of %s: %w", rec.ID, err)
		}
	}
	if len(rec.Metadata) == 0 {
		rec.Metadata = nil
	}
	return nil
}

func buildFilterQuery(prefix, tenantID string, filter Filter) (string, []any) {
	query := prefix + " FROM social_charges WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		query += fmt.Sprintf(" AND period = $%d", len(args))
	}
	return query, args
}
