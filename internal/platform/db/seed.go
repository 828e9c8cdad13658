package db

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"regie/internal/platform/querier"
)

type seedRecord struct {
	projectID   string
	projectName string
	contactID   string
	contactName string
	role        string
	hours       string
	hourlyRate  string
	start       string
	end         string
}

var demoRecords = []seedRecord{
	{"demo-festival", "Summer festival", "c-001", "Claire Martin", "Stage manager", "35", "28.57", "2024-01-08", "2024-01-12"},
	{"demo-festival", "Summer festival", "c-002", "Hugo Bernard", "Lighting technician", "20", "25", "2024-01-10", "2024-01-12"},
	{"demo-festival", "Summer festival", "c-003", "Léa Dubois", "Sound engineer", "24", "27.50", "2024-02-05", "2024-02-08"},
	{"demo-tour", "Winter tour", "c-004", "Nina Petit", "Actor", "40", "31.25", "2024-01-15", "2024-01-20"},
}

// Seed inserts demo compensation records for a tenant that has none. It
// returns the number of rows written.
func Seed(ctx context.Context, q querier.Querier, tenantID string) (int, error) {
	var existing int
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM compensation_records WHERE tenant_id = $1", tenantID).Scan(&existing); err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	inserted := 0
	for _, rec := range demoRecords {
		hours := decimal.RequireFromString(rec.hours)
		rate := decimal.RequireFromString(rec.hourlyRate)
		start, err := time.Parse("2006-01-02", rec.start)
		if err != nil {
			return inserted, err
		}
		end, err := time.Parse("2006-01-02", rec.end)
		if err != nil {
			return inserted, err
		}
		if _, err := q.Exec(ctx, `
      INSERT INTO compensation_records (tenant_id, project_id, project_name, contact_id, contact_name, role,
        hours, hourly_rate, total_amount, currency, status, start_date, end_date, notes, created_by)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'EUR','APPROVED',$10,$11,'demo data','seed')
    `, tenantID, rec.projectID, rec.projectName, rec.contactID, rec.contactName, rec.role,
			hours, rate, hours.Mul(rate), start, end); err != nil {
			return inserted, fmt.Errorf("seed %s/%s: %w", rec.projectID, rec.contactID, err)
		}
		inserted++
	}
	return inserted, nil
}
