package charges

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const exportLimit = 10000

var csvHeader = []string{
	"id", "project_id", "project_name", "period",
	"total_gross", "employer_charges", "employee_charges", "total_net", "total_charges", "created_at",
}

// ExportRecords returns the selected calculations, or the most recent ones
// when ids is empty.
func (s *Service) ExportRecords(ctx context.Context, tenantID string, ids []string) ([]Record, error) {
	ids = compactIDs(ids)
	var (
		records []Record
		err     error
	)
	if len(ids) == 0 {
		records, err = s.store.List(ctx, tenantID, Filter{}, exportLimit, 0)
	} else {
		records, err = s.store.ListByIDs(ctx, tenantID, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("export social charges: %w", err)
	}
	return records, nil
}

// ExportCSV writes the selected calculations, or the most recent ones, as CSV.
func (s *Service) ExportCSV(ctx context.Context, tenantID string, ids []string, w io.Writer) error {
	records, err := s.ExportRecords(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	return WriteCSV(w, records)
}

func (s *Service) RenderPDF(ctx context.Context, tenantID, id string, w io.Writer) error {
	record, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := WritePDF(w, record); err != nil {
		return fmt.Errorf("render social charges statement: %w", err)
	}
	return nil
}

func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write([]string{
			rec.ID,
			rec.ProjectID,
			rec.ProjectName,
			rec.Period,
			rec.TotalGross.StringFixed(2),
			rec.TotalEmployerCharges.StringFixed(2),
			rec.TotalEmployeeCharges.StringFixed(2),
			rec.TotalNet.StringFixed(2),
			rec.TotalCharges.StringFixed(2),
			rec.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePDF renders a one-page statement of a saved calculation.
func WritePDF(w io.Writer, rec Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Social charges statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	project := rec.ProjectID
	if rec.ProjectName != "" {
		project = rec.ProjectName + " (" + rec.ProjectID + ")"
	}
	pdf.Cell(0, 8, tr(fmt.Sprintf("Project: %s", project)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", rec.Period))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Calculated: %s", rec.CreatedAt.UTC().Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 8, "Contribution", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Rate", "B", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, entry := range rec.Breakdown {
		label := entry.Description
		if label == "" {
			label = entry.Type
		}
		pdf.CellFormat(90, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, entry.Rate.StringFixed(1)+" %", "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, entry.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totals := []struct {
		label string
		value string
	}{
		{"Total gross", rec.TotalGross.StringFixed(2)},
		{"Employer charges", rec.TotalEmployerCharges.StringFixed(2)},
		{"Employee charges", rec.TotalEmployeeCharges.StringFixed(2)},
		{"Total net", rec.TotalNet.StringFixed(2)},
		{"Total charges", rec.TotalCharges.StringFixed(2)},
	}
	pdf.SetFont("Helvetica", "B", 11)
	for _, line := range totals {
		pdf.CellFormat(120, 7, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, line.value, "", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}
