package charges

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedRecord() Record {
	result, _ := Calculate(sourceWithProject().records, "proj1", "2024-01", DefaultSchedule())
	return Record{
		Result:      result,
		ID:          "calc-1",
		ProjectName: "Tournée d'hiver",
		CreatedAt:   time.Date(2024, time.February, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Record{savedRecord()}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"calc-1", "proj1", "Tournée d'hiver", "2024-01",
		"1500.00", "417.00", "225.00", "1275.00", "642.00", "2024-02-01T09:30:00Z",
	}, rows[1])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, savedRecord()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "output is a PDF document")
	assert.Greater(t, buf.Len(), 500)
}

func TestExportRecords(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, sourceWithProject())
	ctx := context.Background()
	for _, period := range []string{"2024-01", "2024-02"} {
		_, err := svc.Save(ctx, "tenant", "u", SaveInput{ProjectID: "proj1", Period: period})
		require.NoError(t, err)
	}

	all, err := svc.ExportRecords(ctx, "tenant", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	picked, err := svc.ExportRecords(ctx, "tenant", []string{"calc-2", "calc-2", ""})
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, "2024-02", picked[0].Period)
}

func TestServiceExportCSVAndPDF(t *testing.T) {
	svc := NewService(newFakeStore(), sourceWithProject())
	ctx := context.Background()
	saved, err := svc.Save(ctx, "tenant", "u", SaveInput{ProjectID: "proj1", Period: "2024-01"})
	require.NoError(t, err)

	var csvOut bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, "tenant", nil, &csvOut))
	assert.Contains(t, csvOut.String(), "642.00")

	var pdfOut bytes.Buffer
	require.NoError(t, svc.RenderPDF(ctx, "tenant", saved.ID, &pdfOut))
	assert.True(t, bytes.HasPrefix(pdfOut.Bytes(), []byte("%PDF-")))

	assert.ErrorIs(t, svc.RenderPDF(ctx, "tenant", "missing", &pdfOut), ErrNotFound)
}
