package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"smart-notes-platform/internal/index"
	"smart-notes-platform/models"

	"github.com/xuri/excelize/v2"
)

// ExportService generates spreadsheet reports over the document corpus.
type ExportService struct {
	store index.DocumentStore
}

func NewExportService(store index.DocumentStore) *ExportService {
	return &ExportService{store: store}
}

// CorpusReport builds an Excel workbook listing every document with its
// processing state, plus a summary sheet of per-status counts.
func (es *ExportService) CorpusReport(ctx context.Context) ([]byte, error) {
	docs, err := es.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Documents"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	headers := []string{
		"ID", "Filename", "Format", "Size", "Status", "Failure Reason",
		"Attempts", "Uploaded At", "Indexed At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	statusCounts := map[string]int{}
	for rowIdx, doc := range docs {
		row := rowIdx + 2
		statusCounts[doc.Status]++

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), doc.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), doc.OriginalFilename)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), doc.Format)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), doc.Size)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), doc.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), doc.FailureReason)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), doc.Attempts)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), doc.UploadedAt.Format("2006-01-02 15:04:05"))
		if doc.IndexedAt != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), doc.IndexedAt.Format("2006-01-02 15:04:05"))
		}
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 18)
	}

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summaryData := [][]interface{}{
		{"Report Date", time.Now().Format("2006-01-02 15:04:05")},
		{"Total Documents", len(docs)},
		{"", ""},
		{"Status", "Count"},
		{models.StatusUploaded, statusCounts[models.StatusUploaded]},
		{models.StatusQueued, statusCounts[models.StatusQueued]},
		{models.StatusProcessing, statusCounts[models.StatusProcessing]},
		{models.StatusIndexed, statusCounts[models.StatusIndexed]},
		{models.StatusFailed, statusCounts[models.StatusFailed]},
	}
	for i, row := range summaryData {
		for j, cell := range row {
			cellRef := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(summarySheet, cellRef, cell)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
