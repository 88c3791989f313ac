package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportExcel writes the audit trail to an xlsx file for monthly reports.
func (s *Store) ExportExcel(ctx context.Context, path string, limit int) error {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Audit"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Event", "Payload", "Created At"}
	for i, col := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for row, e := range entries {
		values := []interface{}{e.ID, e.EventType, e.Payload, e.CreatedAt.Format(time.RFC3339)}
		for i, val := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

// ExportFilename creates a filename like "audit_2026-08.xlsx" for the
// given month.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("audit_%s.xlsx", t.Format("2006-01"))
}
