package api

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/okian/hackreg/internal/domain/statistics"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	statisticsSheet = "Statistics"
)

// statisticsWorkbook renders one row per (entry, response) pair.
func statisticsWorkbook(entries []statistics.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", statisticsSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	header := []any{"Branch", "Question", "Label", "Response", "Count"}
	if err := f.SetSheetRow(statisticsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	row := 2
	for _, e := range entries {
		for _, resp := range e.Responses {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			values := []any{e.Branch, e.QuestionName, e.QuestionLabel, resp.Response, resp.Count}
			if err := f.SetSheetRow(statisticsSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}
	if err := f.SetColWidth(statisticsSheet, "A", "D", 24); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
