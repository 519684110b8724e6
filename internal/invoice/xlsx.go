package invoice

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// RenderXLSX produces a spreadsheet rendition of the same document, for
// offices that want the invoice in their accounting tooling rather than
// as HTML.
func RenderXLSX(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Invoice"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	head := map[string]interface{}{
		"A1": "Office serial", "B1": doc.OfficeSerial,
		"A2": "Tracking number",
		"A3": "Phase", "B3": doc.PhaseNumber,
		"A5": "Action item", "B5": "Type", "C5": "Date", "D5": "Minutes", "E5": "Subtotal",
	}
	if doc.TTNumber != nil {
		head["B2"] = *doc.TTNumber
	}
	for cell, value := range head {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}

	row := 6
	for _, line := range doc.Lines {
		values := []interface{}{line.Name, line.TypeDescription, line.Date, line.Minutes, line.Money}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write line row: %w", err)
			}
		}
		row++
	}

	row++
	totals := []struct {
		cell  string
		value interface{}
	}{
		{fmt.Sprintf("A%d", row), "Grand total"},
		{fmt.Sprintf("D%d", row), doc.TotalMinutes},
		{fmt.Sprintf("E%d", row), doc.TotalMoney},
	}
	for _, t := range totals {
		if err := f.SetCellValue(sheet, t.cell, t.value); err != nil {
			return nil, fmt.Errorf("failed to write totals: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
