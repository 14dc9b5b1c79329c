// Package export renders the merged measurement table to an XLSX
// workbook, one column per active series in display order.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/internal/domain/timeline"
)

const sheetName = "Measurements"

// Workbook assembles an XLSX file from the merged rows. Columns follow
// the active order; a series absent from a row leaves its cell blank.
func Workbook(series []model.Series, active []int64, rows []timeline.Row) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	byID := make(map[int64]model.Series, len(series))
	for _, s := range series {
		byID[s.ID] = s
	}

	header := []interface{}{"Timestamp"}
	for _, id := range active {
		name := fmt.Sprintf("series %d", id)
		if s, ok := byID[id]; ok {
			name = s.Name
		}
		header = append(header, name)
	}
	if err := writeRow(f, 1, header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, row := range rows {
		values := []interface{}{row.Timestamp}
		for _, id := range active {
			if m, ok := row.Cell(id); ok {
				values = append(values, m.Value)
			} else {
				values = append(values, nil)
			}
		}
		if err := writeRow(f, i+2, values); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 22); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	return f, nil
}

// Write streams the workbook for the given table to w.
func Write(w io.Writer, series []model.Series, active []int64, rows []timeline.Row) error {
	f, err := Workbook(series, active, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save writes the workbook for the given table to path.
func Save(path string, series []model.Series, active []int64, rows []timeline.Row) error {
	f, err := Workbook(series, active, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}
