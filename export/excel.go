// Package export writes engine tables to spreadsheet and CSV files.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/spendshark/engine"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of WriteTables output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetName = 31

// WriteTables writes one sheet per table: a bold header row, the data rows
// and the summary row. Numeric columns are stored as numbers.
func WriteTables(w io.Writer, tables ...*engine.TableData) error {
	f, err := build(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveTables is WriteTables to a file path.
func SaveTables(path string, tables ...*engine.TableData) error {
	f, err := build(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(tables []*engine.TableData) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	used := make(map[string]bool)
	first := true
	for i, table := range tables {
		if table == nil {
			continue
		}
		name := sheetName(table.Title, i, used)
		if first {
			// reuse the default sheet so the workbook has no empty tab
			err = f.SetSheetName(f.GetSheetName(0), name)
			first = false
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, table, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, table *engine.TableData, headerStyle int) error {
	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if len(table.Columns) > 0 {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return err
		}
	}

	rowNo := 2
	for _, row := range table.Rows {
		values := make([]any, len(row))
		for i, cell := range row {
			values[i] = cellValue(table.Columns, i, cell)
		}
		if err := setRow(f, sheet, rowNo, values); err != nil {
			return err
		}
		rowNo++
	}

	if table.Summary != nil {
		values := make([]any, len(table.Columns))
		if len(values) > 0 {
			values[0] = table.Summary.Label
		}
		for i, col := range table.Columns {
			if v, ok := table.Summary.Values[col.Key]; ok && i > 0 {
				values[i] = v
			}
		}
		if err := setRow(f, sheet, rowNo, values); err != nil {
			return err
		}
		return f.SetRowStyle(sheet, rowNo, rowNo, headerStyle)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// cellValue stores numeric columns as float64 when the text parses.
func cellValue(cols []engine.Column, i int, cell string) any {
	if i >= len(cols) || (cols[i].Type != "number" && cols[i].Type != "currency") {
		return cell
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}

// sheetName derives a unique Excel-safe sheet name from a table title.
func sheetName(title string, index int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = fmt.Sprintf("Table %d", index+1)
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}

	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}
