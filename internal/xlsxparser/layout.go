package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/csb19-generator/internal/records"
	"github.com/xuri/excelize/v2"
)

// Layout workbook columns.
var layoutHeaders = []any{"Field", "Type", "Start", "End", "Width", "Value"}

// LayoutField is one row of a layout sheet.
type LayoutField struct {
	Name  string
	Type  string
	Start int
	End   int
	Width int
	Value string
}

// SheetName returns the layout sheet name of a record kind, "51-80" for the
// presenter header. Excel does not allow "/" in sheet names.
func SheetName(kind *records.Kind) string {
	return kind.RecordCode + "-" + kind.DataCode
}

// FieldsOf returns the layout rows of a record kind with 1-indexed column
// positions.
func FieldsOf(kind *records.Kind) []LayoutField {
	fields := make([]LayoutField, 0, len(kind.Fields))
	start := 1
	for _, f := range kind.Fields {
		fields = append(fields, LayoutField{
			Name:  f.Name,
			Type:  f.Type.String(),
			Start: start,
			End:   start + f.Width - 1,
			Width: f.Width,
			Value: f.Value,
		})
		start += f.Width
	}
	return fields
}

// WriteLayout writes one sheet per record kind to an XLSX workbook.
func WriteLayout(path string, kinds []*records.Kind) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, kind := range kinds {
		sheet := SheetName(kind)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		if err := f.SetSheetRow(sheet, "A1", &layoutHeaders); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
		for row, lf := range FieldsOf(kind) {
			cell, err := excelize.CoordinatesToCellName(1, row+2)
			if err != nil {
				return err
			}
			values := []any{lf.Name, lf.Type, lf.Start, lf.End, lf.Width, lf.Value}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write %s.%s: %w", sheet, lf.Name, err)
			}
		}
		if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save layout workbook: %w", err)
	}
	return nil
}

// ReadLayout reads a layout workbook back, keyed by sheet name.
func ReadLayout(path string) (map[string][]LayoutField, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout workbook: %w", err)
	}
	defer f.Close()

	layout := make(map[string][]LayoutField)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		var fields []LayoutField
		for i := 1; i < len(rows); i++ {
			if isRowEmpty(rows[i]) {
				continue
			}
			lf, err := parseLayoutRow(rows[i])
			if err != nil {
				return nil, fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
			}
			fields = append(fields, lf)
		}
		layout[sheet] = fields
	}
	return layout, nil
}

func parseLayoutRow(row []string) (LayoutField, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var lf LayoutField
	lf.Name = cell(0)
	lf.Type = cell(1)
	lf.Value = cell(5)

	for i, target := range []*int{&lf.Start, &lf.End, &lf.Width} {
		n, err := strconv.Atoi(cell(i + 2))
		if err != nil {
			return LayoutField{}, fmt.Errorf("column %s is not a number: %q", layoutHeaders[i+2], cell(i+2))
		}
		*target = n
	}
	return lf, nil
}

// CheckLayout compares a layout workbook, typically one maintained by the
// bank, against the built-in record kinds and returns the differences.
func CheckLayout(path string, kinds []*records.Kind) ([]string, error) {
	layout, err := ReadLayout(path)
	if err != nil {
		return nil, err
	}

	var diffs []string
	for _, kind := range kinds {
		sheet := SheetName(kind)
		got, ok := layout[sheet]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s: sheet missing", sheet))
			continue
		}

		want := FieldsOf(kind)
		if len(got) != len(want) {
			diffs = append(diffs, fmt.Sprintf("%s: %d fields, expected %d", sheet, len(got), len(want)))
		}
		for i := 0; i < min(len(got), len(want)); i++ {
			g, w := got[i], want[i]
			if g.Name != w.Name || g.Start != w.Start || g.Width != w.Width {
				diffs = append(diffs, fmt.Sprintf("%s field %d: got %s@%d+%d, expected %s@%d+%d",
					sheet, i+1, g.Name, g.Start, g.Width, w.Name, w.Start, w.Width))
			}
		}
	}
	return diffs, nil
}
