// =============================================================================
// CSB 19 Generator - XLSX Parser
// =============================================================================
//
// This module reads receipt exports saved as Excel workbooks, and reads and
// writes record layout workbooks (one sheet per CSB 19 record kind).
//
// INPUT WORKBOOK STRUCTURE:
//   The first row of the sheet holds the column headers, every following
//   non-empty row is one invoice line. The headers are the same as for CSV
//   input, so one presenter column mapping serves both formats.
//
//   | receipt | name         | bank_account             | line_description | line_amount |
//   |---------|--------------|--------------------------|------------------|-------------|
//   | R001    | Juan García  | ES9121000418450200051332 | Cuota enero      | 30,00       |
//   | R001    | Juan García  | ES9121000418450200051332 | Matrícula        | 15,00       |
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/xuri/excelize/v2"
)

// Parse reads the named sheet of an XLSX workbook into a table. An empty
// sheet name reads the first sheet.
func Parse(path, sheet string) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	table := toTable(rows)
	table.SourceFile = path
	return table, nil
}

// toTable converts sheet rows to a table. GetRows drops trailing empty
// cells, so short rows are padded with empty values.
func toTable(rows [][]string) *types.Table {
	table := &types.Table{Headers: make([]string, len(rows[0]))}
	for i, header := range rows[0] {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		table.Headers[i] = header
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(table.Headers))
		for col, header := range table.Headers {
			value := ""
			if col < len(row) {
				value = strings.TrimSpace(row[col])
			}
			rowMap[header] = value
		}

		table.Rows = append(table.Rows, rowMap)
		table.RowNumbers = append(table.RowNumbers, i+1)
	}

	return table
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
