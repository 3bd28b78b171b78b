package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/csb19-generator/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "receipts.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParse(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"receipt", "name", "", "line_amount"},
		{"R1", "Juan García", "x", "30.00"},
		{},
		{"R1", "Juan García"},
	})

	table, err := Parse(path, "")
	require.NoError(t, err)

	assert.Equal(t, path, table.SourceFile)
	assert.Equal(t, []string{"receipt", "name", "Column_3", "line_amount"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Juan García", table.Rows[0]["name"])
	assert.Equal(t, "30.00", table.Rows[0]["line_amount"])
	assert.Equal(t, "", table.Rows[1]["line_amount"])
	assert.Equal(t, []int{2, 4}, table.RowNumbers)
}

func TestParseMissingSheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{{"receipt"}})
	_, err := Parse(path, "Nope")
	assert.Error(t, err)
}

func TestLayoutRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xlsx")
	require.NoError(t, WriteLayout(path, records.All))

	layout, err := ReadLayout(path)
	require.NoError(t, err)
	require.Len(t, layout, len(records.All))

	header := layout["51-80"]
	require.NotEmpty(t, header)
	assert.Equal(t, LayoutField{Name: "record_code", Type: "const", Start: 1, End: 2, Width: 2, Value: "51"}, header[0])

	last := header[len(header)-1]
	assert.Equal(t, records.LineWidth, last.End)

	diffs, err := CheckLayout(path, records.All)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestCheckLayoutReportsDifferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xlsx")
	require.NoError(t, WriteLayout(path, records.All[:2]))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("53-80", "E2", 3))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	diffs, err := CheckLayout(path, records.All[:3])
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	assert.Contains(t, diffs[0], "53-80 field 1")
	assert.Equal(t, "56-80: sheet missing", diffs[1])
}

func TestFieldsOf(t *testing.T) {
	fields := FieldsOf(records.RequiredIndividual)
	amount := fields[7]
	assert.Equal(t, records.FieldAmount, amount.Name)
	assert.Equal(t, 89, amount.Start)
	assert.Equal(t, 98, amount.End)
	assert.Equal(t, "amount", amount.Type)
}
