// =============================================================================
// CSB 19 Generator - CSV Parser Module
// =============================================================================
//
// This module reads receipt exports from the presenter's accounting system.
// Each data row is one invoice line; the converter groups rows into receipts.
//
// FEATURES:
//   - Configurable delimiter (semicolon by default, as Spanish exports use)
//   - Multi-line headers, merged column by column
//   - Custom data start row
//   - ISO-8859-1 / Windows-1252 input, decoded to UTF-8 on the fly
//   - A UTF-8 byte order mark on the first header is dropped
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/ginjaninja78/csb19-generator/internal/types"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const bom = "\uFEFF"

// Parse reads a CSV file into a table.
//
// PARSING PROCESS:
//  1. Open the file and decode it from the configured encoding
//  2. Configure the CSV reader with the configured delimiter
//  3. Read and merge header rows
//  4. Read data rows starting from the configured data start row
//  5. Convert each row to a map of header -> value
func Parse(filePath string, settings config.CSVSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// ParseReader reads CSV data from r into a table.
func ParseReader(r io.Reader, settings config.CSVSettings) (*types.Table, error) {
	decoded, err := decode(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers, err := extractHeaders(allRows, settings.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("failed to extract headers: %w", err)
	}

	table := &types.Table{Headers: headers}
	extractDataRows(table, allRows, settings)
	return table, nil
}

// decode wraps r so that it yields UTF-8.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToUpper(strings.ReplaceAll(encoding, "_", "-")) {
	case "", "UTF-8", "UTF8":
		return r, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "ISO-8859-15", "LATIN9":
		return transform.NewReader(r, charmap.ISO8859_15.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported input encoding: %s", encoding)
	}
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ",", "comma":
		reader.Comma = ','
	case "", ";", "semicolon":
		reader.Comma = ';'
	default:
		reader.Comma = []rune(settings.Delimiter)[0]
	}

	// Exports often end rows with an empty trailing column.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// extractHeaders merges the header rows into one header per column. Non-empty
// cells of a column are joined with a space, so
//
//	Row 1: "bank", ""
//	Row 2: "account", "amount"
//
// gives "bank account", "amount".
func extractHeaders(allRows [][]string, headerRows int) ([]string, error) {
	if headerRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}
	if len(allRows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	maxCols := 0
	for _, row := range allRows[:headerRows] {
		maxCols = max(maxCols, len(row))
	}

	headers := make([]string, maxCols)
	for col := range headers {
		var parts []string
		for _, row := range allRows[:headerRows] {
			if col < len(row) {
				if value := strings.TrimSpace(row[col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], bom)
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers and names empty ones after their column.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// extractDataRows fills the table with the non-empty rows from the data
// start row on.
func extractDataRows(table *types.Table, allRows [][]string, settings config.CSVSettings) {
	startIndex := settings.DataStartRow - 1
	if startIndex < settings.HeaderRows {
		startIndex = settings.HeaderRows
	}

	for rowIndex := startIndex; rowIndex < len(allRows); rowIndex++ {
		row := allRows[rowIndex]
		if IsRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(table.Headers))
		for colIndex, header := range table.Headers {
			if colIndex < len(row) {
				rowMap[header] = strings.TrimSpace(row[colIndex])
			} else {
				rowMap[header] = ""
			}
		}

		table.Rows = append(table.Rows, rowMap)
		table.RowNumbers = append(table.RowNumbers, rowIndex+1)
	}
}

// IsRowEmpty checks if a row contains only empty values.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
