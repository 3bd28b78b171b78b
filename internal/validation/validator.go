// =============================================================================
// CSB 19 Generator - Validation Engine
// =============================================================================
//
// This module validates input tables before a payment group is built, so
// that the operator sees every problem of a file at once instead of the first
// encoding error of the generator.
//
// VALIDATION LEVELS:
//   1. Table-level:   required columns exist
//   2. Row-level:     required values, amounts, accounts, field widths
//   3. Receipt-level: rows of one receipt agree, the address is present
//                     when the journal needs it
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error includes the file row, the column and the value
//   - Warnings (account check digits, disagreeing rows) do not stop
//     generation; errors do
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/ginjaninja78/csb19-generator/internal/csb19"
	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/shopspring/decimal"
)

// Severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Widths of the CSB 19 fields input values end up in.
const (
	maxNameWidth    = 40
	maxConceptWidth = 40
	maxStreetWidth  = 40
	maxCityWidth    = 35
	maxZipWidth     = 5
	maxRefWidth     = 12
)

// maxAmount is the largest amount a 10 digit cents field holds.
var maxAmount = decimal.RequireFromString("99999999.99")

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError (generation must not run) or
	// SeverityWarning (reported only).
	Severity string

	// Field is the input column that failed validation.
	Field string

	// Value is the offending value.
	Value string

	// Rule is the violated rule, e.g. "required", "max_length".
	Rule string

	// Message is a human-readable error message.
	Message string

	// Receipt is the receipt key of the row, when known.
	Receipt string

	// RowNumber is the 1-indexed file row, 0 for table-level findings.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber == 0 {
		return fmt.Sprintf("[%s] Field '%s': %s", strings.ToUpper(e.Severity), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] Row %d, Receipt '%s', Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Receipt,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains every finding, warnings included, in row order.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsValidated is the number of data rows checked.
	RowsValidated int

	// Receipts is the number of distinct receipt keys seen.
	Receipts int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks input tables against a presenter column mapping.
type Validator struct {
	columns config.ColumnMapping
	journal types.JournalConfig
}

// NewValidator creates a new Validator. The journal flags decide whether
// the address columns are required.
func NewValidator(columns config.ColumnMapping, journal types.JournalConfig) *Validator {
	return &Validator{columns: columns, journal: journal}
}

// Validate checks the whole table.
func (v *Validator) Validate(table *types.Table) *ValidationResult {
	result := &ValidationResult{IsValid: true, RowsValidated: len(table.Rows)}
	add := func(errs ...*ValidationError) {
		for _, e := range errs {
			result.Errors = append(result.Errors, e)
			if e.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
			} else {
				result.WarningCount++
			}
		}
	}

	add(v.validateColumns(table)...)
	if !result.IsValid {
		return result
	}

	first := make(map[string]map[string]string)
	for i, row := range table.Rows {
		rowNumber := rowNumberAt(table, i)
		add(v.ValidateRow(row, rowNumber)...)

		key := row[v.columns.Receipt]
		if prev, seen := first[key]; seen {
			add(v.compareRows(prev, row, rowNumber)...)
		} else {
			first[key] = row
		}
	}
	result.Receipts = len(first)

	return result
}

// validateColumns checks that the table has the columns receipts cannot be
// built without.
func (v *Validator) validateColumns(table *types.Table) []*ValidationError {
	var errs []*ValidationError
	missing := func(column string) {
		errs = append(errs, &ValidationError{
			Severity: SeverityError,
			Field:    column,
			Rule:     "required_column",
			Message:  fmt.Sprintf("Required column '%s' is missing", column),
		})
	}

	for _, column := range []string{v.columns.Receipt, v.columns.Name, v.columns.BankAccount} {
		if !table.HasColumn(column) {
			missing(column)
		}
	}
	if !table.HasColumn(v.columns.Amount) && !table.HasColumn(v.columns.LineAmount) {
		missing(v.columns.Amount + "|" + v.columns.LineAmount)
	}
	if v.journal.ExtraConcepts || v.journal.AddAddress {
		for _, column := range []string{v.columns.Street, v.columns.City, v.columns.Zip} {
			if !table.HasColumn(column) {
				missing(column)
			}
		}
	}
	return errs
}

// ValidateRow checks a single row.
func (v *Validator) ValidateRow(row map[string]string, rowNumber int) []*ValidationError {
	c := v.columns
	receipt := row[c.Receipt]
	var errs []*ValidationError
	fail := func(severity, field, rule, message string) {
		errs = append(errs, &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     row[field],
			Rule:      rule,
			Message:   message,
			Receipt:   receipt,
			RowNumber: rowNumber,
		})
	}

	// =========================================================================
	// REQUIRED VALUES
	// =========================================================================

	for _, column := range []string{c.Receipt, c.Name, c.BankAccount} {
		if row[column] == "" {
			fail(SeverityError, column, "required", fmt.Sprintf("Required field '%s' is empty", column))
		}
	}

	// =========================================================================
	// WIDTHS
	// =========================================================================

	for _, w := range []struct {
		column string
		width  int
	}{
		{c.Name, maxNameWidth},
		{c.Communication, maxConceptWidth},
		{c.PartyCode, maxRefWidth},
		{c.Street, maxStreetWidth},
		{c.City, maxCityWidth},
		{c.Zip, maxZipWidth},
	} {
		if n := len([]rune(row[w.column])); n > w.width {
			fail(SeverityError, w.column, "max_length",
				fmt.Sprintf("Value exceeds maximum length of %d characters (actual: %d)", w.width, n))
		}
	}

	// =========================================================================
	// AMOUNTS
	// =========================================================================

	for _, column := range []string{c.Amount, c.LineAmount} {
		if msg := validateAmount(row[column]); msg != "" {
			fail(SeverityError, column, "amount", msg)
		}
	}
	if row[c.Amount] == "" && row[c.LineAmount] == "" {
		fail(SeverityError, c.Amount, "required", "Neither a receipt amount nor a line amount is given")
	}

	// The rendered concept must fit the 40 column concept field.
	if desc := row[c.LineDescription]; desc != "" && v.journal.ExtraConcepts {
		amount, err := decimal.NewFromString(row[c.LineAmount])
		if err == nil {
			concept := csb19.FormatConcept(types.InvoiceLine{Description: desc, Amount: amount})
			if n := len([]rune(concept)); n > maxConceptWidth {
				fail(SeverityError, c.LineDescription, "max_length",
					fmt.Sprintf("Concept '%s' is %d characters, the limit is %d", concept, n, maxConceptWidth))
			}
		}
	}

	// =========================================================================
	// ACCOUNT
	// =========================================================================

	if raw := row[c.BankAccount]; raw != "" {
		severity, msg := validateAccount(raw)
		if msg != "" {
			fail(severity, c.BankAccount, "account", msg)
		}
	}

	// =========================================================================
	// ADDRESS
	// =========================================================================

	if (v.journal.ExtraConcepts || v.journal.AddAddress) && row[c.Street] == "" {
		fail(SeverityError, c.Street, "party_without_address",
			fmt.Sprintf("The party '%s' has no address, which the journal requires", row[c.Name]))
	}

	return errs
}

// compareRows warns when a later row of a receipt disagrees with the first
// one on a receipt-level value. The first row wins.
func (v *Validator) compareRows(first, row map[string]string, rowNumber int) []*ValidationError {
	var errs []*ValidationError
	for _, column := range []string{v.columns.Name, v.columns.BankAccount, v.columns.Amount} {
		if row[column] != "" && row[column] != first[column] {
			errs = append(errs, &ValidationError{
				Severity:  SeverityWarning,
				Field:     column,
				Value:     row[column],
				Rule:      "receipt_consistency",
				Message:   fmt.Sprintf("Differs from the first row of the receipt ('%s'), which is used", first[column]),
				Receipt:   row[v.columns.Receipt],
				RowNumber: rowNumber,
			})
		}
	}
	return errs
}

// =============================================================================
// VALUE VALIDATORS
// =============================================================================

// validateAmount returns an error message if value is not a valid amount.
// Empty values are valid here; presence is checked separately.
func validateAmount(value string) string {
	if value == "" {
		return ""
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Sprintf("Value '%s' is not a valid decimal number", value)
	}
	if amount.IsNegative() {
		return fmt.Sprintf("Value '%s' is negative", value)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Sprintf("Value '%s' has more than 2 decimal places", value)
	}
	if amount.GreaterThan(maxAmount) {
		return fmt.Sprintf("Value '%s' exceeds %s", value, maxAmount.StringFixed(2))
	}
	return ""
}

// validateAccount checks the shape and the check digits of an account.
// Wrong shapes are errors, wrong check digits are warnings.
func validateAccount(raw string) (string, string) {
	normalized := csb19.NormalizeAccount(raw)
	if len(normalized) != 20 || !isDigits(normalized) {
		return SeverityError, fmt.Sprintf("Account '%s' is not a 20 digit CCC or a Spanish IBAN", raw)
	}

	compact := strings.ToUpper(strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' || r == '/' {
			return -1
		}
		return r
	}, raw))
	if len(compact) == 24 && !ValidIBAN(compact) {
		return SeverityWarning, fmt.Sprintf("IBAN '%s' has invalid check digits", raw)
	}
	if !ValidCCC(normalized) {
		return SeverityWarning, fmt.Sprintf("Account '%s' has invalid control digits", raw)
	}
	return "", ""
}

// cccWeights are the weights of the CCC control digit algorithm.
var cccWeights = [10]int{1, 2, 4, 8, 5, 10, 9, 7, 3, 6}

// ValidCCC checks the two control digits of a 20 digit Spanish account
// code (bank 4, office 4, control 2, number 10).
func ValidCCC(ccc string) bool {
	if len(ccc) != 20 || !isDigits(ccc) {
		return false
	}
	first := cccDigit("00" + ccc[0:8])
	second := cccDigit(ccc[10:20])
	return ccc[8] == first && ccc[9] == second
}

func cccDigit(digits string) byte {
	sum := 0
	for i := 0; i < 10; i++ {
		sum += int(digits[i]-'0') * cccWeights[i]
	}
	d := 11 - sum%11
	switch d {
	case 11:
		d = 0
	case 10:
		d = 1
	}
	return byte('0' + d)
}

// ValidIBAN checks the ISO 13616 mod 97 check digits of a compact IBAN.
func ValidIBAN(iban string) bool {
	if len(iban) < 5 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			remainder = (remainder*100 + int(r-'A'+10)) % 97
		default:
			return false
		}
	}
	return remainder == 1
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func rowNumberAt(table *types.Table, i int) int {
	if i < len(table.RowNumbers) {
		return table.RowNumbers[i]
	}
	return i + 2
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d finding(s):\n\n", len(errors))
	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}
	return builder.String()
}
