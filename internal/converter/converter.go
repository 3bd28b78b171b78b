// =============================================================================
// CSB 19 Generator - Converter Module
// =============================================================================
//
// This module orchestrates the generation pipeline for a single input file,
// from parsing the export to writing the CSB 19 file.
//
// CONVERSION PIPELINE:
//   1. Read the input file (CSV or XLSX)
//   2. Apply the presenter transformation rules
//   3. Resolve the payment journal
//   4. Validate the rows
//   5. Group rows into receipts and build the payment group
//   6. Generate and attach the CSB 19 file
//   7. Archive the processed files
//
// CONCURRENCY:
//   Each file is processed by its own Converter. Converters share only the
//   Generator and the FileManager, which are safe for concurrent use.
//
// =============================================================================

package converter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/ginjaninja78/csb19-generator/internal/csb19"
	"github.com/ginjaninja78/csb19-generator/internal/csvparser"
	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/ginjaninja78/csb19-generator/internal/validation"
	"github.com/ginjaninja78/csb19-generator/internal/xlsxparser"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Group is the reference of the payment group built from the file.
	Group string

	// OutputFile is where the generated file was attached. Empty on
	// failure and on dry runs.
	OutputFile string

	// Text is the generated file. Set on success, dry runs included.
	Text string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Findings are the validation errors and warnings of the file.
	Findings []*validation.ValidationError

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	RowsProcessed      int
	Receipts           int
	Records            int
	Amount             decimal.Decimal
	ValidationErrors   int
	ValidationWarnings int
	ProcessingTime     time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Archiver moves processed inputs and copies generated outputs to their
// archives. *utils.FileManager implements it.
type Archiver interface {
	ArchiveInputFile(path string) (string, error)
	ArchiveOutputFile(path string) (string, error)
}

// Options tune a single run.
type Options struct {
	// PaymentDate overrides the presenter lead days when set.
	PaymentDate time.Time

	// DryRun generates the file without attaching or archiving anything.
	DryRun bool

	// Now returns the creation time. Defaults to time.Now.
	Now func() time.Time
}

// Converter handles the generation of one CSB 19 file from one input file.
type Converter struct {
	path       string
	presenter  *config.PresenterConfig
	mainConfig *config.MainConfig
	generator  *csb19.Generator
	archiver   Archiver
	logger     *slog.Logger
	opts       Options
}

// New creates a new Converter instance. archiver may be nil to skip
// archival.
func New(
	path string,
	presenter *config.PresenterConfig,
	mainConfig *config.MainConfig,
	generator *csb19.Generator,
	archiver Archiver,
	logger *slog.Logger,
	opts Options,
) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Converter{
		path:       path,
		presenter:  presenter,
		mainConfig: mainConfig,
		generator:  generator,
		archiver:   archiver,
		logger:     logger.With("file", filepath.Base(path), "presenter", presenter.Code),
		opts:       opts,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the generation pipeline for the file.
func (c *Converter) Run() Result {
	startTime := time.Now()
	result := Result{FilePath: c.path}
	fail := func(err error) Result {
		result.Error = err
		result.Stats.ProcessingTime = time.Since(startTime)
		c.logger.Error("generation failed", "error", err)
		return result
	}

	c.logger.Info("processing file")

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	table, err := ReadTable(c.path, c.presenter)
	if err != nil {
		return fail(fmt.Errorf("failed to read input: %w", err))
	}
	result.Stats.RowsProcessed = len(table.Rows)
	c.logger.Debug("parsed input", "rows", len(table.Rows))

	// =========================================================================
	// STEP 2: APPLY TRANSFORMATION RULES
	// =========================================================================

	if err := TransformTable(table, c.presenter.TransformationRules); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 3: RESOLVE JOURNAL
	// =========================================================================

	journal, err := c.mainConfig.ResolveJournal(c.presenter.Journal, csb19.ProcessMethod)
	if err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 4: VALIDATE
	// =========================================================================

	validated := validation.NewValidator(c.presenter.Columns, journal).Validate(table)
	result.Findings = validated.Errors
	result.Stats.ValidationErrors = validated.ErrorCount
	result.Stats.ValidationWarnings = validated.WarningCount
	for _, finding := range validated.Errors {
		c.logger.Warn("validation finding",
			"severity", finding.Severity,
			"row", finding.RowNumber,
			"field", finding.Field,
			"message", finding.Message,
		)
	}
	if !validated.IsValid {
		return fail(fmt.Errorf("validation failed with %d error(s)", validated.ErrorCount))
	}

	// =========================================================================
	// STEP 5: BUILD PAYMENT GROUP
	// =========================================================================

	creation := truncateDay(c.opts.Now())
	payment := c.opts.PaymentDate
	if payment.IsZero() {
		payment = creation.AddDate(0, 0, c.presenter.PaymentLeadDays)
	}

	group, err := BuildGroup(table, c.presenter, GroupReference(c.path), creation, payment)
	if err != nil {
		return fail(err)
	}
	result.Group = group.Reference
	result.Stats.Receipts = len(group.Receipts)

	// =========================================================================
	// STEP 6: GENERATE
	// =========================================================================

	var generated *csb19.Result
	if c.opts.DryRun {
		generated, err = c.generator.Generate(group, journal)
	} else {
		generated, err = c.generator.Process(group, journal)
	}
	if err != nil {
		return fail(err)
	}

	result.Text = generated.Text
	result.OutputFile = generated.Location
	result.Stats.Records = generated.State.RecordCount
	result.Stats.Amount = generated.State.Amount

	// =========================================================================
	// STEP 7: ARCHIVE
	// =========================================================================

	if !c.opts.DryRun && c.archiver != nil {
		c.archive(result.OutputFile)
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	c.logger.Info("file generated",
		"group", result.Group,
		"receipts", result.Stats.Receipts,
		"records", result.Stats.Records,
		"amount", result.Stats.Amount.StringFixed(2),
		"output", result.OutputFile,
	)
	return result
}

// archive moves the input away and copies the output. Archival failures are
// logged; the file has already been generated.
func (c *Converter) archive(outputFile string) {
	if _, err := c.archiver.ArchiveInputFile(c.path); err != nil {
		c.logger.Warn("failed to archive input file", "error", err)
	}
	if outputFile == "" || strings.HasPrefix(outputFile, "sqlite:") {
		return
	}
	if _, err := c.archiver.ArchiveOutputFile(outputFile); err != nil {
		c.logger.Warn("failed to archive output file", "error", err)
	}
}

// =============================================================================
// PIPELINE STEPS
// =============================================================================

// ReadTable parses an input file according to its extension.
func ReadTable(path string, presenter *config.PresenterConfig) (*types.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return csvparser.Parse(path, presenter.CSVSettings)
	case ".xlsx":
		return xlsxparser.Parse(path, presenter.Sheet)
	default:
		return nil, fmt.Errorf("unsupported input file type: %s", filepath.Ext(path))
	}
}

// TransformTable applies the transformation rules to every row.
func TransformTable(table *types.Table, rules []config.TransformationRule) error {
	if len(rules) == 0 {
		return nil
	}
	transformer := NewTransformer(rules)
	for i, row := range table.Rows {
		if err := transformer.TransformRow(row); err != nil {
			return fmt.Errorf("row %d: %w", rowNumber(table, i), err)
		}
	}
	return nil
}

// GroupReference derives the group reference from the input file name.
func GroupReference(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BuildGroup groups the rows into receipts and returns the payment group.
//
// GROUPING LOGIC:
//
//	Rows sharing the receipt column value form one receipt, in order of
//	first appearance. The first row of a receipt supplies the payee name,
//	account, party code, communication and address. Every row with a line
//	description or line amount adds an invoice line; lines are grouped into
//	invoices by the invoice column. The receipt amount is the amount column
//	of the first row, or the sum of the line amounts when it is empty.
func BuildGroup(table *types.Table, presenter *config.PresenterConfig, reference string, creation, payment time.Time) (*types.PaymentGroup, error) {
	cols := presenter.Columns

	type pending struct {
		receipt   types.Receipt
		invoiceAt map[string]int
		explicit  bool
		lineSum   decimal.Decimal
	}

	var order []string
	receipts := make(map[string]*pending)

	for i, row := range table.Rows {
		key := row[cols.Receipt]
		p, seen := receipts[key]
		if !seen {
			p = &pending{
				receipt: types.Receipt{
					Name:          row[cols.Name],
					BankAccount:   row[cols.BankAccount],
					PartyCode:     firstNonEmpty(row[cols.PartyCode], key),
					Communication: row[cols.Communication],
				},
				invoiceAt: make(map[string]int),
				lineSum:   decimal.Zero,
			}
			if row[cols.Street] != "" {
				p.receipt.Address = &types.Address{
					Street: row[cols.Street],
					City:   row[cols.City],
					Zip:    row[cols.Zip],
				}
			}
			if raw := row[cols.Amount]; raw != "" {
				amount, err := decimal.NewFromString(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid amount %q: %w", rowNumber(table, i), raw, err)
				}
				p.receipt.Amount = amount
				p.explicit = true
			}
			receipts[key] = p
			order = append(order, key)
		}

		desc, rawLine := row[cols.LineDescription], row[cols.LineAmount]
		if desc == "" && rawLine == "" {
			continue
		}

		line := types.InvoiceLine{Description: desc, Amount: decimal.Zero}
		if rawLine != "" {
			amount, err := decimal.NewFromString(rawLine)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid line amount %q: %w", rowNumber(table, i), rawLine, err)
			}
			line.Amount = amount
		}
		p.lineSum = p.lineSum.Add(line.Amount)

		number := row[cols.Invoice]
		idx, ok := p.invoiceAt[number]
		if !ok {
			idx = len(p.receipt.Invoices)
			p.invoiceAt[number] = idx
			p.receipt.Invoices = append(p.receipt.Invoices, types.Invoice{Number: number})
		}
		p.receipt.Invoices[idx].Lines = append(p.receipt.Invoices[idx].Lines, line)
	}

	group := &types.PaymentGroup{
		Reference:    reference,
		Presenter:    presenter.Code,
		Journal:      presenter.Journal,
		CompanyName:  presenter.CompanyName,
		VATNumber:    presenter.VATNumber,
		Suffix:       presenter.Suffix,
		BankAccount:  presenter.BankAccount,
		CreationDate: creation,
		PaymentDate:  payment,
		Receipts:     make([]types.Receipt, 0, len(order)),
	}
	for _, key := range order {
		p := receipts[key]
		if !p.explicit {
			p.receipt.Amount = p.lineSum
		}
		group.Receipts = append(group.Receipts, p.receipt)
	}

	return group, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func rowNumber(table *types.Table, i int) int {
	if i < len(table.RowNumbers) {
		return table.RowNumbers[i]
	}
	return i + 2
}
