// =============================================================================
// CSB 19 Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool.
//
// COMMAND USAGE:
//   csb19 generate [flags]
//
// FLAGS:
//   --file          : Generate only this input file
//   --presenter     : Use this presenter instead of matching by file name
//   --payment-date  : Charge date (YYYY-MM-DD), overrides payment_lead_days
//   --dry-run       : Generate without writing, attaching or archiving
//
// PROCESSING PIPELINE:
//   1. Load configuration files
//   2. Discover input files in the input directory
//   3. Match each file to a presenter configuration
//   4. For each file (concurrently, up to max_concurrency):
//      read, transform, validate, group, generate, attach, archive
//   5. Write the summary and error logs
//   6. Apply the archive retention
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/ginjaninja78/csb19-generator/internal/converter"
	"github.com/ginjaninja78/csb19-generator/internal/csb19"
	"github.com/ginjaninja78/csb19-generator/internal/fixedwidth"
	"github.com/ginjaninja78/csb19-generator/internal/storage"
	"github.com/ginjaninja78/csb19-generator/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun      bool
	filePath    string
	presenter   string
	paymentDate string
)

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate CSB 19 files from the input directory",
	Long: `The generate command scans the input directory for CSV and XLSX exports,
matches each to a presenter configuration and generates one CSB 19 file per
input file.

Files are processed concurrently. A failing file does not stop the others.

On success:
  - The CSB 19 file is written to the output directory and recorded in the
    attachment history
  - The input is moved to the input archive, the output copied to the
    output archive

On error:
  - An error log is written to the output directory
  - The input stays in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Generate without writing, attaching or archiving")
	generateCmd.Flags().StringVar(&filePath, "file", "",
		"Generate only this input file")
	generateCmd.Flags().StringVar(&presenter, "presenter", "",
		"Presenter code to use instead of matching by file name")
	generateCmd.Flags().StringVar(&paymentDate, "payment-date", "",
		"Charge date (YYYY-MM-DD), overrides payment_lead_days")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(out io.Writer) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	a, err := loadApp()
	if err != nil {
		return err
	}

	opts := converter.Options{DryRun: dryRun}
	if paymentDate != "" {
		opts.PaymentDate, err = time.ParseInLocation("2006-01-02", paymentDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --payment-date: %w", err)
		}
	}

	fm := newFileManager(a.config)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	attacher := csb19.Attachers{fm}
	if a.config.DatabasePath != "" && !dryRun {
		conn, err := storage.Open(a.config.DatabasePath)
		if err != nil {
			return err
		}
		defer conn.Close()
		attacher = append(attacher, storage.NewStore(conn))
	}
	generator := csb19.NewGenerator(fixedwidth.New(), attacher, a.logger)

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles := []string{filePath}
	if filePath == "" {
		inputFiles, err = fm.DiscoverInputFiles()
		if err != nil {
			return err
		}
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No input files found in the input directory.")
		return nil
	}
	a.logger.Info("discovered input files", "count", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	var archiver converter.Archiver
	if !dryRun {
		archiver = fm
	}

	var wg sync.WaitGroup
	results := make(chan converter.Result, len(inputFiles))
	slots := make(chan struct{}, a.config.MaxConcurrency)

	for _, file := range inputFiles {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()

			p, err := selectPresenter(path, presenter, a.presenters)
			if err != nil {
				results <- converter.Result{FilePath: path, Error: err}
				return
			}
			results <- converter.New(path, p, a.config, generator, archiver, a.logger, opts).Run()
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(inputFiles)}
	total := decimal.Zero
	var errorLog []utils.ErrorLogEntry

	for _, result := range collect(results) {
		name := filepath.Base(result.FilePath)
		summary.TotalRows += result.Stats.RowsProcessed

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			errorLog = append(errorLog, errorEntries(name, result)...)
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalReceipts += result.Stats.Receipts
		summary.TotalRecords += result.Stats.Records
		total = total.Add(result.Stats.Amount)
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			Group:       result.Group,
			Receipts:    result.Stats.Receipts,
			Records:     result.Stats.Records,
			Amount:      result.Stats.Amount.StringFixed(2),
			ProcessTime: result.Stats.ProcessingTime,
		})

		if dryRun {
			fmt.Fprintf(out, "  ✓ %s: %d receipts, %d records, %s (dry run)\n",
				name, result.Stats.Receipts, result.Stats.Records, result.Stats.Amount.StringFixed(2))
			if filePath != "" {
				fmt.Fprintln(out, result.Text)
			}
		} else {
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, result.OutputFile)
		}
	}
	summary.TotalAmount = total.StringFixed(2)
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: WRITE LOGS
	// =========================================================================

	fmt.Fprintln(out, "\n=== Generation Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Total amount:    %s\n", summary.TotalAmount)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if dryRun {
		return nil
	}

	if _, err := utils.WriteSummaryLog(summary, a.config.OutputDir); err != nil {
		a.logger.Warn("failed to write summary log", "error", err)
	}
	if len(errorLog) > 0 {
		path, err := utils.WriteErrorLog(errorLog, a.config.OutputDir, summary.EndTime)
		if err != nil {
			a.logger.Warn("failed to write error log", "error", err)
		} else {
			fmt.Fprintf(out, "\nErrors have been logged to %s\n", path)
		}
	}

	// =========================================================================
	// STEP 6: ARCHIVE RETENTION
	// =========================================================================

	if days := a.config.ArchiveRetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		for _, dir := range []string{a.config.InputArchiveDir, a.config.OutputArchiveDir} {
			removed, err := utils.CleanOldArchives(dir, cutoff)
			if err != nil {
				a.logger.Warn("failed to clean archive", "dir", dir, "error", err)
				continue
			}
			a.logger.Debug("archive cleaned", "dir", dir, "removed", removed)
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func newFileManager(c *config.MainConfig) *utils.FileManager {
	fm := utils.NewFileManager(c.InputDir, c.OutputDir, c.InputArchiveDir, c.OutputArchiveDir)
	fm.FileNameFormat = c.FileNameFormat
	fm.Charset = c.Charset
	return fm
}

// collect returns the results sorted by input path, so output is stable
// regardless of completion order.
func collect(results <-chan converter.Result) []converter.Result {
	var all []converter.Result
	for r := range results {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FilePath < all[j].FilePath })
	return all
}

// selectPresenter returns the forced presenter, or the one whose file
// matching patterns match the file name. Presenters are tried in code order.
func selectPresenter(path, forced string, presenters map[string]*config.PresenterConfig) (*config.PresenterConfig, error) {
	if forced != "" {
		p, ok := presenters[forced]
		if !ok {
			return nil, fmt.Errorf("unknown presenter %q", forced)
		}
		return p, nil
	}

	codes := make([]string, 0, len(presenters))
	for code := range presenters {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	name := filepath.Base(path)
	for _, code := range codes {
		for _, pattern := range presenters[code].FileMatchingPatterns {
			if matched, err := filepath.Match(pattern, name); err == nil && matched {
				return presenters[code], nil
			}
		}
	}
	return nil, fmt.Errorf("no matching presenter configuration found")
}

// errorEntries turns a failed result into error log entries, one per
// validation error or one for the failure itself.
func errorEntries(name string, result converter.Result) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, f := range result.Findings {
		entries = append(entries, utils.ErrorLogEntry{
			FileName:     name,
			ErrorType:    f.Severity + ":" + f.Rule,
			ErrorMessage: f.Message,
			RowNumber:    f.RowNumber,
			FieldName:    f.Field,
			FieldValue:   f.Value,
			Receipt:      f.Receipt,
		})
	}
	if len(entries) == 0 {
		entries = append(entries, utils.ErrorLogEntry{
			FileName:     name,
			ErrorType:    "generation",
			ErrorMessage: result.Error.Error(),
		})
	}
	return entries
}
