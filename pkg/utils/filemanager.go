// =============================================================================
// CSB 19 Generator - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a generation run:
//   - Input discovery (CSV and XLSX exports)
//   - Writing generated CSB 19 files in the bank's charset
//   - Archival of inputs (moved) and outputs (copied)
//   - Error and summary logs
//   - Archive retention
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful generation
//   - Output files are copied to output_archive for long-term storage
//   - Failed files remain in their original location
//   - Error logs are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/csb19"
	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/google/uuid"
)

// DefaultExtension is appended to output names without an extension.
const DefaultExtension = ".c19"

// InputExtensions are the input file extensions the generator reads.
var InputExtensions = []string{".csv", ".xlsx"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the generator. It implements
// csb19.Attacher by writing the file into OutputDir.
type FileManager struct {
	InputDir         string
	OutputDir        string
	InputArchiveDir  string
	OutputArchiveDir string

	// FileNameFormat is the output name template, see GenerateOutputFileName.
	FileNameFormat string

	// Charset is the charset output files are written in.
	Charset string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/file.csv
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether to archive files after successful processing.
	ArchiveOnSuccess bool

	// Now returns the current time. Tests replace it.
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		FileNameFormat:   "{presenter}_{timestamp}_{uuid}" + DefaultExtension,
		Charset:          csb19.CharsetISO88591,
		ArchiveOnSuccess: true,
		Now:              time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir, fm.OutputArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles returns the CSV and XLSX files directly inside the
// input directory, sorted by name. Office lock files ("~$...") are skipped.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || !IsInputFile(name) {
			continue
		}
		files = append(files, filepath.Join(fm.InputDir, name))
	}
	return files, nil
}

// IsInputFile reports whether name has a supported input extension.
func IsInputFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// =============================================================================
// OUTPUT
// =============================================================================

// Attach writes the file text for the group into the output directory, in
// the configured charset, and returns its path.
func (fm *FileManager) Attach(group *types.PaymentGroup, text string) (string, error) {
	data, err := csb19.Transcode(text, fm.Charset)
	if err != nil {
		return "", err
	}

	name := GenerateOutputFileName(fm.FileNameFormat, fm.now(), map[string]string{
		"presenter": group.Presenter,
		"group":     group.Reference,
	})
	path := filepath.Join(fm.OutputDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return path, nil
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// GenerateOutputFileName generates a unique output file name.
//
// Placeholders:
//
//	{uuid}      - A random UUID
//	{timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//	{date}      - Date (YYYYMMDD)
//	{presenter} - Presenter code (from params)
//	{group}     - Payment group reference (from params)
//
// EXAMPLE:
//
//	format: "{presenter}_{timestamp}_{uuid}.c19"
//	output: "ACME_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.c19"
func GenerateOutputFileName(format string, now time.Time, params map[string]string) string {
	replacements := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	}
	for key, value := range params {
		replacements = append(replacements, "{"+key+"}", sanitizeFileName(value))
	}

	result := strings.NewReplacer(replacements...).Replace(format)
	if filepath.Ext(result) == "" {
		result += DefaultExtension
	}
	return result
}

// sanitizeFileName replaces path separators and spaces in placeholder values.
func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves need a copy.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies an output file to the archive directory.
// Output files stay in the output directory for pickup.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.OutputArchiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)
	if fm.UseTimestampSubdirs {
		now := fm.now()
		return filepath.Join(archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}
	return filepath.Join(archiveDir, fileName)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	FileName     string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	FieldName    string
	FieldValue   string
	Receipt      string
}

// WriteErrorLog writes error entries to a timestamped log file in outputDir
// and returns its path. No file is written for an empty list.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string, now time.Time) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))
	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "CSB 19 Generator - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"%s\n\n",
		now.Format("2006-01-02 15:04:05"), len(entries), rule)

	for i, entry := range entries {
		fmt.Fprintf(w, "Error #%d\n", i+1)
		fmt.Fprintf(w, "  File:           %s\n", entry.FileName)
		fmt.Fprintf(w, "  Error Type:     %s\n", entry.ErrorType)
		fmt.Fprintf(w, "  Message:        %s\n", entry.ErrorMessage)
		if entry.RowNumber > 0 {
			fmt.Fprintf(w, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.Receipt != "" {
			fmt.Fprintf(w, "  Receipt:        %s\n", entry.Receipt)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(w, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(w, "  Value:          %s\n", entry.FieldValue)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s\nEnd of Error Log\n", rule)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

const rule = "================================================================================"

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalRows       int
	TotalReceipts   int
	TotalRecords    int
	TotalAmount     string
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Group       string
	Receipts    int
	Records     int
	Amount      string
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a log file in outputDir and
// returns its path.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "CSB 19 Generator - Processing Summary\n"+
		"%s\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n"+
		"  Total Rows:     %d\n"+
		"  Total Receipts: %d\n"+
		"  Total Records:  %d\n"+
		"  Total Amount:   %s\n\n",
		rule,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalRows,
		summary.TotalReceipts,
		summary.TotalRecords,
		summary.TotalAmount,
	)

	if len(summary.ProcessedFiles) > 0 {
		fmt.Fprintf(w, "Successful Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(w, "  Output:       %s\n", pf.OutputFile)
			fmt.Fprintf(w, "  Group:        %s\n", pf.Group)
			fmt.Fprintf(w, "  Receipts:     %d\n", pf.Receipts)
			fmt.Fprintf(w, "  Records:      %d\n", pf.Records)
			fmt.Fprintf(w, "  Amount:       %s\n", pf.Amount)
			fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		fmt.Fprintf(w, "Failed Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	fmt.Fprintf(w, "%s\nEnd of Summary\n", rule)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// CleanOldArchives removes archive files last modified before cutoff and
// returns how many were removed.
func CleanOldArchives(archiveDir string, cutoff time.Time) (int, error) {
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
