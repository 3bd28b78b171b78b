// =============================================================================
// CSB 19 Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and presenter-specific
// configurations.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global settings and payment journals
//   2. Presenter Configs (presenters/*.yaml): One file per presenting company
//   3. Environment (.env / CSB19_* variables): Overrides for deployment
//
// ARCHITECTURE:
//   - Journals carry the CSB 19 flags (extra concepts, add address) and are
//     resolved once per payment group.
//   - Presenters carry the company identification, the bank account, the
//     journal to present through and the input file layout.
//   - All configurations are defaulted and validated on load.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrJournalNotFound is returned when a presenter or group names a
	// journal that is not configured.
	ErrJournalNotFound = errors.New("payment journal not found")

	// ErrUnsupportedProcessMethod is returned when a journal is processed
	// with a method other than the one it is configured for, or with a
	// method nobody registered.
	ErrUnsupportedProcessMethod = errors.New("unsupported process method")
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for CSV/XLSX receipt files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where generated CSB 19 files are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful generation.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir keeps a copy of every generated file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ArchiveRetentionDays removes archived files older than this many days
	// after each generate run. 0 keeps archives forever.
	ArchiveRetentionDays int `yaml:"archive_retention_days"`

	// PresentersDir is the directory containing presenter configurations.
	// Default: "./presenters"
	PresentersDir string `yaml:"presenters_dir"`

	// DatabasePath is the SQLite file recording generated attachments.
	// Leave empty to disable the attachment history.
	DatabasePath string `yaml:"database_path"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// FileNameFormat defines the format for output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {presenter} - Presenter code
	//   {group}     - Payment group reference
	// Default: "{presenter}_{timestamp}_{uuid}.c19"
	FileNameFormat string `yaml:"file_name_format"`

	// Charset is the character set the file is written in.
	// Valid values: "utf-8", "iso-8859-1", "windows-1252"
	// Default: "iso-8859-1"
	Charset string `yaml:"charset"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// =========================================================================
	// PAYMENT JOURNALS
	// =========================================================================

	// Journals lists the payment journals groups can be presented through.
	Journals []JournalSettings `yaml:"journals"`
}

// JournalSettings is a payment journal and its CSB 19 flags.
type JournalSettings struct {
	// Name identifies the journal.
	Name string `yaml:"name"`

	// ProcessMethod is the file format the journal produces ("csb19").
	ProcessMethod string `yaml:"process_method"`

	// ExtraConcepts adds the invoice lines to the extra concepts
	// (max. 15 lines). Annex 2 of the CSB 19 norm.
	ExtraConcepts bool `yaml:"csb19_extra_concepts"`

	// AddAddress adds the domicile of the owner of the bank account.
	// Annex 3 of the CSB 19 norm.
	AddAddress bool `yaml:"csb19_add_address"`
}

// =============================================================================
// PRESENTER CONFIGURATION STRUCTURE
// =============================================================================

// PresenterConfig holds the configuration of one presenting company.
// Each presenter has its own identification, bank account, journal and
// input file layout.
type PresenterConfig struct {
	// =========================================================================
	// PRESENTER IDENTIFICATION
	// =========================================================================

	// Code is a short code for the presenter, used in file names and as the
	// configuration key.
	Code string `yaml:"code"`

	// CompanyName is written in the presenter and ordering headers.
	CompanyName string `yaml:"company_name"`

	// VATNumber is the presenter NIF.
	VATNumber string `yaml:"vat_number"`

	// Suffix is the presentation suffix assigned by the bank.
	// Default: "000"
	Suffix string `yaml:"suffix"`

	// BankAccount is the presenting account (CCC or Spanish IBAN).
	BankAccount string `yaml:"bank_account"`

	// Journal names the payment journal in the main configuration.
	Journal string `yaml:"journal"`

	// PaymentLeadDays is the number of days between creation and payment
	// date when no payment date is given on the command line.
	// Default: 0
	PaymentLeadDays int `yaml:"payment_lead_days"`

	// =========================================================================
	// FILE MATCHING RULES
	// =========================================================================

	// FileMatchingPatterns is a list of glob patterns to match input files.
	// Examples:
	//   - "acme_*.csv"
	//   - "remesa_*.xlsx"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// =========================================================================
	// INPUT LAYOUT
	// =========================================================================

	// CSVSettings contains settings for parsing CSV input files.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// Sheet is the worksheet read from XLSX input. Empty means the first.
	Sheet string `yaml:"sheet"`

	// Columns maps receipt fields to input column headers.
	Columns ColumnMapping `yaml:"columns"`

	// TransformationRules are applied to input values before receipts are
	// built, keyed by input column header.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), ";" (semicolon), "|" (pipe), "\t" (tab)
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows in the CSV file.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the row number where the actual data begins.
	// Row numbering starts at 1.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is the character encoding of the CSV file.
	// Valid values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// COLUMN MAPPING STRUCTURE
// =============================================================================

// ColumnMapping maps receipt fields to input column headers. Input files
// have one row per invoice line; rows sharing the Receipt column value form
// one receipt, in order of first appearance.
type ColumnMapping struct {
	Receipt         string `yaml:"receipt"`
	PartyCode       string `yaml:"party_code"`
	Name            string `yaml:"name"`
	BankAccount     string `yaml:"bank_account"`
	Amount          string `yaml:"amount"`
	Communication   string `yaml:"communication"`
	Street          string `yaml:"street"`
	City            string `yaml:"city"`
	Zip             string `yaml:"zip"`
	Invoice         string `yaml:"invoice"`
	LineDescription string `yaml:"line_description"`
	LineAmount      string `yaml:"line_amount"`
}

// DefaultColumnMapping returns the column headers used when a presenter
// does not override them.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		Receipt:         "receipt",
		PartyCode:       "party_code",
		Name:            "name",
		BankAccount:     "bank_account",
		Amount:          "amount",
		Communication:   "communication",
		Street:          "street",
		City:            "city",
		Zip:             "zip",
		Invoice:         "invoice",
		LineDescription: "line_description",
		LineAmount:      "line_amount",
	}
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines a transformation to apply to a specific column.
type TransformationRule struct {
	// Field is the input column header to transform.
	Field string `yaml:"field"`

	// Actions is a list of transformations to apply to this field.
	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply.
	// Supported types:
	//   - "prepend_string"      : Add a string to the beginning of the value
	//   - "append_string"       : Add a string to the end of the value
	//   - "pad_zeros_to_length" : Pad with leading zeros to a specific length
	//   - "truncate"            : Cut the value to a maximum length
	//   - "uppercase"           : Convert to uppercase
	//   - "lowercase"           : Convert to lowercase
	//   - "trim"                : Remove leading and trailing whitespace
	//   - "remove_spaces"       : Remove every whitespace character
	//   - "replace"             : Replace a substring with another
	//   - "regex_replace"       : Replace using a regular expression
	//   - "strip_accents"       : Replace accented letters by their base letter
	//   - "decimal_comma"       : Read "1.234,56" as "1234.56"
	//   - "lookup"              : Replace value using a lookup table
	//   - "default"             : Use Value when the field is empty
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used for "replace" and "regex_replace" transformations.
	Find string `yaml:"find,omitempty"`

	// LookupTable is used for "lookup" transformations.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - envPath: Optional .env file. When empty, ./.env is loaded if present.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath, envPath string) (*MainConfig, error) {
	if err := loadEnv(envPath); err != nil {
		return nil, err
	}

	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse the YAML.
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment wins over the file, defaults fill what is left.
	if err := applyEnvOverrides(&config); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	applyMainConfigDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnv loads a .env file into the process environment.
func loadEnv(envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
		return nil
	}
	// A missing ./.env is not an error.
	_ = godotenv.Load()
	return nil
}

// applyEnvOverrides copies CSB19_* environment variables over the file values.
func applyEnvOverrides(config *MainConfig) error {
	overrides := map[string]*string{
		"CSB19_INPUT_DIR":      &config.InputDir,
		"CSB19_OUTPUT_DIR":     &config.OutputDir,
		"CSB19_PRESENTERS_DIR": &config.PresentersDir,
		"CSB19_DB_PATH":        &config.DatabasePath,
		"CSB19_LOG_LEVEL":      &config.LogLevel,
		"CSB19_LOG_FORMAT":     &config.LogFormat,
		"CSB19_CHARSET":        &config.Charset,
	}
	for key, target := range overrides {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}

	if value := os.Getenv("CSB19_MAX_CONCURRENCY"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for CSB19_MAX_CONCURRENCY: %s", value)
		}
		config.MaxConcurrency = n
	}

	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.PresentersDir == "" {
		config.PresentersDir = "./presenters"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.FileNameFormat == "" {
		config.FileNameFormat = "{presenter}_{timestamp}_{uuid}.c19"
	}
	if config.Charset == "" {
		config.Charset = "iso-8859-1"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.ArchiveRetentionDays < 0 {
		config.ArchiveRetentionDays = 0
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	// Journal names must be unique and named.
	seen := make(map[string]bool, len(config.Journals))
	for i, j := range config.Journals {
		if j.Name == "" {
			return fmt.Errorf("journal #%d has no name", i+1)
		}
		if seen[j.Name] {
			return fmt.Errorf("duplicate journal %q", j.Name)
		}
		seen[j.Name] = true
	}

	// Create the working directories if they don't exist.
	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.InputArchiveDir,
		config.OutputArchiveDir,
		config.PresentersDir,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// =============================================================================
// JOURNAL RESOLUTION
// =============================================================================

// Journal returns the settings of the named journal.
func (c *MainConfig) Journal(name string) (*JournalSettings, error) {
	for i := range c.Journals {
		if c.Journals[i].Name == name {
			return &c.Journals[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrJournalNotFound, name)
}

// ResolveJournal returns the CSB 19 flags of the named journal, checking it
// is configured for the given process method.
func (c *MainConfig) ResolveJournal(name, processMethod string) (types.JournalConfig, error) {
	journal, err := c.Journal(name)
	if err != nil {
		return types.JournalConfig{}, err
	}
	if journal.ProcessMethod != processMethod {
		return types.JournalConfig{}, fmt.Errorf("%w: journal %q uses %q, not %q",
			ErrUnsupportedProcessMethod, name, journal.ProcessMethod, processMethod)
	}
	return types.JournalConfig{
		ExtraConcepts: journal.ExtraConcepts,
		AddAddress:    journal.AddAddress,
	}, nil
}

// ValidateJournals checks that every journal uses a registered process method.
func (c *MainConfig) ValidateJournals(registry *Registry) error {
	for _, j := range c.Journals {
		if !registry.HasProcessMethod(j.ProcessMethod) {
			return fmt.Errorf("%w: journal %q uses %q", ErrUnsupportedProcessMethod, j.Name, j.ProcessMethod)
		}
	}
	return nil
}

// =============================================================================
// PRESENTER CONFIGURATION LOADING
// =============================================================================

// LoadPresenterConfigs loads all presenter configurations from a directory.
//
// PARAMETERS:
//   - presentersDir: The directory containing presenter configuration files.
//
// RETURNS:
//   - A map of presenter configurations, keyed by presenter code.
//   - An error if the directory cannot be read or any file cannot be parsed.
func LoadPresenterConfigs(presentersDir string) (map[string]*PresenterConfig, error) {
	configs := make(map[string]*PresenterConfig)

	// Find all YAML files in the presenters directory.
	files, err := filepath.Glob(filepath.Join(presentersDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}

	// Also check for .yml extension.
	ymlFiles, err := filepath.Glob(filepath.Join(presentersDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := LoadPresenterConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		// Use presenter code as the key.
		// If no code is specified, use the file name.
		key := config.Code
		if key == "" {
			key = filepath.Base(file)
			config.Code = key
		}
		if _, dup := configs[key]; dup {
			return nil, fmt.Errorf("duplicate presenter code %q in %s", key, file)
		}

		configs[key] = config
	}

	return configs, nil
}

// LoadPresenterConfig loads a single presenter configuration file.
func LoadPresenterConfig(filePath string) (*PresenterConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config PresenterConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	applyPresenterConfigDefaults(&config)

	if err := validatePresenterConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyPresenterConfigDefaults sets default values for presenter configuration.
func applyPresenterConfigDefaults(config *PresenterConfig) {
	if config.Suffix == "" {
		config.Suffix = "000"
	}

	// CSV settings defaults.
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ";"
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}

	// Column mapping defaults, field by field.
	defaults := DefaultColumnMapping()
	cols := &config.Columns
	for _, pair := range []struct {
		target *string
		value  string
	}{
		{&cols.Receipt, defaults.Receipt},
		{&cols.PartyCode, defaults.PartyCode},
		{&cols.Name, defaults.Name},
		{&cols.BankAccount, defaults.BankAccount},
		{&cols.Amount, defaults.Amount},
		{&cols.Communication, defaults.Communication},
		{&cols.Street, defaults.Street},
		{&cols.City, defaults.City},
		{&cols.Zip, defaults.Zip},
		{&cols.Invoice, defaults.Invoice},
		{&cols.LineDescription, defaults.LineDescription},
		{&cols.LineAmount, defaults.LineAmount},
	} {
		if *pair.target == "" {
			*pair.target = pair.value
		}
	}
}

// validatePresenterConfig checks the fields a group cannot be built without.
func validatePresenterConfig(config *PresenterConfig) error {
	var missing []string
	if config.CompanyName == "" {
		missing = append(missing, "company_name")
	}
	if config.VATNumber == "" {
		missing = append(missing, "vat_number")
	}
	if config.BankAccount == "" {
		missing = append(missing, "bank_account")
	}
	if config.Journal == "" {
		missing = append(missing, "journal")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required presenter settings: %v", missing)
	}
	if config.PaymentLeadDays < 0 {
		return fmt.Errorf("payment_lead_days must not be negative")
	}
	return nil
}
