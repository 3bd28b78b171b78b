package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/converter"
	"github.com/ginjaninja78/csb19-generator/internal/csb19"
	"github.com/ginjaninja78/csb19-generator/internal/fixedwidth"
	"github.com/ginjaninja78/csb19-generator/internal/validation"
	"github.com/spf13/cobra"
)

var validateFile string

// validateCmd checks configuration and inputs without writing anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and input files without generating",
	Long: `The validate command loads the configuration, then reads, transforms and
validates every input file exactly as generate would. Files without errors
are also generated in memory, so encoding problems show up as well. Nothing
is written, attached or archived.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateFile, "file", "", "Validate only this input file")
	validateCmd.Flags().StringVar(&presenter, "presenter", "",
		"Presenter code to use instead of matching by file name")
}

func runValidate(out io.Writer) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Configuration OK: %d journal(s), %d presenter(s)\n",
		len(a.config.Journals), len(a.presenters))

	files := []string{validateFile}
	if validateFile == "" {
		files, err = newFileManager(a.config).DiscoverInputFiles()
		if err != nil {
			return err
		}
	}

	generator := csb19.NewGenerator(fixedwidth.New(), nil, a.logger)
	failed := 0
	for _, path := range files {
		if err := validateOne(out, a, generator, path); err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(path), err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) invalid", failed, len(files))
	}
	return nil
}

func validateOne(out io.Writer, a *app, generator *csb19.Generator, path string) error {
	p, err := selectPresenter(path, presenter, a.presenters)
	if err != nil {
		return err
	}
	table, err := converter.ReadTable(path, p)
	if err != nil {
		return err
	}
	if err := converter.TransformTable(table, p.TransformationRules); err != nil {
		return err
	}
	journal, err := a.config.ResolveJournal(p.Journal, csb19.ProcessMethod)
	if err != nil {
		return err
	}

	result := validation.NewValidator(p.Columns, journal).Validate(table)
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "%s:\n%s\n", filepath.Base(path), validation.FormatErrors(result.Errors))
	}
	if !result.IsValid {
		return fmt.Errorf("%d error(s), %d warning(s)", result.ErrorCount, result.WarningCount)
	}

	today := time.Now()
	group, err := converter.BuildGroup(table, p, converter.GroupReference(path), today,
		today.AddDate(0, 0, p.PaymentLeadDays))
	if err != nil {
		return err
	}
	generated, err := generator.Generate(group, journal)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  ✓ %s: %d receipt(s), %d record(s), %s, %d warning(s)\n",
		filepath.Base(path), generated.State.RequiredCount, generated.State.RecordCount,
		generated.State.Amount.StringFixed(2), result.WarningCount)
	return nil
}
