package converter_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/ginjaninja78/csb19-generator/internal/converter"
	"github.com/ginjaninja78/csb19-generator/internal/csb19"
	"github.com/ginjaninja78/csb19-generator/internal/fixedwidth"
	"github.com/ginjaninja78/csb19-generator/internal/logging"
	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/ginjaninja78/csb19-generator/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC)

func presenter() *config.PresenterConfig {
	return &config.PresenterConfig{
		Code:            "club",
		CompanyName:     "Club Deportivo",
		VATNumber:       "G12345678",
		Suffix:          "000",
		BankAccount:     "ES9121000418450200051332",
		Journal:         "Cuotas",
		PaymentLeadDays: 5,
		CSVSettings:     config.CSVSettings{Delimiter: ";", HeaderRows: 1, DataStartRow: 2, Encoding: "UTF-8"},
		Columns:         config.DefaultColumnMapping(),
	}
}

func mainConfig(flags config.JournalSettings) *config.MainConfig {
	flags.Name = "Cuotas"
	flags.ProcessMethod = csb19.ProcessMethod
	return &config.MainConfig{Journals: []config.JournalSettings{flags}}
}

func tableOf(rows ...map[string]string) *types.Table {
	t := &types.Table{Rows: rows}
	for i := range rows {
		t.RowNumbers = append(t.RowNumbers, i+2)
	}
	return t
}

func TestBuildGroup(t *testing.T) {
	table := tableOf(
		map[string]string{"receipt": "R1", "name": "Ana", "bank_account": "A1", "street": "Calle 1", "city": "Madrid", "zip": "28001",
			"invoice": "F1", "line_description": "Cuota", "line_amount": "30.00"},
		map[string]string{"receipt": "R2", "name": "Luis", "bank_account": "A2", "party_code": "P2", "amount": "12.5"},
		map[string]string{"receipt": "R1", "name": "Ignored", "invoice": "F2", "line_description": "Seguro", "line_amount": "5.25"},
		map[string]string{"receipt": "R1", "invoice": "F1", "line_description": "Material", "line_amount": "1"},
	)
	creation := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	payment := creation.AddDate(0, 0, 5)

	group, err := converter.BuildGroup(table, presenter(), "batch", creation, payment)
	require.NoError(t, err)

	assert.Equal(t, "batch", group.Reference)
	assert.Equal(t, "club", group.Presenter)
	assert.Equal(t, "Cuotas", group.Journal)
	assert.Equal(t, payment, group.PaymentDate)
	require.Len(t, group.Receipts, 2)

	ana := group.Receipts[0]
	assert.Equal(t, "Ana", ana.Name)
	assert.Equal(t, "R1", ana.PartyCode)
	require.NotNil(t, ana.Address)
	assert.Equal(t, "28001", ana.Address.Zip)
	assert.True(t, ana.Amount.Equal(decimal.RequireFromString("36.25")), ana.Amount.String())
	require.Len(t, ana.Invoices, 2)
	assert.Equal(t, "F1", ana.Invoices[0].Number)
	assert.Len(t, ana.Invoices[0].Lines, 2)
	assert.Equal(t, "Seguro", ana.Invoices[1].Lines[0].Description)

	luis := group.Receipts[1]
	assert.Equal(t, "P2", luis.PartyCode)
	assert.Nil(t, luis.Address)
	assert.Empty(t, luis.Invoices)
	assert.True(t, luis.Amount.Equal(decimal.RequireFromString("12.50")))

	assert.True(t, group.Total().Equal(decimal.RequireFromString("48.75")))
}

func TestBuildGroupInvalidAmount(t *testing.T) {
	table := tableOf(map[string]string{"receipt": "R1", "amount": "12,50"})
	_, err := converter.BuildGroup(table, presenter(), "batch", fixedNow, fixedNow)
	assert.ErrorContains(t, err, "row 2")
}

func TestGroupReference(t *testing.T) {
	assert.Equal(t, "cuotas_enero", converter.GroupReference("/in/cuotas_enero.csv"))
}

func TestReadTableUnsupported(t *testing.T) {
	_, err := converter.ReadTable("receipts.pdf", presenter())
	assert.ErrorContains(t, err, "unsupported input file type")
}

// setup writes an input CSV and returns a file manager rooted in a temp dir.
func setup(t *testing.T, csv string) (*utils.FileManager, string) {
	t.Helper()
	root := t.TempDir()
	fm := utils.NewFileManager(
		filepath.Join(root, "in"),
		filepath.Join(root, "out"),
		filepath.Join(root, "in_archive"),
		filepath.Join(root, "out_archive"),
	)
	fm.FileNameFormat = "{presenter}_{group}.c19"
	fm.Now = func() time.Time { return fixedNow }
	require.NoError(t, fm.EnsureDirectories())

	path := filepath.Join(fm.InputDir, "cuotas.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))
	return fm, path
}

const receiptsCSV = "receipt;name;bank_account;street;city;zip;line_description;line_amount\n" +
	"R1;Peñalver;ES9121000418450200051332;Calle Mayor 1;Madrid;28013;Cuota;30,00\n" +
	"R1;Peñalver;ES9121000418450200051332;Calle Mayor 1;Madrid;28013;Seguro;5,50\n"

func TestRunGeneratesFile(t *testing.T) {
	fm, path := setup(t, receiptsCSV)
	p := presenter()
	p.TransformationRules = []config.TransformationRule{
		{Field: "line_amount", Actions: []config.TransformationAction{{Type: "decimal_comma"}}},
		{Field: "name", Actions: []config.TransformationAction{{Type: "strip_accents"}, {Type: "uppercase"}}},
	}
	generator := csb19.NewGenerator(fixedwidth.New(), fm, logging.Discard())

	c := converter.New(path, p, mainConfig(config.JournalSettings{ExtraConcepts: true}), generator, fm, logging.Discard(),
		converter.Options{Now: func() time.Time { return fixedNow }})
	result := c.Run()

	require.NoError(t, result.Error)
	require.True(t, result.Success)
	assert.Equal(t, "cuotas", result.Group)
	assert.Equal(t, 2, result.Stats.RowsProcessed)
	assert.Equal(t, 1, result.Stats.Receipts)
	assert.Equal(t, 7, result.Stats.Records)
	assert.True(t, result.Stats.Amount.Equal(decimal.RequireFromString("35.50")))

	expected := filepath.Join(fm.OutputDir, "club_cuotas.c19")
	assert.Equal(t, expected, result.OutputFile)

	data, err := os.ReadFile(expected)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\r\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "5180G12345678000100124"))
	assert.True(t, strings.HasPrefix(lines[1], "5380G12345678000100124150124"))
	assert.Contains(t, lines[2], "PENALVER")
	assert.Contains(t, lines[3], "Cuota  30,00 ")
	assert.Contains(t, lines[3], "Seguro  5,50 ")

	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(fm.InputArchiveDir, "cuotas.csv"))
	assert.FileExists(t, filepath.Join(fm.OutputArchiveDir, "club_cuotas.c19"))
}

func TestRunDryRun(t *testing.T) {
	fm, path := setup(t, receiptsCSV)
	p := presenter()
	p.TransformationRules = []config.TransformationRule{
		{Field: "line_amount", Actions: []config.TransformationAction{{Type: "decimal_comma"}}},
	}
	generator := csb19.NewGenerator(fixedwidth.New(), nil, logging.Discard())
	paymentDate := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	result := converter.New(path, p, mainConfig(config.JournalSettings{AddAddress: true}), generator, fm, logging.Discard(),
		converter.Options{DryRun: true, PaymentDate: paymentDate, Now: func() time.Time { return fixedNow }}).Run()

	require.NoError(t, result.Error)
	assert.Empty(t, result.OutputFile)
	assert.Len(t, csb19.SplitLines(result.Text), 6)
	assert.Contains(t, csb19.SplitLines(result.Text)[1], "100124010224")
	assert.FileExists(t, path)

	entries, err := os.ReadDir(fm.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunValidationFailure(t *testing.T) {
	fm, path := setup(t, "receipt;name;bank_account;amount\nR1;;2100;10\n")
	generator := csb19.NewGenerator(fixedwidth.New(), fm, logging.Discard())

	result := converter.New(path, presenter(), mainConfig(config.JournalSettings{}), generator, fm, logging.Discard(),
		converter.Options{}).Run()

	require.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Stats.ValidationErrors)
	assert.Len(t, result.Findings, 2)
	assert.FileExists(t, path, "failed inputs stay in place")
}

func TestRunUnknownJournal(t *testing.T) {
	fm, path := setup(t, receiptsCSV)
	p := presenter()
	p.Journal = "Other"
	generator := csb19.NewGenerator(fixedwidth.New(), fm, logging.Discard())

	result := converter.New(path, p, mainConfig(config.JournalSettings{}), generator, fm, logging.Discard(),
		converter.Options{}).Run()

	assert.True(t, errors.Is(result.Error, config.ErrJournalNotFound))
}
