package csb19

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/csb19-generator/internal/records"
	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEncoder returns the record code as the line and keeps the
// records it was given.
type recordingEncoder struct {
	records []*records.Record
	failOn  *records.Kind
}

func (e *recordingEncoder) Encode(record *records.Record) (string, error) {
	if record.Kind == e.failOn {
		return "", errors.New("boom")
	}
	e.records = append(e.records, record)
	return record.Kind.Code(), nil
}

func sequenceContext(t *testing.T, cfg types.JournalConfig, receipts ...types.Receipt) *Context {
	t.Helper()
	ctx, err := BuildContext(&types.PaymentGroup{
		VATNumber:   "G12345678",
		Suffix:      "000",
		BankAccount: "21000418450200051332",
		Receipts:    receipts,
	}, cfg)
	require.NoError(t, err)
	return ctx
}

func TestSequenceOrderAndValues(t *testing.T) {
	r := types.Receipt{
		Name:      "Ana",
		PartyCode: "C1",
		Amount:    decimal.RequireFromString("12.34"),
		Address:   &types.Address{Street: "Mayor 1", City: "Madrid", Zip: "28013"},
		Invoices: []types.Invoice{{Lines: []types.InvoiceLine{
			{Description: "a", Amount: decimal.NewFromInt(1)},
		}}},
	}
	enc := &recordingEncoder{}

	lines, state, err := Sequence(sequenceContext(t, types.JournalConfig{ExtraConcepts: true}, r), enc)
	require.NoError(t, err)

	assert.Equal(t, []string{"51/80", "53/80", "56/80", "56/81", "56/86", "58/80", "59/80"}, lines)
	assert.Equal(t, State{RecordCount: 7, RequiredCount: 1, OrderingCount: 1, Amount: state.Amount}, state)
	assert.True(t, state.Amount.Equal(decimal.RequireFromString("12.34")))

	header := enc.records[0]
	v, _ := header.Value(records.FieldBankCode)
	assert.Equal(t, "2100", v)

	required := enc.records[2]
	v, _ = required.Value(records.FieldReferenceCode)
	assert.Equal(t, "C1", v)

	concept := enc.records[3]
	v, _ = concept.Value(records.ConceptFieldNames[0])
	assert.Equal(t, "a  1,00 ", v)

	orderingFooter := enc.records[5]
	v, _ = orderingFooter.Value(records.FieldRecordCount)
	assert.Equal(t, 5, v)

	presenterFooter := enc.records[6]
	v, _ = presenterFooter.Value(records.FieldRecordCount)
	assert.Equal(t, 7, v)
}

func TestSequenceConceptSlotsArePerReceipt(t *testing.T) {
	withLines := types.Receipt{
		Name:    "Ana",
		Address: &types.Address{Street: "x"},
		Invoices: []types.Invoice{{Lines: []types.InvoiceLine{
			{Description: "a", Amount: decimal.NewFromInt(1)},
			{Description: "b", Amount: decimal.NewFromInt(1)},
			{Description: "c", Amount: decimal.NewFromInt(1)},
			{Description: "d", Amount: decimal.NewFromInt(1)},
		}}},
	}
	withoutLines := types.Receipt{Name: "Luis", Address: &types.Address{Street: "y"}}

	lines, _, err := Sequence(sequenceContext(t, types.JournalConfig{ExtraConcepts: true}, withLines, withoutLines), &recordingEncoder{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"51/80", "53/80",
		"56/80", "56/81", "56/82", "56/86",
		"56/80", "56/86",
		"58/80", "59/80",
	}, lines)
}

func TestSequenceStopsOnEncodingError(t *testing.T) {
	enc := &recordingEncoder{failOn: records.RequiredIndividual}
	r := types.Receipt{Name: "Ana"}

	lines, state, err := Sequence(sequenceContext(t, types.JournalConfig{}, r), enc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required individual")
	assert.Nil(t, lines)
	assert.Equal(t, State{}, state)
	assert.Len(t, enc.records, 2)
}
