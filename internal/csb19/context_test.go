package csb19

import (
	"testing"

	"github.com/ginjaninja78/csb19-generator/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAccount(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2100 0418 4502 0005 1332", "21000418450200051332"},
		{"2100-0418-45-0200051332", "21000418450200051332"},
		{"ES91 2100 0418 4502 0005 1332", "21000418450200051332"},
		{"es9121000418450200051332", "21000418450200051332"},
		{"DE89370400440532013000", "DE89370400440532013000"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAccount(tt.in), tt.in)
	}
}

func TestBuildContext(t *testing.T) {
	g := &types.PaymentGroup{
		BankAccount: "ES9121000418450200051332",
		Receipts: []types.Receipt{
			{Name: "Ana", BankAccount: "2100 0418 4502 0005 1332", PartyCode: "C1"},
		},
	}

	ctx, err := BuildContext(g, types.JournalConfig{})
	require.NoError(t, err)

	assert.Equal(t, "21000418450200051332", ctx.BankAccount)
	assert.Equal(t, "2100", ctx.BankCode)
	assert.Equal(t, "0418", ctx.BankOffice)
	assert.Equal(t, Procedure, ctx.Procedure)
	require.Len(t, ctx.Receipts, 1)
	assert.Equal(t, "21000418450200051332", ctx.Receipts[0].BankAccount)
	assert.Equal(t, "C1", ctx.Receipts[0].PartyCode)
	assert.Same(t, &g.Receipts[0], ctx.Receipts[0].Receipt)
}

func TestBuildContextShortAccount(t *testing.T) {
	ctx, err := BuildContext(&types.PaymentGroup{BankAccount: "21000"}, types.JournalConfig{})
	require.NoError(t, err)
	assert.Equal(t, "2100", ctx.BankCode)
	assert.Equal(t, "0", ctx.BankOffice)
}

func TestBuildContextChecksEveryReceipt(t *testing.T) {
	g := &types.PaymentGroup{
		Receipts: []types.Receipt{
			{Name: "Ana", Address: &types.Address{Street: "x"}},
			{Name: "Luis"},
		},
	}
	_, err := BuildContext(g, types.JournalConfig{AddAddress: true})
	require.ErrorIs(t, err, ErrPartyWithoutAddress)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"Luis"}, cfgErr.Args)
}

func TestSplitConcepts(t *testing.T) {
	line := func(d, a string) types.InvoiceLine {
		return types.InvoiceLine{Description: d, Amount: decimal.RequireFromString(a)}
	}
	invoices := []types.Invoice{
		{Lines: []types.InvoiceLine{line("A", "1"), line("B", "1234.5")}},
		{Lines: []types.InvoiceLine{line("C", "0.05")}},
	}

	slots := SplitConcepts(invoices, true)
	assert.Equal(t, "A  1,00 ", slots[0])
	assert.Equal(t, "B  1234,50 ", slots[1])
	assert.Equal(t, "C  0,05 ", slots[2])
	assert.Empty(t, slots[3])

	assert.Equal(t, Concepts{}, SplitConcepts(invoices, false))
}

func TestSplitConceptsDropsOverflow(t *testing.T) {
	var lines []types.InvoiceLine
	for i := 0; i < MaxConcepts+3; i++ {
		lines = append(lines, types.InvoiceLine{Description: string(rune('a' + i)), Amount: decimal.NewFromInt(1)})
	}
	slots := SplitConcepts([]types.Invoice{{Lines: lines}}, true)
	assert.Equal(t, "o  1,00 ", slots[MaxConcepts-1])
	for _, s := range slots {
		assert.NotEmpty(t, s)
	}
}

func TestConceptsGroup(t *testing.T) {
	var c Concepts
	c[3], c[4] = "x", "y"
	assert.Equal(t, [3]string{"x", "y", ""}, c.group(1))
	assert.Equal(t, [3]string{}, c.group(0))
}

func TestFormatConceptRoundsSubCentAmounts(t *testing.T) {
	line := types.InvoiceLine{Description: "x", Amount: decimal.RequireFromString("1.005")}
	assert.Equal(t, "x  1,01 ", FormatConcept(line))

	line.Amount = decimal.RequireFromString("-0.005")
	assert.Equal(t, "x  -0,01 ", FormatConcept(line))
}
