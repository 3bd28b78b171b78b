package csb19

import (
	"strings"

	"github.com/ginjaninja78/csb19-generator/internal/records"
	"github.com/ginjaninja78/csb19-generator/internal/types"
)

// MaxConcepts is the number of optional concept slots (norm fields
// "second" to "sixteenth").
const MaxConcepts = 15

// Concepts holds the optional concept slots of one receipt. Slot 0 is the
// norm's "second" field. Unused slots are empty.
type Concepts [MaxConcepts]string

// conceptRecords maps each group of three slots to its record kind:
// slots 0-2 -> 56/81, 3-5 -> 56/82, ... 12-14 -> 56/85.
var conceptRecords = [MaxConcepts / 3]*records.Kind{
	records.FirstOptionalIndividual,
	records.SecondOptionalIndividual,
	records.ThirdOptionalIndividual,
	records.FourthOptionalIndividual,
	records.FifthOptionalIndividual,
}

// SplitConcepts renders the invoice lines of a receipt and assigns them, in
// order, to the concept slots. Lines beyond MaxConcepts are dropped. When
// extra is false every slot stays empty.
func SplitConcepts(invoices []types.Invoice, extra bool) Concepts {
	var slots Concepts
	if !extra {
		return slots
	}

	n := 0
	for _, invoice := range invoices {
		for _, line := range invoice.Lines {
			if n == MaxConcepts {
				return slots
			}
			slots[n] = FormatConcept(line)
			n++
		}
	}
	return slots
}

// FormatConcept renders an invoice line as "<description>  <amount> ",
// the amount with two decimals and a decimal comma. The concept is free
// text, so a sub-cent line amount is rounded half away from zero here
// instead of failing; input validation rejects such amounts upstream.
func FormatConcept(line types.InvoiceLine) string {
	amount := " " + line.Amount.StringFixed(2) + " "
	return line.Description + " " + strings.ReplaceAll(amount, ".", ",")
}

// group returns the three slots carried by concept record i.
func (c *Concepts) group(i int) [3]string {
	return [3]string{c[3*i], c[3*i+1], c[3*i+2]}
}
