// =============================================================================
// CSB 19 Generator - Shared Types
// =============================================================================
//
// This package contains the payment aggregates shared across modules to avoid
// import cycles. Types defined here are used by:
//   - converter   (builds a PaymentGroup from input rows)
//   - csb19       (turns a PaymentGroup into a CSB 19 file)
//   - validation  (checks input before a group is built)
//   - storage     (records attachments per group)
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT GROUP
// =============================================================================

// PaymentGroup is a batch of receipts presented to the bank in one file.
// It must not be modified once generation has started.
type PaymentGroup struct {
	// Reference identifies the group in logs, file names and the attachment
	// history. It is not written to the CSB 19 file.
	Reference string

	// Presenter is the code of the presenter configuration the group was
	// built from. Used in file names and the attachment history.
	Presenter string

	// Journal is the name of the payment journal the group is presented
	// through. The journal decides the CSB 19 flags.
	Journal string

	// CompanyName is the presenter (and ordering party) name.
	CompanyName string

	// VATNumber is the presenter NIF (9 characters).
	VATNumber string

	// Suffix is the presentation suffix assigned by the bank (3 characters).
	Suffix string

	// BankAccount is the presenting account, as entered. The context builder
	// normalises it to the 20 digit domestic account code.
	BankAccount string

	// CreationDate is the date the file is created.
	CreationDate time.Time

	// PaymentDate is the date the debits are charged.
	PaymentDate time.Time

	// Receipts are the individual payment instructions, in file order.
	Receipts []Receipt
}

// Total returns the sum of the receipt amounts.
func (g *PaymentGroup) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range g.Receipts {
		total = total.Add(r.Amount)
	}
	return total
}

// =============================================================================
// RECEIPT
// =============================================================================

// Receipt is one payee's payment instruction within a group.
type Receipt struct {
	// Name is the payee (account holder) name.
	Name string

	// BankAccount is the payee account, as entered.
	BankAccount string

	// PartyCode is the payee reference code inside the presenter's books.
	PartyCode string

	// Amount is the amount charged to the payee.
	Amount decimal.Decimal

	// Communication is the free-text concept of the required record.
	Communication string

	// Address is the payee postal address, nil when unknown.
	Address *Address

	// Invoices are the source invoices, in order. Their lines feed the
	// optional concept records.
	Invoices []Invoice
}

// HasAddress reports whether the receipt carries a postal address.
func (r *Receipt) HasAddress() bool {
	return r.Address != nil
}

// Address is a payee postal address.
type Address struct {
	Street string
	City   string
	Zip    string
}

// Invoice is a source invoice of a receipt.
type Invoice struct {
	// Number is the invoice number. Informational only.
	Number string

	// Lines are the invoice lines, in order.
	Lines []InvoiceLine
}

// InvoiceLine is a single invoice line item.
type InvoiceLine struct {
	Description string
	Amount      decimal.Decimal
}

// =============================================================================
// JOURNAL CONFIGURATION
// =============================================================================

// JournalConfig holds the CSB 19 flags of a payment journal. It is resolved
// once per group and is read-only during generation.
type JournalConfig struct {
	// ExtraConcepts adds the invoice lines as optional concept records
	// (max. 15 lines). Annex 2 of the CSB 19 norm.
	ExtraConcepts bool

	// AddAddress adds the payee domicile record. Annex 3 of the CSB 19 norm.
	AddAddress bool
}

// =============================================================================
// INPUT TABLE
// =============================================================================

// Table is a parsed input file: one map of header -> value per data row.
// Both the CSV and the XLSX readers produce it.
type Table struct {
	// SourceFile is the path the table was read from.
	SourceFile string

	// Headers are the column headers, in file order.
	Headers []string

	// Rows are the non-empty data rows, in file order.
	Rows []map[string]string

	// RowNumbers holds the 1-indexed file row of each entry in Rows, for
	// error reporting.
	RowNumbers []int
}

// HasColumn reports whether the table has the given header.
func (t *Table) HasColumn(header string) bool {
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}
