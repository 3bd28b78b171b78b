package csb19

import (
	"strings"
	"time"

	"github.com/ginjaninja78/csb19-generator/internal/types"
)

// Procedure is the ordering procedure code written in the ordering header.
const Procedure = "01"

// Context is the fully resolved input of the sequencer.
type Context struct {
	VATNumber    string
	Suffix       string
	CompanyName  string
	CreationDate time.Time
	PaymentDate  time.Time

	// BankAccount is the normalised presenting account; BankCode and
	// BankOffice are its first and second 4-character blocks.
	BankAccount string
	BankCode    string
	BankOffice  string

	Procedure string
	Config    types.JournalConfig
	Receipts  []ReceiptContext
}

// ReceiptContext carries the per-receipt derived values.
type ReceiptContext struct {
	Receipt     *types.Receipt
	BankAccount string
	PartyCode   string
}

// BuildContext resolves the group into a Context. Every receipt is checked
// before anything is returned, so an invalid batch never starts a file.
func BuildContext(group *types.PaymentGroup, cfg types.JournalConfig) (*Context, error) {
	for i := range group.Receipts {
		receipt := &group.Receipts[i]
		if requiresAddress(cfg) && !receipt.HasAddress() {
			return nil, newConfigurationError(DescPartyWithoutAddress, receipt.Name)
		}
	}

	account := NormalizeAccount(group.BankAccount)
	ctx := &Context{
		VATNumber:    group.VATNumber,
		Suffix:       group.Suffix,
		CompanyName:  group.CompanyName,
		CreationDate: group.CreationDate,
		PaymentDate:  group.PaymentDate,
		BankAccount:  account,
		BankCode:     substr(account, 0, 4),
		BankOffice:   substr(account, 4, 8),
		Procedure:    Procedure,
		Config:       cfg,
		Receipts:     make([]ReceiptContext, len(group.Receipts)),
	}

	for i := range group.Receipts {
		receipt := &group.Receipts[i]
		ctx.Receipts[i] = ReceiptContext{
			Receipt:     receipt,
			BankAccount: NormalizeAccount(receipt.BankAccount),
			PartyCode:   receipt.PartyCode,
		}
	}

	return ctx, nil
}

// requiresAddress reports whether the journal flags make the domicile
// record part of every receipt.
func requiresAddress(cfg types.JournalConfig) bool {
	return cfg.ExtraConcepts || cfg.AddAddress
}

// NormalizeAccount removes separators from an account number and reduces a
// Spanish IBAN (ES + 22 digits) to its 20 digit domestic part.
func NormalizeAccount(account string) string {
	account = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '/':
			return -1
		}
		return r
	}, account)
	account = strings.ToUpper(account)
	if len(account) == 24 && strings.HasPrefix(account, "ES") {
		return account[4:]
	}
	return account
}

// substr is s[from:to] clamped to the string bounds.
func substr(s string, from, to int) string {
	if from > len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
