package csb19

import (
	"fmt"

	"github.com/ginjaninja78/csb19-generator/internal/records"
	"github.com/shopspring/decimal"
)

// Encoder renders a filled record into one fixed-width line.
type Encoder interface {
	Encode(record *records.Record) (string, error)
}

// State holds the counters threaded through one generation.
type State struct {
	// RecordCount is the number of lines the file has once finished.
	RecordCount int

	// RequiredCount is the number of required individual records.
	RequiredCount int

	// OrderingCount is the number of ordering parties; always 1 here.
	OrderingCount int

	// Amount is the running sum of the receipt amounts.
	Amount decimal.Decimal
}

// sequencer emits the records of one group in file order.
type sequencer struct {
	ctx     *Context
	encoder Encoder
	state   State
	lines   []string
}

// Sequence emits every record of the group and returns the encoded lines
// with the final counters. Any encoding error aborts the whole sequence.
func Sequence(ctx *Context, encoder Encoder) ([]string, State, error) {
	s := &sequencer{
		ctx:     ctx,
		encoder: encoder,
		state:   State{OrderingCount: 1, Amount: decimal.Zero},
	}
	if err := s.run(); err != nil {
		return nil, State{}, err
	}
	return s.lines, s.state, nil
}

func (s *sequencer) run() error {
	if err := s.emit(s.presenterHeader()); err != nil {
		return err
	}
	if err := s.emit(s.orderingHeader()); err != nil {
		return err
	}

	for i := range s.ctx.Receipts {
		if err := s.receipt(&s.ctx.Receipts[i]); err != nil {
			return err
		}
	}

	// The ordering footer carries the count before both footers are added.
	if err := s.write(s.orderingFooter()); err != nil {
		return err
	}
	s.state.RecordCount += 2

	return s.write(s.presenterFooter())
}

// receipt emits the required record of a receipt and, depending on the
// journal flags, its optional concept and domicile records.
func (s *sequencer) receipt(rc *ReceiptContext) error {
	s.state.RequiredCount++
	s.state.Amount = s.state.Amount.Add(rc.Receipt.Amount)
	if err := s.emit(s.requiredIndividual(rc)); err != nil {
		return err
	}

	switch {
	case s.ctx.Config.ExtraConcepts:
		concepts := SplitConcepts(rc.Receipt.Invoices, true)
		for i, kind := range conceptRecords {
			slots := concepts.group(i)
			if slots[0] == "" {
				continue
			}
			if err := s.emit(s.optionalConcepts(rc, kind, i, slots)); err != nil {
				return err
			}
		}
		return s.emit(s.domicile(rc))

	case s.ctx.Config.AddAddress:
		return s.emit(s.domicile(rc))
	}

	return nil
}

// emit writes a record and counts it.
func (s *sequencer) emit(record *records.Record) error {
	if err := s.write(record); err != nil {
		return err
	}
	s.state.RecordCount++
	return nil
}

// write encodes a record and appends the line without touching counters.
func (s *sequencer) write(record *records.Record) error {
	line, err := s.encoder.Encode(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", record.Kind.Name, err)
	}
	s.lines = append(s.lines, line)
	return nil
}

// =============================================================================
// RECORD BUILDERS
// =============================================================================

// identified returns a record of kind with the presenter identification set.
func (s *sequencer) identified(kind *records.Kind) *records.Record {
	return records.New(kind).
		Set(records.FieldNIF, s.ctx.VATNumber).
		Set(records.FieldSuffix, s.ctx.Suffix)
}

func (s *sequencer) presenterHeader() *records.Record {
	return s.identified(records.PresenterHeader).
		Set(records.FieldCreationDate, s.ctx.CreationDate).
		Set(records.FieldName, s.ctx.CompanyName).
		Set(records.FieldBankCode, s.ctx.BankCode).
		Set(records.FieldBankOffice, s.ctx.BankOffice)
}

func (s *sequencer) orderingHeader() *records.Record {
	return s.identified(records.OrderingHeader).
		Set(records.FieldCreationDate, s.ctx.CreationDate).
		Set(records.FieldPaymentDate, s.ctx.PaymentDate).
		Set(records.FieldName, s.ctx.CompanyName).
		Set(records.FieldAccount, s.ctx.BankAccount).
		Set(records.FieldProcedure, s.ctx.Procedure)
}

func (s *sequencer) requiredIndividual(rc *ReceiptContext) *records.Record {
	return s.identified(records.RequiredIndividual).
		Set(records.FieldReferenceCode, rc.PartyCode).
		Set(records.FieldName, rc.Receipt.Name).
		Set(records.FieldAccount, rc.BankAccount).
		Set(records.FieldAmount, rc.Receipt.Amount).
		Set(records.FieldConcept, rc.Receipt.Communication)
}

func (s *sequencer) optionalConcepts(rc *ReceiptContext, kind *records.Kind, group int, slots [3]string) *records.Record {
	record := s.identified(kind).Set(records.FieldReferenceCode, rc.PartyCode)
	for j, text := range slots {
		record.Set(records.ConceptFieldNames[3*group+j], text)
	}
	return record
}

func (s *sequencer) domicile(rc *ReceiptContext) *records.Record {
	record := s.identified(records.SixthOptionalIndividual).
		Set(records.FieldReferenceCode, rc.PartyCode).
		Set(records.FieldName, rc.Receipt.Name)
	if addr := rc.Receipt.Address; addr != nil {
		record.Set(records.FieldAddress, addr.Street).
			Set(records.FieldCity, addr.City).
			Set(records.FieldZip, addr.Zip)
	}
	return record
}

func (s *sequencer) orderingFooter() *records.Record {
	return s.identified(records.OrderingFooter).
		Set(records.FieldAmountSum, s.state.Amount).
		Set(records.FieldRequiredCount, s.state.RequiredCount).
		Set(records.FieldRecordCount, s.state.RecordCount)
}

func (s *sequencer) presenterFooter() *records.Record {
	return s.identified(records.PresenterFooter).
		Set(records.FieldOrderingCount, s.state.OrderingCount).
		Set(records.FieldAmountSum, s.state.Amount).
		Set(records.FieldRequiredCount, s.state.RequiredCount).
		Set(records.FieldRecordCount, s.state.RecordCount)
}
