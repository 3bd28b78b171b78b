// =============================================================================
// CSB 19 Generator - Record Descriptor Table
// =============================================================================
//
// This package holds the static definition of the 11 CSB 19 record kinds:
// field names, order, widths, types and constant values. It contains no
// generation logic; the sequencer fills Records and the fixed-width encoder
// renders them using these descriptors.
//
// RECORD KINDS (record code / data code):
//   51/80  Presenter header
//   53/80  Ordering header
//   56/80  Required individual
//   56/81  First optional individual   (concepts 2-4)
//   56/82  Second optional individual  (concepts 5-7)
//   56/83  Third optional individual   (concepts 8-10)
//   56/84  Fourth optional individual  (concepts 11-13)
//   56/85  Fifth optional individual   (concepts 14-16)
//   56/86  Sixth optional individual   (payee domicile)
//   58/80  Ordering footer
//   59/80  Presenter footer
//
// Every record is LineWidth columns wide.
//
// =============================================================================

package records

import "fmt"

// LineWidth is the width of every CSB 19 record.
const LineWidth = 162

// =============================================================================
// FIELD TYPES
// =============================================================================

// FieldType tells the encoder how to render a value.
type FieldType int

const (
	// Const fields always carry the descriptor's Value.
	Const FieldType = iota

	// Alpha fields are left-justified and space-padded.
	Alpha

	// Numeric fields hold digits only, right-justified and zero-padded.
	Numeric

	// Date fields are rendered as DDMMYY.
	Date

	// Amount fields hold a decimal amount in cents, zero-padded.
	Amount

	// Filler fields are reserved by the norm and always blank.
	Filler
)

// String returns the lower-case name of the field type.
func (t FieldType) String() string {
	switch t {
	case Const:
		return "const"
	case Alpha:
		return "alphanumeric"
	case Numeric:
		return "numeric"
	case Date:
		return "date"
	case Amount:
		return "amount"
	case Filler:
		return "filler"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// =============================================================================
// FIELD NAMES
// =============================================================================

// Field names shared by several record kinds.
const (
	FieldRecordCode        = "record_code"
	FieldDataCode          = "data_code"
	FieldNIF               = "nif"
	FieldSuffix            = "suffix"
	FieldCreationDate      = "creation_date"
	FieldPaymentDate       = "payment_date"
	FieldName              = "name"
	FieldBankCode          = "bank_code"
	FieldBankOffice        = "bank_office"
	FieldAccount           = "account"
	FieldProcedure         = "procedure"
	FieldReferenceCode     = "reference_code"
	FieldAmount            = "amount"
	FieldReturnCode        = "return_code"
	FieldInternalReference = "internal_reference"
	FieldConcept           = "concept"
	FieldAddress           = "address"
	FieldCity              = "city"
	FieldZip               = "zip"
	FieldAmountSum         = "amount_sum"
	FieldOrderingCount     = "ordering_count"
	FieldRequiredCount     = "required_count"
	FieldRecordCount       = "record_count"
)

// ConceptFieldNames are the names of the 15 optional concept sub-fields,
// in slot order. The norm numbers them from "second" because the first
// concept lives in the required individual record.
var ConceptFieldNames = [15]string{
	"second_field_concept",
	"third_field_concept",
	"fourth_field_concept",
	"fifth_field_concept",
	"sixth_field_concept",
	"seventh_field_concept",
	"eighth_field_concept",
	"ninth_field_concept",
	"tenth_field_concept",
	"eleventh_field_concept",
	"twelfth_field_concept",
	"thirteenth_field_concept",
	"fourteenth_field_concept",
	"fifteenth_field_concept",
	"sixteenth_field_concept",
}

// =============================================================================
// DESCRIPTORS
// =============================================================================

// Field describes one fixed-width column range of a record.
type Field struct {
	// Name identifies the field when setting values.
	Name string

	// Type selects the rendering rule.
	Type FieldType

	// Width is the number of columns the field occupies.
	Width int

	// Value is the literal content of Const fields.
	Value string
}

// Kind describes one record kind.
type Kind struct {
	// Name is a human-readable name, used in errors and the layout export.
	Name string

	// RecordCode and DataCode are the two leading classification fields.
	RecordCode string
	DataCode   string

	// Fields lists the columns in file order.
	Fields []Field
}

// Width returns the sum of the field widths.
func (k *Kind) Width() int {
	width := 0
	for _, f := range k.Fields {
		width += f.Width
	}
	return width
}

// Field returns the descriptor of the named field.
func (k *Kind) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Code returns "RR/DD", the record and data code pair.
func (k *Kind) Code() string {
	return k.RecordCode + "/" + k.DataCode
}

// String implements fmt.Stringer.
func (k *Kind) String() string {
	return fmt.Sprintf("%s (%s)", k.Name, k.Code())
}

// lead returns the fields every record starts with: the two codes and the
// presenter identification (NIF + suffix).
func lead(recordCode, dataCode string) []Field {
	return []Field{
		{Name: FieldRecordCode, Type: Const, Width: 2, Value: recordCode},
		{Name: FieldDataCode, Type: Const, Width: 2, Value: dataCode},
		{Name: FieldNIF, Type: Alpha, Width: 9},
		{Name: FieldSuffix, Type: Alpha, Width: 3},
	}
}

func filler(n, width int) Field {
	return Field{Name: fmt.Sprintf("free_%d", n), Type: Filler, Width: width}
}

func kind(name, recordCode, dataCode string, fields ...Field) *Kind {
	return &Kind{
		Name:       name,
		RecordCode: recordCode,
		DataCode:   dataCode,
		Fields:     append(lead(recordCode, dataCode), fields...),
	}
}

// optional builds one of the five concept records, carrying three
// consecutive concept sub-fields starting at slot first.
func optional(name, dataCode string, first int) *Kind {
	return kind(name, "56", dataCode,
		Field{Name: FieldReferenceCode, Type: Alpha, Width: 12},
		Field{Name: ConceptFieldNames[first], Type: Alpha, Width: 40},
		Field{Name: ConceptFieldNames[first+1], Type: Alpha, Width: 40},
		Field{Name: ConceptFieldNames[first+2], Type: Alpha, Width: 40},
		filler(1, 14),
	)
}

// Record kinds.
var (
	PresenterHeader = kind("presenter header", "51", "80",
		Field{Name: FieldCreationDate, Type: Date, Width: 6},
		filler(1, 6),
		Field{Name: FieldName, Type: Alpha, Width: 40},
		filler(2, 20),
		Field{Name: FieldBankCode, Type: Numeric, Width: 4},
		Field{Name: FieldBankOffice, Type: Numeric, Width: 4},
		filler(3, 12),
		filler(4, 40),
		filler(5, 14),
	)

	OrderingHeader = kind("ordering header", "53", "80",
		Field{Name: FieldCreationDate, Type: Date, Width: 6},
		Field{Name: FieldPaymentDate, Type: Date, Width: 6},
		Field{Name: FieldName, Type: Alpha, Width: 40},
		Field{Name: FieldAccount, Type: Numeric, Width: 20},
		filler(1, 8),
		Field{Name: FieldProcedure, Type: Numeric, Width: 2},
		filler(2, 10),
		filler(3, 40),
		filler(4, 14),
	)

	RequiredIndividual = kind("required individual", "56", "80",
		Field{Name: FieldReferenceCode, Type: Alpha, Width: 12},
		Field{Name: FieldName, Type: Alpha, Width: 40},
		Field{Name: FieldAccount, Type: Numeric, Width: 20},
		Field{Name: FieldAmount, Type: Amount, Width: 10},
		Field{Name: FieldReturnCode, Type: Alpha, Width: 6},
		Field{Name: FieldInternalReference, Type: Alpha, Width: 10},
		Field{Name: FieldConcept, Type: Alpha, Width: 40},
		filler(1, 8),
	)

	FirstOptionalIndividual  = optional("first optional individual", "81", 0)
	SecondOptionalIndividual = optional("second optional individual", "82", 3)
	ThirdOptionalIndividual  = optional("third optional individual", "83", 6)
	FourthOptionalIndividual = optional("fourth optional individual", "84", 9)
	FifthOptionalIndividual  = optional("fifth optional individual", "85", 12)

	SixthOptionalIndividual = kind("sixth optional individual", "56", "86",
		Field{Name: FieldReferenceCode, Type: Alpha, Width: 12},
		Field{Name: FieldName, Type: Alpha, Width: 40},
		Field{Name: FieldAddress, Type: Alpha, Width: 40},
		Field{Name: FieldCity, Type: Alpha, Width: 35},
		Field{Name: FieldZip, Type: Alpha, Width: 5},
		filler(1, 14),
	)

	OrderingFooter = kind("ordering footer", "58", "80",
		filler(1, 12),
		filler(2, 40),
		filler(3, 20),
		Field{Name: FieldAmountSum, Type: Amount, Width: 10},
		filler(4, 6),
		Field{Name: FieldRequiredCount, Type: Numeric, Width: 10},
		Field{Name: FieldRecordCount, Type: Numeric, Width: 10},
		filler(5, 20),
		filler(6, 18),
	)

	PresenterFooter = kind("presenter footer", "59", "80",
		filler(1, 12),
		filler(2, 40),
		Field{Name: FieldOrderingCount, Type: Numeric, Width: 4},
		filler(3, 16),
		Field{Name: FieldAmountSum, Type: Amount, Width: 10},
		filler(4, 6),
		Field{Name: FieldRequiredCount, Type: Numeric, Width: 10},
		Field{Name: FieldRecordCount, Type: Numeric, Width: 10},
		filler(5, 20),
		filler(6, 18),
	)
)

// All lists the record kinds in the order they may appear in a file.
var All = []*Kind{
	PresenterHeader,
	OrderingHeader,
	RequiredIndividual,
	FirstOptionalIndividual,
	SecondOptionalIndividual,
	ThirdOptionalIndividual,
	FourthOptionalIndividual,
	FifthOptionalIndividual,
	SixthOptionalIndividual,
	OrderingFooter,
	PresenterFooter,
}

// =============================================================================
// RECORD
// =============================================================================

// Record is one record instance: a kind plus the values of its fields.
// Records are transient; they are filled, encoded and discarded.
type Record struct {
	Kind   *Kind
	values map[string]any
}

// New returns an empty record of the given kind.
func New(kind *Kind) *Record {
	return &Record{Kind: kind, values: make(map[string]any, len(kind.Fields))}
}

// Set stores a field value and returns the record for chaining.
// Values are validated by the encoder, not here.
func (r *Record) Set(name string, value any) *Record {
	r.values[name] = value
	return r
}

// Value returns the value stored for a field.
func (r *Record) Value(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns the names of the fields that have a value.
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	return names
}
