// =============================================================================
// CSB 19 Generator - Fixed-Width Field Encoder
// =============================================================================
//
// This module renders a filled records.Record into one fixed-width line.
//
// RENDERING RULES (per field type):
//   - const   : the descriptor value, verbatim
//   - alpha   : left-justified, padded with spaces
//   - numeric : digits only, right-justified, padded with zeros
//   - date    : DDMMYY
//   - amount  : cents (two implied decimals), right-justified, zero-padded;
//               sub-cent values are rejected, never rounded
//   - filler  : spaces
//
// Width is counted in characters (runes), not bytes, so accented names take
// one column each. Nothing is ever truncated: a value that does not fit its
// column range is an EncodingError and the caller must abort the file.
//
// =============================================================================

package fixedwidth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ginjaninja78/csb19-generator/internal/records"
	"github.com/shopspring/decimal"
)

// DateLayout is the CSB 19 date format (DDMMYY).
const DateLayout = "020106"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrOverflow is returned when a value is wider than its field.
	ErrOverflow = errors.New("value exceeds field width")

	// ErrInvalidValue is returned when a value has the wrong shape for its
	// field type.
	ErrInvalidValue = errors.New("invalid value for field type")

	// ErrUnknownField is returned when a record carries a value for a field
	// its kind does not define.
	ErrUnknownField = errors.New("unknown field")
)

// EncodingError describes a value that cannot be encoded.
type EncodingError struct {
	// Record is the record code pair, e.g. "56/80".
	Record string

	// Field is the field name.
	Field string

	// Value is the offending value, rendered with %v.
	Value string

	// Err is one of ErrOverflow, ErrInvalidValue or ErrUnknownField.
	Err error

	// Detail adds context to Err.
	Detail string
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("record %s, field '%s': %v (value: '%s')", e.Record, e.Field, e.Err, e.Value)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ENCODER
// =============================================================================

// Encoder renders records into fixed-width lines. The zero value is ready
// to use and an Encoder is safe for concurrent use.
type Encoder struct{}

// New returns an Encoder.
func New() *Encoder {
	return &Encoder{}
}

// Encode renders the record into a line exactly kind.Width() characters wide.
func (e *Encoder) Encode(record *records.Record) (string, error) {
	kind := record.Kind

	// Reject values for fields the kind does not define.
	for _, name := range record.Names() {
		if _, ok := kind.Field(name); !ok {
			v, _ := record.Value(name)
			return "", &EncodingError{Record: kind.Code(), Field: name, Value: fmt.Sprint(v), Err: ErrUnknownField}
		}
	}

	var line strings.Builder
	line.Grow(kind.Width())

	for _, field := range kind.Fields {
		value, set := record.Value(field.Name)
		rendered, err := encodeField(field, value, set)
		if err != nil {
			var encErr *EncodingError
			if errors.As(err, &encErr) {
				encErr.Record = kind.Code()
				encErr.Field = field.Name
			}
			return "", err
		}
		line.WriteString(rendered)
	}

	return line.String(), nil
}

// encodeField renders a single field.
func encodeField(field records.Field, value any, set bool) (string, error) {
	switch field.Type {
	case records.Const:
		if set && fmt.Sprint(value) != field.Value {
			return "", invalid(value, "constant field must be %q", field.Value)
		}
		return fit(field.Value, field.Width, ' ', false)

	case records.Filler:
		if set {
			return "", invalid(value, "reserved field must stay blank")
		}
		return strings.Repeat(" ", field.Width), nil

	case records.Alpha:
		if !set || value == nil {
			return strings.Repeat(" ", field.Width), nil
		}
		s, ok := value.(string)
		if !ok {
			return "", invalid(value, "expected text, got %T", value)
		}
		if strings.ContainsAny(s, "\r\n") {
			return "", invalid(value, "line breaks are not allowed")
		}
		return fit(s, field.Width, ' ', false)

	case records.Numeric:
		if !set || value == nil {
			return strings.Repeat("0", field.Width), nil
		}
		digits, err := numericText(value)
		if err != nil {
			return "", err
		}
		return fit(digits, field.Width, '0', true)

	case records.Date:
		if !set || value == nil {
			return strings.Repeat(" ", field.Width), nil
		}
		t, ok := value.(time.Time)
		if !ok {
			return "", invalid(value, "expected time.Time, got %T", value)
		}
		if t.IsZero() {
			return "", invalid(value, "date is not set")
		}
		return fit(t.Format(DateLayout), field.Width, '0', true)

	case records.Amount:
		if !set || value == nil {
			return strings.Repeat("0", field.Width), nil
		}
		d, ok := value.(decimal.Decimal)
		if !ok {
			return "", invalid(value, "expected decimal amount, got %T", value)
		}
		if d.IsNegative() {
			return "", invalid(value, "amount must not be negative")
		}
		if !d.Equal(d.Round(2)) {
			return "", invalid(value, "amount has more than 2 decimal places")
		}
		cents := d.Shift(2).StringFixed(0)
		return fit(cents, field.Width, '0', true)
	}

	return "", invalid(value, "unsupported field type %s", field.Type)
}

// numericText converts integer-like values into a digit string.
func numericText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", invalid(v, "numeric field is empty")
		}
		for _, r := range v {
			if r < '0' || r > '9' {
				return "", invalid(v, "numeric field accepts digits only")
			}
		}
		return v, nil
	case int:
		if v < 0 {
			return "", invalid(v, "numeric field must not be negative")
		}
		return strconv.Itoa(v), nil
	case int64:
		if v < 0 {
			return "", invalid(v, "numeric field must not be negative")
		}
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	default:
		return "", invalid(value, "expected digits, got %T", value)
	}
}

// fit pads s to width without ever truncating it.
func fit(s string, width int, pad rune, right bool) (string, error) {
	n := utf8.RuneCountInString(s)
	if n > width {
		return "", &EncodingError{
			Value:  s,
			Err:    ErrOverflow,
			Detail: fmt.Sprintf("%d characters, width %d", n, width),
		}
	}
	padding := strings.Repeat(string(pad), width-n)
	if right {
		return padding + s, nil
	}
	return s + padding, nil
}

func invalid(value any, format string, args ...any) error {
	return &EncodingError{
		Value:  fmt.Sprint(value),
		Err:    ErrInvalidValue,
		Detail: fmt.Sprintf(format, args...),
	}
}
