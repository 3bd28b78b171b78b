package converter

import (
	"testing"

	"github.com/ginjaninja78/csb19-generator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransformation(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		action config.TransformationAction
		want   string
	}{
		{"prepend", "001", config.TransformationAction{Type: "prepend_string", Value: "C"}, "C001"},
		{"append", "Ana", config.TransformationAction{Type: "append_string", Value: "!"}, "Ana!"},
		{"trim", "  x ", config.TransformationAction{Type: "trim"}, "x"},
		{"uppercase", "josé", config.TransformationAction{Type: "uppercase"}, "JOSÉ"},
		{"lowercase", "ANA", config.TransformationAction{Type: "lowercase"}, "ana"},
		{"replace", "a-b-c", config.TransformationAction{Type: "replace", Find: "-", Value: ""}, "abc"},
		{"replace without find", "a-b", config.TransformationAction{Type: "replace"}, "a-b"},
		{"regex replace", "R 0012", config.TransformationAction{Type: "regex_replace", Find: `^R\s*`, Value: "REC"}, "REC0012"},
		{"truncate runes", "Peñalver", config.TransformationAction{Type: "truncate", Value: "3"}, "Peñ"},
		{"truncate short", "Ana", config.TransformationAction{Type: "truncate", Value: "10"}, "Ana"},
		{"remove spaces", "ES91 2100 0418", config.TransformationAction{Type: "remove_spaces"}, "ES9121000418"},
		{"normalize whitespace", " Calle  Mayor\t1 ", config.TransformationAction{Type: "normalize_whitespace"}, "Calle Mayor 1"},
		{"strip accents", "Peñalver Muñoz, José", config.TransformationAction{Type: "strip_accents"}, "Penalver Munoz, Jose"},
		{"pad zeros", "42", config.TransformationAction{Type: "pad_zeros_to_length", Value: "5"}, "00042"},
		{"extract digits", "Tel. 91-555", config.TransformationAction{Type: "extract_digits"}, "91555"},
		{"remove leading zeros", "00420", config.TransformationAction{Type: "remove_leading_zeros"}, "420"},
		{"remove all zeros", "000", config.TransformationAction{Type: "remove_leading_zeros"}, "0"},
		{"decimal comma", "1.234,56", config.TransformationAction{Type: "decimal_comma"}, "1234.56"},
		{"decimal comma empty", "", config.TransformationAction{Type: "decimal_comma"}, ""},
		{"format date", "15/01/2024", config.TransformationAction{Type: "format_date", Value: "02/01/2006|2006-01-02"}, "2024-01-15"},
		{"lookup hit", "M", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"M": "Madrid"}}, "Madrid"},
		{"lookup miss", "B", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"M": "Madrid"}}, "B"},
		{"default", " ", config.TransformationAction{Type: "default", Value: "Cuota"}, "Cuota"},
		{"default kept", "Recibo", config.TransformationAction{Type: "if_empty_use_default", Value: "Cuota"}, "Recibo"},
		{"use field", "", config.TransformationAction{Type: "if_empty_use_field", Value: "receipt"}, "R1"},
	}

	row := map[string]string{"receipt": "R1"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyTransformation(tt.value, tt.action, row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTransformationErrors(t *testing.T) {
	for _, action := range []config.TransformationAction{
		{Type: "explode"},
		{Type: "truncate", Value: "0"},
		{Type: "pad_zeros_to_length", Value: "x"},
		{Type: "regex_replace", Find: "("},
		{Type: "format_date", Value: "2006-01-02"},
	} {
		_, err := ApplyTransformation("15/01/2024", action, nil)
		assert.Error(t, err, action.Type)
	}

	_, err := ApplyTransformation("2024-13-45", config.TransformationAction{Type: "format_date", Value: "2006-01-02|02012006"}, nil)
	assert.ErrorContains(t, err, "invalid date")
}

func TestTransformRow(t *testing.T) {
	transformer := NewTransformer([]config.TransformationRule{
		{Field: "name", Actions: []config.TransformationAction{{Type: "strip_accents"}, {Type: "uppercase"}}},
		{Field: "party_code", Actions: []config.TransformationAction{{Type: "if_empty_use_field", Value: "name"}}},
		{Field: "missing", Actions: []config.TransformationAction{{Type: "explode"}}},
	})

	row := map[string]string{"name": "José", "party_code": ""}
	require.NoError(t, transformer.TransformRow(row))

	assert.Equal(t, "JOSE", row["name"])
	assert.Equal(t, "JOSE", row["party_code"], "later rules see earlier results")
	assert.NotContains(t, row, "missing")
}

func TestTransformRowError(t *testing.T) {
	transformer := NewTransformer([]config.TransformationRule{
		{Field: "amount", Actions: []config.TransformationAction{{Type: "explode"}}},
	})
	err := transformer.TransformRow(map[string]string{"amount": "1"})
	assert.ErrorContains(t, err, "field 'amount'")
}

func TestPadLeft(t *testing.T) {
	assert.Equal(t, "  ñ", PadLeft("ñ", 3, ' '))
	assert.Equal(t, "abcd", PadLeft("abcd", 3, '0'))
}
