package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryKindIsLineWidth(t *testing.T) {
	require.Len(t, All, 11)
	for _, kind := range All {
		assert.Equal(t, LineWidth, kind.Width(), kind.String())
	}
}

func TestKindCodes(t *testing.T) {
	codes := make([]string, 0, len(All))
	for _, kind := range All {
		codes = append(codes, kind.Code())
	}
	assert.Equal(t, []string{
		"51/80", "53/80", "56/80",
		"56/81", "56/82", "56/83", "56/84", "56/85",
		"56/86", "58/80", "59/80",
	}, codes)
}

func TestConceptFieldsAreCoveredOnce(t *testing.T) {
	seen := map[string]string{}
	for _, kind := range []*Kind{
		FirstOptionalIndividual,
		SecondOptionalIndividual,
		ThirdOptionalIndividual,
		FourthOptionalIndividual,
		FifthOptionalIndividual,
	} {
		for _, f := range kind.Fields {
			if f.Type == Alpha && f.Width == 40 {
				prev, dup := seen[f.Name]
				require.False(t, dup, "%s also in %s", f.Name, prev)
				seen[f.Name] = kind.Code()
			}
		}
	}
	for _, name := range ConceptFieldNames {
		assert.Contains(t, seen, name)
	}
}

func TestKindField(t *testing.T) {
	f, ok := RequiredIndividual.Field(FieldAmount)
	require.True(t, ok)
	assert.Equal(t, Amount, f.Type)
	assert.Equal(t, 10, f.Width)

	_, ok = RequiredIndividual.Field(FieldCity)
	assert.False(t, ok)
}

func TestRecordSetAndValue(t *testing.T) {
	r := New(SixthOptionalIndividual).
		Set(FieldName, "Ana").
		Set(FieldCity, "Madrid")

	v, ok := r.Value(FieldName)
	require.True(t, ok)
	assert.Equal(t, "Ana", v)

	_, ok = r.Value(FieldZip)
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{FieldName, FieldCity}, r.Names())
}

func TestFieldTypeString(t *testing.T) {
	assert.Equal(t, "numeric", Numeric.String())
	assert.Equal(t, "filler", Filler.String())
	assert.Equal(t, "FieldType(42)", FieldType(42).String())
}
