package universe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWithSymbolHeader(t *testing.T) {
	csv := "name,symbol,sector\nReliance Industries,RELIANCE,Energy\nTata Consultancy,TCS,IT\n"

	symbols, err := Read(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, symbols)
}

func TestReadHeaderCaseInsensitive(t *testing.T) {
	csv := "Symbol\nSBIN\nLT\n"

	symbols, err := Read(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"SBIN", "LT"}, symbols)
}

func TestReadNoHeaderUsesFirstColumn(t *testing.T) {
	csv := "INFY,IT\nHDFCBANK,Banking\n"

	symbols, err := Read(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "HDFCBANK"}, symbols)
}

func TestReadSkipsBlankRows(t *testing.T) {
	csv := "symbol\nRELIANCE\n\n  \nTCS\n"

	symbols, err := Read(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, symbols)
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("symbol\n"))
	assert.Error(t, err)
}

func TestDefaultIsACopy(t *testing.T) {
	a := Default()
	a[0] = "MUTATED"

	b := Default()
	assert.Equal(t, "RELIANCE", b[0])
	assert.Len(t, b, 10)
}
