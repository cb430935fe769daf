package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDigitsUsesSubsetC(t *testing.T) {
	sym, err := Encode("1234")
	require.NoError(t, err)

	// StartC, 12, 34, checksum (105 + 1*12 + 2*34) % 103 = 82, stop.
	assert.Equal(t, []int{105, 12, 34, 82, 106}, sym.Values())
}

func TestEncodeTextUsesSubsetB(t *testing.T) {
	sym, err := Encode("A")
	require.NoError(t, err)

	// StartB, 'A'-32=33, checksum (104 + 33) % 103 = 34, stop.
	assert.Equal(t, []int{104, 33, 34, 106}, sym.Values())
}

func TestEncodeSwitchesToCForLongDigitRuns(t *testing.T) {
	sym, err := Encode("PED-00012345")
	require.NoError(t, err)

	values := sym.Values()
	assert.Equal(t, 104, values[0])
	assert.Contains(t, values, 99, "expected a CodeC switch for the 8-digit run")

	// Body: P E D - in B, then 00 01 23 45 in C.
	body := values[1 : len(values)-2]
	assert.Equal(t, []int{'P' - 32, 'E' - 32, 'D' - 32, '-' - 32, 99, 0, 1, 23, 45}, body)
}

func TestEncodeOddDigitRunLeavesTrailingDigitInB(t *testing.T) {
	sym, err := Encode("1234567")
	require.NoError(t, err)

	values := sym.Values()
	body := values[1 : len(values)-2]
	assert.Equal(t, []int{99, 12, 34, 56, 100, '7' - 32}, body)
}

func TestChecksumMatchesIndependentComputation(t *testing.T) {
	for _, text := range []string{"GRAFICA-001", "0001", "abc 123", "~~~"} {
		sym, err := Encode(text)
		require.NoError(t, err)

		values := sym.Values()
		body := values[:len(values)-2]
		sum := body[0]
		for i := 1; i < len(body); i++ {
			sum += i * body[i]
		}
		assert.Equal(t, sum%103, values[len(values)-2], "text %q", text)
		assert.Equal(t, 106, values[len(values)-1])
	}
}

func TestWidthsAreElevenModulesPerSymbol(t *testing.T) {
	sym, err := Encode("42")
	require.NoError(t, err)

	total := 0
	for _, w := range sym.Widths() {
		total += w
	}
	// start + value + checksum at 11 modules each, stop at 13.
	assert.Equal(t, 3*11+13, total)
	assert.Len(t, sym.Modules(), total)
}

func TestEncodeRejectsInvalidInput(t *testing.T) {
	_, err := Encode("")
	assert.ErrorIs(t, err, ErrUnencodable)

	_, err = Encode("caf\xc3\xa9")
	assert.ErrorIs(t, err, ErrUnencodable)

	_, err = Encode("tab\there")
	assert.ErrorIs(t, err, ErrUnencodable)
}
