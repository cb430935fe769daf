// Package barcode renders Code 128 symbols for product labels and order
// tickets. Output is the module-width sequence (alternating bars and spaces,
// starting with a bar); the caller maps widths to pixels or millimeters.
package barcode

import (
	"errors"
	"fmt"
)

var ErrUnencodable = errors.New("text contains characters outside Code 128 subset B")

// Special symbol values.
const (
	codeC  = 99
	codeB  = 100
	startB = 104
	startC = 105
	stop   = 106
)

// patterns holds the module widths for symbol values 0..106. Every symbol is
// 11 modules wide except the stop symbol (13, including the final bar pair).
var patterns = [107]string{
	"212222", "222122", "222221", "121223", "121322", "131222", "122213", "122312",
	"132212", "221213", "221312", "231212", "112232", "122132", "122231", "113222",
	"123122", "123221", "223211", "221132", "221231", "213212", "223112", "312131",
	"311222", "321122", "321221", "312212", "322112", "322211", "212123", "212321",
	"232121", "111323", "131123", "131321", "112313", "132113", "132311", "211313",
	"231113", "231311", "112133", "112331", "132131", "113123", "113321", "133121",
	"313121", "211331", "231131", "213113", "213311", "213131", "311123", "311321",
	"331121", "312113", "312311", "332111", "314111", "221411", "431111", "111224",
	"111422", "121124", "121421", "141122", "141221", "112214", "112412", "122114",
	"122411", "142112", "142211", "241211", "221114", "413111", "241112", "134111",
	"111242", "121142", "121241", "114212", "124112", "124211", "411212", "421112",
	"421211", "212141", "214121", "412121", "111143", "111341", "131141", "114113",
	"114311", "411113", "411311", "113141", "114131", "311141", "411131", "211412",
	"211214", "211232", "2331112",
}

// Symbol is an encoded barcode.
type Symbol struct {
	values []int
	widths []int
}

// Values returns the symbol value sequence including start, checksum and stop.
func (s *Symbol) Values() []int {
	out := make([]int, len(s.values))
	copy(out, s.values)
	return out
}

// Widths returns the module widths, first element being a bar.
func (s *Symbol) Widths() []int {
	out := make([]int, len(s.widths))
	copy(out, s.widths)
	return out
}

// Modules returns the symbol as a bitmap, true for bar modules.
func (s *Symbol) Modules() []bool {
	var out []bool
	bar := true
	for _, w := range s.widths {
		for i := 0; i < w; i++ {
			out = append(out, bar)
		}
		bar = !bar
	}
	return out
}

// Encode builds a Code 128 symbol for the given text. Digit-only input of
// even length uses subset C throughout; otherwise encoding starts in subset
// B and switches to C for digit runs of six or more.
func Encode(text string) (*Symbol, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty input", ErrUnencodable)
	}
	for i := 0; i < len(text); i++ {
		if text[i] < 32 || text[i] > 126 {
			return nil, fmt.Errorf("%w: byte 0x%02x at %d", ErrUnencodable, text[i], i)
		}
	}

	values := encodeValues(text)
	values = append(values, checksum(values), stop)

	sym := &Symbol{values: values}
	for _, v := range values {
		for _, c := range patterns[v] {
			sym.widths = append(sym.widths, int(c-'0'))
		}
	}
	return sym, nil
}

func encodeValues(text string) []int {
	if len(text) >= 2 && len(text)%2 == 0 && allDigits(text) {
		values := []int{startC}
		for i := 0; i < len(text); i += 2 {
			values = append(values, int(text[i]-'0')*10+int(text[i+1]-'0'))
		}
		return values
	}

	values := []int{startB}
	inC := false
	for i := 0; i < len(text); {
		run := digitRun(text, i)
		if run >= 6 {
			// Encode an even number of digits in subset C, leaving a
			// trailing odd digit for subset B.
			if run%2 == 1 {
				run--
			}
			if !inC {
				values = append(values, codeC)
				inC = true
			}
			for j := 0; j < run; j += 2 {
				values = append(values, int(text[i+j]-'0')*10+int(text[i+j+1]-'0'))
			}
			i += run
			continue
		}
		if inC {
			values = append(values, codeB)
			inC = false
		}
		values = append(values, int(text[i])-32)
		i++
	}
	return values
}

func checksum(values []int) int {
	sum := values[0]
	for i := 1; i < len(values); i++ {
		sum += i * values[i]
	}
	return sum % 103
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func digitRun(s string, from int) int {
	n := 0
	for i := from; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n++
	}
	return n
}
