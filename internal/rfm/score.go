package rfm

import "strconv"

// Score is an ordinal bucket label, 1 being the lowest bucket.
type Score int

// String renders the score as a single decimal digit.
func (s Score) String() string {
	if s < 1 || s > 9 {
		return "?"
	}
	return strconv.Itoa(int(s))
}

// Code is the concatenated R, F, M scores, e.g. "311".
type Code string

// BuildCode formats the three scores in R, F, M order.
func BuildCode(r, f, m Score) Code {
	return Code(r.String() + f.String() + m.String())
}

// Valid reports whether c is exactly three digits 1..9.
func (c Code) Valid() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if c[i] < '1' || c[i] > '9' {
			return false
		}
	}
	return true
}

// ClassifyFrequency applies the fixed one-time versus repeat threshold.
func ClassifyFrequency(frequency int) Score {
	if frequency <= 1 {
		return 1
	}
	return 2
}
