package records

import (
	"math"
	"strconv"
	"strings"
)

// ParseStatus tells how a numeric cell was interpreted.
type ParseStatus int

const (
	// Exact means the whole cell was a number.
	Exact ParseStatus = iota
	// Partial means a leading number was used and trailing text ignored.
	Partial
	// DefaultedToZero means the cell was missing or held no usable number.
	DefaultedToZero
)

func (s ParseStatus) String() string {
	switch s {
	case Exact:
		return "exact"
	case Partial:
		return "partial"
	case DefaultedToZero:
		return "defaulted_to_zero"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its name.
func (s ParseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseInt reads the leading integer of raw, ignoring leading whitespace and
// anything after the digits. A cell without digits yields 0.
func ParseInt(raw string) (int64, ParseStatus) {
	s := strings.TrimLeft(raw, " \t\r\n")
	prefix := intPrefix(s)
	if prefix == "" {
		return 0, DefaultedToZero
	}
	n, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, DefaultedToZero
	}
	return n, statusFor(prefix, s)
}

// ParseFloat reads the leading decimal number of raw the same way ParseInt
// reads integers. Non-finite results yield 0.
func ParseFloat(raw string) (float64, ParseStatus) {
	s := strings.TrimLeft(raw, " \t\r\n")
	prefix := floatPrefix(s)
	if prefix == "" {
		return 0, DefaultedToZero
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, DefaultedToZero
	}
	if f == 0 {
		f = 0 // drop negative zero
	}
	return f, statusFor(prefix, s)
}

func statusFor(prefix, s string) ParseStatus {
	if prefix == strings.TrimRight(s, " \t\r\n") {
		return Exact
	}
	return Partial
}

func intPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return ""
	}
	return s[:i]
}

func floatPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
