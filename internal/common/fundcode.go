package common

import "strings"

// IsFundCode reports whether code is exactly six ASCII digits.
func IsFundCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeFundCode trims surrounding whitespace and validates the result.
func NormalizeFundCode(code string) (string, bool) {
	code = strings.TrimSpace(code)
	return code, IsFundCode(code)
}
