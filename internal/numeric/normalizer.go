// Package numeric turns raw digit-and-separator tokens lifted from OCR text
// into real numbers, repairing the kind of corruption Argentine receipt
// screenshots commonly introduce (OCR'd zeros read as letters, ambiguous use
// of `.` and `,` as thousands/decimal separators).
package numeric

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nbspRunes      = []string{" ", " ", " ", " "}
	ocrZeroBetween = regexp.MustCompile(`(?i)(\d)[oO](\d)`)
	sepTrim        = regexp.MustCompile(`^[.,]+|[.,]+$`)
	commaThousands = regexp.MustCompile(`^\d{1,3}(,\d{3})+(,\d{1,2})?$`)
	dotThousands   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(\.\d{1,2})?$`)
	// TripleZeroLike flags a `.000`-style run, tolerant of OCR'd zeros read
	// as the letter o in the forms `.00o`, `.0o0` and `.oo0` (an o in the
	// first position alone, as in `.o00`, is not matched). Exported so
	// callers outside this package can apply the same rule instead of
	// maintaining their own copy of it.
	TripleZeroLike = regexp.MustCompile(`\.(000|00[oO]|0[oO]0|[oO]o0|[oO][oO]0)(\D|$)`)
	dotZeroRun     = regexp.MustCompile(`\.0{3,}`)
	keepCharset    = regexp.MustCompile(`[^0-9.,oO]`)
	stripLetters   = regexp.MustCompile(`[oO]`)
)

// Normalize applies the seven ordered rules to raw and returns the parsed
// value and true, or 0 and false when no real number can be recovered.
func Normalize(raw string) (float64, bool) {
	token := raw
	for i := 0; i < len(nbspRunes); i += 2 {
		token = strings.ReplaceAll(token, nbspRunes[i], nbspRunes[i+1])
	}
	token = strings.ReplaceAll(token, " ", "")
	token = keepCharset.ReplaceAllString(token, "")
	if token == "" {
		return 0, false
	}

	token = ocrZeroBetween.ReplaceAllString(token, "${1}0${2}")
	// a single pass only fixes non-overlapping pairs; a second pass catches
	// runs like "1o0o1" where the first replacement consumes a digit the
	// next match needs.
	token = ocrZeroBetween.ReplaceAllString(token, "${1}0${2}")

	token = sepTrim.ReplaceAllString(token, "")
	if token == "" {
		return 0, false
	}

	hasDot := strings.Contains(token, ".")
	hasComma := strings.Contains(token, ",")

	var digits string
	var tripleZero bool

	switch {
	case hasDot && hasComma:
		digits = strings.ReplaceAll(token, ".", "")
		digits = strings.ReplaceAll(digits, ",", ".")

	case hasComma:
		if commaThousands.MatchString(token) {
			parts := strings.Split(token, ",")
			last := parts[len(parts)-1]
			if len(last) <= 2 && len(parts) > 1 && isDecimalTail(token, ",") {
				digits = strings.Join(parts[:len(parts)-1], "") + "." + last
			} else {
				digits = strings.ReplaceAll(token, ",", "")
			}
		} else {
			digits = strings.ReplaceAll(token, ",", ".")
		}

	case hasDot:
		tripleZero = TripleZeroLike.MatchString(token + " ")
		switch {
		case tripleZero:
			digits = strings.ReplaceAll(token, ".", "")
			digits = strings.ReplaceAll(digits, "o", "0")
			digits = strings.ReplaceAll(digits, "O", "0")
		case dotThousands.MatchString(token):
			parts := strings.Split(token, ".")
			last := parts[len(parts)-1]
			if len(last) <= 2 {
				digits = strings.Join(parts[:len(parts)-1], "") + "." + last
			} else {
				digits = strings.Join(parts, "")
			}
		default:
			parts := strings.Split(token, ".")
			if len(parts[len(parts)-1]) == 3 {
				digits = strings.ReplaceAll(token, ".", "")
			} else {
				digits = token
			}
		}

	default:
		digits = token
	}

	if !tripleZero {
		digits = stripLetters.ReplaceAllString(digits, "")
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}

	if hasDot && !hasComma && !tripleZero && value < 1000 && dotZeroRun.MatchString(token) {
		value *= 1000
	}

	return value, true
}

// isDecimalTail reports whether the final group after sep in token has at
// most two digits, marking it as a decimal remainder rather than a full
// thousands group.
func isDecimalTail(token, sep string) bool {
	parts := strings.Split(token, sep)
	last := parts[len(parts)-1]
	return len(last) <= 2
}
