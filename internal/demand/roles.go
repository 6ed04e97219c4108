package demand

import (
	"strings"
	"unicode"
)

// CellRole tags what a raw cell looks like, independent of where it sits.
// Detection reasons over roles instead of re-testing raw strings in every
// branch, which keeps the scanning rules testable without a live workbook.
type CellRole int

const (
	RoleBlank CellRole = iota
	RoleMonth
	RoleNumeric
	RoleCode
	RoleText
)

// String returns the role name for logs and test output.
func (r CellRole) String() string {
	switch r {
	case RoleBlank:
		return "blank"
	case RoleMonth:
		return "month"
	case RoleNumeric:
		return "numeric"
	case RoleCode:
		return "code"
	default:
		return "text"
	}
}

// ClassifyCell assigns a role to one raw cell. Month wins over numeric so
// that a bare "4" in a header row reads as April, not as the number four;
// the detector only ever classifies value cells that sit outside a header
// row, where the numeric reading is the right one.
func ClassifyCell(raw string) CellRole {
	text := strings.TrimSpace(raw)
	if text == "" {
		return RoleBlank
	}
	if _, ok := NormalizeMonth(text); ok {
		return RoleMonth
	}
	if NormalizeValue(text).Valid {
		return RoleNumeric
	}
	if isProductCode(text) {
		return RoleCode
	}
	return RoleText
}

// isProductCode reports whether a token has the structural shape of a
// product identifier: a short single token carrying at least one letter
// that is not a plain number once dots and dashes are stripped. Phrases
// with internal spaces are labels, not codes.
func isProductCode(text string) bool {
	token := strings.TrimSpace(text)
	if len(token) < 2 || len(token) > 40 {
		return false
	}
	if strings.ContainsAny(token, " \t") {
		return false
	}

	hasLetter := false
	for _, r := range token {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	stripped := strings.Map(func(r rune) rune {
		if r == '.' || r == '-' || r == ' ' {
			return -1
		}
		return r
	}, token)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
