package demand

import (
	"fmt"
	"strings"
)

// Missing structural elements reported by StructureError.
const (
	MissingMonthHeaders = "month headers"
	MissingProductRows  = "product rows"
	MissingSheets       = "sheets"
)

// StructureError reports that the workbook could not be interpreted as a
// demand table at all: no month headers on any sheet, or no product rows
// anywhere. It is the only hard failure the engine produces — malformed
// individual cells and headers degrade locally and never surface here.
type StructureError struct {
	Missing []string
}

// Error implements the error interface.
func (e *StructureError) Error() string {
	if len(e.Missing) == 0 {
		return "workbook structure not recognized"
	}
	return fmt.Sprintf("workbook structure not recognized: missing %s", strings.Join(e.Missing, ", "))
}

// NewStructureError builds a StructureError listing the missing elements.
func NewStructureError(missing ...string) *StructureError {
	return &StructureError{Missing: missing}
}
