package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("zip: not a valid zip file")
	err := NewParsingError("failed to open workbook", cause)

	assert.Equal(t, "[PARSING] failed to open workbook: zip: not a valid zip file", err.Error())
	assert.Equal(t, cause, err.Unwrap())

	bare := NewAppValidationError("horizon out of range")
	assert.Equal(t, "[VALIDATION] horizon out of range", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewStructureError("no demand table located", nil).
		WithContext("sheet_count", 3).
		WithContext("fingerprint", "abc123")

	assert.Equal(t, 3, err.Context["sheet_count"])
	assert.Equal(t, "abc123", err.Context["fingerprint"])
}

func TestAPIErrorRender(t *testing.T) {
	apiErr := WorkbookStructureError([]string{"month headers"})

	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "WORKBOOK_STRUCTURE", apiErr.ErrorCode)

	details, ok := apiErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"month headers"}, details["missing_items"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, InvalidWorkbookError(fmt.Errorf("not a zip")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_WORKBOOK", resp.Error.ErrorCode)
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	problem := NewProblemDetails(
		http.StatusUnprocessableEntity,
		TypeWorkbookStructure,
		"Workbook Structure Not Recognized",
		"missing month headers",
		"/api/extraction",
	).WithExtension("missing_items", []string{"month headers"})

	raw, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "/errors/workbook/structure", decoded["type"])
	assert.Equal(t, float64(http.StatusUnprocessableEntity), decoded["status"])
	assert.Equal(t, []any{"month headers"}, decoded["missing_items"])
}
