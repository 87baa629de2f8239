package structured

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/BaSui01/llmschema/types"
)

// JSONDecodeError is returned when model output cannot be decoded into a
// JSON object. It is retryable.
type JSONDecodeError struct {
	// Offset is the byte position the decoder stopped at, relative to the
	// text that was decoded.
	Offset  int64
	Message string
	// Input is the text that was handed to the decoder.
	Input string
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d: %s", e.Offset, e.Message)
}

// Is matches types.Error values carrying the JSON_DECODE code.
func (e *JSONDecodeError) Is(target error) bool {
	t, ok := target.(*types.Error)
	return ok && t.Code == types.ErrCodeJSONDecode
}

// Retryable reports that another attempt may succeed.
func (e *JSONDecodeError) Retryable() bool { return true }

// SchemaValidationError reports every field-level violation found in one
// candidate response.
type SchemaValidationError struct {
	Message string
	// Errors holds one entry per violation, in schema field order.
	Errors []string
	// Response is the candidate that failed validation.
	Response map[string]any
}

func (e *SchemaValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	sb.WriteString("\nValidation issues:")
	if len(e.Errors) == 0 {
		sb.WriteString(" none reported")
	}
	for _, msg := range e.Errors {
		sb.WriteString("\n- ")
		sb.WriteString(msg)
	}
	sb.WriteString("\nRaw response: ")
	raw, err := json.Marshal(e.Response)
	if err != nil {
		fmt.Fprintf(&sb, "%v", e.Response)
	} else {
		sb.Write(raw)
	}
	return sb.String()
}

// Is matches types.Error values carrying the SCHEMA_VALIDATION code.
func (e *SchemaValidationError) Is(target error) bool {
	t, ok := target.(*types.Error)
	return ok && t.Code == types.ErrCodeSchemaValidation
}

// ErrJSONDecode and ErrSchemaValidation allow errors.Is checks without a
// type assertion.
var (
	ErrJSONDecode       = types.NewError(types.ErrCodeJSONDecode, "invalid JSON response")
	ErrSchemaValidation = types.NewError(types.ErrCodeSchemaValidation, "schema validation failed")
)
