package structured

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const fence = "```"

// Extract decodes the JSON object contained in raw model output.
//
// Surrounding whitespace is ignored. Text that is already a JSON object is
// decoded as is, so backticks inside string values are never mistaken for a
// fence. Otherwise, when the text contains a fenced code block (opening and
// closing markers, with or without a language label), only the first block
// is used and only the span from its first '{' to its last '}' is decoded;
// narrative text around the fence is ignored.
//
// Numbers decode to float64, except integers outside ±2^53, which are kept
// as json.Number so no digits are lost.
func Extract(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "{") {
		if obj, err := decodeObject(text); err == nil {
			return obj, nil
		}
	}
	if block, ok := fencedBlock(text); ok {
		text = objectSpan(block)
	}
	return decodeObject(text)
}

// fencedBlock returns the body of the first fenced block in text. The
// language label, if any, is the run of non-space characters right after
// the opening fence. Without a closing fence there is no block.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, fence)
	if start < 0 {
		return "", false
	}
	body := text[start+len(fence):]
	body = strings.TrimLeftFunc(body, func(r rune) bool {
		return r != '{' && r != '\n' && r != '\r' && r != ' ' && r != '\t' && r != '`'
	})
	end := strings.Index(body, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// objectSpan narrows s to its outermost {...} span. Text without braces is
// returned unchanged so the decoder reports the failure.
func objectSpan(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func decodeObject(text string) (map[string]any, error) {
	if text == "" {
		return nil, &JSONDecodeError{Message: "empty response", Input: text}
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		decodeErr := &JSONDecodeError{Message: err.Error(), Input: text}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			decodeErr.Offset = syntaxErr.Offset
		}
		return nil, decodeErr
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &JSONDecodeError{
			Message: fmt.Sprintf("expected a JSON object, got %s", jsonKind(v)),
			Input:   text,
		}
	}
	if hasWideInteger(text) {
		return decodePreservingIntegers(text, obj), nil
	}
	return obj, nil
}

// maxExactInteger is the largest magnitude a float64 holds without rounding.
const maxExactInteger = 1 << 53

// hasWideInteger reports whether text may hold an integer literal too long
// for float64. Sixteen consecutive digits is the shortest such literal.
func hasWideInteger(text string) bool {
	run := 0
	for i := 0; i < len(text); i++ {
		if text[i] >= '0' && text[i] <= '9' {
			run++
			if run >= 16 {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

// decodePreservingIntegers re-decodes text with json.Number and converts
// every number back to float64 unless it is an integer outside ±2^53.
// fallback is returned if the second pass fails.
func decodePreservingIntegers(text string, fallback map[string]any) map[string]any {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return fallback
	}
	return normalizeNumbers(obj).(map[string]any)
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, elem := range x {
			x[k] = normalizeNumbers(elem)
		}
		return x
	case []any:
		for i, elem := range x {
			x[i] = normalizeNumbers(elem)
		}
		return x
	case json.Number:
		if i, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			if i <= maxExactInteger && i >= -maxExactInteger {
				return float64(i)
			}
			return x
		}
		if isIntegerLiteral(x.String()) {
			return x
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x
	default:
		return v
	}
}

func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
