// Package toolargs reconstructs the intended arguments of a tool call.
//
// The upstream agent's structured-call formatting is unreliable: the
// arguments for a call sometimes arrive as proper named fields, but
// just as often everything is jammed into the first field as a comma
// list, a run of key="value" pairs, or a JSON object. Every tool
// wrapper funnels its raw fields through Normalize before touching
// business logic, so the tools themselves only ever see well-formed
// values.
package toolargs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field declares one logical argument of a tool.
type Field struct {
	Name string
	// Default fills the field when the caller omitted it.
	Default string
	// Required fields that are still empty after normalization produce
	// a MissingFieldError.
	Required bool
	// Numeric fields are reduced to their first run of digits.
	Numeric bool
	// Format is the human-readable format hint used in error text,
	// e.g. "YYYY-MM-DD".
	Format string
}

// Spec is the declared argument set of a tool, in positional order.
type Spec struct {
	Tool   string
	Fields []Field
}

// MissingFieldError reports a required argument that was empty after
// normalization. Tool wrappers return its text as the tool result so
// the agent can repair the call.
type MissingFieldError struct {
	Tool   string
	Field  string
	Format string
}

func (e *MissingFieldError) Error() string {
	msg := fmt.Sprintf("missing required argument %q for %s", e.Field, e.Tool)
	if e.Format != "" {
		msg += fmt.Sprintf(" (expected format: %s)", e.Format)
	}
	return msg
}

// Normalize repairs a raw argument map into the tool's true logical
// arguments. Detection runs in fixed precedence on the first declared
// field: embedded key="value" pairs, then a JSON object, then a
// comma-separated positional list, and finally fields taken as given.
// It never fails except for required fields left empty, and that
// failure is descriptive rather than fatal.
func (s Spec) Normalize(raw map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = strings.TrimSpace(raw[f.Name])
	}

	if len(s.Fields) > 0 {
		first := out[s.Fields[0].Name]
		switch {
		case s.countEmbeddedPairs(first) >= 2:
			s.applyEmbeddedPairs(out, first)
		case strings.HasPrefix(strings.TrimSpace(first), "{"):
			if !s.applyJSON(out, first) && strings.Contains(first, ",") && !strings.Contains(first, "=") {
				s.applyPositional(out, first)
			}
		case strings.Contains(first, ",") && !strings.Contains(first, "="):
			s.applyPositional(out, first)
		}
	}

	for _, f := range s.Fields {
		v := cleanValue(out[f.Name], f.Name)
		if v == "" {
			v = f.Default
		}
		if f.Numeric {
			v = numericValue(v, f.Default)
		}
		out[f.Name] = v
	}

	for _, f := range s.Fields {
		if f.Required && out[f.Name] == "" {
			return out, &MissingFieldError{Tool: s.Tool, Field: f.Name, Format: f.Format}
		}
	}

	return out, nil
}

// countEmbeddedPairs counts how many declared field names appear as
// name="value" pairs inside s. Two or more means the whole argument
// set was serialized into one field.
func (s Spec) countEmbeddedPairs(text string) int {
	n := 0
	for _, f := range s.Fields {
		if _, ok := extractPair(text, f.Name); ok {
			n++
		}
	}
	return n
}

func (s Spec) applyEmbeddedPairs(out map[string]string, text string) {
	for _, f := range s.Fields {
		if v, ok := extractPair(text, f.Name); ok {
			out[f.Name] = v
		} else {
			out[f.Name] = ""
		}
	}
}

// extractPair finds name="value" (or name='value') anywhere in text.
func extractPair(text, name string) (string, bool) {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], name+"=")
		if i < 0 {
			return "", false
		}
		i += from
		// Reject matches inside a longer identifier (user_id vs id).
		if i > 0 && isIdentChar(text[i-1]) {
			from = i + 1
			continue
		}
		rest := text[i+len(name)+1:]
		if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
			return "", false
		}
		end := strings.IndexByte(rest[1:], rest[0])
		if end < 0 {
			return "", false
		}
		return rest[1 : 1+end], true
	}
	return "", false
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// applyJSON parses the first field as a JSON object and assigns any
// keys matching declared fields. Returns false on a parse failure so
// the caller can fall through to the next detection rule.
func (s Spec) applyJSON(out map[string]string, text string) bool {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &obj); err != nil {
		return false
	}
	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok {
			out[f.Name] = ""
			continue
		}
		out[f.Name] = stringifyJSON(v)
	}
	return true
}

func stringifyJSON(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// applyPositional splits a comma list across the declared fields in
// order. Fewer parts than fields leaves the trailing fields alone.
func (s Spec) applyPositional(out map[string]string, text string) {
	parts := strings.Split(text, ",")
	for i, part := range parts {
		if i >= len(s.Fields) {
			break
		}
		out[s.Fields[i].Name] = strings.Trim(strings.TrimSpace(part), `"'`)
	}
}

// cleanValue strips a stray name= prefix and surrounding quotes left
// behind by a partial upstream match.
func cleanValue(v, name string) string {
	v = strings.TrimSpace(v)
	if rest, ok := strings.CutPrefix(v, name+"="); ok {
		v = rest
	}
	v = strings.Trim(v, `"'`)
	return strings.TrimSpace(v)
}

// numericValue extracts the first run of digits from v. A value with
// no digits at all falls back to the field default.
func numericValue(v, fallback string) string {
	if v == "" {
		return fallback
	}
	allDigits := true
	for _, r := range v {
		if r < '0' || r > '9' {
			allDigits = false
			break
		}
	}
	if allDigits {
		return v
	}
	start := -1
	for i, r := range v {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return v[start:i]
		}
	}
	if start >= 0 {
		return v[start:]
	}
	return fallback
}
