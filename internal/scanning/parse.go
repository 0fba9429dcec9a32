package scanning

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// parseAddressJSON pulls the JSON object out of an extraction response and
// fills every AddressData field, defaulting missing ones to ""
func parseAddressJSON(text string) (*AddressData, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrExtractionServiceEmpty
	}

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found", ErrExtractionParse)
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("%w: unterminated JSON object", ErrExtractionParse)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}

	return &AddressData{
		Name:       field(fields, "name"),
		Street:     field(fields, "street"),
		District:   field(fields, "district"),
		City:       field(fields, "city"),
		State:      field(fields, "state"),
		PostalCode: field(fields, "postalCode"),
		Phone:      field(fields, "phone"),
		Country:    field(fields, "country"),
	}, nil
}

// field coerces one loosely typed value to a string. Models sometimes
// answer postal codes and phones as numbers.
func field(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// responseText strips surrounding whitespace from a model answer
func responseText(parts ...string) string {
	return strings.TrimSpace(strings.Join(parts, ""))
}
