package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/talent-matcher/internal/schemas"
)

// ExtractJSON strips markdown code fences and any chatter around the outermost JSON object.
// An answer whose JSON starts with an array is returned from the bracket on, so it cannot
// decode as an object.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	start := strings.IndexAny(raw, "{[")
	if start == -1 {
		return raw
	}
	if raw[start] == '[' {
		return raw[start:]
	}

	end := strings.LastIndex(raw, "}")
	if end > start {
		raw = raw[start : end+1]
	}
	return raw
}

// Decode parses a backend answer, validates it against the named schema and decodes it
// into out using its json tags. Any failure is reported as ErrMalformedResponse: the
// answer is either accepted as a whole or rejected.
func Decode(raw, schema string, out any) error {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return Malformed(fmt.Errorf("empty %s answer", schema))
	}

	var document map[string]any
	if err := json.Unmarshal([]byte(cleaned), &document); err != nil {
		return Malformed(fmt.Errorf("parse %s answer: %w", schema, err))
	}

	if err := schemas.Validate(schema, document); err != nil {
		return Malformed(err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("build %s decoder: %w", schema, err)
	}

	if err := decoder.Decode(document); err != nil {
		return Malformed(fmt.Errorf("decode %s answer: %w", schema, err))
	}

	return nil
}
