package interpret

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/domain/search/filter"
)

// parseFilter decodes model output into a filter. Output with no usable
// field is domain.ErrUnparseable.
func parseFilter(raw string) (filter.StructuredFilter, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return filter.StructuredFilter{}, fmt.Errorf("%w: %w", domain.ErrUnparseable, err)
	}

	intent, _ := filter.ParseIntent(coerceString(data["intent"]))
	f := filter.New(
		coerceStrings(data["skills"]),
		coerceString(data["location"]),
		intent,
		coerceString(data["availability"]),
		coerceString(firstPresent(data, "workingStyle", "working_style")),
	)
	if f.IsEmpty() {
		return filter.StructuredFilter{}, fmt.Errorf("%w: no usable fields", domain.ErrUnparseable)
	}
	return f, nil
}

// extractJSON strips markdown code fences and any prose around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start > 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

var nullWords = map[string]struct{}{
	"null": {}, "none": {}, "n/a": {}, "unknown": {}, "not specified": {}, "any": {},
}

func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if _, isNull := nullWords[strings.ToLower(s)]; isNull {
		return ""
	}
	return s
}

// coerceStrings accepts an array of strings or a comma-separated string.
func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if s := coerceString(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func firstPresent(data map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
