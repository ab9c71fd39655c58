package luci

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// decodeObject decodes raw into a generic object keeping numbers exact.
func decodeObject(raw []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func decodeAny(raw []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// NormalizeCPU converts a CPU usage value ("12%", "7.5", 3) to a float.
// Anything unparseable yields 0.
func NormalizeCPU(v any) float64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	f, _ := asFloat(v)
	return f
}

// MemoryPercent returns round((1 - free/total) * 100). ok is false when
// total is zero or negative.
func MemoryPercent(total, free float64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return math.Round((1 - free/total) * 100), true
}

// MillidegreesToCelsius parses a sysfs thermal reading such as "45000\n".
func MillidegreesToCelsius(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f / 1000, true
}

// countValue keeps a count as int64 when numeric and as a trimmed string otherwise.
func countValue(v any) (any, bool) {
	if i, ok := asInt64(v); ok {
		return i, true
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s, true
		}
	}
	return nil, false
}
