package mcpserver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// arguments wraps the decoded tool arguments. JSON numbers arrive as
// float64; some clients send numbers and booleans as strings, so both are
// accepted.
type arguments map[string]any

func (a arguments) present(key string) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// str returns the string argument or "" when absent.
func (a arguments) str(key string) (string, error) {
	if !a.present(key) {
		return "", nil
	}
	switch v := a[key].(type) {
	case string:
		return v, nil
	default:
		return "", invalid(key, "must be a string")
	}
}

func (a arguments) requiredStr(key string) (string, error) {
	if !a.present(key) {
		return "", invalid(key, "is required")
	}
	return a.str(key)
}

// requiredAmount returns a JSON number as is, or the raw text when the
// client sent the amount as a string. Text is parsed downstream as a decimal.
func (a arguments) requiredAmount(key string) (float64, string, error) {
	if !a.present(key) {
		return 0, "", invalid(key, "is required")
	}
	switch v := a[key].(type) {
	case float64:
		return v, "", nil
	case int:
		return float64(v), "", nil
	case int64:
		return float64(v), "", nil
	case string:
		return 0, v, nil
	default:
		return 0, "", invalid(key, "must be a number")
	}
}

// optInt returns nil when key is absent.
func (a arguments) optInt(key string) (*int64, error) {
	if !a.present(key) {
		return nil, nil
	}
	n, err := toInt(a[key])
	if err != nil {
		return nil, invalid(key, err.Error())
	}
	return &n, nil
}

func (a arguments) requiredInt(key string) (int64, error) {
	if !a.present(key) {
		return 0, invalid(key, "is required")
	}
	n, err := a.optInt(key)
	if err != nil {
		return 0, err
	}
	return *n, nil
}

// ints accepts a JSON array of integers or a comma-separated string.
func (a arguments) ints(key string) ([]int64, error) {
	if !a.present(key) {
		return nil, nil
	}

	var items []any
	switch v := a[key].(type) {
	case []any:
		items = v
	case []int64:
		return v, nil
	case string:
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
	default:
		return nil, invalid(key, "must be an array of integers")
	}

	out := make([]int64, 0, len(items))
	for _, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, invalid(key, "must be an array of integers")
		}
		out = append(out, n)
	}
	return out, nil
}

func (a arguments) boolean(key string) (bool, error) {
	if !a.present(key) {
		return false, nil
	}
	switch v := a[key].(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, invalid(key, "must be true or false")
		}
		return b, nil
	default:
		return false, invalid(key, "must be true or false")
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > 1<<53 {
			return 0, fmt.Errorf("must be an integer")
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return i, nil
	default:
		return 0, fmt.Errorf("must be an integer")
	}
}

func invalid(field, reason string) error {
	return &core.ValidationError{Field: field, Reason: reason}
}
