package trainconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Coercer converts a user-supplied value into the canonical type of a field.
type Coercer func(v any) (any, error)

func toInt(v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return nil, fmt.Errorf("expected an integer, got a boolean")
	case string:
		return parseDecimalInt(val)
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return nil, fmt.Errorf("expected an integer: %w", err)
	}
	return i, nil
}

// parseDecimalInt reads s in base 10 only, so "010" is 10 and "0x10" is
// rejected. A fractional part made of zeros is accepted.
func parseDecimalInt(s string) (any, error) {
	s = strings.TrimSpace(s)
	if whole, frac, ok := strings.Cut(s, "."); ok && whole != "" && strings.Trim(frac, "0") == "" {
		s = whole
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("expected an integer: %w", err)
	}
	return i, nil
}

func toFloat(v any) (any, error) {
	if _, ok := v.(bool); ok {
		return nil, fmt.Errorf("expected a number, got a boolean")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("expected a number: %w", err)
	}
	return f, nil
}

func toBool(v any) (any, error) {
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, fmt.Errorf("expected a boolean: %w", err)
	}
	return b, nil
}

func toString(v any) (any, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("expected a string: %w", err)
	}
	return s, nil
}

// verboseFlag accepts only the literal string "True" or a boolean true.
func verboseFlag(v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return val == "True", nil
	default:
		return false, nil
	}
}

// stripQuotes removes every single and double quote left behind by
// shell-style quoting.
func stripQuotes(v any) (any, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("expected a command string: %w", err)
	}
	return strings.NewReplacer(`'`, "", `"`, "").Replace(s), nil
}

// numbers reads a scalar or a sequence of scalars as float64 values.
func numbers(v any) ([]float64, error) {
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	out := make([]float64, 0, len(items))
	for i, item := range items {
		if _, isBool := item.(bool); isBool {
			return nil, fmt.Errorf("element %d is a boolean", i)
		}
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}
