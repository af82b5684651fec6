package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/sysplan/internal/ir"
)

// marshalData converts component data to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalData(data map[string]any) (string, error) {
	if len(data) == 0 {
		return "{}", nil
	}
	out, err := ir.MarshalCanonical(data)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	return string(out), nil
}

// unmarshalData parses canonical JSON TEXT back to component data.
// Numbers decode via json.Number to int64 to avoid float64 precision loss
// for values > 2^53.
func unmarshalData(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}

	out, err := normalizeNumbers(obj)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func normalizeNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("unmarshal data: non-integer number %s", val)
		}
		return n, nil
	case map[string]any:
		for k, elem := range val {
			norm, err := normalizeNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[k] = norm
		}
		return val, nil
	case []any:
		for i, elem := range val {
			norm, err := normalizeNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[i] = norm
		}
		return val, nil
	default:
		return v, nil
	}
}
