package wasmoracle

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
)

// decodeValue lifts one stack slot into the Go type matching t.
func decodeValue(t api.ValueType, raw uint64) any {
	switch t {
	case api.ValueTypeI32:
		return api.DecodeI32(raw)
	case api.ValueTypeI64:
		return int64(raw)
	case api.ValueTypeF32:
		return api.DecodeF32(raw)
	case api.ValueTypeF64:
		return api.DecodeF64(raw)
	default:
		return raw
	}
}

// encodeValue lowers a Go number into a stack slot of type t.
// Integer slots reject fractional floats and values out of range.
func encodeValue(t api.ValueType, v any) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		n, err := toInt64(v)
		if err != nil {
			return 0, err
		}
		if n < math.MinInt32 || n > math.MaxUint32 {
			return 0, fmt.Errorf("%d overflows i32", n)
		}
		return api.EncodeI32(int32(n)), nil
	case api.ValueTypeI64:
		n, err := toInt64(v)
		if err != nil {
			return 0, err
		}
		return api.EncodeI64(n), nil
	case api.ValueTypeF32:
		f, err := toFloat64(v)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(f)), nil
	case api.ValueTypeF64:
		f, err := toFloat64(v)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(f), nil
	default:
		switch x := v.(type) {
		case uint64:
			return x, nil
		case nil:
			return 0, nil
		}
		return 0, fmt.Errorf("reference slot needs uint64, got %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return int64(x), nil // two's complement, same slot bits
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float32:
		return toInt64(float64(x))
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}
