package compiler

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/catalog"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

// coerce converts v to the declared type. It never fails: values that do not
// convert become the zero value of the type, and ok reports false.
//
//	integer  float parse then truncate, 0 on failure
//	float    float parse, 0.0 on failure
//	boolean  nil, the bare flag signals true
//	string   text form, "" for nil
func coerce(t catalog.ValueType, v any) (out any, ok bool) {
	switch t {
	case catalog.TypeBoolean:
		return nil, true
	case catalog.TypeInteger:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
			return 0, false
		}
		return int(f), true
	case catalog.TypeFloat:
		f, ok := toFloat(v)
		if !ok {
			return 0.0, false
		}
		return f, true
	default:
		return request.FormatValue(v), true
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
