/******************************************************************************
*
*  Copyright 2026 SAP SE
*
*  Licensed under the Apache License, Version 2.0 (the "License");
*  you may not use this file except in compliance with the License.
*  You may obtain a copy of the License at
*
*      http://www.apache.org/licenses/LICENSE-2.0
*
*  Unless required by applicable law or agreed to in writing, software
*  distributed under the License is distributed on an "AS IS" BASIS,
*  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*  See the License for the specific language governing permissions and
*  limitations under the License.
*
******************************************************************************/

package transform

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/sapcc/restbind/internal/restbind"
)

const defaultSeparator = ","

func isTrue(rule interface{}) bool {
	b, ok := rule.(bool)
	return ok && b
}

func isNumber(rule interface{}) bool {
	_, ok := restbind.AsFloat(rule)
	return ok
}

////////////////////////////////////////////////////////////////////////////////
// toArray

type toArray struct{}

func (toArray) Name() string { return "toArray" }

func (toArray) IsApplicable(rule interface{}) bool {
	_, isString := rule.(string)
	return isTrue(rule) || isString
}

func (toArray) Transform(value, rule interface{}) (interface{}, error) {
	sep, ok := rule.(string)
	if !ok {
		sep = defaultSeparator
	}
	parts := strings.Split(ToString(value), sep)
	result := make([]interface{}, len(parts))
	for idx, part := range parts {
		result[idx] = part
	}
	return result, nil
}

//TransformArray leaves lists alone.
func (toArray) TransformArray(values []interface{}, rule interface{}) (interface{}, error) {
	return values, nil
}

////////////////////////////////////////////////////////////////////////////////
// fromJSON

type fromJSON struct{}

func (fromJSON) Name() string                       { return "fromJSON" }
func (fromJSON) IsApplicable(rule interface{}) bool { return isTrue(rule) }

func (fromJSON) Transform(value, rule interface{}) (interface{}, error) {
	var buf []byte
	if b, ok := value.([]byte); ok {
		buf = b
	} else {
		buf = []byte(ToString(value))
	}
	var result interface{}
	err := json.Unmarshal(buf, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

////////////////////////////////////////////////////////////////////////////////
// toLowerCase, toUpperCase

type toLowerCase struct{}

func (toLowerCase) Name() string                       { return "toLowerCase" }
func (toLowerCase) IsApplicable(rule interface{}) bool { return isTrue(rule) }

func (toLowerCase) Transform(value, rule interface{}) (interface{}, error) {
	return strings.ToLower(ToString(value)), nil
}

type toUpperCase struct{}

func (toUpperCase) Name() string                       { return "toUpperCase" }
func (toUpperCase) IsApplicable(rule interface{}) bool { return isTrue(rule) }

func (toUpperCase) Transform(value, rule interface{}) (interface{}, error) {
	return strings.ToUpper(ToString(value)), nil
}

////////////////////////////////////////////////////////////////////////////////
// toNumber, toInteger, toFinite

type toNumber struct{}

func (toNumber) Name() string                       { return "toNumber" }
func (toNumber) IsApplicable(rule interface{}) bool { return isTrue(rule) }

func (toNumber) Transform(value, rule interface{}) (interface{}, error) {
	return ToFloat(value), nil
}

type toInteger struct{}

func (toInteger) Name() string                       { return "toInteger" }
func (toInteger) IsApplicable(rule interface{}) bool { return isTrue(rule) }

//Transform returns an int64, or NaN (as float64) for non-numeric input.
func (toInteger) Transform(value, rule interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err == nil {
			return i, nil
		}
	}
	if i, ok := value.(int64); ok {
		return i, nil
	}

	f := ToFloat(value)
	switch {
	case math.IsNaN(f):
		return f, nil
	case f >= math.MaxInt64:
		return int64(math.MaxInt64), nil
	case f <= math.MinInt64:
		return int64(math.MinInt64), nil
	default:
		return int64(math.Trunc(f)), nil
	}
}

type toFinite struct{}

func (toFinite) Name() string                       { return "toFinite" }
func (toFinite) IsApplicable(rule interface{}) bool { return isTrue(rule) }

func (toFinite) Transform(value, rule interface{}) (interface{}, error) {
	if isIntegral(value) {
		return value, nil
	}
	f := ToFloat(value)
	switch {
	case math.IsNaN(f):
		return float64(0), nil
	case math.IsInf(f, 1):
		return math.MaxFloat64, nil
	case math.IsInf(f, -1):
		return -math.MaxFloat64, nil
	default:
		return f, nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// toBoolean

type toBoolean struct{}

func (toBoolean) Name() string                       { return "toBoolean" }
func (toBoolean) IsApplicable(rule interface{}) bool { return isTrue(rule) }

func (toBoolean) Transform(value, rule interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		if strings.ToLower(s) == "false" || s == "0" {
			return false, nil
		}
	}
	return restbind.Truthy(value), nil
}

////////////////////////////////////////////////////////////////////////////////
// min, max, clamp

//The "min" rule sets a lower bound, so the result is max(value, rule).
type minimum struct{}

func (minimum) Name() string                       { return "min" }
func (minimum) IsApplicable(rule interface{}) bool { return isNumber(rule) }

func (minimum) Transform(value, rule interface{}) (interface{}, error) {
	bound, _ := restbind.AsFloat(rule)
	f := ToFloat(value)
	if math.IsNaN(f) {
		return f, nil
	}
	return numberLike(value, math.Max(f, bound)), nil
}

//The "max" rule sets an upper bound, so the result is min(value, rule).
type maximum struct{}

func (maximum) Name() string                       { return "max" }
func (maximum) IsApplicable(rule interface{}) bool { return isNumber(rule) }

func (maximum) Transform(value, rule interface{}) (interface{}, error) {
	bound, _ := restbind.AsFloat(rule)
	f := ToFloat(value)
	if math.IsNaN(f) {
		return f, nil
	}
	return numberLike(value, math.Min(f, bound)), nil
}

type clamp struct{}

func (clamp) Name() string { return "clamp" }

func (clamp) IsApplicable(rule interface{}) bool {
	_, _, ok := clampBounds(rule)
	return ok
}

func (clamp) Transform(value, rule interface{}) (interface{}, error) {
	lo, hi, _ := clampBounds(rule)
	f := ToFloat(value)
	if math.IsNaN(f) {
		return f, nil
	}
	return numberLike(value, math.Min(math.Max(f, lo), hi)), nil
}

//clampBounds accepts a 2-element list of numbers, in either order.
func clampBounds(rule interface{}) (lo, hi float64, ok bool) {
	list, isList := asList(rule)
	if !isList || len(list) != 2 {
		return 0, 0, false
	}
	lo, ok1 := restbind.AsFloat(list[0])
	hi, ok2 := restbind.AsFloat(list[1])
	if !ok1 || !ok2 || math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

////////////////////////////////////////////////////////////////////////////////
// transform

type custom struct{}

func (custom) Name() string { return "transform" }

func (custom) IsApplicable(rule interface{}) bool {
	switch rule.(type) {
	case Func, func(interface{}) (interface{}, error), func(interface{}) interface{}:
		return true
	default:
		return false
	}
}

func (custom) Transform(value, rule interface{}) (interface{}, error) {
	switch fn := rule.(type) {
	case Func:
		return fn(value)
	case func(interface{}) (interface{}, error):
		return fn(value)
	case func(interface{}) interface{}:
		return fn(value), nil
	}
	return nil, errors.New("not a function")
}
