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
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/sapcc/restbind/internal/restbind"
)

//ToString converts a scalar value into its string form. Nil becomes the
//empty string.
func ToString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

//ToFloat converts a value into a number. Values that do not look like a
//number yield NaN. Booleans become 0 or 1, blank strings become 0.
func ToFloat(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return math.NaN()
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(v)
		switch s {
		case "":
			return 0
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || strings.ContainsAny(s, "iInN_") {
			//reject spellings like "inf", "nan" or "1_000"
			return math.NaN()
		}
		return f
	}
	if f, ok := restbind.AsFloat(value); ok {
		return f
	}
	return math.NaN()
}

func isIntegral(value interface{}) bool {
	if value == nil {
		return false
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

//numberLike returns f as int64 if the original value was an integer and f
//still is one.
func numberLike(original interface{}, f float64) interface{} {
	if isIntegral(original) && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return f
}
