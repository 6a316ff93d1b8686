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
	"math"
	"math/rand"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func apply(t *testing.T, rules map[string]interface{}, value interface{}) interface{} {
	t.Helper()
	result, err := NewEngine().Apply("test", rules, value)
	if err != nil {
		t.Fatalf("unexpected error for rules %#v: %s", rules, err.Error())
	}
	return result
}

func expect(t *testing.T, rules map[string]interface{}, input, expected interface{}) {
	t.Helper()
	actual := apply(t, rules, input)
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("rules %#v on %#v: expected %#v, got %#v", rules, input, expected, actual)
	}
}

func expectNaN(t *testing.T, rules map[string]interface{}, input interface{}) {
	t.Helper()
	actual := apply(t, rules, input)
	if f, ok := actual.(float64); !ok || !math.IsNaN(f) {
		t.Errorf("rules %#v on %#v: expected NaN, got %#v", rules, input, actual)
	}
}

type rules = map[string]interface{}

func TestApplicability(t *testing.T) {
	engine := NewEngine()
	expectedOrder := []string{
		"toArray", "fromJSON", "toLowerCase", "toUpperCase", "toNumber",
		"toInteger", "toFinite", "toBoolean", "min", "max", "clamp", "transform",
	}
	if !reflect.DeepEqual(engine.Names(), expectedOrder) {
		t.Errorf("unexpected transformer order: %#v", engine.Names())
	}

	//rules that are present but not applicable are ignored
	expect(t, rules{"toInteger": false}, "false", "false")
	expect(t, rules{"toInteger": "true"}, "Beer", "Beer")
	expect(t, rules{"toBoolean": 42}, "0", "0")
	expect(t, rules{"clamp": []int{1}}, "5", "5")
	expect(t, rules{"clamp": []int{1, 2, 3}}, "5", "5")
	expect(t, rules{"min": "5"}, "1", "1")
	expect(t, rules{"toHellWithIt": true}, "10", "10")
}

func TestToArray(t *testing.T) {
	expect(t, rules{"toArray": true}, "1,2,3", []interface{}{"1", "2", "3"})
	expect(t, rules{"toArray": ";"}, "1,2,3", []interface{}{"1,2,3"})
	expect(t, rules{"toArray": ";"}, "1;2;3", []interface{}{"1", "2", "3"})
	//lists are left alone
	expect(t, rules{"toArray": true}, []interface{}{"1,2,3", 4, 5}, []interface{}{"1,2,3", 4, 5})
}

func TestToNumberAndToInteger(t *testing.T) {
	expect(t, rules{"toNumber": true}, "3.14", 3.14)
	expect(t, rules{"toNumber": true}, "-10", float64(-10))
	expect(t, rules{"toNumber": true}, 10, float64(10))
	expectNaN(t, rules{"toNumber": true}, "Beer")
	expectNaN(t, rules{"toNumber": true}, "false")

	expect(t, rules{"toInteger": true}, "10", int64(10))
	expect(t, rules{"toInteger": true}, "3.14", int64(3))
	expect(t, rules{"toInteger": true}, 3.14, int64(3))
	expect(t, rules{"toInteger": true}, true, int64(1))
	expectNaN(t, rules{"toInteger": true}, "Beer")

	actual := apply(t, rules{"toInteger": true}, []interface{}{"10", "3.14", 3.14, true})
	if !reflect.DeepEqual(actual, []interface{}{int64(10), int64(3), int64(3), int64(1)}) {
		t.Errorf("unexpected element-wise result: %#v", actual)
	}
}

func TestToIntegerRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 42, math.MaxInt64, math.MinInt64, 9007199254740993}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		values = append(values, r.Int63()-r.Int63())
	}
	for _, n := range values {
		expect(t, rules{"toInteger": true}, strconv.FormatInt(n, 10), n)
	}
}

func TestToFinite(t *testing.T) {
	expect(t, rules{"toFinite": true}, "Beer", float64(0))
	expect(t, rules{"toFinite": true}, "Infinity", math.MaxFloat64)
	expect(t, rules{"toFinite": true}, "-Infinity", -math.MaxFloat64)
	expect(t, rules{"toFinite": true}, "3.2", 3.2)
	//NaN from toInteger is turned into 0
	expect(t, rules{"toInteger": true, "toFinite": true}, "Beer", float64(0))
}

func TestToBooleanAndCase(t *testing.T) {
	for _, input := range []interface{}{"0", "false", "False", 0, false, ""} {
		expect(t, rules{"toBoolean": true}, input, false)
	}
	for _, input := range []interface{}{"1", "000", "true", "Lenin lives", 1, 3.14, -5, true} {
		expect(t, rules{"toBoolean": true}, input, true)
	}

	expect(t, rules{"toLowerCase": true}, "FoO", "foo")
	expect(t, rules{"toUpperCase": true}, "FoO", "FOO")
	expect(t, rules{"toUpperCase": true}, []interface{}{"a", "b"}, []interface{}{"A", "B"})
}

func TestFromJSON(t *testing.T) {
	expect(t, rules{"fromJSON": true}, `{"a":[1,2]}`, map[string]interface{}{"a": []interface{}{float64(1), float64(2)}})

	_, err := NewEngine().Apply("where", rules{"fromJSON": true}, "{not json")
	terr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *transform.Error, got %#v", err)
	}
	if terr.Filter != "where" || terr.Transform != "fromJSON" || terr.Message == "" {
		t.Errorf("unexpected error contents: %#v", terr)
	}
	if !strings.Contains(terr.Error(), `filter "where"`) {
		t.Errorf("unexpected error message: %s", terr.Error())
	}
}

func TestMinMax(t *testing.T) {
	expect(t, rules{"min": 5}, float64(2), float64(5))
	expect(t, rules{"min": 5}, float64(8), float64(8))
	expect(t, rules{"max": 5}, float64(8), float64(5))
	expect(t, rules{"max": 5}, float64(2), float64(2))
	//integers stay integers
	expect(t, rules{"toInteger": true, "min": 5}, "2", int64(5))
	expect(t, rules{"toInteger": true, "max": 5.5}, "2", int64(2))
	expectNaN(t, rules{"toNumber": true, "min": 5}, "Beer")
}

func TestClamp(t *testing.T) {
	expect(t, rules{"clamp": []int{5, 10}}, float64(2), float64(5))
	expect(t, rules{"clamp": []int{5, 10}}, float64(12), float64(10))
	expect(t, rules{"clamp": []int{5, 10}}, float64(8), float64(8))
	expect(t, rules{"clamp": []interface{}{5, 10}}, "3", float64(5))
	expectNaN(t, rules{"clamp": []int{5, 10}}, "Beer")
	expect(t, rules{"clamp": []int{5, 10}}, []interface{}{2, 6, 10, 12, "16"},
		[]interface{}{int64(5), int64(6), int64(10), int64(10), float64(10)})

	//for all inputs: lo <= clamp(v) <= hi, and clamp is idempotent
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		lo := r.Float64()*200 - 100
		hi := lo + r.Float64()*100
		v := r.Float64()*400 - 200
		rule := rules{"clamp": []float64{lo, hi}}

		once := apply(t, rule, v).(float64)
		if once < lo || once > hi {
			t.Errorf("clamp(%g) into [%g, %g] gave %g", v, lo, hi, once)
		}
		twice := apply(t, rule, once).(float64)
		if once != twice {
			t.Errorf("clamp is not idempotent for %g in [%g, %g]: %g != %g", v, lo, hi, once, twice)
		}
	}
}

func TestCustomTransform(t *testing.T) {
	double := Func(func(value interface{}) (interface{}, error) {
		return ToFloat(value) * 2, nil
	})
	expect(t, rules{"transform": double}, "21", float64(42))
	//runs last, after the builtin transformers
	expect(t, rules{"toArray": true, "transform": double}, "1,2", []interface{}{float64(2), float64(4)})

	plain := func(value interface{}) interface{} { return "x" + ToString(value) }
	expect(t, rules{"transform": plain}, "y", "xy")

	failing := func(value interface{}) (interface{}, error) {
		return nil, strconv.ErrSyntax
	}
	_, err := NewEngine().Apply("f", rules{"transform": failing}, "y")
	if terr, ok := err.(*Error); !ok || terr.Transform != "transform" {
		t.Errorf("expected transform error, got %#v", err)
	}
}
