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
	"reflect"
)

//Transformer is a single named value coercion. The rule is the value that a
//filter declares under the transformer's name, e.g. `"clamp": []int{1, 10}`.
type Transformer interface {
	Name() string
	IsApplicable(rule interface{}) bool
	Transform(value, rule interface{}) (interface{}, error)
}

//ArrayTransformer is implemented by transformers that need to see a list
//value as a whole. All other transformers are applied to each list element.
type ArrayTransformer interface {
	Transformer
	TransformArray(values []interface{}, rule interface{}) (interface{}, error)
}

//Func is a user-supplied transformation, declared under the "transform" rule.
type Func func(value interface{}) (interface{}, error)

//Error is returned by Engine.Apply when a transformer fails.
type Error struct {
	Filter    string
	Transform string
	Message   string
}

//Error implements the builtin/error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("filter %q: %s failed: %s", e.Filter, e.Transform, e.Message)
}

//Engine applies transformers in a fixed order.
type Engine struct {
	transformers []Transformer
}

//NewEngine returns an engine with the builtin transformers, in this order:
//toArray, fromJSON, toLowerCase, toUpperCase, toNumber, toInteger, toFinite,
//toBoolean, min, max, clamp, transform. Additional transformers run after
//those.
func NewEngine(extra ...Transformer) *Engine {
	ts := []Transformer{
		toArray{},
		fromJSON{},
		toLowerCase{},
		toUpperCase{},
		toNumber{},
		toInteger{},
		toFinite{},
		toBoolean{},
		minimum{},
		maximum{},
		clamp{},
		custom{},
	}
	return &Engine{append(ts, extra...)}
}

//Names returns the names of all transformers known to this engine.
func (e *Engine) Names() []string {
	result := make([]string, len(e.transformers))
	for idx, t := range e.transformers {
		result[idx] = t.Name()
	}
	return result
}

//Apply runs the value through all transformers whose rule is present and
//applicable. The filter name is only used for error reporting.
func (e *Engine) Apply(filterName string, rules map[string]interface{}, value interface{}) (interface{}, error) {
	for _, t := range e.transformers {
		rule, exists := rules[t.Name()]
		if !exists || !t.IsApplicable(rule) {
			continue
		}

		var err error
		if list, isList := asList(value); isList {
			if at, ok := t.(ArrayTransformer); ok {
				value, err = at.TransformArray(list, rule)
			} else {
				value, err = transformEach(t, list, rule)
			}
		} else {
			value, err = t.Transform(value, rule)
		}

		if err != nil {
			return nil, &Error{Filter: filterName, Transform: t.Name(), Message: err.Error()}
		}
	}
	return value, nil
}

func transformEach(t Transformer, list []interface{}, rule interface{}) (interface{}, error) {
	result := make([]interface{}, len(list))
	for idx, elem := range list {
		val, err := t.Transform(elem, rule)
		if err != nil {
			return nil, err
		}
		result[idx] = val
	}
	return result, nil
}

//asList converts any slice except []byte into a []interface{}.
func asList(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case nil, []byte:
		return nil, false
	case []interface{}:
		return v, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	result := make([]interface{}, rv.Len())
	for idx := range result {
		result[idx] = rv.Index(idx).Interface()
	}
	return result, true
}
