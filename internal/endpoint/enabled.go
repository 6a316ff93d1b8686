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

package endpoint

import (
	"reflect"

	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/restbind/internal/restbind"
)

//CheckEnabled evaluates the Enabled and Disabled conditions of a description
//against the settings. Conditions are interpreted as follows:
//
//	bool                      as is
//	func(Description) bool    the function's result
//	string or []string        all of these settings are truthy
//	map[string]interface{}    all of these settings have the given values
//
//For Disabled, the endpoint is disabled if the condition holds (for lists:
//if any of the settings is truthy; for maps: if any setting has the value).
func CheckEnabled(d Description, settings *restbind.Settings) bool {
	if d.Enabled != nil && !evalEnabled(d.Enabled, d, settings) {
		return false
	}
	if d.Disabled != nil && evalDisabled(d.Disabled, d, settings) {
		return false
	}
	return true
}

func evalEnabled(c Condition, d Description, settings *restbind.Settings) bool {
	switch c := c.(type) {
	case bool:
		return c
	case func(Description) bool:
		return c(d)
	case func() bool:
		return c()
	case string:
		return evalEnabled([]string{c}, d, settings)
	case []string:
		for _, key := range c {
			val, _ := settings.Get(key)
			if !restbind.Truthy(val) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		for key, expected := range c {
			val, _ := settings.Get(key)
			if !looselyEqual(val, expected) {
				return false
			}
		}
		return true
	}
	logg.Error("unexpected type %T in enabled condition of %s %s, treating as enabled", c, d.Verb, d.Path)
	return true
}

func evalDisabled(c Condition, d Description, settings *restbind.Settings) bool {
	switch c := c.(type) {
	case bool:
		return c
	case func(Description) bool:
		return c(d)
	case func() bool:
		return c()
	case string:
		return evalDisabled([]string{c}, d, settings)
	case []string:
		for _, key := range c {
			val, _ := settings.Get(key)
			if restbind.Truthy(val) {
				return true
			}
		}
		return false
	case map[string]interface{}:
		for key, expected := range c {
			val, _ := settings.Get(key)
			if looselyEqual(val, expected) {
				return true
			}
		}
		return false
	}
	logg.Error("unexpected type %T in disabled condition of %s %s, ignoring", c, d.Verb, d.Path)
	return false
}

//looselyEqual compares numbers by value regardless of their type.
func looselyEqual(a, b interface{}) bool {
	fa, okA := restbind.AsFloat(a)
	fb, okB := restbind.AsFloat(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}
