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

package filter

import (
	"math"
	"strings"

	"github.com/sapcc/restbind/internal/restbind"
	"github.com/sapcc/restbind/internal/transform"
)

//IncludeKey is the query parameter that feeds Request.Include. It is never
//treated as a filter.
const IncludeKey = "include"

//DefaultSentinels are the values that trigger replace-me substitution.
var DefaultSentinels = []string{"me", "mine"}

//Sentinels returns DefaultSentinels plus the given extras.
func Sentinels(extra ...string) []string {
	return append(append([]string(nil), DefaultSentinels...), extra...)
}

//Resolve reads the request's query parameters through this table. Resolved
//values are stored in req.Filters, or detached onto the request. The returned
//error is a *restbind.Error with the appropriate status code.
//
//Query parameters are processed in the order of their appearance. When
//several parameters resolve to the same filter key, the last one wins.
func (t *Table) Resolve(req *restbind.Request, engine *transform.Engine, sentinels []string) error {
	if req.Filters == nil {
		req.Filters = map[string]interface{}{}
	}
	if t.Len() == 0 {
		return nil
	}

	var (
		order  []string
		values = make(map[string]interface{})
	)
	for _, param := range t.withDefaults(req.Query) {
		if param.Name == IncludeKey {
			continue
		}
		key := t.Canonical(param.Name)
		f, exists := t.filters[key]
		if !exists {
			continue
		}

		value := param.Value
		if f.ReplaceMe != "" {
			if s, ok := value.(string); ok && contains(sentinels, s) {
				replacement, ok := req.User.Get(f.ReplaceMe)
				if !ok {
					return restbind.ErrAuthenticationFailed.With(
						"You must be authorized to use '%s=%s' filter", param.Name, s)
				}
				value = replacement
			}
		}

		value, err := engine.Apply(key, f.Rules, value)
		if err != nil {
			return restbind.ErrValidationFailed.With(err.Error()).WithDetail("filter", key)
		}
		if f.Strict && containsNaN(value) {
			return restbind.ErrValidationFailed.With("filter %q: %q is not a number", key, param.Value).
				WithDetail("filter", key)
		}

		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = value
	}

	for _, key := range order {
		f := t.filters[key]
		if target, ok := f.DetachTarget(key); ok {
			if !req.Detach(target, values[key]) {
				return restbind.ErrInternal.With(
					`Can't detach filter "%s" to "%s": field already exists`, key, target)
			}
			continue
		}
		req.Filters[key] = values[key]
	}
	return nil
}

//withDefaults returns the query parameters with default values filled in. A
//filter counts as present if its key or one of its aliases appears in the
//query with a non-empty value. Empty values of filters with defaults are
//replaced by the default.
func (t *Table) withDefaults(query []restbind.QueryParam) []restbind.QueryParam {
	result := make([]restbind.QueryParam, 0, len(query))
	present := make(map[string]bool)
	for _, param := range query {
		key := t.Canonical(param.Name)
		if f, exists := t.filters[key]; exists && f.Default != nil && param.Value == "" {
			param.Value = f.Default
		}
		present[key] = true
		result = append(result, param)
	}

	for _, key := range t.order {
		f := t.filters[key]
		if f.Default != nil && !present[key] {
			result = append(result, restbind.QueryParam{Name: key, Value: f.Default})
		}
	}
	return result
}

//Include computes the value of Request.Include from the "include" query
//parameter: a comma-separated list (spaces are ignored) from which only the
//allowed names are taken.
func Include(req *restbind.Request, allowed []string) []string {
	result := []string{}
	if len(allowed) == 0 {
		return result
	}
	raw, exists := req.QueryValue(IncludeKey)
	if !exists {
		return result
	}

	var joined string
	switch v := raw.(type) {
	case string:
		joined = v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			parts = append(parts, transform.ToString(elem))
		}
		joined = strings.Join(parts, ",")
	}

	for _, name := range strings.Split(strings.Replace(joined, " ", "", -1), ",") {
		if name != "" && contains(allowed, name) {
			result = append(result, name)
		}
	}
	return result
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func containsNaN(value interface{}) bool {
	switch v := value.(type) {
	case float64:
		return math.IsNaN(v)
	case []interface{}:
		for _, elem := range v {
			if containsNaN(elem) {
				return true
			}
		}
	}
	return false
}
