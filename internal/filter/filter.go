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

import "sort"

//Filter is a named rule that describes how one query parameter is read and
//transformed. A query parameter that has no Filter is ignored.
type Filter struct {
	//additional query parameter names that resolve to this filter
	Alias []string
	//value to use when the query parameter is absent or empty
	Default interface{}
	//user field that substitutes sentinel values like "me"
	ReplaceMe string
	//true or a field name: store the value as a top-level request field
	//instead of in Request.Filters
	Detach interface{}
	//when merged into an existing filter with the same key, replace it
	//instead of merging
	Override bool
	//reject values that became NaN during transformation
	Strict bool
	//transformer rules, e.g. {"toInteger": true, "clamp": []int{1, 100}}
	Rules map[string]interface{}
}

//DetachTarget returns the name of the request field that this filter's value
//is written to, if the filter is detached.
func (f Filter) DetachTarget(key string) (string, bool) {
	switch d := f.Detach.(type) {
	case string:
		if d != "" {
			return d, true
		}
	case bool:
		if d {
			return key, true
		}
	}
	return "", false
}

//merge fills in everything that f does not declare from other. Values already
//present in f take precedence, maps are merged recursively.
func (f Filter) merge(other Filter) Filter {
	result := f
	result.Alias = appendMissing(append([]string(nil), f.Alias...), other.Alias)
	if result.Default == nil {
		result.Default = other.Default
	}
	if result.ReplaceMe == "" {
		result.ReplaceMe = other.ReplaceMe
	}
	if result.Detach == nil {
		result.Detach = other.Detach
	}
	result.Strict = f.Strict || other.Strict
	result.Rules = mergeMaps(f.Rules, other.Rules)
	return result
}

func appendMissing(list []string, values []string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}

func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil && src == nil {
		return nil
	}
	result := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		result[k] = v
	}
	for k, v := range src {
		existing, exists := result[k]
		if !exists || existing == nil {
			result[k] = v
			continue
		}
		em, ok1 := existing.(map[string]interface{})
		sm, ok2 := v.(map[string]interface{})
		if ok1 && ok2 {
			result[k] = mergeMaps(em, sm)
		}
	}
	return result
}

//Table is the set of filters of one endpoint.
type Table struct {
	filters map[string]Filter
	aliases map[string]string
	order   []string
}

//NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		filters: make(map[string]Filter),
		aliases: make(map[string]string),
	}
}

//Add adds a filter. If a filter with the same key exists, the new one is
//merged into it, unless the new one has Override set. All aliases ever
//declared for a key stay registered.
func (t *Table) Add(key string, f Filter) {
	existing, exists := t.filters[key]
	switch {
	case !exists:
		t.order = append(t.order, key)
		t.filters[key] = f
	case f.Override:
		t.filters[key] = f
	default:
		t.filters[key] = existing.merge(f)
	}
	for _, alias := range f.Alias {
		t.aliases[alias] = key
	}
}

//AddAll adds several filters in a stable order.
func (t *Table) AddAll(filters map[string]Filter) {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		t.Add(key, filters[key])
	}
}

//Get returns the filter for the given key.
func (t *Table) Get(key string) (Filter, bool) {
	f, ok := t.filters[key]
	return f, ok
}

//Keys returns all filter keys in the order in which they were first added.
func (t *Table) Keys() []string {
	return append([]string(nil), t.order...)
}

//Len returns the number of filters in this table.
func (t *Table) Len() int {
	return len(t.order)
}

//Canonical resolves an alias to its filter key. Other names are returned
//unchanged.
func (t *Table) Canonical(name string) string {
	if key, ok := t.aliases[name]; ok {
		return key
	}
	return name
}

//Clone returns a copy of this table that can be modified independently.
func (t *Table) Clone() *Table {
	result := NewTable()
	for k, v := range t.filters {
		result.filters[k] = v
	}
	for k, v := range t.aliases {
		result.aliases[k] = v
	}
	result.order = append([]string(nil), t.order...)
	return result
}
