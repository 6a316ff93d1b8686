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

package restbind

import (
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestParseQuery(t *testing.T) {
	testCases := []struct {
		Input    string
		Expected []QueryParam
	}{
		{"", nil},
		{"a=1", []QueryParam{{"a", "1"}}},
		{"b=2&a=1", []QueryParam{{"b", "2"}, {"a", "1"}}},
		{"a=1&b=2&a=3", []QueryParam{{"a", []interface{}{"1", "3"}}, {"b", "2"}}},
		{"a=1&a=2&a=3", []QueryParam{{"a", []interface{}{"1", "2", "3"}}}},
		{"flag&x=", []QueryParam{{"flag", ""}, {"x", ""}}},
		{"name=J%C3%BCrgen+X&&=orphan", []QueryParam{{"name", "Jürgen X"}}},
	}

	for _, tc := range testCases {
		actual := ParseQuery(tc.Input)
		if !reflect.DeepEqual(actual, tc.Expected) {
			t.Errorf("ParseQuery(%q): expected %#v, got %#v", tc.Input, tc.Expected, actual)
		}
	}
}

func TestRequestDetach(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/users?id=5", nil)
	r = WithUser(r, &User{ID: "alice"})
	req := NewRequest(r, map[string]string{"id": "5"})

	if req.User == nil || req.User.ID != "alice" {
		t.Errorf("expected user from context, got %#v", req.User)
	}
	if val, ok := req.QueryValue("id"); !ok || val != "5" {
		t.Errorf("expected query value 5, got %#v", val)
	}

	if !req.Detach("limit", 10) {
		t.Error("expected first detach of limit to succeed")
	}
	if req.Detach("limit", 20) {
		t.Error("expected second detach of limit to fail")
	}
	for _, name := range []string{"id", "query", "params", "body", "filters", "include", "user"} {
		if req.Detach(name, 1) {
			t.Errorf("expected detach of reserved field %q to fail", name)
		}
	}
	if val, ok := req.Field("limit"); !ok || val != 10 {
		t.Errorf("expected limit = 10, got %#v", val)
	}
}
