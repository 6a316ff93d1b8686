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
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

//QueryParam is one query parameter in the order of its first appearance in the
//query string. Value is a string, or a []interface{} of strings when the
//parameter appears more than once.
type QueryParam struct {
	Name  string
	Value interface{}
}

//Request is the per-request context handed to hooks and handlers. It is
//created when the request enters the endpoint pipeline and discarded once the
//response has been written.
type Request struct {
	*http.Request

	ID      string
	Query   []QueryParam
	Params  map[string]string
	Body    interface{}
	RawBody []byte
	Files   map[string][]*multipart.FileHeader
	Filters map[string]interface{}
	Include []string
	User    *User

	//fields holds values of detached filters
	fields map[string]interface{}
}

var reservedFields = map[string]bool{
	"id": true, "query": true, "params": true, "body": true, "raw_body": true,
	"files": true, "filters": true, "include": true, "user": true,
}

//NewRequest wraps an inbound HTTP request. The user attached via WithUser (if
//any) is picked up here.
func NewRequest(r *http.Request, params map[string]string) *Request {
	if params == nil {
		params = map[string]string{}
	}
	return &Request{
		Request: r,
		ID:      r.Header.Get("X-Request-Id"),
		Query:   ParseQuery(r.URL.RawQuery),
		Params:  params,
		Filters: map[string]interface{}{},
		Include: []string{},
		User:    UserFromContext(r.Context()),
		fields:  map[string]interface{}{},
	}
}

//QueryValue returns the raw value of the given query parameter.
func (r *Request) QueryValue(name string) (interface{}, bool) {
	for _, p := range r.Query {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

//Detach stores a value as a top-level field of this request. It returns false
//(and stores nothing) when a field with that name already exists.
func (r *Request) Detach(name string, value interface{}) bool {
	if reservedFields[name] {
		return false
	}
	if _, exists := r.fields[name]; exists {
		return false
	}
	r.fields[name] = value
	return true
}

//Field returns a top-level field that was placed on this request by Detach.
func (r *Request) Field(name string) (interface{}, bool) {
	val, ok := r.fields[name]
	return val, ok
}

//ParseQuery splits a raw query string into parameters, keeping the order in
//which the names first appear. Repeated names are collected into a list.
func ParseQuery(rawQuery string) []QueryParam {
	var (
		result []QueryParam
		index  = make(map[string]int)
	)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value := pair, ""
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			name, value = pair[:idx], pair[idx+1:]
		}
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		if name == "" {
			continue
		}

		idx, seen := index[name]
		if !seen {
			index[name] = len(result)
			result = append(result, QueryParam{Name: name, Value: value})
			continue
		}
		switch existing := result[idx].Value.(type) {
		case []interface{}:
			result[idx].Value = append(existing, value)
		default:
			result[idx].Value = []interface{}{existing, value}
		}
	}
	return result
}
