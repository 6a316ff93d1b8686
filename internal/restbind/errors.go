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
	"errors"
	"fmt"
	"reflect"
)

//ErrorCode is the status code carried by type Error.
type ErrorCode int

//Possible values for ErrorCode.
const (
	ErrSyntax               ErrorCode = StatusSyntaxError
	ErrAuthenticationFailed ErrorCode = StatusAuthenticationFailed
	ErrNotFound             ErrorCode = StatusNotFound
	ErrMethodNotSupported   ErrorCode = StatusMethodNotSupported
	ErrConflict             ErrorCode = StatusConflict
	ErrWrongMediaType       ErrorCode = StatusWrongMediaType
	ErrValidationFailed     ErrorCode = StatusValidationFailed
	ErrTooManyRequests      ErrorCode = StatusTooManyRequests
	ErrInternal             ErrorCode = StatusInternalServerError
	ErrUnavailable          ErrorCode = StatusServiceUnavailable
)

//With is a convenience function for constructing type Error.
func (c ErrorCode) With(msg string, args ...interface{}) *Error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &Error{Code: c, Message: msg}
}

//Error is an error with an HTTP status code. It renders as
//{"error": Message} plus any Details.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{} //optional, merged into the response body
}

//WithDetail adds a field to the response body of this error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

//Error implements the builtin/error interface.
func (e *Error) Error() string {
	return e.Message
}

//ErrorObject is an error given as a plain object. If it has a numeric "code"
//field, that field is used as the response status and removed from the body.
type ErrorObject map[string]interface{}

//Error implements the builtin/error interface.
func (o ErrorObject) Error() string {
	if msg, ok := o["error"].(string); ok {
		return msg
	}
	return fmt.Sprintf("%v", map[string]interface{}(o))
}

//ErrorList is an error given as a list of values.
type ErrorList []interface{}

//Error implements the builtin/error interface.
func (l ErrorList) Error() string {
	return fmt.Sprintf("%v", []interface{}(l))
}

//Returnable is what NormalizeError produces: a response body and a status code.
type Returnable struct {
	Body interface{}
	Code int
}

//ToError converts the loosely-typed error shapes accepted from handlers and
//promise rejections (string, error, map, slice) into an error value.
func ToError(reason interface{}) error {
	switch reason := reason.(type) {
	case nil:
		return nil
	case error:
		return reason
	case string:
		return errors.New(reason)
	case map[string]interface{}:
		return ErrorObject(reason)
	case []interface{}:
		return ErrorList(reason)
	}
	if reflect.TypeOf(reason).Kind() == reflect.Func {
		return ErrInternal.With(`Incorrect error type "function"`)
	}
	return ErrInternal.With("Unexpected error format")
}

//NormalizeError turns any accepted error shape into a response body and status
//code. The defaultCode is used when the error does not carry its own code.
func NormalizeError(reason interface{}, defaultCode int) Returnable {
	err := ToError(reason)
	if err == nil {
		return Returnable{Body: map[string]interface{}{"error": "Unexpected error format"}, Code: defaultCode}
	}

	var (
		rerr *Error
		obj  ErrorObject
		list ErrorList
	)
	switch {
	case errors.As(err, &rerr):
		body := map[string]interface{}{"error": rerr.Message}
		for k, v := range rerr.Details {
			body[k] = v
		}
		code := int(rerr.Code)
		if code == 0 {
			code = defaultCode
		}
		return Returnable{Body: body, Code: code}
	case errors.As(err, &obj):
		body := make(map[string]interface{}, len(obj))
		code := defaultCode
		for k, v := range obj {
			if k == "code" {
				if c, ok := asStatusCode(v); ok {
					code = c
					continue
				}
			}
			body[k] = v
		}
		return Returnable{Body: body, Code: code}
	case errors.As(err, &list):
		return Returnable{Body: map[string]interface{}{"error": []interface{}(list)}, Code: defaultCode}
	default:
		return Returnable{Body: map[string]interface{}{"error": err.Error()}, Code: defaultCode}
	}
}

func asStatusCode(v interface{}) (int, bool) {
	var code int
	switch v := v.(type) {
	case int:
		code = v
	case int64:
		code = int(v)
	case float64:
		code = int(v)
	default:
		return 0, false
	}
	if code < 100 || code > 599 {
		return 0, false
	}
	return code, true
}
