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

import "net/http"

//The fixed table of response codes used by the request pipeline.
const (
	StatusOK                   = http.StatusOK
	StatusSyntaxError          = http.StatusBadRequest
	StatusAuthenticationFailed = http.StatusUnauthorized
	StatusNotFound             = http.StatusNotFound
	StatusMethodNotSupported   = http.StatusMethodNotAllowed
	StatusConflict             = http.StatusConflict
	StatusWrongMediaType       = http.StatusUnsupportedMediaType
	StatusValidationFailed     = http.StatusUnprocessableEntity
	StatusTooManyRequests      = http.StatusTooManyRequests
	StatusInternalServerError  = http.StatusInternalServerError
	StatusServiceUnavailable   = http.StatusServiceUnavailable
)

//Verbs is the verb table. Its order is the order in which supported verbs are
//listed in "Allow" headers.
var Verbs = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH", "TRACE"}

//IsVerb returns whether the given (upper-case) string appears in the verb table.
func IsVerb(verb string) bool {
	for _, v := range Verbs {
		if v == verb {
			return true
		}
	}
	return false
}
