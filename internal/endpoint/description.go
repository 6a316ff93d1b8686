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
	"github.com/gorilla/mux"
	"github.com/sapcc/restbind/internal/filter"
	"github.com/sapcc/restbind/internal/restbind"
)

//Description declares one endpoint of a resource. It is not modified after
//the endpoint was constructed from it.
type Description struct {
	//HTTP method (one of restbind.Verbs)
	Verb string
	//path below the resource noun, e.g. ":id" or "{id}/comments"
	Path string
	//defaults to the resource version
	Version int

	Filters    map[string]filter.Filter
	Handler    restbind.Handler
	Middleware []mux.MiddlewareFunc

	//skip authentication for this endpoint
	NoAuth bool
	//true (for the default placeholder) or a placeholder payload; when set,
	//requests are answered with the placeholder and nothing else happens
	Stub interface{}

	//Screen is deprecated; use Reject.NoAuth instead.
	Screen *Screen
	Reject *Reject

	//names allowed in the "include" query parameter
	Include []string
	Upload  *UploadOptions
	//body parser modes ("json", "urlencoded", "text", "raw"); when empty,
	//"json" and "urlencoded" bodies are parsed
	BodyParser []string

	AllowCORS bool
	NoCache   bool
	//true, or the name of the replacement endpoint
	Deprecated interface{}

	//see CheckEnabled
	Enabled  Condition
	Disabled Condition

	//JSON schema for the request body (evaluated by the schema extension)
	Schema interface{}
	//free-form text, shown by the route listing
	Description string
}

//Screen declares fields that are removed from results for unauthenticated
//requests.
type Screen struct {
	NoAuth []string
}

//Reject declares fields that are removed from results.
type Reject struct {
	//removed from all results
	Fields []string
	//removed from results for unauthenticated requests
	NoAuth []string
	//role -> fields removed from results for users holding that role
	Roles map[string][]string
}

//UploadOptions configures multipart file uploads. Uploaded files end up in
//Request.Files, other form fields in Request.Body.
type UploadOptions struct {
	//bytes kept in memory before spilling to temporary files (default 32 MiB)
	MaxMemory int64
	//when non-empty, only these file fields are accepted
	Fields []string
}

//Condition enables or disables an endpoint depending on the settings. It may
//be a bool, a func(Description) bool, a settings key, a list of settings
//keys, or a map of settings keys to expected values.
type Condition interface{}

func (d Description) isStub() bool {
	switch s := d.Stub.(type) {
	case nil:
		return false
	case bool:
		return s
	default:
		return true
	}
}

func (d Description) stubPayload() interface{} {
	if b, ok := d.Stub.(bool); ok && b {
		return map[string]interface{}{"Stub": "Not implemented yet!"}
	}
	return d.Stub
}
