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

package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/restbind"
)

//Validator holds the compiled request body schemas of all endpoints that
//declare a Schema.
type Validator struct {
	mutex   sync.RWMutex
	schemas map[*endpoint.Endpoint]*jsonschema.Schema
	counter int64
}

//NewValidator creates an empty Validator.
func NewValidator() *Validator {
	return &Validator{schemas: make(map[*endpoint.Endpoint]*jsonschema.Schema)}
}

//Extension returns an extension that validates request bodies against the
//Schema of the endpoint description. Schemas are compiled while the
//extension is applied, so an invalid schema fails the activation.
func (v *Validator) Extension() endpoint.Extension {
	return endpoint.Extension{
		Name: "schema",
		Endpoint: &endpoint.Hooks{
			Init:          v.compileFor,
			BeforeHandler: v.validate,
		},
	}
}

//Compile compiles a schema given as a JSON string, []byte or a value that
//marshals into a JSON schema document.
func (v *Validator) Compile(schema interface{}) (*jsonschema.Schema, error) {
	var raw []byte
	switch s := schema.(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	default:
		var err error
		raw, err = json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %s", err.Error())
		}
	}

	var doc interface{}
	err := json.Unmarshal(raw, &doc)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %s", err.Error())
	}

	url := fmt.Sprintf("restbind://schema/%d", atomic.AddInt64(&v.counter, 1))
	c := jsonschema.NewCompiler()
	err = c.AddResource(url, doc)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %s", err.Error())
	}
	return c.Compile(url)
}

func (v *Validator) compileFor(ep *endpoint.Endpoint) error {
	schema := ep.Description().Schema
	if schema == nil {
		return nil
	}
	compiled, err := v.Compile(schema)
	if err != nil {
		return fmt.Errorf("invalid schema: %s", err.Error())
	}
	v.mutex.Lock()
	v.schemas[ep] = compiled
	v.mutex.Unlock()
	logg.Debug("compiled request body schema for %s", ep)
	return nil
}

func (v *Validator) validate(ep *endpoint.Endpoint, req *restbind.Request) error {
	v.mutex.RLock()
	compiled := v.schemas[ep]
	v.mutex.RUnlock()
	if compiled == nil {
		return nil
	}

	//normalize the body into the JSON data model (e.g. structs from other
	//hooks, typed numbers)
	buf, err := json.Marshal(req.Body)
	if err != nil {
		return restbind.ErrValidationFailed.With("request body is not valid JSON: %s", err.Error())
	}
	var inst interface{}
	err = json.Unmarshal(buf, &inst)
	if err != nil {
		return restbind.ErrValidationFailed.With("request body is not valid JSON: %s", err.Error())
	}

	err = compiled.Validate(inst)
	if err != nil {
		return restbind.ErrValidationFailed.With("request body does not match schema").
			WithDetail("details", strings.Split(strings.TrimSpace(err.Error()), "\n"))
	}
	return nil
}
