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
	"encoding/json"
	"reflect"

	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/restbind/internal/restbind"
)

//shapeResult removes the fields that the requesting user may not see,
//according to Screen and Reject.
func (ep *Endpoint) shapeResult(req *restbind.Request, result interface{}) interface{} {
	fields := ep.rejectedFields(req.User)
	if len(fields) == 0 || result == nil {
		return result
	}
	return RejectFields(result, fields)
}

func (ep *Endpoint) rejectedFields(user *restbind.User) []string {
	var fields []string
	if ep.desc.Screen != nil && user == nil {
		fields = append(fields, ep.desc.Screen.NoAuth...)
	}

	rej := ep.desc.Reject
	if rej == nil {
		return fields
	}
	fields = append(fields, rej.Fields...)
	if user == nil {
		return append(fields, rej.NoAuth...)
	}
	//union over all roles of the user that have rules declared
	for _, role := range user.Roles {
		fields = append(fields, rej.Roles[role]...)
	}
	return fields
}

//RejectFields returns a copy of the result without the given fields. Lists
//are processed element by element. Results that are neither maps nor lists
//(e.g. structs) are converted through their JSON representation first.
func RejectFields(result interface{}, fields []string) interface{} {
	switch r := result.(type) {
	case map[string]interface{}:
		shaped := make(map[string]interface{}, len(r))
		for k, v := range r {
			if !containsString(fields, k) {
				shaped[k] = v
			}
		}
		return shaped
	case []interface{}:
		shaped := make([]interface{}, len(r))
		for idx, elem := range r {
			shaped[idx] = RejectFields(elem, fields)
		}
		return shaped
	}

	switch reflect.ValueOf(result).Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Ptr:
		generic, err := toGeneric(result)
		if err != nil {
			logg.Error("cannot reject fields from result of type %T: %s", result, err.Error())
			return result
		}
		switch generic.(type) {
		case map[string]interface{}, []interface{}:
			return RejectFields(generic, fields)
		}
	}
	return result
}

func toGeneric(value interface{}) (interface{}, error) {
	buf, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var result interface{}
	err = json.Unmarshal(buf, &result)
	return result, err
}
