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

package test

import (
	"strings"

	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/restbind"
)

//AuthExtension returns an extension for unit tests that authenticates
//requests from the X-Test-User, X-Test-Roles and X-Test-Fields headers, e.g.
//
//	X-Test-User: alice
//	X-Test-Roles: admin,auditor
//	X-Test-Fields: team:blue,region:eu
//
//Requests without X-Test-User are rejected, except for requests with a bearer
//token when allowBearer is set. Those are left to the next Authenticate hook.
func AuthExtension(allowBearer bool) endpoint.Extension {
	return endpoint.Extension{
		Name: "test-auth",
		Endpoint: &endpoint.Hooks{
			Authenticate: func(ep *endpoint.Endpoint, req *restbind.Request) error {
				userID := req.Header.Get("X-Test-User")
				if userID == "" {
					if allowBearer && strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
						return nil
					}
					return restbind.ErrAuthenticationFailed.With("missing X-Test-User header")
				}
				req.User = parseUser(userID, req.Header.Get("X-Test-Roles"), req.Header.Get("X-Test-Fields"))
				return nil
			},
		},
	}
}

func parseUser(userID, rolesHeader, fieldsHeader string) *restbind.User {
	u := &restbind.User{ID: userID, Fields: make(map[string]interface{})}
	if rolesHeader != "" {
		u.Roles = strings.Split(rolesHeader, ",")
	}
	if fieldsHeader != "" {
		for _, field := range strings.Split(fieldsHeader, ",") {
			fields := strings.SplitN(field, ":", 2)
			if len(fields) == 2 {
				u.Fields[fields[0]] = fields[1]
			}
		}
	}
	return u
}

//Headers returns the request headers that AuthExtension understands.
func Headers(userID string, roles ...string) map[string]string {
	return map[string]string{
		"X-Test-User":  userID,
		"X-Test-Roles": strings.Join(roles, ","),
	}
}
