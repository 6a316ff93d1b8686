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
	"context"
	"net/http"
)

//User is the authenticated user of a request. It is set either by host
//middleware (see WithUser) or by an Authenticate hook.
type User struct {
	ID     string
	Roles  []string
	Fields map[string]interface{}
}

//Get returns a named field of the user. The names "id" and "roles" refer to
//the respective struct fields, everything else is looked up in Fields.
func (u *User) Get(field string) (interface{}, bool) {
	if u == nil {
		return nil, false
	}
	switch field {
	case "id":
		return u.ID, u.ID != ""
	case "roles":
		return u.Roles, len(u.Roles) > 0
	}
	val, ok := u.Fields[field]
	if ok && val == nil {
		return nil, false
	}
	return val, ok
}

//HasRole returns whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type userContextKey struct{}

//WithUser attaches a user to the request context. Host middleware that runs
//before the endpoint pipeline uses this to provide authentication data.
func WithUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey{}, u))
}

//UserFromContext returns the user attached by WithUser, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey{}).(*User)
	return u
}
