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

package users

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sapcc/restbind/internal/auth"
	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/filter"
	"github.com/sapcc/restbind/internal/resource"
	"github.com/sapcc/restbind/internal/restbind"
)

const userSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"email": {"type": "string", "pattern": "^[^@]+@[^@]+$"},
		"roles": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["name", "email"],
	"additionalProperties": false
}`

var listFilters = map[string]filter.Filter{
	"limit":  {Default: 20, Strict: true, Rules: map[string]interface{}{"toInteger": true, "clamp": []int{1, 100}}},
	"offset": {Default: 0, Strict: true, Rules: map[string]interface{}{"toInteger": true, "min": 0}},
	"sort":   {Alias: []string{"order"}, Rules: map[string]interface{}{"toLowerCase": true}},
	"role":   {Rules: map[string]interface{}{"toLowerCase": true}},
	//"?owner=me" lists the users created by the requesting user
	"owner": {ReplaceMe: "id"},
}

var shaping = &endpoint.Reject{
	Fields: []string{"internal"},
	NoAuth: []string{"email"},
	Roles:  map[string][]string{"guest": {"email", "owner"}},
}

//Resource describes the "users" resource, backed by the given store. Tokens
//are issued with the auth.Issuer from the given services (if any).
func Resource(store *Store, services *restbind.Services) resource.Description {
	h := handlers{store, services}
	return resource.Description{
		Noun:    "users",
		Version: 1,
		Endpoints: []endpoint.Description{
			{
				Verb:        "GET",
				Filters:     listFilters,
				Include:     []string{"roles"},
				Reject:      shaping,
				AllowCORS:   true,
				Handler:     restbind.Sync(h.list),
				Description: "List users.",
			},
			{
				Verb:        "POST",
				Schema:      userSchema,
				Handler:     restbind.Sync(h.create),
				Description: "Create a user (admin only).",
			},
			{
				Verb:        "GET",
				Path:        ":id",
				Reject:      shaping,
				AllowCORS:   true,
				Handler:     restbind.Sync(h.get),
				Description: "Show a user.",
			},
			{
				Verb:        "PUT",
				Path:        ":id",
				Schema:      userSchema,
				Handler:     restbind.Sync(h.update),
				Description: "Replace a user (admin or owner).",
			},
			{
				Verb:        "DELETE",
				Path:        ":id",
				Handler:     restbind.Sync(h.delete),
				Description: "Delete a user (admin only).",
			},
			{
				Verb:        "POST",
				Path:        "token",
				Handler:     h.issueToken,
				Description: "Issue a bearer token for the requesting user.",
			},
			{
				Verb:        "GET",
				Path:        "export",
				NoCache:     true,
				Enabled:     "features.export",
				Handler:     h.export,
				Description: "Download all users as CSV (admin only).",
			},
			{
				Verb:        "GET",
				Path:        "search",
				NoAuth:      true,
				Stub:        true,
				Deprecated:  "GET /v1/users",
				Description: "Search users (not implemented).",
			},
		},
	}
}

type handlers struct {
	store    *Store
	services *restbind.Services
}

func (h handlers) list(req *restbind.Request) (interface{}, error) {
	opts := ListOptions{}
	err := mapstructure.WeakDecode(map[string]interface{}{
		"Owner":  req.Filters["owner"],
		"Role":   req.Filters["role"],
		"SortBy": req.Filters["sort"],
		"Offset": req.Filters["offset"],
		"Limit":  req.Filters["limit"],
	}, &opts)
	if err != nil {
		return nil, restbind.ErrValidationFailed.With(err.Error())
	}
	switch opts.SortBy {
	case "", "id", "name", "email":
	default:
		return nil, restbind.ErrValidationFailed.With("cannot sort by %q", opts.SortBy)
	}

	users := h.store.List(opts)
	includeRoles := containsString(req.Include, "roles")
	result := make([]interface{}, len(users))
	for idx, u := range users {
		if !includeRoles {
			u.Roles = nil
		}
		result[idx] = u
	}
	return result, nil
}

func (h handlers) get(req *restbind.Request) (interface{}, error) {
	u, exists := h.store.Get(req.Params["id"])
	if !exists {
		return nil, restbind.ErrNotFound.With("no such user")
	}
	return u, nil
}

type userInput struct {
	Name  string   `mapstructure:"name"`
	Email string   `mapstructure:"email"`
	Roles []string `mapstructure:"roles"`
}

func decodeInput(body interface{}) (userInput, error) {
	var in userInput
	err := mapstructure.Decode(body, &in)
	if err != nil {
		return in, restbind.ErrValidationFailed.With("malformed user: %s", err.Error())
	}
	return in, nil
}

func (h handlers) create(req *restbind.Request) (interface{}, error) {
	if !req.User.HasRole("admin") {
		return nil, forbidden()
	}
	in, err := decodeInput(req.Body)
	if err != nil {
		return nil, err
	}
	if _, exists := h.store.FindByEmail(in.Email); exists {
		return nil, restbind.ErrConflict.With("user with email %s exists already", in.Email)
	}
	return h.store.Create(User{Name: in.Name, Email: in.Email, Roles: in.Roles, Owner: req.User.ID}), nil
}

func (h handlers) update(req *restbind.Request) (interface{}, error) {
	u, exists := h.store.Get(req.Params["id"])
	if !exists {
		return nil, restbind.ErrNotFound.With("no such user")
	}
	if !req.User.HasRole("admin") && u.Owner != req.User.ID {
		return nil, forbidden()
	}
	in, err := decodeInput(req.Body)
	if err != nil {
		return nil, err
	}
	if other, exists := h.store.FindByEmail(in.Email); exists && other.ID != u.ID {
		return nil, restbind.ErrConflict.With("user with email %s exists already", in.Email)
	}
	u.Name, u.Email, u.Roles = in.Name, in.Email, in.Roles
	if !h.store.Update(u) {
		return nil, restbind.ErrNotFound.With("no such user")
	}
	return u, nil
}

func (h handlers) delete(req *restbind.Request) (interface{}, error) {
	if !req.User.HasRole("admin") {
		return nil, forbidden()
	}
	if !h.store.Delete(req.Params["id"]) {
		return nil, restbind.ErrNotFound.With("no such user")
	}
	return nil, nil
}

//issueToken completes through a promise since signing might be slow.
func (h handlers) issueToken(req *restbind.Request, cb restbind.Callback) restbind.Completion {
	iss, ok := restbind.Lookup[*auth.Issuer](h.services, auth.ServiceName)
	if !ok {
		cb(restbind.ErrUnavailable.With("token issuance is not configured"), nil, nil)
		return restbind.Async()
	}
	user := *req.User
	return restbind.Await(restbind.Go(func() (interface{}, error) {
		tokenStr, err := iss.Issue(user)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"token": tokenStr}, nil
	}))
}

func (h handlers) export(req *restbind.Request, cb restbind.Callback) restbind.Completion {
	if !req.User.HasRole("admin") {
		cb(forbidden(), nil, nil)
		return restbind.Async()
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"id", "name", "email", "roles", "owner"})
	for _, u := range h.store.List(ListOptions{}) {
		w.Write([]string{u.ID, u.Name, u.Email, strings.Join(u.Roles, " "), u.Owner})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		cb(fmt.Errorf("cannot render CSV: %s", err.Error()), nil, nil)
		return restbind.Async()
	}

	cb(nil, buf.Bytes(), &restbind.Options{
		IgnoreJSON: true,
		Headers: map[string]string{
			"Content-Type":        "text/csv; charset=utf-8",
			"Content-Disposition": "attachment; filename=users.csv",
		},
	})
	return restbind.Async()
}

func forbidden() error {
	return restbind.ErrorObject{"error": "forbidden", "code": http.StatusForbidden}
}
