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

package auth

import (
	"net/http"
	"reflect"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/sapcc/go-bits/assert"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/restbind"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	settings, err := restbind.ParseSettings([]byte("jwt:\n  secret: correct-horse-battery-staple\n  user_id_claim: uid\n"))
	if err != nil {
		t.Fatal(err.Error())
	}
	iss, err := NewIssuer(settings)
	if err != nil {
		t.Fatal(err.Error())
	}
	return iss
}

func TestIssueAndParse(t *testing.T) {
	iss := newTestIssuer(t)
	tokenStr, err := iss.Issue(restbind.User{
		ID:     "alice",
		Roles:  []string{"admin", "auditor"},
		Fields: map[string]interface{}{"email": "alice@example.com"},
	})
	if err != nil {
		t.Fatal(err.Error())
	}

	u, rerr := iss.Parse(tokenStr)
	if rerr != nil {
		t.Fatal(rerr.Error())
	}
	expected := &restbind.User{
		ID:     "alice",
		Roles:  []string{"admin", "auditor"},
		Fields: map[string]interface{}{"email": "alice@example.com"},
	}
	if !reflect.DeepEqual(u, expected) {
		t.Errorf("expected user %#v, got %#v", expected, u)
	}
}

func TestInvalidTokens(t *testing.T) {
	iss := newTestIssuer(t)
	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
		tokenStr, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err.Error())
		}
		return tokenStr
	}
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	testCases := map[string]string{
		"garbage":         "not-a-token",
		"wrong secret":    sign(jwt.SigningMethodHS256, []byte("wrong"), jwt.MapClaims{"uid": "alice", "exp": future}),
		"wrong algorithm": sign(jwt.SigningMethodHS512, iss.Secret, jwt.MapClaims{"uid": "alice", "exp": future}),
		"expired":         sign(jwt.SigningMethodHS256, iss.Secret, jwt.MapClaims{"uid": "alice", "exp": past}),
		"no expiry":       sign(jwt.SigningMethodHS256, iss.Secret, jwt.MapClaims{"uid": "alice"}),
		"no user":         sign(jwt.SigningMethodHS256, iss.Secret, jwt.MapClaims{"sub": "alice", "exp": future}),
		"bad roles":       sign(jwt.SigningMethodHS256, iss.Secret, jwt.MapClaims{"uid": "alice", "exp": future, "roles": 42}),
	}
	for desc, tokenStr := range testCases {
		u, rerr := iss.Parse(tokenStr)
		if rerr == nil {
			t.Errorf("%s: expected error, got user %#v", desc, u)
			continue
		}
		if rerr.Code != restbind.ErrAuthenticationFailed {
			t.Errorf("%s: expected error code 401, got %d", desc, rerr.Code)
		}
	}
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles("admin, auditor,,")
	if err != nil {
		t.Fatal(err.Error())
	}
	if !reflect.DeepEqual(roles, []string{"admin", "auditor"}) {
		t.Errorf("unexpected roles: %#v", roles)
	}
	_, err = parseRoles([]interface{}{"admin", 1})
	if err == nil {
		t.Error("expected error for non-string role")
	}
}

func TestMissingSecret(t *testing.T) {
	settings, _ := restbind.NewSettings(nil)
	_, err := NewIssuer(settings)
	if err == nil {
		t.Error("expected error for missing jwt.secret")
	}
}

func TestExtension(t *testing.T) {
	iss := newTestIssuer(t)
	ep, err := endpoint.New("profile", 1, endpoint.Description{
		Verb: "GET",
		Handler: restbind.Sync(func(req *restbind.Request) (interface{}, error) {
			return map[string]interface{}{"id": req.User.ID, "roles": req.User.Roles}, nil
		}),
	}, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	err = ep.Use(Extension(iss))
	if err != nil {
		t.Fatal(err.Error())
	}
	ep.Activate()
	r := httpapi.Compose(endpoint.Endpoints{ep}, httpapi.WithoutLogging())

	tokenStr, err := iss.Issue(restbind.User{ID: "bob", Roles: []string{"member"}})
	if err != nil {
		t.Fatal(err.Error())
	}

	forgedTokenStr, err := (&Issuer{Secret: []byte("guessed"), UserIDClaim: "uid", RolesClaim: "roles"}).
		Issue(restbind.User{ID: "bob", Roles: []string{"admin"}})
	if err != nil {
		t.Fatal(err.Error())
	}

	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/v1/profile",
		Header:       map[string]string{"Authorization": "Bearer " + tokenStr},
		ExpectStatus: http.StatusOK,
		ExpectBody:   assert.JSONObject{"id": "bob", "roles": []interface{}{"member"}},
	}.Check(t, r)
	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/v1/profile",
		ExpectStatus: http.StatusUnauthorized,
		ExpectBody:   assert.JSONObject{"error": "no bearer token found in request headers"},
	}.Check(t, r)
	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/v1/profile",
		Header:       map[string]string{"Authorization": "Bearer " + forgedTokenStr},
		ExpectStatus: http.StatusUnauthorized,
		ExpectBody:   assert.JSONObject{"error": "signature is invalid"},
	}.Check(t, r)
}
