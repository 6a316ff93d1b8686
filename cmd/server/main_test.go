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

package servercmd

import (
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/sapcc/go-bits/assert"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/restbind/internal/api"
	"github.com/sapcc/restbind/internal/auth"
	"github.com/sapcc/restbind/internal/restbind"
)

func TestBuildApp(t *testing.T) {
	dir, err := ioutil.TempDir("", "restbind-server-test")
	if err != nil {
		t.Fatal(err.Error())
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "settings.yaml")
	err = ioutil.WriteFile(path, []byte("application: server-test\njwt:\n  secret: server-test-secret\n"), 0644)
	if err != nil {
		t.Fatal(err.Error())
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err.Error())
	}
	a, err := BuildApp(settings)
	if err != nil {
		t.Fatal(err.Error())
	}
	iss, ok := restbind.Lookup[*auth.Issuer](a.Services(), auth.ServiceName)
	if !ok {
		t.Fatal("expected JWT issuer to be registered")
	}
	tokenStr, err := iss.Issue(restbind.User{ID: "root", Roles: []string{"admin"}})
	if err != nil {
		t.Fatal(err.Error())
	}

	handler := api.Handler(a, httpapi.HealthCheckAPI{Check: a.Check}, httpapi.WithoutLogging())
	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/healthcheck",
		ExpectStatus: http.StatusOK,
		ExpectBody:   assert.StringData("ok\n"),
	}.Check(t, handler)
	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/v1/users",
		ExpectStatus: http.StatusUnauthorized,
		ExpectBody:   assert.JSONObject{"error": "no bearer token found in request headers"},
	}.Check(t, handler)
	assert.HTTPRequest{
		Method:       "POST",
		Path:         "/v1/users",
		Header:       map[string]string{"Authorization": "Bearer " + tokenStr},
		Body:         assert.JSONObject{"name": "Alice", "email": "alice@example.com"},
		ExpectStatus: http.StatusOK,
		ExpectBody: assert.JSONObject{
			"id":    "1",
			"name":  "Alice",
			"email": "alice@example.com",
			"roles": nil,
			"owner": "root",
		},
	}.Check(t, handler)
}

func TestBuildAppWithoutJWT(t *testing.T) {
	settings, err := LoadSettings("")
	if err != nil {
		t.Fatal(err.Error())
	}
	a, err := BuildApp(settings)
	if err != nil {
		t.Fatal(err.Error())
	}
	if _, ok := restbind.Lookup[*auth.Issuer](a.Services(), auth.ServiceName); ok {
		t.Error("expected no JWT issuer without jwt.secret")
	}
	//without any authentication extension, the fallback rejects the request
	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/v1/users",
		ExpectStatus: http.StatusUnauthorized,
		ExpectBody:   assert.JSONObject{"error": "authentication required"},
	}.Check(t, api.Compose(a, httpapi.WithoutLogging()))
}
