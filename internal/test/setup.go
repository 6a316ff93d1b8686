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
	"net/http"
	"testing"

	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/osext"
	"github.com/sapcc/restbind/internal/api"
	"github.com/sapcc/restbind/internal/app"
	"github.com/sapcc/restbind/internal/auth"
	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/resource"
	"github.com/sapcc/restbind/internal/restbind"
	"github.com/sapcc/restbind/internal/schema"
)

//the settings used when WithSettings() is not given
const defaultSettings = `
application: restbind-test
jwt:
  secret: unit-test-secret
`

type setupParams struct {
	settingsYAML string
	resources    []func(*app.App) resource.Description
	extensions   []endpoint.Extension
	withoutJWT   bool
}

//SetupOption is an option that can be given to NewSetup().
type SetupOption func(*setupParams)

//WithSettings is a SetupOption that replaces the default settings.
func WithSettings(settingsYAML string) SetupOption {
	return func(p *setupParams) { p.settingsYAML = settingsYAML }
}

//WithResource is a SetupOption that binds a resource.
func WithResource(d resource.Description) SetupOption {
	return WithResourceFor(func(*app.App) resource.Description { return d })
}

//WithResourceFor is a SetupOption that binds a resource which needs
//something from the App, e.g. its service registry.
func WithResourceFor(build func(*app.App) resource.Description) SetupOption {
	return func(p *setupParams) { p.resources = append(p.resources, build) }
}

//WithExtension is a SetupOption that adds an extension. It is applied after
//the test authenticator, the JWT authenticator and the schema validator.
func WithExtension(ext endpoint.Extension) SetupOption {
	return func(p *setupParams) { p.extensions = append(p.extensions, ext) }
}

//WithoutJWT is a SetupOption that only uses the test authenticator.
func WithoutJWT(p *setupParams) {
	p.withoutJWT = true
}

//Setup contains all the pieces that a unit test needs.
type Setup struct {
	App     *app.App
	Handler http.Handler
	//nil when WithoutJWT was given
	Issuer *auth.Issuer
}

//NewSetup builds and activates an App for a unit test. The Handler serves the
//App the same way as the server command does.
func NewSetup(t *testing.T, opts ...SetupOption) Setup {
	t.Helper()
	logg.ShowDebug = osext.GetenvBool("RESTBIND_DEBUG")

	params := setupParams{settingsYAML: defaultSettings}
	for _, opt := range opts {
		opt(&params)
	}

	settings, err := restbind.ParseSettings([]byte(params.settingsYAML))
	if err != nil {
		t.Fatal(err.Error())
	}
	s := Setup{App: app.New(settings)}

	for _, build := range params.resources {
		err := s.App.Bind(build(s.App))
		if err != nil {
			t.Fatal(err.Error())
		}
	}

	extensions := []endpoint.Extension{AuthExtension(!params.withoutJWT)}
	if !params.withoutJWT {
		s.Issuer, err = auth.NewIssuer(settings)
		if err != nil {
			t.Fatal(err.Error())
		}
		extensions = append(extensions, auth.Extension(s.Issuer))
	}
	extensions = append(extensions, schema.NewValidator().Extension())
	for _, ext := range append(extensions, params.extensions...) {
		err := s.App.Use(ext)
		if err != nil {
			t.Fatal(err.Error())
		}
	}

	err = s.App.Activate()
	if err != nil {
		t.Fatal(err.Error())
	}
	s.Handler = api.Compose(s.App, httpapi.WithoutLogging())
	return s
}

//BearerHeaders issues a token for the given user and returns the request
//headers that carry it.
func (s Setup) BearerHeaders(t *testing.T, userID string, roles ...string) map[string]string {
	t.Helper()
	if s.Issuer == nil {
		t.Fatal("BearerHeaders() called on a Setup without JWT authentication")
	}
	tokenStr, err := s.Issuer.Issue(restbind.User{ID: userID, Roles: roles})
	if err != nil {
		t.Fatal(err.Error())
	}
	return map[string]string{"Authorization": "Bearer " + tokenStr}
}
