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

package app

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/sapcc/go-bits/assert"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/resource"
	"github.com/sapcc/restbind/internal/restbind"
)

type greeter struct {
	greeting string
}

func (g greeter) greet(name string) string {
	return g.greeting + ", " + name
}

var greetings = resource.Description{
	Noun:    "greetings",
	Version: 1,
	Endpoints: []endpoint.Description{{
		Verb: "GET",
		Path: ":name",
		Handler: restbind.Sync(func(req *restbind.Request) (interface{}, error) {
			svc, ok := req.Field("greeter")
			if !ok {
				return nil, restbind.ErrInternal.With("no greeter")
			}
			return map[string]interface{}{
				"message": svc.(greeter).greet(req.Params["name"]),
				"user":    req.User.ID,
			}, nil
		}),
	}},
}

func TestActivateAndServe(t *testing.T) {
	settings, err := restbind.ParseSettings([]byte("application: app-test\n"))
	if err != nil {
		t.Fatal(err.Error())
	}
	a := New(settings)

	var events []restbind.EventName
	recordEvent := func(ev restbind.Event) { events = append(events, ev.Name) }
	a.On(restbind.EventExtensionsLoaded, recordEvent)
	a.On(restbind.EventReady, recordEvent)

	err = a.Bind(greetings)
	if err != nil {
		t.Fatal(err.Error())
	}

	initCalls := 0
	err = a.Use(endpoint.Extension{
		Name:     "greeter",
		Services: map[string]interface{}{"greeter": greeter{"Hello"}},
		Init: func(env *endpoint.Environment) error {
			initCalls++
			return nil
		},
		Endpoint: &endpoint.Hooks{
			Authenticate: func(ep *endpoint.Endpoint, req *restbind.Request) error {
				req.User = &restbind.User{ID: "tester"}
				return nil
			},
			BeforeHandler: func(ep *endpoint.Endpoint, req *restbind.Request) error {
				svc, ok := restbind.Lookup[greeter](ep.Environment().Services, "greeter")
				if !ok {
					return errors.New("greeter service is missing")
				}
				req.Detach("greeter", svc)
				return nil
			},
		},
	})
	if err != nil {
		t.Fatal(err.Error())
	}

	err = a.Activate()
	if err != nil {
		t.Fatal(err.Error())
	}
	if initCalls != 1 {
		t.Errorf("expected extension Init() to be called once, got %d calls", initCalls)
	}
	expectedEvents := []restbind.EventName{restbind.EventExtensionsLoaded, restbind.EventReady}
	if !reflect.DeepEqual(events, expectedEvents) {
		t.Errorf("expected events %v, got %v", expectedEvents, events)
	}

	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/v1/greetings/world",
		ExpectStatus: http.StatusOK,
		ExpectBody:   assert.JSONObject{"message": "Hello, world", "user": "tester"},
	}.Check(t, a.Handler(httpapi.WithoutLogging()))

	if n := a.Counters().Get(restbind.CounterOut); n != 1 {
		t.Errorf("expected 1 finished request, got %d", n)
	}

	//the application is frozen now
	if err := a.Use(endpoint.Extension{Name: "late"}); err == nil {
		t.Error("expected Use() after Activate() to fail")
	}
	if err := a.Bind(resource.Description{Noun: "late", Version: 1}); err == nil {
		t.Error("expected Bind() after Activate() to fail")
	}
}

func TestExtensionInitFailure(t *testing.T) {
	a := New(nil)
	err := a.Bind(greetings)
	if err != nil {
		t.Fatal(err.Error())
	}
	err = a.Use(endpoint.Extension{
		Name: "database",
		Init: func(env *endpoint.Environment) error {
			return errors.New("connection refused")
		},
	})
	if err != nil {
		t.Fatal(err.Error())
	}

	readyEmitted := false
	a.On(restbind.EventReady, func(restbind.Event) { readyEmitted = true })

	err = a.Activate()
	if err == nil || !strings.Contains(err.Error(), `extension "database"`) {
		t.Errorf("expected extension init error, got %#v", err)
	}
	if readyEmitted {
		t.Error("expected no ready event after failed activation")
	}
}

func TestDuplicateServices(t *testing.T) {
	a := New(nil)
	for _, name := range []string{"first", "second"} {
		err := a.Use(endpoint.Extension{
			Name:     name,
			Services: map[string]interface{}{"mailer": name},
		})
		if err != nil {
			t.Fatal(err.Error())
		}
	}
	err := a.Activate()
	if err == nil || !strings.Contains(err.Error(), `extension "second"`) {
		t.Errorf("expected duplicate service error, got %#v", err)
	}
	svc, _ := restbind.Lookup[string](a.Services(), "mailer")
	if svc != "first" {
		t.Errorf(`expected mailer service to be "first", got %q`, svc)
	}
}

func TestHealthCheck(t *testing.T) {
	a := New(nil)
	h := a.Handler(httpapi.HealthCheckAPI{Check: a.Check}, httpapi.WithoutLogging())
	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/healthcheck",
		ExpectStatus: http.StatusInternalServerError,
		ExpectBody:   assert.StringData("restbind is not active yet\n"),
	}.Check(t, h)

	err := a.Activate()
	if err != nil {
		t.Fatal(err.Error())
	}
	assert.HTTPRequest{
		Method:       "GET",
		Path:         "/healthcheck",
		ExpectStatus: http.StatusOK,
		ExpectBody:   assert.StringData("ok\n"),
	}.Check(t, h)
}
