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
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/httpext"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/resource"
	"github.com/sapcc/restbind/internal/restbind"
	"github.com/sapcc/restbind/internal/transform"
)

//App is one application instance. It owns the registrar with all bound
//endpoints, the application-wide extensions, and everything that the
//endpoints share (settings, event bus, counters, services).
type App struct {
	env        *endpoint.Environment
	registrar  *resource.Registrar
	extensions []endpoint.Extension

	mutex  sync.Mutex
	active bool
}

//New creates an application instance. Extra transformers are appended to the
//builtin transformers of the filter engine.
func New(settings *restbind.Settings, extraTransformers ...transform.Transformer) *App {
	if settings == nil {
		settings, _ = restbind.NewSettings(nil)
	}
	events := &restbind.Emitter{}
	env := &endpoint.Environment{
		Settings: settings,
		Engine:   transform.NewEngine(extraTransformers...),
		Events:   events,
		Counters: restbind.NewCounters(settings.Config.Application, events, settings.Config.CounterEvents()),
		Services: &restbind.Services{},
	}
	return &App{
		env:       env,
		registrar: resource.NewRegistrar(env),
	}
}

//Settings returns the settings of this application.
func (a *App) Settings() *restbind.Settings { return a.env.Settings }

//Environment returns the environment shared by all endpoints.
func (a *App) Environment() *endpoint.Environment { return a.env }

//Services returns the service registry of this application.
func (a *App) Services() *restbind.Services { return a.env.Services }

//Counters returns the request counters of this application.
func (a *App) Counters() *restbind.Counters { return a.env.Counters }

//Registrar returns the registrar that owns all bound endpoints.
func (a *App) Registrar() *resource.Registrar { return a.registrar }

//On registers a listener on the event bus of this application.
func (a *App) On(name restbind.EventName, l restbind.Listener) {
	a.env.Events.On(name, l)
}

//Use adds an extension to all endpoints of this application. Extensions are
//applied in the order of Use() calls when the application is activated.
func (a *App) Use(ext endpoint.Extension) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.active {
		return fmt.Errorf("cannot use extension %q: application is already active", ext.Name)
	}
	a.extensions = append(a.extensions, ext)
	return nil
}

//Bind binds a resource. All resources must be bound before Activate().
func (a *App) Bind(d resource.Description) error {
	a.mutex.Lock()
	active := a.active
	a.mutex.Unlock()
	if active {
		return fmt.Errorf("cannot bind resource %q: application is already active", d.Noun)
	}
	return a.registrar.Bind(d)
}

//Activate initializes all extensions, applies them to all endpoints, and
//makes the endpoints Ready. Any error is fatal for the application.
func (a *App) Activate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.active {
		return nil
	}

	for _, ext := range a.extensions {
		for name, svc := range ext.Services {
			err := a.env.Services.Register(name, svc)
			if err != nil {
				return fmt.Errorf("cannot initialize extension %q: %s", ext.Name, err.Error())
			}
		}
		if ext.Init != nil {
			err := ext.Init(a.env)
			if err != nil {
				return fmt.Errorf("cannot initialize extension %q: %s", ext.Name, err.Error())
			}
		}
		err := a.registrar.Use(ext)
		if err != nil {
			return err
		}
	}
	a.env.Events.Emit(restbind.Event{Name: restbind.EventExtensionsLoaded})

	a.registrar.Activate()
	a.active = true
	logg.Info("%s is ready with %d endpoints (%d disabled)",
		a.env.Settings.Config.Application, len(a.registrar.Endpoints()), a.registrar.Skipped())
	a.env.Events.Emit(restbind.Event{Name: restbind.EventReady})
	return nil
}

//AddTo implements the httpapi.API interface. The routes of all bound endpoints are
//added to the given router.
func (a *App) AddTo(r *mux.Router) {
	a.registrar.AddTo(r)
}

//Handler returns an http.Handler serving all bound endpoints, plus the given
//extra APIs.
func (a *App) Handler(extra ...httpapi.API) http.Handler {
	return httpapi.Compose(append([]httpapi.API{a}, extra...)...)
}

//Check returns an error until the application has been activated. It is
//meant for httpapi.HealthCheckAPI.
func (a *App) Check() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if !a.active {
		return fmt.Errorf("%s is not active yet", a.env.Settings.Config.Application)
	}
	return nil
}

//ListenAndServe serves the given handler until ctx expires or SIGINT is
//received. The shutdown begins 10 seconds after SIGINT. The "closing" event
//is emitted when the shutdown begins, the "closed" event after the server has
//stopped.
func (a *App) ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	ctx = httpext.ContextWithSIGINT(ctx, 10*time.Second)
	go func() {
		<-ctx.Done()
		a.env.Events.Emit(restbind.Event{Name: restbind.EventClosing})
	}()

	logg.Info("listening on %s", addr)
	err := httpext.ListenAndServeContext(ctx, addr, handler)
	a.env.Events.Emit(restbind.Event{Name: restbind.EventClosed, Err: err})
	return err
}
