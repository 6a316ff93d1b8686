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

package resource

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/respondwith"
	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/restbind"
)

//Description declares a resource: a noun with a version and a list of
//endpoints below it.
type Description struct {
	Noun      string
	Version   int
	Endpoints []endpoint.Description
}

var nounRx = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

//Registrar owns all endpoints of an application, keyed by path and verb.
type Registrar struct {
	env *endpoint.Environment

	mutex     sync.RWMutex
	routes    map[string]map[string]*endpoint.Endpoint //path -> verb -> endpoint
	paths     []string                                 //in order of binding
	endpoints []*endpoint.Endpoint                     //in order of binding
	skipped   int
}

//NewRegistrar creates an empty Registrar whose endpoints share the given
//environment.
func NewRegistrar(env *endpoint.Environment) *Registrar {
	if env == nil {
		env = &endpoint.Environment{}
	}
	return &Registrar{
		env:    env,
		routes: make(map[string]map[string]*endpoint.Endpoint),
	}
}

//Bind constructs the endpoints of a resource and registers them. Endpoints
//whose Enabled/Disabled conditions do not hold are skipped. Binding a second
//endpoint for the same path and verb is an error. When an error is returned,
//no endpoint of this resource was registered.
func (r *Registrar) Bind(d Description) error {
	noun := strings.Trim(d.Noun, "/")
	if !nounRx.MatchString(noun) {
		return fmt.Errorf("invalid resource noun %q", d.Noun)
	}
	if d.Version <= 0 {
		return fmt.Errorf("resource %q: version must be a positive integer, got %d", noun, d.Version)
	}

	settings := r.env.Settings
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var (
		bound   []*endpoint.Endpoint
		seen    = make(map[string]bool)
		skipped int
	)
	for _, epd := range d.Endpoints {
		if !endpoint.CheckEnabled(epd, settings) {
			logg.Info("skipping disabled endpoint %s %q of resource %q", epd.Verb, epd.Path, noun)
			skipped++
			continue
		}
		ep, err := endpoint.New(noun, d.Version, epd, r.env)
		if err != nil {
			return err
		}
		key := ep.Verb() + " " + ep.Path()
		if seen[key] || r.routes[ep.Path()][ep.Verb()] != nil {
			return fmt.Errorf("resource %q: endpoint %s is bound more than once", noun, key)
		}
		seen[key] = true
		bound = append(bound, ep)
	}

	for _, ep := range bound {
		verbs, exists := r.routes[ep.Path()]
		if !exists {
			verbs = make(map[string]*endpoint.Endpoint)
			r.routes[ep.Path()] = verbs
			r.paths = append(r.paths, ep.Path())
		}
		verbs[ep.Verb()] = ep
		r.endpoints = append(r.endpoints, ep)
		logg.Debug("bound endpoint %s", ep)
	}
	r.skipped += skipped
	return nil
}

//Endpoints returns all bound endpoints in order of binding.
func (r *Registrar) Endpoints() []*endpoint.Endpoint {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]*endpoint.Endpoint(nil), r.endpoints...)
}

//Lookup finds the endpoint for the given route path and verb.
func (r *Registrar) Lookup(path, verb string) (*endpoint.Endpoint, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	ep, exists := r.routes[path][strings.ToUpper(verb)]
	return ep, exists
}

//Skipped returns how many endpoints were not bound because they were disabled.
func (r *Registrar) Skipped() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.skipped
}

//Use applies an extension to every bound endpoint.
func (r *Registrar) Use(ext endpoint.Extension) error {
	for _, ep := range r.Endpoints() {
		err := ep.Use(ext)
		if err != nil {
			return err
		}
	}
	return nil
}

//Activate makes all bound endpoints Ready.
func (r *Registrar) Activate() {
	for _, ep := range r.Endpoints() {
		ep.Activate()
	}
}

//SupportedVerbs returns the verbs served on the given path, in the order of
//restbind.Verbs. OPTIONS is included when a CORS preflight handler exists
//for the path.
func (r *Registrar) SupportedVerbs(path string) []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.supportedVerbs(path)
}

func (r *Registrar) supportedVerbs(path string) []string {
	verbs := r.routes[path]
	var result []string
	for _, verb := range restbind.Verbs {
		if verbs[verb] != nil || (verb == http.MethodOptions && r.needsPreflight(path)) {
			result = append(result, verb)
		}
	}
	return result
}

//needsPreflight is true if an endpoint on this path allows CORS and no
//endpoint handles OPTIONS itself.
func (r *Registrar) needsPreflight(path string) bool {
	verbs := r.routes[path]
	if verbs[http.MethodOptions] != nil {
		return false
	}
	for _, ep := range verbs {
		if ep.Description().AllowCORS {
			return true
		}
	}
	return false
}

//AddTo adds routes for all bound endpoints to the given router. For every
//path, the verbs that are not served are answered with 405 and an "Allow"
//header listing the supported verbs. Paths with fewer variables are added
//first, so "/v1/users/export" takes precedence over "/v1/users/{id}".
func (r *Registrar) AddTo(router *mux.Router) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	paths := append([]string(nil), r.paths...)
	sort.SliceStable(paths, func(i, j int) bool {
		return strings.Count(paths[i], "{") < strings.Count(paths[j], "{")
	})

	for _, path := range paths {
		verbs := r.routes[path]
		for _, verb := range sortedVerbs(verbs) {
			router.Methods(verb).Path(path).Handler(verbs[verb])
		}

		supported := r.supportedVerbs(path)
		if r.needsPreflight(path) {
			var methods []string
			for _, verb := range supported {
				if verb != http.MethodOptions {
					methods = append(methods, verb)
				}
			}
			router.Methods(http.MethodOptions).Path(path).Handler(endpoint.PreflightHandler(r.env.Settings, methods))
		}

		var stray []string
		for _, verb := range restbind.Verbs {
			if !containsString(supported, verb) {
				stray = append(stray, verb)
			}
		}
		if len(stray) > 0 {
			router.Methods(stray...).Path(path).Handler(methodNotAllowed(supported))
		}
	}
}

func methodNotAllowed(supported []string) http.Handler {
	allow := strings.Join(supported, ",")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		respondwith.JSON(w, restbind.StatusMethodNotSupported, map[string]interface{}{
			"error": fmt.Sprintf("method %s is not supported on %s", r.Method, r.URL.Path),
		})
	})
}

func sortedVerbs(verbs map[string]*endpoint.Endpoint) []string {
	result := make([]string, 0, len(verbs))
	for verb := range verbs {
		result = append(result, verb)
	}
	sort.Strings(result)
	return result
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
