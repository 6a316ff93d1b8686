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
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/restbind/internal/filter"
	"github.com/sapcc/restbind/internal/restbind"
	"github.com/sapcc/restbind/internal/transform"
)

//State is the lifecycle state of an Endpoint.
type State int32

//Possible values for State.
const (
	//constructed, no extensions applied yet
	Unbound State = iota
	//extensions are being applied
	Binding
	//accepting traffic; hooks and filters are frozen
	Ready
)

//String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Binding:
		return "binding"
	case Ready:
		return "ready"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

//Environment contains everything that endpoints share within one
//application instance.
type Environment struct {
	Settings *restbind.Settings
	Engine   *transform.Engine
	Events   *restbind.Emitter
	Counters *restbind.Counters
	Services *restbind.Services
}

//Endpoint is a live endpoint built from a Description.
type Endpoint struct {
	noun      string
	verb      string
	path      string
	version   int
	desc      Description
	env       *Environment
	sentinels []string

	filters    *filter.Table
	before     []Hook
	auth       []Hook
	after      []AfterHook
	extensions []string

	state   int32
	handler http.Handler
}

var colonParamRx = regexp.MustCompile(`^:([A-Za-z_][A-Za-z0-9_]*)$`)

//New constructs an endpoint. The returned error describes a configuration
//problem with the description.
func New(noun string, version int, d Description, env *Environment) (*Endpoint, error) {
	verb := strings.ToUpper(d.Verb)
	if !restbind.IsVerb(verb) {
		return nil, fmt.Errorf("endpoint %q of resource %q: unsupported verb %q", d.Path, noun, d.Verb)
	}
	if d.Version != 0 {
		version = d.Version
	}
	if version <= 0 {
		return nil, fmt.Errorf("endpoint %s %q of resource %q: version must be a positive integer, got %d", verb, d.Path, noun, version)
	}
	if d.Handler == nil && !d.isStub() {
		return nil, fmt.Errorf("endpoint %s %q of resource %q: missing handler", verb, d.Path, noun)
	}
	for _, mode := range d.BodyParser {
		if !isBodyParserMode(mode) {
			return nil, fmt.Errorf("endpoint %s %q of resource %q: incorrect body parser mode %q", verb, d.Path, noun, mode)
		}
	}
	if env == nil {
		env = &Environment{}
	}
	if env.Engine == nil {
		env.Engine = transform.NewEngine()
	}

	ep := &Endpoint{
		noun:      noun,
		verb:      verb,
		version:   version,
		desc:      d,
		env:       env,
		filters:   filter.NewTable(),
		sentinels: filter.Sentinels(),
	}
	if env.Settings != nil {
		ep.sentinels = filter.Sentinels(env.Settings.Config.ReplaceMe...)
	}
	ep.path = buildPath(env.Settings, version, noun, d.Path)
	ep.filters.AddAll(d.Filters)

	if d.Screen != nil {
		logg.Info("WARNING: Screen is deprecated (used by %s %s). Use Reject.NoAuth instead.", ep.verb, ep.path)
	}
	return ep, nil
}

//buildPath computes "/[prefix/]v{version}/{noun}/{path}". Path segments of
//the form ":name" are turned into "{name}".
func buildPath(settings *restbind.Settings, version int, noun, path string) string {
	var parts []string
	unversioned := false
	if settings != nil {
		if settings.Config.APIURL.Prefix != "" {
			parts = append(parts, settings.Config.APIURL.Prefix)
		}
		unversioned = settings.Config.APIURL.Unversioned
	}
	if !unversioned {
		parts = append(parts, "v"+strconv.Itoa(version))
	}
	parts = append(parts, strings.Trim(noun, "/"))

	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}
		if m := colonParamRx.FindStringSubmatch(segment); m != nil {
			segment = "{" + m[1] + "}"
		}
		parts = append(parts, segment)
	}
	return "/" + strings.Join(parts, "/")
}

//Noun returns the noun of the resource that this endpoint belongs to.
func (ep *Endpoint) Noun() string { return ep.noun }

//Verb returns the HTTP method of this endpoint.
func (ep *Endpoint) Verb() string { return ep.verb }

//Path returns the absolute route path of this endpoint.
func (ep *Endpoint) Path() string { return ep.path }

//Version returns the API version of this endpoint.
func (ep *Endpoint) Version() int { return ep.version }

//Description returns the description that this endpoint was built from.
func (ep *Endpoint) Description() Description { return ep.desc }

//Environment returns the environment shared with the other endpoints of the
//application.
func (ep *Endpoint) Environment() *Environment { return ep.env }

//Filters returns the filter table. It must not be modified once the endpoint
//is Ready.
func (ep *Endpoint) Filters() *filter.Table { return ep.filters }

//Extensions returns the names of the extensions applied to this endpoint.
func (ep *Endpoint) Extensions() []string {
	return append([]string(nil), ep.extensions...)
}

//State returns the lifecycle state of this endpoint.
func (ep *Endpoint) State() State {
	return State(atomic.LoadInt32(&ep.state))
}

//String implements the fmt.Stringer interface.
func (ep *Endpoint) String() string {
	return ep.verb + " " + ep.path
}

//Activate freezes the hooks and filters and starts accepting traffic.
//Activating a Ready endpoint does nothing.
func (ep *Endpoint) Activate() {
	if ep.State() == Ready {
		return
	}
	ep.handler = ep.buildHandler()
	atomic.StoreInt32(&ep.state, int32(Ready))
}

//ServeHTTP implements the http.Handler interface. Requests that arrive before
//the endpoint is Ready are answered with 503. The endpoint must be served
//through httpapi.Compose(), which collects the request metrics by path.
func (ep *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, ep.path)
	if ep.State() != Ready {
		ep.serve(w, r)
		return
	}
	ep.handler.ServeHTTP(w, r)
}

//Endpoints is a list of endpoints that can be given to httpapi.Compose().
type Endpoints []*Endpoint

//AddTo implements the httpapi.API interface.
func (eps Endpoints) AddTo(r *mux.Router) {
	for _, ep := range eps {
		r.Methods(ep.verb).Path(ep.path).Handler(ep)
	}
}
