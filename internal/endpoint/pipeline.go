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
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/restbind/internal/filter"
	"github.com/sapcc/restbind/internal/restbind"
)

func (ep *Endpoint) buildHandler() http.Handler {
	var h http.Handler = http.HandlerFunc(ep.serve)
	if ep.desc.AllowCORS {
		h = newCORS(ep.env.Settings, []string{ep.verb}).Handler(h)
	}
	if ep.env.Settings != nil && ep.env.Settings.Config.TooBusy.Enabled {
		h = tooBusy(ep.env, h)
	}
	for idx := len(ep.desc.Middleware) - 1; idx >= 0; idx-- {
		h = ep.desc.Middleware[idx](h)
	}
	return h
}

//serve runs one request through the pipeline: stub, authentication,
//filtering, before hooks, handler, result shaping, after hooks, response.
func (ep *Endpoint) serve(w http.ResponseWriter, r *http.Request) {
	counters := ep.env.Counters
	if counters != nil {
		counters.RequestStarted()
	}
	rw := newResponder(ep, w, r)

	defer func() {
		if p := recover(); p != nil {
			logg.Error("panic while serving %s: %v\n%s", ep, p, string(debug.Stack()))
			ep.emit(restbind.EventError, restbind.ErrInternal.With("panic: %v", p))
			rw.send(map[string]interface{}{"error": "Internal Server Error"}, &restbind.Options{Code: restbind.StatusInternalServerError})
		}
		rw.finish()
	}()

	if ep.State() != Ready {
		rw.sendError(restbind.ErrUnavailable.With("endpoint %s is not ready", ep), false)
		return
	}

	req := restbind.NewRequest(r, mux.Vars(r))
	if ep.desc.isStub() {
		rw.send(ep.desc.stubPayload(), nil)
		return
	}

	if ep.desc.NoCache {
		setNoCacheHeaders(w.Header())
	}
	if msg := ep.deprecationMessage(); msg != "" {
		w.Header().Set("Warning", msg)
		logg.Info("WARNING: %s", msg)
	}

	err := ep.parseBody(req)
	if err != nil {
		rw.sendError(err, true)
		return
	}

	err = ep.runAuthentication(req)
	if err != nil {
		ep.emitRequest(restbind.EventAuthFailed, req, err)
		rw.sendReturnable(restbind.NormalizeError(err, restbind.StatusAuthenticationFailed))
		return
	}

	err = ep.filters.Resolve(req, ep.env.Engine, ep.sentinels)
	if err != nil {
		rw.sendError(err, true)
		return
	}
	req.Include = filter.Include(req, ep.desc.Include)

	for _, hook := range ep.before {
		err := hook(ep, req)
		if err != nil {
			rw.sendError(err, true)
			return
		}
	}

	outcome, err := restbind.Settle(r.Context(), ep.desc.Handler, req)
	if err != nil {
		//the client went away
		rw.abandon()
		return
	}

	result := ep.shapeResult(req, outcome.Result)
	finalErr := outcome.Err
	for _, hook := range ep.after {
		hookErr := hook(ep, req, result, outcome.Err)
		if finalErr == nil && hookErr != nil {
			finalErr = hookErr
		}
	}
	if finalErr != nil {
		rw.sendError(finalErr, false)
		return
	}
	rw.send(result, outcome.Options)
}

//runAuthentication runs the Authenticate hooks in order; the first failure
//wins. Without any Authenticate hooks, the request must carry a user from
//host middleware.
func (ep *Endpoint) runAuthentication(req *restbind.Request) error {
	if ep.desc.NoAuth {
		return nil
	}
	if len(ep.auth) == 0 {
		if req.User == nil {
			return restbind.ErrAuthenticationFailed.With("authentication required")
		}
		return nil
	}
	for _, hook := range ep.auth {
		err := hook(ep, req)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ep *Endpoint) deprecationMessage() string {
	switch d := ep.desc.Deprecated.(type) {
	case string:
		if d != "" {
			return "Endpoint " + ep.String() + " is deprecated, use " + d + " instead"
		}
	case bool:
		if d {
			return "Endpoint " + ep.String() + " is deprecated."
		}
	}
	return ""
}

func (ep *Endpoint) emit(name restbind.EventName, err error) {
	ep.env.Events.Emit(restbind.Event{Name: name, Err: err, Verb: ep.verb, Path: ep.path})
}

func (ep *Endpoint) emitRequest(name restbind.EventName, req *restbind.Request, err error) {
	ep.env.Events.Emit(restbind.Event{Name: name, Err: err, Verb: ep.verb, Path: req.URL.Path})
}
