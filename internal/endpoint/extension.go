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
	"sync/atomic"

	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/restbind/internal/filter"
	"github.com/sapcc/restbind/internal/restbind"
)

//Hook is a BeforeHandler or Authenticate hook. A non-nil error response
//short-circuits the request.
type Hook func(ep *Endpoint, req *restbind.Request) error

//AfterHook is an AfterHandler hook. It sees the shaped result and the
//handler error (if any). Its own error only becomes the response if the
//handler did not fail.
type AfterHook func(ep *Endpoint, req *restbind.Request, result interface{}, err error) error

//Hooks is the per-endpoint part of an Extension.
type Hooks struct {
	BeforeHandler Hook
	Authenticate  Hook
	AfterHandler  AfterHook
	//runs once for each endpoint, while the extension is applied to it
	Init func(ep *Endpoint) error
}

//Extension adds behavior to all endpoints of an application.
type Extension struct {
	Name string
	//runs once, before the extension is applied to any endpoint
	Init func(env *Environment) error
	//may be nil
	Endpoint *Hooks
	//merged into the filter table of each endpoint
	Filters map[string]filter.Filter
	//registered in Environment.Services when the extension is initialized
	Services map[string]interface{}
}

//Use applies an extension to this endpoint. Hooks run in the order in which
//extensions were applied. Extensions cannot be applied to a Ready endpoint.
func (ep *Endpoint) Use(ext Extension) error {
	if !atomic.CompareAndSwapInt32(&ep.state, int32(Unbound), int32(Binding)) && ep.State() != Binding {
		return fmt.Errorf("cannot apply extension %q to %s: endpoint is already %s", ext.Name, ep, ep.State())
	}

	if h := ext.Endpoint; h != nil {
		if h.BeforeHandler != nil {
			ep.before = append(ep.before, h.BeforeHandler)
		}
		if h.Authenticate != nil {
			ep.auth = append(ep.auth, h.Authenticate)
		}
		if h.AfterHandler != nil {
			ep.after = append(ep.after, h.AfterHandler)
		}
		if h.Init != nil {
			err := h.Init(ep)
			if err != nil {
				return fmt.Errorf("cannot initialize extension %q for %s: %s", ext.Name, ep, err.Error())
			}
		}
	}

	ep.filters.AddAll(ext.Filters)
	ep.extensions = append(ep.extensions, ext.Name)
	logg.Debug("applied extension %q to %s", ext.Name, ep)
	return nil
}
