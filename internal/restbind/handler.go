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

package restbind

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sapcc/go-bits/logg"
)

//Options are the response options that a handler may supply together with its
//result.
type Options struct {
	//status code of the response (default 200)
	Code    int
	Headers map[string]string
	Cookies []*http.Cookie

	//when File is set, the file at that path is sent as a download
	File         string
	FileName     string //default: basename of File
	AutoMime     bool   //set Content-Type from the file extension
	AutoUnlink   bool   //remove File after it was sent
	FileCallback func(err error)

	//when Redirect is set, a redirect to that location is sent instead
	Redirect string

	//when IgnoreJSON is set, string and []byte results are written as-is
	//(other results are encoded as JSON anyway)
	IgnoreJSON bool
}

//Callback is how a handler reports its outcome. It may be called from any
//goroutine, but only the first call has any effect.
type Callback func(err error, result interface{}, opts *Options)

//Handler is the business logic of an endpoint. It completes either by calling
//the callback (and returning Async() or nil), or by returning Await(promise).
type Handler func(req *Request, cb Callback) Completion

//Completion tells how a Handler will deliver its outcome.
type Completion interface {
	promise() *Promise
}

type callbackCompletion struct{}

func (callbackCompletion) promise() *Promise { return nil }

type promiseCompletion struct {
	p *Promise
}

func (c promiseCompletion) promise() *Promise { return c.p }

//Async is the Completion of a handler that calls its callback.
func Async() Completion {
	return callbackCompletion{}
}

//Await is the Completion of a handler that settles the given promise.
func Await(p *Promise) Completion {
	return promiseCompletion{p}
}

//Outcome is the settled result of a handler.
type Outcome struct {
	Err     error
	Result  interface{}
	Options *Options
}

//Promise is a single-assignment container for an Outcome.
type Promise struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

//NewPromise returns an unsettled promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

//Go runs the given function on a new goroutine and returns a promise for its
//result. A panic in the function rejects the promise with a 500 error.
func Go(fn func() (interface{}, error)) *Promise {
	p := NewPromise()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logg.Error("panic in promise: %v\n%s", r, debug.Stack())
				p.Reject(ErrInternal.With("Internal Server Error"))
			}
		}()
		result, err := fn()
		if err != nil {
			p.Reject(err)
		} else {
			p.Resolve(result)
		}
	}()
	return p
}

//Resolve settles the promise with a result. It returns false if the promise
//was already settled.
func (p *Promise) Resolve(result interface{}) bool {
	return p.settle(Outcome{Result: result})
}

//ResolveWith is like Resolve, but also supplies response options.
func (p *Promise) ResolveWith(result interface{}, opts *Options) bool {
	return p.settle(Outcome{Result: result, Options: opts})
}

//Reject settles the promise with an error. The reason may be any of the
//shapes accepted by ToError.
func (p *Promise) Reject(reason interface{}) bool {
	err := ToError(reason)
	if err == nil {
		err = ErrInternal.With("Unexpected error format")
	}
	return p.settle(Outcome{Err: err})
}

func (p *Promise) settle(o Outcome) (settled bool) {
	p.once.Do(func() {
		p.outcome = o
		close(p.done)
		settled = true
	})
	return settled
}

//Done returns a channel that is closed once the promise is settled.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

//Outcome returns the outcome of a settled promise. It must only be called
//after Done() was closed.
func (p *Promise) Outcome() Outcome {
	return p.outcome
}

//Sync adapts a plain blocking function into a Handler.
func Sync(fn func(req *Request) (interface{}, error)) Handler {
	return func(req *Request, cb Callback) Completion {
		result, err := fn(req)
		cb(err, result, nil)
		return Async()
	}
}

//FromPromise adapts a function returning a promise into a Handler.
func FromPromise(fn func(req *Request) *Promise) Handler {
	return func(req *Request, cb Callback) Completion {
		return Await(fn(req))
	}
}

//Settle runs the handler and waits for its first completion, or until ctx
//expires. Completions after the first one are logged and dropped.
func Settle(ctx context.Context, h Handler, req *Request) (Outcome, error) {
	var (
		settled int32
		result  = make(chan Outcome, 1)
	)
	complete := func(o Outcome, source string) {
		if !atomic.CompareAndSwapInt32(&settled, 0, 1) {
			logg.Error("handler for %s %s completed more than once (ignoring %s)",
				req.Method, req.URL.Path, source)
			return
		}
		result <- o
	}

	cb := func(err error, res interface{}, opts *Options) {
		complete(Outcome{Err: err, Result: res, Options: opts}, "callback")
	}

	//a nil Completion means the same as Async()
	c := h(req, cb)
	if pc, ok := c.(promiseCompletion); ok && pc.p == nil {
		logg.Error("handler for %s %s returned Await(nil)", req.Method, req.URL.Path)
		complete(Outcome{Err: ErrInternal.With("Internal Server Error")}, "promise")
	} else if c != nil {
		if p := c.promise(); p != nil {
			select {
			case <-p.Done():
				complete(p.Outcome(), "promise")
			default:
				go func() {
					select {
					case <-p.Done():
						complete(p.Outcome(), "promise")
					case <-ctx.Done():
					}
				}()
			}
		}
	}

	select {
	case o := <-result:
		return o, nil
	case <-ctx.Done():
		logg.Info("abandoned wait for handler of %s %s: %s", req.Method, req.URL.Path, ctx.Err().Error())
		return Outcome{}, ctx.Err()
	}
}
