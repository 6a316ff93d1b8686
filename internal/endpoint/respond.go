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
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/respondwith"
	"github.com/sapcc/restbind/internal/restbind"
)

//placeholder for handlers that succeed without a result
var okResult = map[string]interface{}{"result": "ok"}

//responder makes sure that a request is answered exactly once.
type responder struct {
	ep *Endpoint
	w  http.ResponseWriter
	r  *http.Request

	mutex     sync.Mutex
	responded bool
	finished  bool
}

func newResponder(ep *Endpoint, w http.ResponseWriter, r *http.Request) *responder {
	return &responder{ep: ep, w: w, r: r}
}

//claim returns true for the first caller only. Later callers are reported as
//an error.
func (rw *responder) claim() bool {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()
	if rw.responded {
		err := fmt.Errorf("attempted to respond twice to %s %s", rw.r.Method, rw.r.URL.Path)
		logg.Error(err.Error())
		rw.ep.emit(restbind.EventError, err)
		return false
	}
	rw.responded = true
	return true
}

//abandon marks the request as answered without writing anything.
func (rw *responder) abandon() {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()
	rw.responded = true
}

//finish updates the counters once the request leaves the pipeline.
func (rw *responder) finish() {
	rw.mutex.Lock()
	defer rw.mutex.Unlock()
	if rw.finished {
		return
	}
	rw.finished = true
	if rw.ep.env.Counters != nil {
		rw.ep.env.Counters.RequestFinished()
	}
}

//sendError normalizes the error and sends it. When verbose is set, the error
//is also logged. Every error is emitted as EventError.
func (rw *responder) sendError(err error, verbose bool) {
	ret := restbind.NormalizeError(err, restbind.StatusInternalServerError)
	if verbose || ret.Code >= 500 {
		if ret.Code >= 500 {
			logg.Error("%s: %s", rw.ep, err.Error())
		} else {
			logg.Debug("%s: %s", rw.ep, err.Error())
		}
	}
	rw.ep.emit(restbind.EventError, err)
	rw.sendReturnable(ret)
}

func (rw *responder) sendReturnable(ret restbind.Returnable) {
	rw.send(ret.Body, &restbind.Options{Code: ret.Code})
}

//send writes the response according to the given options.
func (rw *responder) send(data interface{}, opts *restbind.Options) {
	if !rw.claim() {
		return
	}
	if opts == nil {
		opts = &restbind.Options{}
	}
	code := opts.Code
	if code == 0 {
		code = restbind.StatusOK
	}

	w := rw.w
	for key, value := range opts.Headers {
		w.Header().Set(key, value)
	}
	for _, cookie := range opts.Cookies {
		http.SetCookie(w, cookie)
	}

	switch {
	case opts.File != "":
		rw.sendFile(code, opts)
	case opts.Redirect != "":
		if code < 300 || code >= 400 {
			code = http.StatusFound
		}
		http.Redirect(w, rw.r, opts.Redirect, code)
	case opts.IgnoreJSON:
		sendRaw(w, code, data)
	default:
		if data == nil {
			data = okResult
		}
		respondwith.JSON(w, code, data)
	}
}

//sendRaw writes strings and byte slices as-is. Other payloads are still
//encoded as JSON.
func sendRaw(w http.ResponseWriter, code int, data interface{}) {
	var buf []byte
	switch data := data.(type) {
	case nil:
	case []byte:
		buf = data
	case string:
		buf = []byte(data)
	default:
		respondwith.JSON(w, code, data)
		return
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(code)
	w.Write(buf)
}

func (rw *responder) sendFile(code int, opts *restbind.Options) {
	w := rw.w
	headerWritten := false
	err := func() error {
		f, err := os.Open(opts.File)
		if err != nil {
			return err
		}
		defer f.Close()

		fileName := opts.FileName
		if fileName == "" {
			fileName = filepath.Base(opts.File)
		}
		if opts.AutoMime {
			if mimeType := mime.TypeByExtension(filepath.Ext(opts.File)); mimeType != "" {
				w.Header().Set("Content-Type", mimeType)
			}
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		w.WriteHeader(code)
		headerWritten = true
		_, err = io.Copy(w, f)
		return err
	}()

	switch {
	case err != nil:
		logg.Error("cannot send file %s for %s: %s", opts.File, rw.ep, err.Error())
		if !headerWritten {
			status := restbind.StatusInternalServerError
			if os.IsNotExist(err) {
				status = restbind.StatusNotFound
			}
			respondwith.JSON(w, status, map[string]interface{}{"error": http.StatusText(status)})
		}
	case opts.AutoUnlink:
		err = os.Remove(opts.File)
		if err != nil {
			logg.Error("cannot remove file %s after sending it: %s", opts.File, err.Error())
		}
	}
	if opts.FileCallback != nil {
		opts.FileCallback(err)
	}
}
