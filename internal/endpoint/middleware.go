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
	"bytes"
	"encoding/json"
	"io/ioutil"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/cors"
	"github.com/sapcc/restbind/internal/restbind"
)

func setNoCacheHeaders(h http.Header) {
	h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	h.Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	h.Set("Expires", "-1")
	h.Set("Pragma", "no-cache")
}

//tooBusy rejects requests with 429 while too many requests are in process.
func tooBusy(env *Environment, next http.Handler) http.Handler {
	cfg := env.Settings.Config
	msg := cfg.Application + " is too busy to reply"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.Counters != nil && env.Counters.Get(restbind.CounterProcess) >= cfg.TooBusy.MaxInFlight {
			http.Error(w, msg, restbind.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

//CORSOptions returns the CORS configuration for a set of methods on one path.
func CORSOptions(settings *restbind.Settings, methods []string) cors.Options {
	origins := []string{"*"}
	if settings != nil && len(settings.Config.CORS.AllowedOrigins) > 0 {
		origins = settings.Config.CORS.AllowedOrigins
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: append(append([]string(nil), methods...), "OPTIONS"),
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-Id"},
		ExposedHeaders: []string{"Warning", "X-Request-Id"},
	}
}

func newCORS(settings *restbind.Settings, methods []string) *cors.Cors {
	return cors.New(CORSOptions(settings, methods))
}

//PreflightHandler answers CORS preflight requests for the given methods on
//one path.
func PreflightHandler(settings *restbind.Settings, methods []string) http.Handler {
	return newCORS(settings, methods).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(restbind.StatusOK)
	}))
}

////////////////////////////////////////////////////////////////////////////////
// body parsing

//Possible body parser modes.
const (
	BodyParserJSON       = "json"
	BodyParserURLEncoded = "urlencoded"
	BodyParserText       = "text"
	BodyParserRaw        = "raw"
)

var defaultBodyParserModes = []string{BodyParserJSON, BodyParserURLEncoded}

func isBodyParserMode(mode string) bool {
	switch mode {
	case BodyParserJSON, BodyParserURLEncoded, BodyParserText, BodyParserRaw:
		return true
	default:
		return false
	}
}

//modeForMediaType returns the body parser mode that handles the given media
//type, if it is among the allowed modes.
func modeForMediaType(mediaType string, modes []string) (string, bool) {
	var wanted string
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		wanted = BodyParserJSON
	case mediaType == "application/x-www-form-urlencoded":
		wanted = BodyParserURLEncoded
	case strings.HasPrefix(mediaType, "text/"):
		wanted = BodyParserText
	case mediaType == "application/octet-stream":
		wanted = BodyParserRaw
	}
	for _, mode := range modes {
		if mode == wanted {
			return mode, true
		}
	}
	//"raw" takes everything that no other mode takes
	for _, mode := range modes {
		if mode == BodyParserRaw {
			return mode, true
		}
	}
	return "", false
}

//parseBody fills req.Body, req.RawBody and req.Files.
func (ep *Endpoint) parseBody(req *restbind.Request) error {
	r := req.Request
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	if mediaType == "multipart/form-data" {
		if ep.desc.Upload == nil {
			return restbind.ErrWrongMediaType.With("%s does not accept file uploads", ep)
		}
		return ep.parseUpload(req)
	}

	buf, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return restbind.ErrSyntax.With("cannot read request body: %s", err.Error())
	}
	r.Body.Close()
	//keep the body readable for middleware and handlers that look at it
	r.Body = ioutil.NopCloser(bytes.NewReader(buf))
	if len(buf) == 0 {
		return nil
	}
	req.RawBody = buf

	modes := ep.desc.BodyParser
	if len(modes) == 0 {
		modes = defaultBodyParserModes
	}
	mode, ok := modeForMediaType(mediaType, modes)
	if !ok {
		if len(ep.desc.BodyParser) > 0 {
			return restbind.ErrWrongMediaType.With("unsupported content type %q", mediaType)
		}
		return nil
	}

	switch mode {
	case BodyParserJSON:
		var body interface{}
		err := json.Unmarshal(buf, &body)
		if err != nil {
			return restbind.ErrSyntax.With("malformed JSON body: %s", err.Error())
		}
		req.Body = body
	case BodyParserURLEncoded:
		values, err := url.ParseQuery(string(buf))
		if err != nil {
			return restbind.ErrSyntax.With("malformed form body: %s", err.Error())
		}
		req.Body = flattenValues(values)
	case BodyParserText:
		req.Body = string(buf)
	case BodyParserRaw:
		req.Body = buf
	}
	return nil
}

func (ep *Endpoint) parseUpload(req *restbind.Request) error {
	opts := ep.desc.Upload
	maxMemory := opts.MaxMemory
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	err := req.ParseMultipartForm(maxMemory)
	if err != nil {
		return restbind.ErrSyntax.With("malformed multipart body: %s", err.Error())
	}

	form := req.MultipartForm
	for name := range form.File {
		if len(opts.Fields) > 0 && !containsString(opts.Fields, name) {
			return restbind.ErrValidationFailed.With("unexpected file field %q", name)
		}
	}
	req.Files = form.File
	req.Body = flattenValues(form.Value)
	return nil
}

//flattenValues turns single values into strings and repeated values into
//lists.
func flattenValues(values map[string][]string) map[string]interface{} {
	result := make(map[string]interface{}, len(values))
	for key, list := range values {
		if len(list) == 1 {
			result[key] = list[0]
			continue
		}
		elems := make([]interface{}, len(list))
		for idx, v := range list {
			elems[idx] = v
		}
		result[key] = elems
	}
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
