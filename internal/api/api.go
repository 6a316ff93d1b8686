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

package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sapcc/go-bits/httpapi"
	uuid "github.com/satori/go.uuid"
)

//Compose constructs an http.Handler serving all given APIs through
//httpapi.Compose(), which adds the request log and the request metrics.
//Requests also get an X-Request-Id unless they carry one already.
func Compose(apis ...httpapi.API) http.Handler {
	apis = append(apis, httpapi.WithGlobalMiddleware(withRequestID))
	return httpapi.Compose(apis...)
}

//Handler is like Compose, but also serves the prometheus metrics on /metrics.
func Handler(apis ...httpapi.API) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", Compose(apis...))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

//RequestIDHeader is the header that carries the request id.
const RequestIDHeader = "X-Request-Id"

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewV4().String()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}
