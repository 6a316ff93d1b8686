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

package auth

import (
	"strings"

	"github.com/sapcc/restbind/internal/endpoint"
	"github.com/sapcc/restbind/internal/restbind"
)

//ServiceName is the name under which the Issuer is registered in
//restbind.Services.
const ServiceName = "jwt"

//Extension returns an extension that authenticates requests with the bearer
//token in their Authorization header. Handlers can issue tokens with the
//Issuer from restbind.Lookup[*auth.Issuer](services, auth.ServiceName).
func Extension(iss *Issuer) endpoint.Extension {
	return endpoint.Extension{
		Name:     "jwt",
		Services: map[string]interface{}{ServiceName: iss},
		Endpoint: &endpoint.Hooks{
			Authenticate: func(ep *endpoint.Endpoint, req *restbind.Request) error {
				//a user provided by host middleware is accepted as is
				if req.User != nil {
					return nil
				}
				tokenStr := req.Header.Get("Authorization")
				if !strings.HasPrefix(tokenStr, "Bearer ") { //e.g. because it's missing
					return restbind.ErrAuthenticationFailed.With("no bearer token found in request headers")
				}
				u, rerr := iss.Parse(strings.TrimPrefix(tokenStr, "Bearer "))
				if rerr != nil {
					return rerr
				}
				req.User = u
				return nil
			},
		},
	}
}
