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
	"fmt"
	"sync"
)

//Services is a registry of named capabilities that extensions provide to
//handlers (e.g. a token issuer, a database handle).
type Services struct {
	mutex    sync.RWMutex
	services map[string]interface{}
}

//Register adds a service. Registering a name twice is an error.
func (s *Services) Register(name string, svc interface{}) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.services == nil {
		s.services = make(map[string]interface{})
	}
	if _, exists := s.services[name]; exists {
		return fmt.Errorf("service %q is already registered", name)
	}
	s.services[name] = svc
	return nil
}

//Get returns the service with the given name.
func (s *Services) Get(name string) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	svc, ok := s.services[name]
	return svc, ok
}

//Lookup returns the service with the given name if it has type T.
func Lookup[T any](s *Services, name string) (T, bool) {
	var zero T
	svc, ok := s.Get(name)
	if !ok {
		return zero, false
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
