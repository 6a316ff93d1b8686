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

package users

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

//User is a record in the example user directory.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	Owner    string   `json:"owner"`
	//only for operators; never shown through the API
	Internal string `json:"internal,omitempty"`
}

//Store is an in-memory user directory.
type Store struct {
	mutex  sync.RWMutex
	users  map[string]User
	nextID int
}

//NewStore creates a Store with the given users.
func NewStore(initial ...User) *Store {
	s := &Store{users: make(map[string]User)}
	for _, u := range initial {
		s.Create(u)
	}
	return s
}

//ListOptions selects and orders the result of Store.List.
type ListOptions struct {
	Owner  string
	Role   string
	SortBy string
	Offset int
	Limit  int
}

//List returns the matching users.
func (s *Store) List(opts ListOptions) []User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if opts.Owner != "" && u.Owner != opts.Owner {
			continue
		}
		if opts.Role != "" && !containsString(u.Roles, opts.Role) {
			continue
		}
		result = append(result, u)
	}

	sort.Slice(result, func(i, j int) bool {
		switch opts.SortBy {
		case "name":
			return result[i].Name < result[j].Name
		case "email":
			return result[i].Email < result[j].Email
		default:
			return idLess(result[i].ID, result[j].ID)
		}
	})

	if opts.Offset >= len(result) {
		return []User{}
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result
}

//Get returns the user with the given ID.
func (s *Store) Get(id string) (User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

//Create stores a new user and returns it with its new ID.
func (s *Store) Create(u User) User {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nextID++
	u.ID = strconv.Itoa(s.nextID)
	s.users[u.ID] = u
	return u
}

//Update replaces an existing user.
func (s *Store) Update(u User) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.users[u.ID]; !exists {
		return false
	}
	s.users[u.ID] = u
	return true
}

//Delete removes a user.
func (s *Store) Delete(id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.users[id]; !exists {
		return false
	}
	delete(s.users, id)
	return true
}

//FindByEmail returns the user with the given email address.
func (s *Store) FindByEmail(email string) (User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return User{}, false
}

func idLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
