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
	"reflect"
	"testing"
)

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte(`
application: demo
api_url:
  prefix: /api/
replace_me: self
toobusy:
  enabled: true
  max_in_flight: "5"
emit_counter_event_on:
  in: true
features:
  beta: yes
  region: eu
`))
	if err != nil {
		t.Fatal(err.Error())
	}

	cfg := s.Config
	if cfg.Application != "demo" {
		t.Errorf("expected application = demo, got %q", cfg.Application)
	}
	if cfg.APIURL.Prefix != "api" {
		t.Errorf("expected prefix = api, got %q", cfg.APIURL.Prefix)
	}
	if !reflect.DeepEqual(cfg.ReplaceMe, []string{"self"}) {
		t.Errorf("expected replace_me = [self], got %#v", cfg.ReplaceMe)
	}
	if !cfg.TooBusy.Enabled || cfg.TooBusy.MaxInFlight != 5 {
		t.Errorf("unexpected toobusy config: %#v", cfg.TooBusy)
	}
	if cfg.Server.ListenAddress != ":8080" {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.JWT.UserIDClaim != "sub" || cfg.JWT.RolesClaim != "roles" {
		t.Errorf("unexpected jwt defaults: %#v", cfg.JWT)
	}
	if !cfg.CounterEvents()[CounterIn] || cfg.CounterEvents()[CounterOut] {
		t.Errorf("unexpected counter events: %#v", cfg.CounterEvents())
	}

	if val, ok := s.Get("features.region"); !ok || val != "eu" {
		t.Errorf("expected features.region = eu, got %#v", val)
	}
	if val, ok := s.Get("features.beta"); !ok || val != true {
		t.Errorf("expected features.beta = true, got %#v", val)
	}
	if _, ok := s.Get("features.region.sub"); ok {
		t.Error("expected lookup below a scalar to fail")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("expected lookup of missing key to fail")
	}
}

func TestDefaultSettings(t *testing.T) {
	s, err := NewSettings(nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if s.Config.Application != "restbind" || s.Config.TooBusy.MaxInFlight != 1000 {
		t.Errorf("unexpected defaults: %#v", s.Config)
	}

	var nilSettings *Settings
	if _, ok := nilSettings.Get("application"); ok {
		t.Error("expected lookup on nil settings to fail")
	}
}

func TestServicesAndEvents(t *testing.T) {
	var s Services
	if err := s.Register("greeting", "hello"); err != nil {
		t.Fatal(err.Error())
	}
	if err := s.Register("greeting", "again"); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if val, ok := Lookup[string](&s, "greeting"); !ok || val != "hello" {
		t.Errorf("expected greeting = hello, got %#v", val)
	}
	if _, ok := Lookup[int](&s, "greeting"); ok {
		t.Error("expected lookup with wrong type to fail")
	}

	var (
		e      Emitter
		values []int64
	)
	e.On(EventCounter, func(ev Event) {
		values = append(values, ev.Value)
	})
	c := NewCounters("test-services-and-events", &e, map[CounterName]bool{CounterIn: true})
	c.RequestStarted()
	c.RequestStarted()
	c.RequestFinished()
	if !reflect.DeepEqual(values, []int64{1, 2}) {
		t.Errorf("expected counter events [1 2], got %#v", values)
	}
	if c.Get(CounterProcess) != 1 || c.Get(CounterOut) != 1 {
		t.Errorf("unexpected counters: process=%d out=%d", c.Get(CounterProcess), c.Get(CounterOut))
	}
}
