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
	"io/ioutil"
	"strings"

	"github.com/mitchellh/mapstructure"
	yaml "gopkg.in/yaml.v2"
)

//Configuration contains the settings that the framework itself understands.
//Everything else in the settings file is only accessible through Settings.Get.
type Configuration struct {
	Application string `mapstructure:"application"`
	Server      struct {
		ListenAddress string `mapstructure:"listen_address"`
	} `mapstructure:"server"`
	APIURL struct {
		Prefix      string `mapstructure:"prefix"`
		Unversioned bool   `mapstructure:"unversioned"`
	} `mapstructure:"api_url"`
	//additional sentinels (besides "me" and "mine") for replace-me filters
	ReplaceMe []string `mapstructure:"replace_me"`
	TooBusy   struct {
		Enabled     bool  `mapstructure:"enabled"`
		MaxInFlight int64 `mapstructure:"max_in_flight"`
	} `mapstructure:"toobusy"`
	EmitCounterEventOn struct {
		In      bool `mapstructure:"in"`
		Out     bool `mapstructure:"out"`
		Process bool `mapstructure:"process"`
	} `mapstructure:"emit_counter_event_on"`
	JWT struct {
		Secret      string `mapstructure:"secret"`
		UserIDClaim string `mapstructure:"user_id_claim"`
		RolesClaim  string `mapstructure:"roles_claim"`
	} `mapstructure:"jwt"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
}

//CounterEvents returns the set of counters for which EventCounter is emitted.
func (cfg Configuration) CounterEvents() map[CounterName]bool {
	return map[CounterName]bool{
		CounterIn:      cfg.EmitCounterEventOn.In,
		CounterOut:     cfg.EmitCounterEventOn.Out,
		CounterProcess: cfg.EmitCounterEventOn.Process,
	}
}

//Settings is the parsed settings file. It holds both the generic tree (for
//lookups by dotted key, e.g. in enabled/disabled conditions) and the typed
//Configuration.
type Settings struct {
	Config Configuration
	tree   map[string]interface{}
}

//NewSettings builds Settings from a generic tree. A nil tree yields the
//default settings.
func NewSettings(tree map[string]interface{}) (*Settings, error) {
	if tree == nil {
		tree = map[string]interface{}{}
	}
	normalized, _ := normalizeYAML(tree).(map[string]interface{})

	//accept a single string for list-valued keys
	if s, ok := normalized["replace_me"].(string); ok {
		normalized["replace_me"] = []interface{}{s}
	}
	if cors, ok := normalized["cors"].(map[string]interface{}); ok {
		if s, ok := cors["allowed_origins"].(string); ok {
			cors["allowed_origins"] = []interface{}{s}
		}
	}

	var cfg Configuration
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
		TagName:          "mapstructure",
	})
	if err == nil {
		err = decoder.Decode(normalized)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot decode settings: %s", err.Error())
	}

	//apply default values
	if cfg.Application == "" {
		cfg.Application = "restbind"
	}
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.TooBusy.MaxInFlight <= 0 {
		cfg.TooBusy.MaxInFlight = 1000
	}
	if cfg.JWT.UserIDClaim == "" {
		cfg.JWT.UserIDClaim = "sub"
	}
	if cfg.JWT.RolesClaim == "" {
		cfg.JWT.RolesClaim = "roles"
	}
	cfg.APIURL.Prefix = strings.Trim(cfg.APIURL.Prefix, "/")

	return &Settings{Config: cfg, tree: normalized}, nil
}

//ParseSettings parses a settings file in YAML format.
func ParseSettings(buf []byte) (*Settings, error) {
	var tree map[string]interface{}
	err := yaml.Unmarshal(buf, &tree)
	if err != nil {
		return nil, fmt.Errorf("cannot parse settings: %s", err.Error())
	}
	return NewSettings(tree)
}

//ReadSettings reads and parses the settings file at the given path.
func ReadSettings(path string) (*Settings, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read settings file: %s", err.Error())
	}
	return ParseSettings(buf)
}

//Get looks up a value by dotted key, e.g. "api_url.prefix".
func (s *Settings) Get(key string) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	var current interface{} = s.tree
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

//yaml.v2 decodes nested maps as map[interface{}]interface{}
func normalizeYAML(value interface{}) interface{} {
	switch value := value.(type) {
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(value))
		for k, v := range value {
			result[fmt.Sprintf("%v", k)] = normalizeYAML(v)
		}
		return result
	case map[string]interface{}:
		result := make(map[string]interface{}, len(value))
		for k, v := range value {
			result[k] = normalizeYAML(v)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(value))
		for idx, v := range value {
			result[idx] = normalizeYAML(v)
		}
		return result
	default:
		return value
	}
}
