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

package servercmd

import (
	"context"
	"os"

	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/osext"
	"github.com/sapcc/restbind/internal/api"
	"github.com/sapcc/restbind/internal/app"
	"github.com/sapcc/restbind/internal/auth"
	"github.com/sapcc/restbind/internal/restbind"
	"github.com/sapcc/restbind/internal/schema"
	"github.com/sapcc/restbind/internal/users"
	"github.com/spf13/cobra"
)

var settingsPath string

//AddCommandTo mounts this command into the command hierarchy.
func AddCommandTo(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the API server.",
		Long:  "Run the API server with the example users resource. Settings are read from the file given with --settings or $RESTBIND_SETTINGS.",
		Args:  cobra.NoArgs,
		Run:   run,
	}
	cmd.Flags().StringVar(&settingsPath, "settings", "", "path to the settings file (YAML)")
	parent.AddCommand(cmd)
}

func run(cmd *cobra.Command, args []string) {
	settings, err := LoadSettings(settingsPath)
	if err != nil {
		logg.Fatal(err.Error())
	}
	a, err := BuildApp(settings)
	if err != nil {
		logg.Fatal(err.Error())
	}

	listenAddress := settings.Config.Server.ListenAddress
	if listenAddress == "" {
		listenAddress = ":8080"
	}
	listenAddress = osext.GetenvOrDefault("RESTBIND_LISTEN_ADDRESS", listenAddress)

	handler := api.Handler(a, httpapi.HealthCheckAPI{
		SkipRequestLog: true,
		Check:          a.Check,
	})
	err = a.ListenAndServe(context.Background(), listenAddress, handler)
	if err != nil {
		logg.Fatal(err.Error())
	}
}

//LoadSettings reads the settings file from the given path, or from
//$RESTBIND_SETTINGS if the path is empty. Without either, the default settings
//are used.
func LoadSettings(path string) (*restbind.Settings, error) {
	if path == "" {
		path = os.Getenv("RESTBIND_SETTINGS")
	}
	if path == "" {
		logg.Info("no settings file given, using default settings")
		return restbind.NewSettings(nil)
	}
	return restbind.ReadSettings(path)
}

//BuildApp binds the example resources and the standard extensions, and
//activates the application. JWT authentication is only enabled when a JWT
//secret is configured.
func BuildApp(settings *restbind.Settings) (*app.App, error) {
	a := app.New(settings)
	a.On(restbind.EventClosed, func(ev restbind.Event) {
		logg.Info("server stopped")
	})

	err := a.Bind(users.Resource(users.NewStore(), a.Services()))
	if err != nil {
		return nil, err
	}

	if settings.Config.JWT.Secret != "" {
		iss, err := auth.NewIssuer(settings)
		if err != nil {
			return nil, err
		}
		err = a.Use(auth.Extension(iss))
		if err != nil {
			return nil, err
		}
	} else {
		logg.Info("jwt.secret is not set, JWT authentication is disabled")
	}

	err = a.Use(schema.NewValidator().Extension())
	if err != nil {
		return nil, err
	}
	err = a.Activate()
	if err != nil {
		return nil, err
	}
	return a, nil
}
