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

package routescmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sapcc/go-bits/logg"
	servercmd "github.com/sapcc/restbind/cmd/server"
	"github.com/sapcc/restbind/internal/app"
	"github.com/spf13/cobra"
)

var settingsPath string

//AddCommandTo mounts this command into the command hierarchy.
func AddCommandTo(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List all bound endpoints.",
		Long:  "List all endpoints that the server would serve with the given settings, together with their descriptions.",
		Args:  cobra.NoArgs,
		Run:   run,
	}
	cmd.Flags().StringVar(&settingsPath, "settings", "", "path to the settings file (YAML)")
	parent.AddCommand(cmd)
}

func run(cmd *cobra.Command, args []string) {
	settings, err := servercmd.LoadSettings(settingsPath)
	if err != nil {
		logg.Fatal(err.Error())
	}
	a, err := servercmd.BuildApp(settings)
	if err != nil {
		logg.Fatal(err.Error())
	}
	err = PrintRoutes(os.Stdout, a)
	if err != nil {
		logg.Fatal(err.Error())
	}
}

//PrintRoutes writes one line per bound endpoint to the given writer.
func PrintRoutes(w io.Writer, a *app.App) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, ep := range a.Registrar().Endpoints() {
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", ep.Verb(), ep.Path(), ep.Description().Description)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}
