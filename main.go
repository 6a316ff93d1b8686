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

package main

import (
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/osext"
	routescmd "github.com/sapcc/restbind/cmd/routes"
	servercmd "github.com/sapcc/restbind/cmd/server"
	"github.com/spf13/cobra"
)

func main() {
	logg.ShowDebug = osext.GetenvBool("RESTBIND_DEBUG")

	rootCmd := &cobra.Command{
		Use:   "restbind",
		Short: "Declarative REST endpoint binder",
		Long:  "restbind serves REST resources that are declared as data: verbs, paths, filters, hooks and response shaping.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	routescmd.AddCommandTo(rootCmd)

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Server commands.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	servercmd.AddCommandTo(serverCmd)
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		logg.Fatal(err.Error())
	}
}
