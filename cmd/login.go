/*
Copyright © 2022 SafeHer

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	emailArg    string
	passwordArg string
)

func createLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to your safeher account",
		Long: `Authenticates against the safeher server & stores the session locally,
so subsequent commands(contacts, sos, ...) run as you.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := newSessionManager(appConfig())

			result := manager.Login(cmd.Context(), emailArg, passwordArg, deviceInfo())
			if !result.Success {
				return formattedError(result.Message)
			}

			cmd.Printf("%s Logged in as %s\n", green("✓"), manager.User().Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&emailArg, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&passwordArg, "password", "p", "", "account password")

	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}
