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
	nameArg  string
	phoneArg string
)

func createRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new safeher account",
		Long: `Creates an account on the safeher server & logs you in right away.
Passwords must be at least 8 characters, with no spaces.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := newSessionManager(appConfig())

			result := manager.Register(cmd.Context(), nameArg, emailArg, phoneArg, passwordArg, deviceInfo())
			if !result.Success {
				return formattedError(result.Message)
			}

			cmd.Printf("%s Welcome to safeher, %s!\n", green("✓"), manager.User().Name)
			cmd.Println("Add your emergency contacts next: safeher contacts add --help")
			return nil
		},
	}

	cmd.Flags().StringVarP(&nameArg, "name", "n", "", "your full name")
	cmd.Flags().StringVarP(&emailArg, "email", "e", "", "account email")
	cmd.Flags().StringVar(&phoneArg, "phone", "", "your phone number e.g. +15551234567")
	cmd.Flags().StringVarP(&passwordArg, "password", "p", "", "account password")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("phone")
	cmd.MarkFlagRequired("password")

	return cmd
}
