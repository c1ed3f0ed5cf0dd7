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

func createWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently logged in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := newSessionManager(appConfig())

			if err := requireSession(cmd.Context(), manager); err != nil {
				return err
			}

			user := manager.User()
			cmd.Printf("Name:  %s\n", user.Name)
			cmd.Printf("Email: %s\n", user.Email)
			cmd.Printf("Phone: %s\n", user.Phone)
			return nil
		},
	}
}
