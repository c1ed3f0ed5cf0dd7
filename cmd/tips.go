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
	"time"

	"github.com/safeher/safeher/client"
	"github.com/spf13/cobra"
)

func createTipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tips",
		Short: "Show safety tips",
		Long:  `Fetches the curated safety tips from the safeher server. No login required.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := appConfig()
			apiClient := client.NewClient(cfg.Server.URL, time.Duration(cfg.Server.TimeoutSeconds)*time.Second, nil)

			tips := apiClient.SafetyTips(cmd.Context())
			if len(tips) == 0 {
				cmd.Printf("%s No safety tips available right now.\n", warningLabel)
				return
			}

			for _, tip := range tips {
				cmd.Printf("%s\n  %s\n\n", green(tip.Title), tip.Content)
			}
		},
	}
}
