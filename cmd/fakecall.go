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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	callerArg string
	delayArg  int
)

func createFakecallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fakecall",
		Short: "Simulate an incoming phone call",
		Long: `Rings a fake incoming call after a short delay - an excuse to step away
from an uncomfortable situation. Everything happens locally, nothing is sent
to the server.`,
		Run: func(cmd *cobra.Command, args []string) {
			runFakecall(cmd)
		},
	}

	cmd.Flags().StringVar(&callerArg, "caller", "Mom", "name to show as the caller")
	cmd.Flags().IntVar(&delayArg, "delay", 5, "seconds before the call comes in")

	return cmd
}

func runFakecall(cmd *cobra.Command) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	for remaining := delayArg; remaining > 0; remaining-- {
		fmt.Printf("\rIncoming call in %2.vs... ", remaining)
		select {
		case <-signalChan:
			cmd.Println("\nCall dismissed.")
			return
		case <-time.After(1 * time.Second):
		}
	}

	cmd.Println()
	cmd.Printf("%s Incoming call: %s\n", green("☎"), callerArg)
	cmd.Println("Press Ctrl+C to end the call.")

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-signalChan:
			cmd.Println("Call ended.")
			return
		case <-ticker.C:
			cmd.Printf("%s ring ring...\n", yellow("☎"))
		}
	}
}
