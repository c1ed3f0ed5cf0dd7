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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safeher/safeher/client/emergency"
	"github.com/safeher/safeher/client/location"
	"github.com/spf13/cobra"
)

var (
	latArg           float64
	lngArg           float64
	countdownArg     int
	skipCountdownArg bool
)

func createSosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sos",
		Short: "Trigger an emergency alert",
		Long: `Sends an emergency alert with your location to the safeher server, which
notifies your primary contacts by sms. A cancellation countdown runs in your
terminal - press Ctrl+C before it reaches zero if you're ok.

Note: cancelling stops the countdown on your side, it does not retract an
alert the server already fanned out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSos(cmd)
		},
	}

	cmd.Flags().Float64Var(&latArg, "lat", 0, "latitude to report (falls back to 'location' in config)")
	cmd.Flags().Float64Var(&lngArg, "lng", 0, "longitude to report (falls back to 'location' in config)")
	cmd.Flags().IntVar(&countdownArg, "countdown", 0, "seconds before the alert cycle completes (default from config, or 30)")
	cmd.Flags().BoolVar(&skipCountdownArg, "now", false, "skip the countdown")

	return cmd
}

func runSos(cmd *cobra.Command) error {
	cfg := appConfig()

	apiClient, err := authenticatedClient(cmd)
	if err != nil {
		return err
	}

	coords := location.Coordinates{Latitude: latArg, Longitude: lngArg}
	if coords.Latitude == 0 && coords.Longitude == 0 {
		coords = location.Coordinates{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}
	}

	countdown := time.Duration(countdownArg) * time.Second
	if countdown <= 0 {
		countdown = time.Duration(cfg.Emergency.CountdownSeconds) * time.Second
	}
	if skipCountdownArg {
		countdown = 1 * time.Second
	}

	sequencer := emergency.NewSequencer(
		apiClient,
		&location.StaticProvider{Coords: coords},
		nil,
		countdown,
	)
	sequencer.OnTick = func(remaining time.Duration) {
		fmt.Printf("\r%s Cancelling window: %2.0fs remaining (Ctrl+C to cancel) ",
			red("●"), remaining.Seconds())
	}

	err = sequencer.Trigger(cmd.Context())
	if errors.Is(err, location.ErrUnavailable) {
		return formattedError(
			"no location to report - pass --lat/--lng or set 'location' in %s", config.ConfigFileUsed())
	}
	if err != nil {
		return err
	}

	cmd.Printf("%s Emergency alert triggered at (%v, %v)\n", red("●"), coords.Latitude, coords.Longitude)

	// Ctrl+C cancels the countdown instead of killing the process
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	go func() {
		<-signalChan
		sequencer.Cancel()
	}()

	reason := sequencer.Wait()
	cmd.Println()

	if reason == emergency.EndReasonCancelled {
		cmd.Printf("%s Alert cycle cancelled.\n", yellow("✓"))
		return nil
	}

	episode := sequencer.Episode()
	if episode.NotifyError != "" {
		return formattedError("the server could not be reached: %s", episode.NotifyError)
	}

	ack := episode.ServerAck
	if ack == "" {
		ack = "Emergency alert sent to contacts"
	}
	cmd.Printf("%s %s\n", green("✓"), ack)

	return nil
}
