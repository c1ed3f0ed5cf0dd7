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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/safeher/safeher/client"
	"github.com/safeher/safeher/client/session"
	"github.com/safeher/safeher/client/store"
	"github.com/safeher/safeher/shared"
	"github.com/safeher/safeher/utils"
	"github.com/spf13/cobra"
)

// cliNavigator satisfies the session manager's navigation hook; the CLI has
// no screens to switch, each command is its own entry point.
type cliNavigator struct{}

func (cliNavigator) Navigate(route string) {}

func appConfig() *shared.AppConfig {
	cfg := shared.AppConfig{}
	cobra.CheckErr(config.Unmarshal(&cfg))

	if cfg.Server.URL == "" {
		cobra.CheckErr(formattedError("must set 'server.url' in %s", config.ConfigFileUsed()))
	}

	if cfg.Store.PassPhrase == "" {
		cobra.CheckErr(formattedError(
			"must set the env var 'SAFEHER_STORE_PASSPHRASE' or add 'store.passPhrase' to %s", config.ConfigFileUsed()))
	}

	return &cfg
}

// dataDirectory retrieves the directory holding the local keystore & cached
// user record. Or logs an error message and then calls os.Exit if it's
// unable to.
func dataDirectory() string {
	// Use 'safeher' folder in home directory for prod
	dataFolderName := "safeher"
	rootDir, err := os.UserHomeDir()
	cobra.CheckErr(err)

	// Use 'dev' folder in current directory for dev mode
	if isDevEnv || isTestEnv {
		dataFolderName = "dev"
		rootDir, err = os.Getwd()
		cobra.CheckErr(err)
	}

	dataDir := filepath.Join(rootDir, dataFolderName)

	err = utils.CreateDirIfNotExist(dataDir)
	cobra.CheckErr(err)

	return dataDir
}

func newKeystore(cfg *shared.AppConfig) *store.Keystore {
	keystore, err := store.NewKeystore(dataDirectory(), cfg.Store.PassPhrase)
	cobra.CheckErr(err)
	return keystore
}

func newUserCache() *store.UserCache {
	cache, err := store.NewUserCache(dataDirectory())
	cobra.CheckErr(err)
	return cache
}

// newAPIClient wires the http client with a token lookup against the local
// keystore, so every authenticated call carries the persisted session token.
func newAPIClient(cfg *shared.AppConfig, keystore *store.Keystore) *client.Client {
	tokenFn := func() string {
		token, err := keystore.Get(session.SessionTokenKey)
		if err != nil {
			return ""
		}
		return token
	}

	return client.NewClient(cfg.Server.URL, time.Duration(cfg.Server.TimeoutSeconds)*time.Second, tokenFn)
}

func newSessionManager(cfg *shared.AppConfig) *session.Manager {
	keystore := newKeystore(cfg)
	return session.NewManager(newAPIClient(cfg, keystore), keystore, newUserCache(), cliNavigator{})
}

// requireSession restores the persisted session & fails the command unless
// the user is logged in.
func requireSession(ctx context.Context, manager *session.Manager) error {
	if manager.RestoreSession(ctx) != session.StateAuthenticated {
		return formattedError("you are not logged in - run 'safeher login' first")
	}
	return nil
}

func deviceInfo() client.DeviceInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return client.DeviceInfo{
		ID:   hostname,
		Type: "cli",
		OS:   runtime.GOOS,
	}
}
