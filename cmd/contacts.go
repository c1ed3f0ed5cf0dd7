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
	"strconv"

	"github.com/safeher/safeher/client"
	"github.com/safeher/safeher/client/session"
	"github.com/spf13/cobra"
)

var (
	contactNameArg         string
	contactPhoneArg        string
	contactEmailArg        string
	contactRelationshipArg string
	contactIsPrimaryArg    bool
)

func createContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage your emergency contacts",
		Long: `Lists, adds, updates & removes your emergency contacts.
Contacts marked as primary receive sms alerts when you trigger an emergency.`,
	}

	cmd.AddCommand(createContactsListCmd())
	cmd.AddCommand(createContactsAddCmd())
	cmd.AddCommand(createContactsUpdateCmd())
	cmd.AddCommand(createContactsDeleteCmd())

	return cmd
}

func createContactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your emergency contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := authenticatedClient(cmd)
			if err != nil {
				return err
			}

			contacts, err := apiClient.ListContacts(cmd.Context())
			if err != nil {
				return err
			}

			if len(contacts) == 0 {
				cmd.Println("No contacts yet. Add one with 'safeher contacts add'.")
				return nil
			}

			for _, contact := range contacts {
				printContact(cmd, contact)
			}
			return nil
		},
	}
}

func createContactsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an emergency contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := authenticatedClient(cmd)
			if err != nil {
				return err
			}

			contact, err := apiClient.AddContact(cmd.Context(), client.Contact{
				Name:         contactNameArg,
				Phone:        contactPhoneArg,
				Email:        contactEmailArg,
				Relationship: contactRelationshipArg,
				IsPrimary:    contactIsPrimaryArg,
			})
			if err != nil {
				return err
			}

			cmd.Printf("%s Added contact:\n", green("✓"))
			printContact(cmd, *contact)
			return nil
		},
	}

	registerContactFlags(cmd)
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("phone")

	return cmd
}

func createContactsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <contact-id>",
		Short: "Update an emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contactID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return formattedError("invalid contact id %q", args[0])
			}

			apiClient, err := authenticatedClient(cmd)
			if err != nil {
				return err
			}

			contact, err := apiClient.UpdateContact(cmd.Context(), uint(contactID), client.Contact{
				Name:         contactNameArg,
				Phone:        contactPhoneArg,
				Email:        contactEmailArg,
				Relationship: contactRelationshipArg,
				IsPrimary:    contactIsPrimaryArg,
			})
			if err != nil {
				return err
			}

			cmd.Printf("%s Updated contact:\n", green("✓"))
			printContact(cmd, *contact)
			return nil
		},
	}

	registerContactFlags(cmd)

	return cmd
}

func createContactsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <contact-id>",
		Short: "Remove an emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contactID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return formattedError("invalid contact id %q", args[0])
			}

			apiClient, err := authenticatedClient(cmd)
			if err != nil {
				return err
			}

			if err := apiClient.DeleteContact(cmd.Context(), uint(contactID)); err != nil {
				return err
			}

			cmd.Printf("%s Contact %v deleted\n", green("✓"), contactID)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func registerContactFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&contactNameArg, "name", "n", "", "contact name")
	cmd.Flags().StringVar(&contactPhoneArg, "phone", "", "contact phone number e.g. +15551234567")
	cmd.Flags().StringVarP(&contactEmailArg, "email", "e", "", "contact email")
	cmd.Flags().StringVarP(&contactRelationshipArg, "relationship", "r", "", "e.g. mother, friend, partner")
	cmd.Flags().BoolVar(&contactIsPrimaryArg, "primary", false, "primary contacts receive emergency sms alerts")
}

// authenticatedClient restores the session & returns an API client carrying
// the session token.
func authenticatedClient(cmd *cobra.Command) (*client.Client, error) {
	cfg := appConfig()
	keystore := newKeystore(cfg)

	manager := session.NewManager(newAPIClient(cfg, keystore), keystore, newUserCache(), cliNavigator{})
	if err := requireSession(cmd.Context(), manager); err != nil {
		return nil, err
	}

	return newAPIClient(cfg, keystore), nil
}

func printContact(cmd *cobra.Command, contact client.Contact) {
	primaryTag := ""
	if contact.IsPrimary {
		primaryTag = green(" [primary]")
	}

	cmd.Printf("%v. %s (%s)%s\n", contact.ID, contact.Name, contact.Phone, primaryTag)
	if contact.Relationship != "" {
		cmd.Printf("   relationship: %s\n", contact.Relationship)
	}
	if contact.Email != "" {
		cmd.Printf("   email: %s\n", contact.Email)
	}
}
