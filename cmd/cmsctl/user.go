package main

import (
	"fmt"

	"github.com/blockcms/internal/db"
	"github.com/spf13/cobra"
)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user, or reset the password of an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := a.open()
			if err != nil {
				return err
			}
			created, err := db.SetUserPassword(gdb, username, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "user %s created\n", username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "password of %s reset\n", username)
			}
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "login name")
	create.Flags().StringVar(&password, "password", "", "plain text password")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
