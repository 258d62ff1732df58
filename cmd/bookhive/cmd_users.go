package main

import (
	"encoding/json"
	"fmt"

	"bookhive/internal/user"

	"github.com/spf13/cobra"
)

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "promote <email>",
		Short: "Give an account the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := user.NewService(c.store.Users, nil).Promote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.asJSON {
				return json.NewEncoder(c.out).Encode(u)
			}
			fmt.Fprintf(c.out, "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	})
	return cmd
}
