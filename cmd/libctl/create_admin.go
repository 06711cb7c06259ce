package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/repository/postgres"
	"github.com/tzayo/library-management-system/internal/service"
)

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(cmd, password)
			if err != nil {
				return err
			}

			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			store := postgres.NewStore(e.db)
			user, err := e.authService(store.Users()).CreateUser(cmd.Context(), service.RegisterInput{
				Email:    email,
				Password: pw,
				FullName: name,
			}, domain.UserRoleAdministrator)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Administrator %s created (id %s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Login email of the new administrator")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Full name")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
