package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tzayo/library-management-system/internal/repository/postgres"
)

func newResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an existing account",
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
			if err := e.authService(store.Users()).ResetPassword(cmd.Context(), email, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Login email of the account")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
