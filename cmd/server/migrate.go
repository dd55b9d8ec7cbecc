package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users and auth_tokens tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			creds, err := a.credentials(ctx)
			if err != nil {
				return err
			}
			if err := creds.Migrate(ctx); err != nil {
				return err
			}
			a.log.WithField("driver", a.cfg.DBDriver).Info("schema up to date")
			return nil
		},
	}
}
