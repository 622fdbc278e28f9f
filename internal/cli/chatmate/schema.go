package chatmate

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [table...]",
		Short: "Print the tables the agent can see",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.loadConfig()
			if err != nil {
				return err
			}
			cache := newDatabaseCache(cfg, logger)
			defer func() { _ = cache.Close() }()

			handle, err := cache.Handle(cmd.Context())
			if err != nil {
				return err
			}
			info, err := handle.TableInfo(cmd.Context(), args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, info)
			return err
		},
	}
}
