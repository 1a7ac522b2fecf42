package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/jdholdren/tagcast/internal/config"
	"github.com/jdholdren/tagcast/internal/sqlite"
	"github.com/jdholdren/tagcast/logger"
)

type commandContext struct {
	envFileFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(cmd.Context(), strings.TrimSpace(*c.envFileFlag))
		if err != nil {
			c.configErr = err
			return
		}
		slog.SetDefault(logger.New(cmd.ErrOrStderr(), cfg.LoggerFormat, cfg.LogLevel))
		c.config = cfg
	})

	return c.config, c.configErr
}

// openStore loads the config and opens the migrated database. The caller
// closes the returned handle.
func (c *commandContext) openStore(cmd *cobra.Command) (config.Config, *sqlx.DB, sqlite.Repo, error) {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return cfg, nil, sqlite.Repo{}, err
	}
	dbx, repo, err := cfg.OpenStore()

	return cfg, dbx, repo, err
}

func newRootCommand() *cobra.Command {
	var envFileFlag string
	ctx := &commandContext{envFileFlag: &envFileFlag}

	rootCmd := &cobra.Command{
		Use:           "tagctl",
		Short:         "Operate a tagcast database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "File to load environment variables from")

	rootCmd.AddCommand(newSyncCommand(ctx))
	rootCmd.AddCommand(newCleanupCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))
	rootCmd.AddCommand(newTagsCommand(ctx))
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newDurationCommand())

	return rootCmd
}
