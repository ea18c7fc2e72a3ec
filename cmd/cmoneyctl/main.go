package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cmoney/internal/backend"
	"cmoney/internal/cli"
	"cmoney/internal/config"
	applog "cmoney/internal/log"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:           "cmoneyctl",
		Short:         "Administer a cmoney installation",
		Long:          `cmoneyctl manages users and runs maintenance and reporting tasks directly against the cmoney database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides $"+config.ConfigFileEnv+")")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(budgetsCmd())
	rootCmd.AddCommand(reportsCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// openBackend loads configuration and opens the database, applying
// migrations. The broker is never contacted from the CLI.
func openBackend(ctx context.Context) (*backend.BackendResult, error) {
	if cfgFile != "" {
		if err := os.Setenv(config.ConfigFileEnv, cfgFile); err != nil {
			return nil, err
		}
	}
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	backendConfig.AMQPURL = ""

	return backend.NewFactory(logger.Logger).CreateBackend(ctx, backendConfig)
}

// withBackend runs fn against an opened backend and closes it afterwards.
func withBackend(cmd *cobra.Command, fn func(ctx context.Context, b *backend.BackendResult) error) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Cleanup()
	return fn(ctx, b)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend.BackendResult) error {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("Database is up to date ("+string(b.Repository.Dialect())+")"))
				return nil
			})
		},
	}
}
