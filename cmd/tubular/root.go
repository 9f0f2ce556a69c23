package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tubular/internal/app"
	"github.com/mmcdole/tubular/internal/backend/plugin"
	"github.com/mmcdole/tubular/internal/config"
	"github.com/mmcdole/tubular/internal/logging"
)

// cli holds the state shared by every command. The app is built lazily so
// commands like version never touch the config or the store.
type cli struct {
	configDir string
	service   string

	runner plugin.CmdRunner // nil means exec
	app    *app.App
	logger *slog.Logger
}

func newRootCmd(runner plugin.CmdRunner) *cobra.Command {
	c := &cli{runner: runner}

	root := &cobra.Command{
		Use:   "tubular [query]",
		Short: "Browse YouTube and plugin video services from the terminal",
		Long: `tubular browses video services in a terminal UI. YouTube is built in;
more services can be added as plugins: executables described by a
plugin.yaml manifest in one of the plugin directories.

Run without a command to open the browser, optionally searching for query.`,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE:         c.runBrowse,
	}
	root.Flags().String("order", "", "search order for the initial query")

	root.PersistentFlags().StringVar(&c.configDir, "config-dir", config.DefaultDir(), "configuration directory")
	root.PersistentFlags().StringVar(&c.service, "service", "", "service to use (default: the last one used)")

	root.AddCommand(
		newBrowseCmd(c),
		newSearchCmd(c),
		newListCmd(c),
		newServicesCmd(c),
		newHistoryCmd(c),
		newSubscriptionsCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newVersionCmd(),
	)
	return root
}

// open loads the config, sets up logging and builds the app
func (c *cli) open() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := config.LoadConfig(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.NullLogger()
	}
	slog.SetDefault(logger)

	a, err := app.New(cfg, app.Options{ConfigDir: c.configDir, Runner: c.runner}, logger)
	if err != nil {
		return nil, err
	}
	if c.service != "" {
		if err := a.Browser.SetService(c.service); err != nil {
			a.Close()
			return nil, err
		}
	}

	c.app = a
	c.logger = logger
	return a, nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.logger.Warn("failed to close app", "error", err)
	}
	c.app = nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tubular %s\n", Version)
		},
	}
}
