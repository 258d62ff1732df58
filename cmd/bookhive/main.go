// Command bookhive is the administration CLI: one-off reminder sweeps,
// catalogue maintenance, seeding and role management.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bookhive/internal/config"
	"bookhive/internal/logging"
	"bookhive/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries the state shared by every subcommand.
type cli struct {
	out     io.Writer
	verbose bool
	driver  string
	sqlite  string
	asJSON  bool

	// open connects to the database; tests replace it.
	open func(ctx context.Context, cfg config.Config, log *zap.Logger) (*store.Store, error)

	cfg   config.Config
	log   *zap.Logger
	store *store.Store
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdout)
	err := c.rootCmd().ExecuteContext(ctx)
	c.teardown()
	if err != nil {
		os.Exit(1)
	}
}

func newCLI(out io.Writer) *cli {
	return &cli{
		out: out,
		open: func(ctx context.Context, cfg config.Config, log *zap.Logger) (*store.Store, error) {
			return store.Open(ctx, cfg.DB, log)
		},
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookhive",
		Short:         "BookHive administration",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.out)

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&c.driver, "driver", "", "database driver (postgres|sqlite), overrides DB_DRIVER")
	pf.StringVar(&c.sqlite, "sqlite", "", "SQLite file, overrides SQLITE_PATH")
	pf.BoolVar(&c.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		c.sweepCmd(),
		c.booksCmd(),
		c.statsCmd(),
		c.seedCmd(),
		c.usersCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.DB.Driver = c.driver
	}
	if c.sqlite != "" {
		cfg.DB.Driver = config.DriverSQLite
		cfg.DB.SQLitePath = c.sqlite
	}
	level := cfg.Log.Level
	if c.verbose {
		level = "debug"
	}
	// Tests inject their own logger.
	if c.log == nil {
		if c.log, err = logging.New(level, !cfg.IsProduction()); err != nil {
			return err
		}
	}
	c.cfg = cfg

	st, err := c.open(ctx, cfg, c.log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	c.store = st
	return nil
}

// teardown releases what setup opened; it runs even when the command failed.
func (c *cli) teardown() {
	if c.store != nil {
		c.store.Close()
	}
	if c.log != nil {
		_ = c.log.Sync()
	}
}
