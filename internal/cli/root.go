// Package cli implements the asset-cache command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/krisalay/asset-cache/config"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitMiss         = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

// rootFlags override the matching environment settings when set.
type rootFlags struct {
	dbPath    string
	capacity  int
	ttl       time.Duration
	writeMode string
	logLevel  string
}

// command carries the state shared by every subcommand of one invocation.
type command struct {
	flags    rootFlags
	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

// Run executes the command line and returns an exit code.
func Run() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	c := &command{stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		// Cobra already prints the error
		if c.exitCode == ExitSuccess {
			return ExitUsageError
		}
	}
	return c.exitCode
}

func (c *command) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "asset-cache",
		Short:        "Two-tier cache for remote image assets",
		Long:         "asset-cache keeps remote images as base64 text in a bounded memory tier backed by a SQLite file.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.dbPath, "db", "", "path to the SQLite cache file (env ASSET_CACHE_DB_PATH)")
	pf.IntVar(&c.flags.capacity, "capacity", 0, "memory tier capacity (env ASSET_CACHE_MEMORY_CAPACITY)")
	pf.DurationVar(&c.flags.ttl, "ttl", 0, "entry time-to-live (env ASSET_CACHE_TTL)")
	pf.StringVar(&c.flags.writeMode, "write-mode", "", "through or back (env ASSET_CACHE_WRITE_MODE)")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "debug, info, warn or error (env ASSET_CACHE_LOG_LEVEL)")

	root.AddCommand(c.getCmd())
	root.AddCommand(c.fetchCmd())
	root.AddCommand(c.populateCmd())
	root.AddCommand(c.clearCmd())
	root.AddCommand(c.statsCmd())
	root.AddCommand(c.versionCmd())
	return root
}

// loadConfig reads the environment and applies any flags the user set.
func (c *command) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = c.flags.dbPath
	}
	if flags.Changed("capacity") {
		cfg.MemoryCapacity = c.flags.capacity
	}
	if flags.Changed("ttl") {
		cfg.TTL = c.flags.ttl
	}
	if flags.Changed("write-mode") {
		cfg.WriteMode = c.flags.writeMode
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// withApp builds the app for one command and always closes it.
func (c *command) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		c.exitCode = ExitUsageError
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, c.stderr)
	if err != nil {
		c.exitCode = ExitRuntimeError
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if err := fn(ctx, a); err != nil {
		if c.exitCode == ExitSuccess {
			c.exitCode = ExitRuntimeError
		}
		return err
	}
	return nil
}

func (c *command) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print asset-cache version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "asset-cache version %s\n", version)
		},
	}
}
