// Package main provides the codedir CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kashari/golog"
	"github.com/richinex/codedir/cli"
	"github.com/richinex/codedir/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile  string
	dbPath      string
	lineCount   int
	threadCount int
	verbose     bool

	logOnce sync.Once
	logErr  error
	logOpen bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codedir",
		Short: "Longest-prefix rate lookup for dialing codes",
		Long: `Answers "which rates does vendor V offer for region R" and
"which vendors cover region R" from a table of vendor rates per dialing
code prefix and a table naming regions by code prefix.

Rates and region names are imported from CSV into a SQLite table and
loaded into per-vendor prefix trees on every command.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "Configuration file (.env format)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "s", "", "Rate table database path (overrides CODEDIR_DB)")
	rootCmd.PersistentFlags().IntVarP(&lineCount, "line-count", "l", 0, "Rows fetched per page from the rate table (overrides CODEDIR_LINE_COUNT)")
	rootCmd.PersistentFlags().IntVarP(&threadCount, "thread-count", "t", -1, "Loader threads, 0 means one per CPU (overrides CODEDIR_THREADS)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show load reports")

	rootCmd.AddCommand(importRatesCmd())
	rootCmd.AddCommand(importCodenamesCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(vendorsCmd())
	rootCmd.AddCommand(regionsCmd())
	rootCmd.AddCommand(listVendorsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

// openLog initialises golog once per process. Every golog call panics
// until Init has run.
func openLog(path string) error {
	logOnce.Do(func() {
		logErr = golog.Init(path)
		logOpen = logErr == nil
	})
	return logErr
}

func closeLog() {
	if logOpen {
		golog.Close()
	}
}

// settings loads the config file and environment, then applies flags.
func settings() (config.Settings, error) {
	found, err := config.Load(configFile)
	if err != nil {
		return config.Settings{}, err
	}
	s, err := config.New()
	if err != nil {
		return config.Settings{}, err
	}
	if err := openLog(s.LogFile); err != nil {
		return config.Settings{}, fmt.Errorf("failed to open log file %s: %w", s.LogFile, err)
	}
	// the default file is optional; a named one that is missing is worth a warning
	if !found && (verbose || configFile != config.DefaultConfigFile) {
		golog.Warn("Can't open config file {}", configFile)
	}

	if dbPath != "" {
		s.Storage.DBPath = dbPath
	}
	if lineCount > 0 {
		s.Loader.LineCount = lineCount
	}
	if threadCount >= 0 {
		s.Loader.ThreadCount = threadCount
	}
	return s, nil
}

func options(cmd *cobra.Command) (cli.Options, error) {
	s, err := settings()
	if err != nil {
		return cli.Options{}, err
	}
	opts := cli.OptionsFrom(s)
	opts.Verbose = verbose
	opts.Out = cmd.OutOrStdout()
	return opts, nil
}

func importRatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-rates FILE",
		Short: "Append a vendor_id,code,rate[,effective_date,end_date] CSV file to the rate table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.ImportRatesFile(cmd.Context(), args[0], opts)
		},
	}
}

func importCodenamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-codenames FILE",
		Short: "Append a code,name CSV file to the region table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.ImportCodenamesFile(cmd.Context(), args[0], opts)
		},
	}
}

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates VENDOR REGION",
		Short: "List the rates a vendor offers for a region",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.Rates(cmd.Context(), args[0], args[1], opts)
		},
	}
}

func vendorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vendors REGION",
		Short: "List vendors covering a region with their minimum and maximum rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.Vendors(cmd.Context(), args[0], opts)
		},
	}
}

func regionsCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List region names",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.Regions(cmd.Context(), prefix, opts)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only names starting with this prefix")

	return cmd
}

func listVendorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-vendors",
		Short: "List every vendor id in the rate table",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.ListVendors(cmd.Context(), opts)
		},
	}
}

func statsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show prefix tree node statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return cli.Stats(cmd.Context(), all, opts)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also show statistics per vendor")

	return cmd
}

func serveCmd() *cobra.Command {
	var (
		address string
		port    int
		reload  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve directory queries over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("address") {
				if err := config.ValidateAddress(address); err != nil {
					return err
				}
				s.Server.Address = address
			}
			if cmd.Flags().Changed("port") {
				s.Server.Port = port
			}
			if cmd.Flags().Changed("reload") {
				s.Server.ReloadInterval = time.Duration(reload) * time.Second
			}

			opts := cli.OptionsFrom(s)
			opts.Verbose = verbose
			opts.Out = cmd.OutOrStdout()
			return cli.Serve(cmd.Context(), s.Server, opts)
		},
	}

	cmd.Flags().StringVar(&address, "address", "http://127.0.0.1", "Server host name or ip address (overrides CODEDIR_ADDRESS)")
	cmd.Flags().IntVar(&port, "port", 8008, "Port for the listening socket (overrides CODEDIR_PORT)")
	cmd.Flags().IntVar(&reload, "reload", 0, "Reload the rate table every N seconds, 0 disables (overrides CODEDIR_RELOAD_SECONDS)")

	return cmd
}
