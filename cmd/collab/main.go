// Command collab reports the works shared by consecutive people of a list.
//
//	collab <participations> <titles> <id1> <id2> [...]
package main

import (
	"fmt"
	"os"

	"collab/internal/config"
	"collab/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const usageLine = "collab <participations_file> <titles_file> <person_id_1> <person_id_2> [...]"

// options holds the global flags and the state PersistentPreRunE prepares
// for the subcommands.
type options struct {
	configPath string
	verbose    bool
	layout     string
	indexPath  string
	sequential bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "collab <participations_file> <titles_file> <person_id_1> <person_id_2> [...]",
		Short: "Report shared works between consecutive people",
		Long: `collab loads a work catalog (work id -> title) and a participation file
(person -> works) and, for every adjacent pair in the list of person ids,
prints the works both people were credited on.

Participation layouts (pick one with --layout, never auto-detected):
  person  "person count work work ..."  later lines replace earlier ones
  title   "work person person ..."      people accumulate works`,
		Args:          reportArgs(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&opts.layout, "layout", "", "Participation file layout: person or title")
	flags.StringVar(&opts.indexPath, "index", "", "SQLite index path (built with 'collab index')")
	flags.BoolVar(&opts.sequential, "sequential", false, "Load inputs one after the other")

	rootCmd.AddCommand(newReportCmd(opts))
	rootCmd.AddCommand(newIndexCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	return rootCmd
}

// setup resolves the configuration and builds the logger.
func (o *options) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.layout != "" {
		cfg.Dataset.Layout = o.layout
	}
	if o.indexPath != "" {
		cfg.Index.Path = o.indexPath
	}
	if o.sequential {
		cfg.Load.Parallel = false
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	o.cfg = cfg
	o.logger = logger.With(zap.String("run_id", uuid.NewString()))
	logging.For(o.logger, logging.CategoryBoot).Debug("configuration resolved",
		zap.String("layout", cfg.Dataset.Layout),
		zap.String("index", o.indexPath),
		zap.Bool("parallel", cfg.Load.Parallel))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
