package main

import (
	"fmt"
	"time"

	"collab/internal/dataset"
	"collab/internal/logging"
	"collab/internal/report"
	"collab/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newReportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report <participations_file> <titles_file> <person_id_1> <person_id_2> [...]",
		Short: "Print the collaborations of consecutive people (default command)",
		Long: `Prints, for every adjacent pair of person ids, the works both people
were credited on, ordered by numeric work id.

With --index the inputs are read from a SQLite index built by 'collab index'
and every positional argument is a person id. Only the flag selects the
index; without it the first two arguments are always the input files.`,
		Args: reportArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, args)
		},
	}
}

// reportArgs rejects obviously short argument lists before any input is
// touched. runReport checks the full minimum once it knows whether --index
// was given.
func reportArgs() cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return usageError()
		}
		return nil
	}
}

func usageError() error {
	return fmt.Errorf("usage: %s\n(at least two person ids are required)", usageLine)
}

// slowLoad is the duration after which input loading is reported as slow.
const slowLoad = 10 * time.Second

func runReport(cmd *cobra.Command, opts *options, args []string) error {
	var (
		titles report.TitleLookup
		parts  report.ParticipationLookup
		people []string
	)

	if path := opts.indexPath; path != "" {
		idx, err := store.OpenExisting(path, opts.logger)
		if err != nil {
			return err
		}
		defer idx.Close()
		titles, parts = idx, idx
		people = args
	} else {
		if len(args) < 4 {
			return usageError()
		}
		catalog, index, err := loadInputs(opts, args[0], args[1])
		if err != nil {
			return err
		}
		titles, parts = catalog, index
		people = args[2:]
	}

	r := report.New(titles, parts, report.Options{
		UnknownTitle: opts.cfg.Report.UnknownTitle,
		Terminator:   opts.cfg.Report.Terminator,
		Logger:       opts.logger,
	})
	return r.Write(cmd.OutOrStdout(), people)
}

// loadInputs loads the title catalog and the participation index. Both are
// loaded before anything is reported, so a failure leaves stdout untouched.
func loadInputs(opts *options, partsPath, titlesPath string) (*dataset.TitleCatalog, *dataset.ParticipationIndex, error) {
	log := logging.For(opts.logger, logging.CategoryBoot)
	timer := logging.StartTimer(log, "LoadInputs")
	defer timer.StopWithThreshold(slowLoad)

	layout, err := dataset.ParseLayout(opts.cfg.Dataset.Layout)
	if err != nil {
		return nil, nil, err
	}
	prefix := opts.cfg.Dataset.TitlePrefix

	var (
		titles *dataset.TitleCatalog
		parts  *dataset.ParticipationIndex
	)
	loadTitles := func() error {
		var err error
		titles, err = dataset.LoadTitles(titlesPath, dataset.TitleOptions{
			WorkPrefix: prefix,
			Logger:     opts.logger,
		})
		return err
	}
	loadParts := func() error {
		var err error
		parts, err = dataset.LoadParticipations(partsPath, dataset.ParticipationOptions{
			Layout:     layout,
			WorkPrefix: prefix,
			Logger:     opts.logger,
		})
		return err
	}

	if opts.cfg.Load.Parallel {
		var g errgroup.Group
		g.Go(loadTitles)
		g.Go(loadParts)
		err = g.Wait()
	} else {
		err = loadTitles()
		if err == nil {
			err = loadParts()
		}
	}
	if err != nil {
		return nil, nil, err
	}

	log.Debug("inputs loaded",
		zap.Int("titles", titles.Len()),
		zap.Int("people", parts.Len()))
	return titles, parts, nil
}
