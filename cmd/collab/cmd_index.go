package main

import (
	"context"
	"fmt"

	"collab/internal/store"

	"github.com/spf13/cobra"
)

func newIndexCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "index <participations_file> <titles_file>",
		Short: "Build the SQLite index from the text inputs",
		Long: `Parses both inputs exactly like the report does and stores them in a
SQLite database. Any previous content of the database is replaced.

Example:
  collab index partecipazioni.txt title.basics.tsv --index data/collab.db
  collab report --index data/collab.db 5 7 11`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, opts, args[0], args[1])
		},
	}
}

func runIndex(cmd *cobra.Command, opts *options, partsPath, titlesPath string) error {
	path := opts.cfg.Index.Path
	if path == "" {
		return fmt.Errorf("index path required (use --index or index.path in the config)")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	titles, parts, err := loadInputs(opts, partsPath, titlesPath)
	if err != nil {
		return err
	}

	idx, err := store.Open(path, opts.logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	info := store.BuildInfo{
		Layout:     opts.cfg.Dataset.Layout,
		WorkPrefix: opts.cfg.Dataset.TitlePrefix,
	}
	if err := idx.Import(ctx, titles, parts, info); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	st, err := idx.Stats()
	if err != nil {
		return err
	}
	meta, err := idx.Meta()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Index: %s\n", idx.Path())
	fmt.Fprintf(out, "  titles:         %d\n", st.Titles)
	fmt.Fprintf(out, "  people:         %d\n", st.People)
	fmt.Fprintf(out, "  participations: %d\n", st.Participations)
	fmt.Fprintf(out, "  layout:         %s\n", meta["layout"])
	return nil
}
