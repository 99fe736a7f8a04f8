// Package report renders the collaborations between consecutive people of
// a list: for each adjacent pair, the works both were credited on.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"

	"collab/internal/dataset"
	"collab/internal/logging"

	"go.uber.org/zap"
)

const (
	// DefaultUnknownTitle is printed for shared works missing from the catalog.
	DefaultUnknownTitle = "Titolo Sconosciuto"
	// DefaultTerminator closes every report.
	DefaultTerminator = "=== Fine"
)

// ErrTooFewPeople is returned when fewer than two people are requested.
var ErrTooFewPeople = errors.New("report needs at least two people")

// TitleLookup resolves canonical work ids to titles.
type TitleLookup interface {
	Title(id string) (string, bool)
}

// ParticipationLookup returns the canonical work ids a person worked on.
// An unknown person yields no works.
type ParticipationLookup interface {
	Works(person string) []string
}

// Failer is implemented by lookups whose reads can fail, such as the SQLite
// index. Its error is checked after every pair is computed and before
// anything is written.
type Failer interface {
	Err() error
}

// Work is one shared work of a pair.
type Work struct {
	ID    string
	Title string
	Known bool // false when Title is the placeholder
}

// PairResult holds the shared works of one adjacent pair, ordered by
// ascending numeric id.
type PairResult struct {
	First  string
	Second string
	Works  []Work
}

// Options customizes rendering. Zero values fall back to the defaults.
type Options struct {
	UnknownTitle string
	Terminator   string
	Logger       *zap.Logger
}

// Reporter computes and renders pair collaborations. It only reads from
// its lookups.
type Reporter struct {
	titles       TitleLookup
	parts        ParticipationLookup
	unknownTitle string
	terminator   string
	log          *zap.Logger
}

// New creates a Reporter over the given lookups.
func New(titles TitleLookup, parts ParticipationLookup, opts Options) *Reporter {
	r := &Reporter{
		titles:       titles,
		parts:        parts,
		unknownTitle: opts.UnknownTitle,
		terminator:   opts.Terminator,
		log:          logging.For(opts.Logger, logging.CategoryReport),
	}
	if r.unknownTitle == "" {
		r.unknownTitle = DefaultUnknownTitle
	}
	if r.terminator == "" {
		r.terminator = DefaultTerminator
	}
	return r
}

// Pair computes the shared works of a and b.
func (r *Reporter) Pair(a, b string) PairResult {
	res := PairResult{First: a, Second: b}

	mine := make(map[string]struct{})
	for _, id := range r.parts.Works(a) {
		mine[id] = struct{}{}
	}
	seen := make(map[string]struct{})
	for _, id := range r.parts.Works(b) {
		if _, ok := mine[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		title, ok := r.titles.Title(id)
		if !ok {
			title = r.unknownTitle
		}
		res.Works = append(res.Works, Work{ID: id, Title: title, Known: ok})
	}

	sort.Slice(res.Works, func(i, j int) bool {
		return dataset.CompareWorkIDs(res.Works[i].ID, res.Works[j].ID) < 0
	})
	return res
}

// Pairs computes one result per adjacent pair of people, in input order.
func (r *Reporter) Pairs(people []string) ([]PairResult, error) {
	if len(people) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPeople, len(people))
	}
	results := make([]PairResult, 0, len(people)-1)
	for i := 0; i+1 < len(people); i++ {
		res := r.Pair(people[i], people[i+1])
		r.log.Debug("pair computed",
			zap.String("first", res.First),
			zap.String("second", res.Second),
			zap.Int("shared", len(res.Works)))
		results = append(results, res)
	}
	if err := r.lookupErr(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Reporter) lookupErr() error {
	for _, l := range []any{r.titles, r.parts} {
		if f, ok := l.(Failer); ok {
			if err := f.Err(); err != nil {
				return fmt.Errorf("read lookups: %w", err)
			}
		}
	}
	return nil
}

// Write renders the report for people to w, followed by the terminator line.
func (r *Reporter) Write(w io.Writer, people []string) error {
	timer := logging.StartTimer(r.log, "Report")
	defer timer.Stop()

	results, err := r.Pairs(people)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, res := range results {
		writePair(bw, res)
	}
	fmt.Fprintln(bw, r.terminator)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	r.log.Info("report written", zap.Int("pairs", len(results)))
	return nil
}

func writePair(w io.Writer, res PairResult) {
	if len(res.Works) == 0 {
		fmt.Fprintf(w, "%s.%s nessuna collaborazione\n\n", res.First, res.Second)
		return
	}
	fmt.Fprintf(w, "%s.%s: %d collaborazioni:\n", res.First, res.Second, len(res.Works))
	for _, work := range res.Works {
		fmt.Fprintf(w, " %s %s\n", work.ID, work.Title)
	}
	fmt.Fprintln(w)
}
