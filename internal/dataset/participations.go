package dataset

import (
	"fmt"
	"strings"

	"collab/internal/logging"

	"go.uber.org/zap"
)

// Layout selects how a participation file is laid out. The two layouts are
// not interchangeable and are never auto-detected.
type Layout int

const (
	// LayoutPerson: "person count work work ...". A repeated person replaces
	// the works recorded by the earlier line.
	LayoutPerson Layout = iota
	// LayoutTitle: "work person person ...". Each person accumulates the work.
	LayoutTitle
)

func (l Layout) String() string {
	switch l {
	case LayoutPerson:
		return "person"
	case LayoutTitle:
		return "title"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout maps a configuration value onto a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "person":
		return LayoutPerson, nil
	case "title":
		return LayoutTitle, nil
	default:
		return 0, fmt.Errorf("unknown participation layout %q (valid: person, title)", s)
	}
}

// ParticipationIndex maps person identifiers to the canonical ids of the
// works they participated in. It is built once and never mutated afterwards.
type ParticipationIndex struct {
	works map[string]map[string]struct{}
}

// NewParticipationIndex copies m into an index. Work ids are expected to be
// canonical.
func NewParticipationIndex(m map[string][]string) *ParticipationIndex {
	works := make(map[string]map[string]struct{}, len(m))
	for person, ids := range m {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		works[person] = set
	}
	return &ParticipationIndex{works: works}
}

// Works returns the works of person in unspecified order. An unknown person
// has no works. The returned slice is owned by the caller.
func (p *ParticipationIndex) Works(person string) []string {
	if p == nil {
		return nil
	}
	set := p.works[person]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Len returns the number of people in the index.
func (p *ParticipationIndex) Len() int {
	if p == nil {
		return 0
	}
	return len(p.works)
}

// Each calls fn for every person in unspecified order.
func (p *ParticipationIndex) Each(fn func(person string, works []string)) {
	if p == nil {
		return
	}
	for person := range p.works {
		fn(person, p.Works(person))
	}
}

// ParticipationOptions controls LoadParticipations.
type ParticipationOptions struct {
	Layout Layout
	// WorkPrefix must match TitleOptions.WorkPrefix so both sides produce
	// the same canonical ids.
	WorkPrefix string
	Logger     *zap.Logger
}

// LoadParticipations parses a whitespace-separated participation file.
// Lines with fewer than two fields are skipped, as are work tokens that do
// not canonicalize.
func LoadParticipations(path string, opts ParticipationOptions) (*ParticipationIndex, error) {
	log := logging.For(opts.Logger, logging.CategoryParticipations)
	timer := logging.StartTimer(log, "LoadParticipations")
	defer timer.Stop()

	log.Info("loading participations",
		zap.String("path", path),
		zap.Stringer("layout", opts.Layout))

	var parse func(fields []string) bool
	works := make(map[string]map[string]struct{})
	switch opts.Layout {
	case LayoutPerson:
		parse = func(fields []string) bool {
			set := make(map[string]struct{}, len(fields)-2)
			for _, tok := range fields[2:] {
				if id, ok := CanonicalWorkID(tok, opts.WorkPrefix); ok {
					set[id] = struct{}{}
				}
			}
			works[fields[0]] = set
			return true
		}
	case LayoutTitle:
		parse = func(fields []string) bool {
			id, ok := CanonicalWorkID(fields[0], opts.WorkPrefix)
			if !ok {
				return false
			}
			for _, person := range fields[1:] {
				set, exists := works[person]
				if !exists {
					set = make(map[string]struct{})
					works[person] = set
				}
				set[id] = struct{}{}
			}
			return true
		}
	default:
		return nil, fmt.Errorf("load participations: unsupported layout %v", opts.Layout)
	}

	skipped := 0
	err := scanLines(path, func(_ int, line string) {
		fields := strings.Fields(line)
		if len(fields) < 2 || !parse(fields) {
			skipped++
		}
	})
	if err != nil {
		log.Error("failed to load participations", zap.Error(err))
		return nil, err
	}

	log.Info("participations loaded", zap.Int("people", len(works)))
	if skipped > 0 {
		log.Debug("skipped malformed participation lines", zap.Int("skipped", skipped))
	}
	return &ParticipationIndex{works: works}, nil
}
