package dataset

import (
	"strings"

	"collab/internal/logging"

	"go.uber.org/zap"
)

// TitleCatalog maps canonical work identifiers to titles.
// It is built once by LoadTitles and never mutated afterwards.
type TitleCatalog struct {
	titles map[string]string
}

// NewTitleCatalog copies m into a catalog. Keys are expected to be canonical.
func NewTitleCatalog(m map[string]string) *TitleCatalog {
	titles := make(map[string]string, len(m))
	for id, title := range m {
		titles[id] = title
	}
	return &TitleCatalog{titles: titles}
}

// Title returns the title for a canonical work id.
func (c *TitleCatalog) Title(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	title, ok := c.titles[id]
	return title, ok
}

// Len returns the number of distinct works in the catalog.
func (c *TitleCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.titles)
}

// Each calls fn for every entry in unspecified order.
func (c *TitleCatalog) Each(fn func(id, title string)) {
	if c == nil {
		return
	}
	for id, title := range c.titles {
		fn(id, title)
	}
}

// TitleOptions controls LoadTitles.
type TitleOptions struct {
	// WorkPrefix is stripped from column 0 before canonicalization.
	WorkPrefix string
	Logger     *zap.Logger
}

// LoadTitles parses a tab-separated work catalog. The first line is a
// header and is always skipped. Column 0 holds the prefixed work id and
// column 2 the title; lines with fewer than three columns or an
// unparseable id are skipped.
func LoadTitles(path string, opts TitleOptions) (*TitleCatalog, error) {
	log := logging.For(opts.Logger, logging.CategoryTitles)
	timer := logging.StartTimer(log, "LoadTitles")
	defer timer.Stop()

	log.Info("loading titles", zap.String("path", path))

	titles := make(map[string]string)
	skipped := 0
	err := scanLines(path, func(lineNo int, line string) {
		if lineNo == 1 {
			return
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			skipped++
			return
		}
		id, ok := CanonicalWorkID(fields[0], opts.WorkPrefix)
		if !ok {
			skipped++
			return
		}
		titles[id] = fields[2]
	})
	if err != nil {
		log.Error("failed to load titles", zap.Error(err))
		return nil, err
	}

	log.Info("titles loaded", zap.Int("count", len(titles)))
	if skipped > 0 {
		log.Debug("skipped malformed title lines", zap.Int("skipped", skipped))
	}
	return &TitleCatalog{titles: titles}, nil
}
