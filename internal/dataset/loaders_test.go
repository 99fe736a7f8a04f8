package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func sortedWorks(p *ParticipationIndex, person string) []string {
	w := p.Works(person)
	sort.Slice(w, func(i, j int) bool { return CompareWorkIDs(w[i], w[j]) < 0 })
	return w
}

func TestLoadTitles(t *testing.T) {
	path := writeFile(t, "title.basics.tsv",
		"tconst\ttitleType\tprimaryTitle\n"+
			"tt0000123\tmovie\tMovie One\n"+
			"tt0000456\tshort\tShort Two\textra\tcolumns\n"+
			"tt0000789\tonly-two-fields\n"+
			"ttabc\tmovie\tBroken Id\n"+
			"\n"+
			"tt0000123\tmovie\tMovie One (Redux)\r\n")

	cat, err := LoadTitles(path, TitleOptions{WorkPrefix: DefaultWorkPrefix})
	if err != nil {
		t.Fatalf("LoadTitles failed: %v", err)
	}

	got := map[string]string{}
	cat.Each(func(id, title string) { got[id] = title })
	want := map[string]string{
		"123": "Movie One (Redux)",
		"456": "Short Two",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
	if cat.Len() != 2 {
		t.Errorf("expected Len=2, got %d", cat.Len())
	}
}

func TestLoadTitlesHeaderAlwaysSkipped(t *testing.T) {
	// A header that happens to look like data is still dropped.
	path := writeFile(t, "titles.tsv", "tt0000001\tmovie\tLooks Like Data\ntt0000002\tmovie\tReal\n")

	cat, err := LoadTitles(path, TitleOptions{WorkPrefix: DefaultWorkPrefix})
	if err != nil {
		t.Fatalf("LoadTitles failed: %v", err)
	}
	if _, ok := cat.Title("1"); ok {
		t.Error("header line should not be loaded")
	}
	if title, ok := cat.Title("2"); !ok || title != "Real" {
		t.Errorf("expected title Real for 2, got %q (%v)", title, ok)
	}
}

func TestLoadTitlesLogsCount(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	path := writeFile(t, "titles.tsv", "h\th\th\ntt1\tm\tA\ntt2\tm\tB\n")

	if _, err := LoadTitles(path, TitleOptions{WorkPrefix: "tt", Logger: zap.New(core)}); err != nil {
		t.Fatalf("LoadTitles failed: %v", err)
	}
	entries := logs.FilterMessage("titles loaded").All()
	if len(entries) != 1 {
		t.Fatalf("expected one count entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["count"]; got != int64(2) {
		t.Errorf("expected count=2, got %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.tsv")

	_, err := LoadTitles(missing, TitleOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var le *LoadError
	if !errors.As(err, &le) || le.Path != missing {
		t.Fatalf("expected *LoadError for %s, got %#v", missing, err)
	}

	_, err = LoadParticipations(missing, ParticipationOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// A directory opens but cannot be read as lines.
	dir := t.TempDir()
	_, err = LoadTitles(dir, TitleOptions{})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO for directory, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("directory read failure must not be ErrNotFound")
	}
}

func TestLoadRejectsInvalidUTF8(t *testing.T) {
	path := writeFile(t, "bad.tsv", "h\th\th\ntt1\tm\t\xff\xfe\n")
	_, err := LoadTitles(path, TitleOptions{WorkPrefix: "tt"})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO for invalid UTF-8, got %v", err)
	}
}

func TestLoadParticipationsPersonLayout(t *testing.T) {
	path := writeFile(t, "partecipazioni.txt",
		"5\t1\t123\n"+
			"7\t2\t123\t456\n"+
			"9\n"+
			"11 0\n"+
			"13\t3\t0042\ttt0099\tjunk\n"+
			"7\t1\t789\n")

	idx, err := LoadParticipations(path, ParticipationOptions{Layout: LayoutPerson, WorkPrefix: DefaultWorkPrefix})
	if err != nil {
		t.Fatalf("LoadParticipations failed: %v", err)
	}

	tests := []struct {
		person string
		want   []string
	}{
		{"5", []string{"123"}},
		{"7", []string{"789"}}, // later line replaces
		{"9", []string{}},      // skipped, absent
		{"11", []string{}},     // present, empty
		{"13", []string{"42", "99"}},
		{"404", []string{}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, sortedWorks(idx, tt.person)); diff != "" {
			t.Errorf("works(%s) mismatch (-want +got):\n%s", tt.person, diff)
		}
	}
	if idx.Len() != 4 {
		t.Errorf("expected 4 people, got %d", idx.Len())
	}
}

func TestLoadParticipationsTitleLayout(t *testing.T) {
	path := writeFile(t, "by-title.txt",
		"123 5 7\n"+
			"456 7\n"+
			"789\n"+
			"bogus 5\n"+
			"0123 9\n")

	idx, err := LoadParticipations(path, ParticipationOptions{Layout: LayoutTitle, WorkPrefix: DefaultWorkPrefix})
	if err != nil {
		t.Fatalf("LoadParticipations failed: %v", err)
	}

	want := map[string][]string{
		"5": {"123"},
		"7": {"123", "456"},
		"9": {"123"},
	}
	for person, works := range want {
		if diff := cmp.Diff(works, sortedWorks(idx, person)); diff != "" {
			t.Errorf("works(%s) mismatch (-want +got):\n%s", person, diff)
		}
	}
	if idx.Len() != 3 {
		t.Errorf("expected 3 people, got %d", idx.Len())
	}
}

func TestLoadParticipationsUnknownLayout(t *testing.T) {
	path := writeFile(t, "p.txt", "1 1 1\n")
	if _, err := LoadParticipations(path, ParticipationOptions{Layout: Layout(9)}); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestParseLayout(t *testing.T) {
	for in, want := range map[string]Layout{"": LayoutPerson, "person": LayoutPerson, "Title": LayoutTitle} {
		got, err := ParseLayout(in)
		if err != nil || got != want {
			t.Errorf("ParseLayout(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}
	if _, err := ParseLayout("auto"); err == nil {
		t.Error("expected error for auto layout")
	}
}

func TestWorksReturnsCopy(t *testing.T) {
	idx := NewParticipationIndex(map[string][]string{"1": {"10", "20"}})
	w := idx.Works("1")
	w[0] = "mutated"
	for _, id := range idx.Works("1") {
		if id == "mutated" {
			t.Fatal("Works must not expose internal state")
		}
	}
}

func TestCanonicalJoinAcrossLoaders(t *testing.T) {
	titles := writeFile(t, "titles.tsv", "h\th\th\ntt0000123\tx\tMovie One\n")
	parts := writeFile(t, "p.txt", "5 1 00123\n")

	cat, err := LoadTitles(titles, TitleOptions{WorkPrefix: DefaultWorkPrefix})
	if err != nil {
		t.Fatal(err)
	}
	idx, err := LoadParticipations(parts, ParticipationOptions{WorkPrefix: DefaultWorkPrefix})
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range idx.Works("5") {
		if _, ok := cat.Title(w); !ok {
			t.Errorf("work %q from participations has no title", w)
		}
	}
}
