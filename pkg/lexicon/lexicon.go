package lexicon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/observability/metrics"
)

// MatchMode selects the most permissive tier an entry participates in.
type MatchMode string

const (
	MatchExact      MatchMode = "exact"
	MatchNormalized MatchMode = "normalized"
	MatchFuzzy      MatchMode = "fuzzy"
)

// Entry is one immutable lexicon row, loaded once per language.
type Entry struct {
	Term     string
	Language string
	Category detection.Category
	Severity float64
	Mode     MatchMode

	// precomputed matching forms
	termRunes   []rune
	foldedRunes []rune
}

func (e *Entry) prepare() {
	e.termRunes = []rune(strings.ToLower(e.Term))
	e.foldedRunes, _ = normalize.FoldRunes(e.termRunes)
}

// Lexicon is an immutable snapshot of all per-language term lists. Requests
// hold the snapshot for their whole lifetime; reloads swap a new one in.
type Lexicon struct {
	byLang map[string][]Entry
}

// Entries returns the entries for a language, nil if none loaded.
func (l *Lexicon) Entries(lang string) []Entry { return l.byLang[lang] }

// Languages returns the language codes with at least one entry.
func (l *Lexicon) Languages() []string {
	out := make([]string, 0, len(l.byLang))
	for lang := range l.byLang {
		out = append(out, lang)
	}
	return out
}

// fileFormat is the YAML layout of one per-language lexicon file.
type fileFormat struct {
	Language string `yaml:"language"`
	Entries  []struct {
		Term      string  `yaml:"term"`
		Category  string  `yaml:"category"`
		Severity  float64 `yaml:"severity"`
		MatchMode string  `yaml:"match_mode"`
	} `yaml:"entries"`
}

// LoadDir loads every <lang>.yaml file in dir into one snapshot. Malformed
// rows are skipped with a warning; a file that fails to parse degrades that
// language rather than failing the load. A missing directory yields the
// built-in seed lexicon.
func LoadDir(dir string) (*Lexicon, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan lexicon dir: %w", err)
	}
	if len(files) == 0 {
		logging.Warnf("No lexicon files found in %q, using built-in seed lexicon", dir)
		return Builtin(), nil
	}

	lex := &Lexicon{byLang: map[string][]Entry{}}
	for _, path := range files {
		lang, entries, err := loadFile(path)
		if err != nil {
			logging.Errorf("Skipping lexicon file %s: %v", path, err)
			continue
		}
		lex.byLang[lang] = append(lex.byLang[lang], entries...)
		metrics.LexiconEntries.WithLabelValues(lang).Set(float64(len(lex.byLang[lang])))
		logging.Infof("Loaded %d lexicon entries for language %q from %s", len(entries), lang, path)
	}
	return lex, nil
}

func loadFile(path string) (string, []Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("parse error: %w", err)
	}
	lang := f.Language
	if lang == "" {
		lang = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}

	var entries []Entry
	for i, row := range f.Entries {
		if row.Term == "" {
			logging.Warnf("Lexicon %s row %d: empty term, skipping", path, i)
			continue
		}
		if row.Severity < 0 || row.Severity > 1 {
			logging.Warnf("Lexicon %s row %d (%q): severity %.3f outside [0,1], skipping", path, i, row.Term, row.Severity)
			continue
		}
		mode := MatchMode(row.MatchMode)
		switch mode {
		case MatchExact, MatchNormalized, MatchFuzzy:
		case "":
			mode = MatchNormalized
		default:
			logging.Warnf("Lexicon %s row %d (%q): unknown match_mode %q, skipping", path, i, row.Term, row.MatchMode)
			continue
		}
		cat := detection.Category(row.Category)
		sev := row.Severity
		if sev == 0 {
			sev = cat.BaseSeverity()
		}
		e := Entry{
			Term:     row.Term,
			Language: lang,
			Category: cat,
			Severity: sev,
			Mode:     mode,
		}
		e.prepare()
		entries = append(entries, e)
	}
	return lang, entries, nil
}

// Store holds the current lexicon snapshot. Reload builds a complete new
// snapshot and swaps it; in-flight requests keep the snapshot they started
// with.
type Store struct {
	mu  sync.RWMutex
	lex *Lexicon
	dir string
}

// NewStore loads the initial snapshot from dir.
func NewStore(dir string) (*Store, error) {
	lex, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return &Store{lex: lex, dir: dir}, nil
}

// NewStoreWith wraps a pre-built lexicon, used by tests.
func NewStoreWith(lex *Lexicon) *Store {
	return &Store{lex: lex}
}

// Snapshot returns the current immutable lexicon.
func (s *Store) Snapshot() *Lexicon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lex
}

// Reload rebuilds the snapshot from disk and swaps it in.
func (s *Store) Reload() error {
	lex, err := LoadDir(s.dir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lex = lex
	s.mu.Unlock()
	logging.Infof("Lexicon reloaded from %q (%d languages)", s.dir, len(lex.byLang))
	return nil
}

// Watch reloads the store when files in its directory change. It blocks
// until the stop channel closes.
func (s *Store) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create lexicon watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch lexicon dir %q: %w", s.dir, err)
	}

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				logging.Errorf("Lexicon reload after %s failed: %v", event.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("Lexicon watcher error: %v", err)
		}
	}
}
