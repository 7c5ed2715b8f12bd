package local

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/logger"
)

const (
	// SourceID identifies this source in results.
	SourceID = "local"

	// ExactConfidence is reported when an entry names the exact version.
	ExactConfidence = 1.0

	// CycleConfidence is reported for cycle and product-wide entries.
	CycleConfidence = 0.9
)

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)*`)

// Source answers lookups from an overrides file and reloads it on change.
type Source struct {
	path string

	mu      sync.RWMutex
	entries []Entry

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	// reloaded is signalled after each reload attempt. Used by tests.
	reloaded chan struct{}
}

// Ensure Source implements the interfaces.
var (
	_ driven.LookupSource = (*Source)(nil)
	_ driven.Closer       = (*Source)(nil)
)

// New loads the overrides file at path and starts watching it.
func New(path string) (*Source, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace files by renaming over them.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	s := &Source{
		path:     filepath.Clean(path),
		entries:  entries,
		watcher:  watcher,
		done:     make(chan struct{}),
		reloaded: make(chan struct{}, 1),
	}
	s.wg.Add(1)
	go s.watch()

	logger.Info("Loaded %d local overrides from %s", len(entries), path)
	return s, nil
}

// ID returns the source identifier.
func (s *Source) ID() string { return SourceID }

// Affinity returns the routing declaration. The source is generic: entries
// can change at runtime while routing is fixed at registration.
func (s *Source) Affinity() driven.SourceAffinity {
	return driven.SourceAffinity{}
}

// Len returns the number of loaded entries.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Lookup resolves a variant against the loaded entries. It performs no I/O.
func (s *Source) Lookup(ctx context.Context, v domain.Variant) (domain.LookupResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.NotFound(SourceID), err
	}

	name := words(v.Name)
	version := versionPattern.FindString(v.Version)
	if version == "" {
		version = versionInName(name)
	}

	s.mu.RLock()
	entry, conf, ok := match(s.entries, name, version)
	s.mu.RUnlock()
	if !ok {
		return domain.NotFound(SourceID), nil
	}

	cycle := entry.Cycle
	if cycle == "" {
		cycle = entry.Version
	}
	eol := entry.EOLDate()
	return domain.LookupResult{
		Found:         true,
		Cycle:         cycle,
		EOLDate:       domain.Date(eol),
		LatestVersion: entry.Latest,
		IsLTS:         entry.LTS,
		Confidence:    conf,
		SourceID:      SourceID,
	}, nil
}

// match picks the best entry for a product name and version: an exact
// version entry, then the longest matching cycle, then a product-wide entry.
// Among entries of one kind the longest product name wins.
func match(entries []Entry, name, version string) (Entry, float64, bool) {
	padded := " " + name + " "

	var (
		exact, cycle, product       *Entry
		exactLen, cycleLen, nameLen int
	)
	for i := range entries {
		e := &entries[i]
		if !strings.Contains(padded, " "+e.Name+" ") {
			continue
		}
		switch {
		case e.Version != "":
			if version == e.Version && len(e.Name) > exactLen {
				exact, exactLen = e, len(e.Name)
			}
		case e.Cycle != "":
			if (version == e.Cycle || strings.HasPrefix(version, e.Cycle+".")) &&
				len(e.Name)+len(e.Cycle) > cycleLen {
				cycle, cycleLen = e, len(e.Name)+len(e.Cycle)
			}
		default:
			if len(e.Name) > nameLen {
				product, nameLen = e, len(e.Name)
			}
		}
	}

	switch {
	case exact != nil:
		return *exact, ExactConfidence, true
	case cycle != nil:
		return *cycle, CycleConfidence, true
	case product != nil:
		return *product, CycleConfidence, true
	default:
		return Entry{}, 0, false
	}
}

// Close stops watching the overrides file.
func (s *Source) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	err := s.watcher.Close()
	s.wg.Wait()
	return err
}

func (s *Source) watch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if s.handleEvent(ev) {
				s.reload()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Local overrides watcher: %v", err)
		}
	}
}

// handleEvent reports whether an event requires reloading the file.
func (s *Source) handleEvent(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != s.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (s *Source) reload() {
	defer func() {
		select {
		case s.reloaded <- struct{}{}:
		default:
		}
	}()

	entries, err := Load(s.path)
	if err != nil {
		logger.Warn("Keeping previous local overrides: %v", err)
		return
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	logger.Info("Reloaded %d local overrides from %s", len(entries), s.path)
}

func versionInName(name string) string {
	fields := strings.Fields(name)
	for i := 1; i < len(fields); i++ {
		if strings.Trim(fields[i], "0123456789.") == "" && versionPattern.MatchString(fields[i]) {
			return fields[i]
		}
	}
	return ""
}
