// Package fundcache implements the in-memory fund name directory used by the
// resolver. Entries can be seeded from a read-only TOML file; runtime additions
// (remote search hits) live only for the life of the process.
package fundcache

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/interfaces"
	"github.com/bobmcallan/fundval/internal/models"
)

// Store is a concurrency-safe, append-only name -> code map
type Store struct {
	mu      sync.RWMutex
	entries []models.FundName // insertion order
	byName  map[string]string
	byCode  map[string]string // first name registered per code
	logger  *common.Logger
}

// NewStore creates a store holding the given entries
func NewStore(logger *common.Logger, seed ...models.FundName) *Store {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Store{
		byName: make(map[string]string, len(seed)),
		byCode: make(map[string]string, len(seed)),
		logger: logger,
	}
	for _, f := range seed {
		s.put(f.Name, f.Code)
	}
	return s
}

// NewDefaultStore creates a store holding DefaultFunds plus the entries of
// seedFile, if set. A missing seed file is an error; an empty path is not.
func NewDefaultStore(logger *common.Logger, seedFile string) (*Store, error) {
	s := NewStore(logger, DefaultFunds...)
	if seedFile == "" {
		return s, nil
	}

	extra, err := LoadSeedFile(seedFile)
	if err != nil {
		return nil, err
	}
	for _, f := range extra {
		s.put(f.Name, f.Code)
	}
	s.logger.Info().Str("path", seedFile).Int("entries", len(extra)).Msg("Fund cache seeded")
	return s, nil
}

// seedFile is the TOML layout of a seed file:
//
//	[[fund]]
//	name = "博时黄金ETF联接A"
//	code = "002610"
type seedFile struct {
	Funds []models.FundName `toml:"fund"`
}

// LoadSeedFile reads [[fund]] entries from a TOML file. Entries without both a
// name and a 6-digit code are skipped.
func LoadSeedFile(path string) ([]models.FundName, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var f seedFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	out := make([]models.FundName, 0, len(f.Funds))
	for _, e := range f.Funds {
		e.Name = strings.TrimSpace(e.Name)
		e.Code = strings.TrimSpace(e.Code)
		if e.Name == "" || !common.IsFundCode(e.Code) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// CodeByName returns the code for an exact name match
func (s *Store) CodeByName(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.byName[name]
	return code, ok
}

// NameByCode returns the first name registered for code
func (s *Store) NameByCode(code string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.byCode[code]
	return name, ok
}

// Put registers name -> code; an existing name is left unchanged
func (s *Store) Put(name, code string) {
	if name == "" || code == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.put(name, code) {
		s.logger.Debug().Str("name", name).Str("code", code).Msg("Fund cache entry added")
	}
}

// put must be called with mu held (or before the store is shared)
func (s *Store) put(name, code string) bool {
	if _, exists := s.byName[name]; exists {
		return false
	}
	s.byName[name] = code
	if _, exists := s.byCode[code]; !exists {
		s.byCode[code] = name
	}
	s.entries = append(s.entries, models.FundName{Name: name, Code: code})
	return true
}

// ByNameLength returns all entries, longest name (in characters) first.
// Names of equal length keep insertion order.
func (s *Store) ByNameLength() []models.FundName {
	s.mu.RLock()
	out := make([]models.FundName, len(s.entries))
	copy(out, s.entries)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Name) > utf8.RuneCountInString(out[j].Name)
	})
	return out
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure Store implements FundRepository
var _ interfaces.FundRepository = (*Store)(nil)
