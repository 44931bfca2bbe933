package freshness

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kailas-cloud/tenqd/internal/domain"
	domfresh "github.com/kailas-cloud/tenqd/internal/domain/freshness"
)

// FileStore keeps the freshness map in a single JSON file keyed by
// uppercased ticker. The whole map is read and rewritten on every Set;
// a mutex keeps concurrent writers to different tickers from corrupting
// the file. Same-ticker writers race last-write-wins, which is the
// contract.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed freshness cache, creating parent
// directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Get returns the cached record for a ticker, or domain.ErrNotCached.
func (s *FileStore) Get(_ context.Context, ticker string) (domfresh.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		return domfresh.Record{}, err
	}

	dto, ok := all[strings.ToUpper(ticker)]
	if !ok {
		return domfresh.Record{}, domain.ErrNotCached
	}
	return fromDTO(dto)
}

// Set overwrites the cached record for a ticker (no history, no TTL).
func (s *FileStore) Set(_ context.Context, ticker string, rec domfresh.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAll()
	if err != nil {
		return err
	}
	all[strings.ToUpper(ticker)] = toDTO(rec)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal freshness map: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write freshness file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace freshness file: %w", err)
	}
	return nil
}

func (s *FileStore) loadAll() (map[string]recordDTO, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]recordDTO), nil
		}
		return nil, fmt.Errorf("read freshness file: %w", err)
	}

	all := make(map[string]recordDTO)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse freshness file: %w", err)
	}
	return all, nil
}
