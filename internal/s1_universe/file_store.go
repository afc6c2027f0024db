package s1_universe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/wonny/rebalancer/internal/contracts"
)

// FileStore keeps filter states in a JSON file keyed by strategy ID
// Used when no database is configured.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadState implements contracts.StateStore
func (s *FileStore) LoadState(_ context.Context, strategyID string) (*contracts.FilterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.read()
	if err != nil {
		return nil, err
	}

	state, ok := states[strategyID]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return state, nil
}

// SaveState implements contracts.StateStore
func (s *FileStore) SaveState(_ context.Context, state *contracts.FilterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.read()
	if err != nil {
		return err
	}
	states[state.StrategyID] = state

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal filter state: %w", err)
	}

	// 임시 파일에 쓴 뒤 교체 (부분 기록 방지)
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write filter state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace filter state: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]*contracts.FilterState, error) {
	states := make(map[string]*contracts.FilterState)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(s.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create state dir: %w", err)
			}
		}
		return states, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read filter state: %w", err)
	}

	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("unmarshal filter state: %w", err)
	}
	return states, nil
}
