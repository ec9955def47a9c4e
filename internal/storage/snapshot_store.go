package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"edge-status/internal/trace"
)

// SnapshotStore appends snapshots to a JSONL file and keeps the last N in memory.
type SnapshotStore struct {
	mu      sync.RWMutex
	maxLen  int
	items   []trace.Snapshot
	idIndex map[string]int
	file    *os.File
	path    string
}

// NewSnapshotStore opens/creates the snapshot file and loads existing entries.
func NewSnapshotStore(path string, maxLen int) (*SnapshotStore, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("snapshot store: max length must be positive, got %d", maxLen)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}

	store := &SnapshotStore{
		maxLen: maxLen,
		file:   f,
		path:   path,
	}
	if err := store.load(); err != nil {
		f.Close()
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	return store, nil
}

func (s *SnapshotStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var snaps []trace.Snapshot
	for scanner.Scan() {
		var snap trace.Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &snap); err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	if len(snaps) > s.maxLen {
		snaps = snaps[len(snaps)-s.maxLen:]
	}

	s.items = snaps
	s.reindex()
	return scanner.Err()
}

func (s *SnapshotStore) reindex() {
	s.idIndex = make(map[string]int, len(s.items))
	for i, it := range s.items {
		s.idIndex[it.ID] = i
	}
}

// Add appends a snapshot to the file and the in-memory ring.
func (s *SnapshotStore) Add(snap trace.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.file.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	_ = s.file.Sync()

	s.items = append(s.items, snap)
	if len(s.items) > s.maxLen {
		s.items = s.items[len(s.items)-s.maxLen:]
	}
	s.reindex()
	return nil
}

// List returns a copy of the newest limit snapshots, oldest first. A
// non-positive limit returns everything buffered.
func (s *SnapshotStore) List(limit int) []trace.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.items
	if limit > 0 && limit < len(items) {
		items = items[len(items)-limit:]
	}
	out := make([]trace.Snapshot, len(items))
	copy(out, items)
	return out
}

// Get finds a snapshot by ID in the buffered set.
func (s *SnapshotStore) Get(id string) (trace.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.idIndex[id]
	if !ok || idx < 0 || idx >= len(s.items) {
		return trace.Snapshot{}, false
	}
	return s.items[idx], true
}

// Close closes the underlying file.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
