package listquery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"todoweb/internal/session/storage"
)

// SelectionKey names the durable storage entry of the selection.
const SelectionKey = "selectedTodos"

// Selection is the set of task ids picked for a bulk action. Durable storage
// is the source of truth: every operation reads it first, so a selection made
// by another process sharing the storage (the CLI) is seen here. It is
// provisional UI state: rendered rows always come from the latest fetch,
// never from the selection.
type Selection struct {
	storage storage.Storage
	logger  *slog.Logger

	mu  sync.Mutex
	ids map[string]struct{}
}

// NewSelection loads the persisted selection. Malformed data is discarded.
func NewSelection(st storage.Storage, logger *slog.Logger) *Selection {
	s := &Selection{storage: st, logger: logger, ids: make(map[string]struct{})}
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
	return s
}

// loadLocked replaces the in-memory set with the persisted one. When storage
// cannot be read the last known set is kept.
func (s *Selection) loadLocked() {
	data, err := s.storage.Get(SelectionKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		clear(s.ids)
	case err != nil:
		s.logger.Warn("failed to read selection", "error", err)
	default:
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			s.logger.Warn("discarding malformed selection", "error", err)
			_ = s.storage.Delete(SelectionKey)
			clear(s.ids)
			return
		}
		clear(s.ids)
		for _, id := range ids {
			s.ids[id] = struct{}{}
		}
	}
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	_, selected := s.ids[id]
	if selected {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
	s.persistLocked()
	return !selected
}

func (s *Selection) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	s.persistLocked()
}

// Remove drops ids; unknown ids are ignored.
func (s *Selection) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	for _, id := range ids {
		delete(s.ids, id)
	}
	s.persistLocked()
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
	s.persistLocked()
}

func (s *Selection) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selection sorted.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return s.sortedLocked()
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	return len(s.ids)
}

// Set returns the selection as a lookup table for templates.
func (s *Selection) Set() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
	out := make(map[string]bool, len(s.ids))
	for id := range s.ids {
		out[id] = true
	}
	return out
}

func (s *Selection) sortedLocked() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// persistLocked writes the selection, deleting the entry when it is empty.
func (s *Selection) persistLocked() {
	var err error
	if len(s.ids) == 0 {
		err = s.storage.Delete(SelectionKey)
	} else {
		data, _ := json.Marshal(s.sortedLocked())
		err = s.storage.Put(SelectionKey, data)
	}
	if err != nil {
		s.logger.Error("failed to persist selection", "error", err)
	}
}
