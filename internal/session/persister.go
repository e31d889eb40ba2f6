package session

import (
	"errors"

	"todoweb/internal/session/storage"
)

// Persister replicates the session into durable storage under CookieName.
type Persister struct {
	storage storage.Storage
}

func NewPersister(s storage.Storage) *Persister {
	return &Persister{storage: s}
}

// SessionChanged writes authenticated snapshots and deletes the entry otherwise.
func (p *Persister) SessionChanged(e Event) error {
	if !e.Snapshot.Authenticated() {
		return p.storage.Delete(CookieName)
	}
	data, err := Marshal(e.Snapshot)
	if err != nil {
		return err
	}
	return p.storage.Put(CookieName, data)
}

// Load reads the persisted snapshot. A missing entry is a signed-out snapshot;
// undecodable data is CodeMalformedState.
func (p *Persister) Load() (Snapshot, error) {
	data, err := p.storage.Get(CookieName)
	if errors.Is(err, storage.ErrNotFound) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Unmarshal(data)
}

// Reset removes the persisted entry.
func (p *Persister) Reset() error {
	return p.storage.Delete(CookieName)
}

var _ Listener = (*Persister)(nil)
