package editor

import (
	"sync"
	"time"

	"github.com/blockcms/internal/component"
	"github.com/google/uuid"
)

// DraftStore keeps open edit sessions in memory, keyed by draft id. Drafts
// idle for longer than ttl are discarded on the next Open or Sweep.
type DraftStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewDraftStore(ttl time.Duration) *DraftStore {
	return &DraftStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Open starts a draft for pageID (0 for a page that does not exist yet).
func (d *DraftStore) Open(pageID uint, catalog Catalog, blocks []component.Block) *Session {
	d.Sweep()
	session := NewSession(uuid.NewString(), pageID, catalog, blocks)
	session.now = d.now
	session.touched = d.now()

	d.mu.Lock()
	d.sessions[session.ID()] = session
	d.mu.Unlock()
	return session
}

// Get returns an open draft.
func (d *DraftStore) Get(id string) (*Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	session, ok := d.sessions[id]
	if !ok {
		return nil, false
	}
	if d.expired(session) {
		delete(d.sessions, id)
		return nil, false
	}
	session.mu.Lock()
	session.touched = d.now()
	session.mu.Unlock()
	return session, true
}

// Discard drops a draft without saving it.
func (d *DraftStore) Discard(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, id)
}

// Sweep removes expired drafts and reports how many were dropped.
func (d *DraftStore) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for id, session := range d.sessions {
		if d.expired(session) {
			delete(d.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of open drafts.
func (d *DraftStore) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func (d *DraftStore) expired(session *Session) bool {
	if d.ttl <= 0 {
		return false
	}
	return d.now().Sub(session.lastTouched()) > d.ttl
}
