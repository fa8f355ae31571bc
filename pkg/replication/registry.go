package replication

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// DefaultStaleDuration is how long a session may stay silent before the
// registry evicts it.
const DefaultStaleDuration = time.Minute

type sessionEntry struct {
	vehicle  *RemoteVehicle
	lastSeen time.Time
}

// SessionRegistry tracks the remote vehicles of all sessions currently on
// the wire. Sessions appear on their first snapshot and are evicted after
// going silent for the stale duration.
type SessionRegistry struct {
	mutex    sync.Mutex
	sessions map[string]*sessionEntry
	stale    time.Duration
	now      func() time.Time
}

type RegistryOption func(*SessionRegistry)

// WithStaleDuration sets how long a silent session survives.
func WithStaleDuration(d time.Duration) RegistryOption {
	return func(r *SessionRegistry) {
		if d > 0 {
			r.stale = d
		}
	}
}

// WithRegistryClock replaces the time source, for tests.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *SessionRegistry) { r.now = now }
}

func NewSessionRegistry(opts ...RegistryOption) *SessionRegistry {
	ret := &SessionRegistry{
		sessions: make(map[string]*sessionEntry),
		stale:    DefaultStaleDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Apply routes a snapshot to its session's remote vehicle, creating the
// session on first sight.
func (r *SessionRegistry) Apply(snap Snapshot) *RemoteVehicle {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	entry, ok := r.sessions[snap.SessionID]
	if !ok {
		entry = &sessionEntry{vehicle: NewRemoteVehicle()}
		r.sessions[snap.SessionID] = entry
	}
	entry.vehicle.Apply(snap)
	entry.lastSeen = r.now()
	return entry.vehicle
}

// Get returns the remote vehicle of a session.
func (r *SessionRegistry) Get(sessionID string) (*RemoteVehicle, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if entry, ok := r.sessions[sessionID]; ok {
		return entry.vehicle, nil
	}
	return nil, ErrSessionNotFound
}

// SessionIDs returns the ids of all tracked sessions.
func (r *SessionRegistry) SessionIDs() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ret := make([]string, 0, len(r.sessions))
	for k := range r.sessions {
		ret = append(ret, k)
	}
	return ret
}

func (r *SessionRegistry) Remove(sessionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.sessions, sessionID)
}

// EvictStale drops sessions that have been silent too long and returns
// their ids.
func (r *SessionRegistry) EvictStale() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	deadline := r.now().Add(-r.stale)
	var evicted []string
	for k, v := range r.sessions {
		if v.lastSeen.Before(deadline) {
			delete(r.sessions, k)
			evicted = append(evicted, k)
		}
	}
	return evicted
}

// UpdateAll advances every tracked vehicle one render frame.
func (r *SessionRegistry) UpdateAll() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, v := range r.sessions {
		v.vehicle.Update()
	}
}

func (r *SessionRegistry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sessions = make(map[string]*sessionEntry)
}
