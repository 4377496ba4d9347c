package room

import (
	"log/slog"
	"sync"
)

// Member is one live connection that can receive broadcast payloads.
// Send must not block indefinitely; slow members are the member's problem.
type Member interface {
	ID() string
	Send(payload []byte) error
}

// Registry maps room ids to their live members and provides
// broadcast-to-room semantics. Rooms are pure in-memory liveness state:
// created on first join, garbage-collected when the last member leaves,
// dropped wholesale on process restart.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]map[Member]struct{}
	members map[Member]map[string]struct{}
}

// NewRegistry creates an empty room registry
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]map[Member]struct{}),
		members: make(map[Member]map[string]struct{}),
	}
}

// Join adds a member to a room. Idempotent per (member, room).
func (r *Registry) Join(m Member, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[Member]struct{})
	}
	r.rooms[roomID][m] = struct{}{}

	if _, ok := r.members[m]; !ok {
		r.members[m] = make(map[string]struct{})
	}
	r.members[m][roomID] = struct{}{}

	slog.Debug("member joined room", "member", m.ID(), "room", roomID, "size", len(r.rooms[roomID]))
}

// Leave removes a member from every room it belongs to and garbage-collects
// emptied rooms. Safe to call for members that never joined.
func (r *Registry) Leave(m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.members[m] {
		delete(r.rooms[roomID], m)
		if len(r.rooms[roomID]) == 0 {
			delete(r.rooms, roomID)
			slog.Debug("room garbage-collected", "room", roomID)
		}
	}
	delete(r.members, m)
}

// Broadcast delivers payload to every member of roomID, optionally excluding
// the sender. Delivery is best-effort: a failed send is logged, never fatal,
// and never retried.
func (r *Registry) Broadcast(roomID string, payload []byte, except Member) {
	r.mu.RLock()
	targets := make([]Member, 0, len(r.rooms[roomID]))
	for m := range r.rooms[roomID] {
		if m == except {
			continue
		}
		targets = append(targets, m)
	}
	r.mu.RUnlock()

	// Sends happen outside the lock so one slow member cannot stall
	// membership changes in other rooms.
	for _, m := range targets {
		if err := m.Send(payload); err != nil {
			slog.Debug("broadcast send failed", "member", m.ID(), "room", roomID, "error", err)
		}
	}
}

// Members returns the current member count of a room
func (r *Registry) Members(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Rooms returns the number of live rooms
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// RoomsOf returns the room ids a member currently belongs to
func (r *Registry) RoomsOf(m Member) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.members[m]))
	for roomID := range r.members[m] {
		out = append(out, roomID)
	}
	return out
}
