package room

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// fakeMember records everything sent to it
type fakeMember struct {
	id   string
	mu   sync.Mutex
	got  [][]byte
	fail bool
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: id}
}

func (m *fakeMember) ID() string { return m.id }

func (m *fakeMember) Send(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("send failed")
	}
	m.got = append(m.got, payload)
	return nil
}

func (m *fakeMember) received() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.got)
}

func TestBroadcastExcludesSender(t *testing.T) {
	r := NewRegistry()
	sender := newFakeMember("sender")
	observer := newFakeMember("observer")

	r.Join(sender, "room-a")
	r.Join(observer, "room-a")

	r.Broadcast("room-a", []byte("code-update"), sender)

	if sender.received() != 0 {
		t.Errorf("sender should not receive its own broadcast, got %d", sender.received())
	}
	if observer.received() != 1 {
		t.Errorf("observer expected 1 message, got %d", observer.received())
	}
}

func TestBroadcastNoCrossRoomLeakage(t *testing.T) {
	r := NewRegistry()
	a := newFakeMember("a")
	b := newFakeMember("b")

	r.Join(a, "room-a")
	r.Join(b, "room-b")

	r.Broadcast("room-a", []byte("payload"), nil)

	if a.received() != 1 {
		t.Errorf("room-a member expected 1 message, got %d", a.received())
	}
	if b.received() != 0 {
		t.Errorf("room-b member must not receive room-a traffic, got %d", b.received())
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	m := newFakeMember("m")

	r.Join(m, "room-a")
	r.Join(m, "room-a")

	if got := r.Members("room-a"); got != 1 {
		t.Errorf("expected 1 member after double join, got %d", got)
	}

	r.Broadcast("room-a", []byte("x"), nil)
	if m.received() != 1 {
		t.Errorf("expected exactly 1 delivery, got %d", m.received())
	}
}

func TestLeaveRemovesFromAllRooms(t *testing.T) {
	r := NewRegistry()
	m := newFakeMember("m")
	other := newFakeMember("other")

	r.Join(m, "room-a")
	r.Join(m, "room-b")
	r.Join(other, "room-a")

	r.Leave(m)

	if got := len(r.RoomsOf(m)); got != 0 {
		t.Errorf("expected member in 0 rooms after leave, got %d", got)
	}

	// Broadcasts after leave do not error and do not reach the departed member
	r.Broadcast("room-a", []byte("x"), nil)
	r.Broadcast("room-b", []byte("y"), nil)

	if m.received() != 0 {
		t.Errorf("departed member received %d messages", m.received())
	}
	if other.received() != 1 {
		t.Errorf("remaining member expected 1 message, got %d", other.received())
	}

	// room-b is empty and should be garbage-collected
	if r.Members("room-b") != 0 {
		t.Error("expected room-b to be empty")
	}
}

func TestEmptyRoomGarbageCollected(t *testing.T) {
	r := NewRegistry()
	m := newFakeMember("m")

	r.Join(m, "room-a")
	if r.Rooms() != 1 {
		t.Fatalf("expected 1 room, got %d", r.Rooms())
	}

	r.Leave(m)
	if r.Rooms() != 0 {
		t.Errorf("expected 0 rooms after last member left, got %d", r.Rooms())
	}
}

func TestFailedSendDoesNotStopBroadcast(t *testing.T) {
	r := NewRegistry()
	broken := newFakeMember("broken")
	broken.fail = true
	healthy := newFakeMember("healthy")

	r.Join(broken, "room-a")
	r.Join(healthy, "room-a")

	r.Broadcast("room-a", []byte("x"), nil)

	if healthy.received() != 1 {
		t.Errorf("healthy member expected 1 message, got %d", healthy.received())
	}
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := newFakeMember(fmt.Sprintf("m-%d", i))
			roomID := fmt.Sprintf("room-%d", i%5)
			r.Join(m, roomID)
			r.Broadcast(roomID, []byte("x"), nil)
			r.Leave(m)
		}(i)
	}
	wg.Wait()

	if r.Rooms() != 0 {
		t.Errorf("expected all rooms garbage-collected, got %d", r.Rooms())
	}
}
