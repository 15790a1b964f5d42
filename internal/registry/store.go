package registry

import (
	"sync"

	"virusbreach/internal/model"
)

// RoomStore is the injected storage boundary for active rooms. The in-memory
// implementation below is the single-process authority; a multi-process
// deployment would swap in a shared store behind this same interface.
type RoomStore interface {
	Create(room *model.Room) error
	Get(code string) (*model.Room, bool)
	Delete(code string)
	Range(fn func(room *model.Room) bool)
}

// MemoryStore keeps rooms in a mutex-guarded map. The map itself is only
// touched at creation, lookup and deletion; per-room state is protected by
// each Room's own lock.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*model.Room)}
}

func (s *MemoryStore) Create(room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code]; exists {
		return ErrCodeCollision
	}
	s.rooms[room.Code] = room
	return nil
}

func (s *MemoryStore) Get(code string) (*model.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *MemoryStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// Range calls fn for each room until fn returns false.
func (s *MemoryStore) Range(fn func(room *model.Room) bool) {
	s.mu.RLock()
	snapshot := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		snapshot = append(snapshot, room)
	}
	s.mu.RUnlock()

	for _, room := range snapshot {
		if !fn(room) {
			return
		}
	}
}
