package registry

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"virusbreach/internal/model"
)

// roomCodeChars excludes visually ambiguous characters (0/O, 1/I).
const roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ErrCodeCollision is returned by a store when a code is already taken; the
// registry retries with a fresh code.
var ErrCodeCollision = errors.New("room code collision")

// Registry owns the code->Room store and the connection->room reverse index.
// It hands out rooms; all gameplay mutation happens elsewhere under each
// room's own lock.
type Registry struct {
	store  RoomStore
	roster []VirusSlot

	mu       sync.RWMutex
	connRoom map[string]string // connection id -> room code
}

// New builds a registry over store using the given roster. An empty roster is
// a fatal configuration error: the game cannot ever function without team
// slots.
func New(store RoomStore, roster []VirusSlot) *Registry {
	if len(roster) == 0 {
		panic("registry: empty team roster")
	}
	return &Registry{
		store:    store,
		roster:   roster,
		connRoom: make(map[string]string),
	}
}

// CreateRoom allocates a unique code, builds the fixed team roster (truncated
// to the max team count) and indexes the host connection.
func (r *Registry) CreateRoom(hostConnID string, cfg model.RoomConfig) (*model.Room, error) {
	cfg = cfg.Normalize()

	count := len(r.roster)
	if count > model.MaxTeams {
		count = model.MaxTeams
	}
	teams := make([]*model.Team, count)
	for i, slot := range r.roster[:count] {
		teams[i] = &model.Team{
			ID:         fmt.Sprintf("team-%d", i),
			VirusName:  slot.Name,
			VirusColor: slot.Color,
		}
	}

	now := time.Now()
	for {
		code, err := generateRoomCode()
		if err != nil {
			return nil, err
		}
		room := &model.Room{
			Code:         code,
			HostConnID:   hostConnID,
			Phase:        model.PhaseLobby,
			Config:       cfg,
			Teams:        teams,
			Players:      make(map[string]*model.Player),
			CurrentRound: model.NewRound(),
			RoundHistory: make([]*model.Round, 0),
			CreatedAt:    now,
			LastActive:   now,
		}
		if err := r.store.Create(room); err != nil {
			if errors.Is(err, ErrCodeCollision) {
				continue
			}
			return nil, err
		}
		r.IndexConnection(hostConnID, code)
		log.Printf("room created: %s", code)
		return room, nil
	}
}

// LookupByCode returns the room for a code. Codes are case-insensitive at
// lookup.
func (r *Registry) LookupByCode(code string) (*model.Room, bool) {
	return r.store.Get(strings.ToUpper(code))
}

// LookupByHost scans for the room currently hosted by the given connection.
// A connection hosts at most one room at a time.
func (r *Registry) LookupByHost(hostConnID string) (*model.Room, bool) {
	var found *model.Room
	r.store.Range(func(room *model.Room) bool {
		room.Lock()
		match := room.HostConnID == hostConnID
		room.Unlock()
		if match {
			found = room
			return false
		}
		return true
	})
	return found, found != nil
}

// LookupByConnection resolves any connection (host or player) to its room
// code.
func (r *Registry) LookupByConnection(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.connRoom[connID]
	return code, ok
}

// IndexConnection binds a connection to a room code.
func (r *Registry) IndexConnection(connID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connRoom[connID] = code
}

// RemoveConnectionIndex drops the reverse index entry on disconnect. The room
// itself is untouched.
func (r *Registry) RemoveConnectionIndex(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connRoom, connID)
}

// Reap deletes finished rooms that have been idle longer than ttl, so a
// long-running process does not accumulate GAME_OVER rooms forever. Returns
// the number of rooms removed.
func (r *Registry) Reap(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	removed := 0
	r.store.Range(func(room *model.Room) bool {
		room.Lock()
		stale := room.Phase == model.PhaseGameOver && room.LastActive.Before(cutoff)
		code := room.Code
		room.Unlock()
		if stale {
			r.store.Delete(code)
			removed++
			log.Printf("room reaped: %s", code)
		}
		return true
	})
	return removed
}

// StartReaper sweeps the store on interval until stop is closed.
func (r *Registry) StartReaper(interval, ttl time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Reap(ttl)
			case <-stop:
				return
			}
		}
	}()
}

func generateRoomCode() (string, error) {
	buf := make([]byte, model.RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	code := make([]byte, model.RoomCodeLength)
	for i := range code {
		code[i] = roomCodeChars[int(buf[i])%len(roomCodeChars)]
	}
	return string(code), nil
}
