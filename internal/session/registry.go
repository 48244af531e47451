// Package session is the transport-bound actor layer: one Hub per
// connection, owning an engine.Engine, plus a Registry that fans
// room snapshots out to every Hub currently registered under a room
// id.
package session

import (
	"sync"

	"contactgame/internal/metrics"
)

// Registry is the room-keyed broadcast group registry. Matchmaking
// itself lives in engine.Engine.AppendUserToGame, not here.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Hub]struct{}
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Hub]struct{})}
}

// Join adds hub to roomID's broadcast group.
func (reg *Registry) Join(roomID string, hub *Hub) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	group, ok := reg.rooms[roomID]
	if !ok {
		group = make(map[*Hub]struct{})
		reg.rooms[roomID] = group
		metrics.RoomsActive.Inc()
	}
	group[hub] = struct{}{}
}

// Leave removes hub from roomID's broadcast group.
func (reg *Registry) Leave(roomID string, hub *Hub) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	group, ok := reg.rooms[roomID]
	if !ok {
		return
	}
	delete(group, hub)
	if len(group) == 0 {
		delete(reg.rooms, roomID)
		metrics.RoomsActive.Dec()
	}
}

// Broadcast sends msg to every hub registered under roomID.
func (reg *Registry) Broadcast(roomID string, msg []byte) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for hub := range reg.rooms[roomID] {
		hub.deliver(msg)
	}
}

// Unicast sends msg only to hub, bypassing the room group. Used for
// player-facing errors and restored-session initial snapshots.
func (reg *Registry) Unicast(hub *Hub, msg []byte) {
	hub.deliver(msg)
}
