package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Registry coordinates websocket sessions and logical rooms (conversations).
// A user may hold any number of live connections; every one of them gets the
// events of the rooms it joined. All operations are idempotent.
type Registry struct {
	mu        sync.RWMutex
	conns     map[string]*Connection            // connectionID -> connection
	users     map[int64]map[string]*Connection  // userID -> connectionID -> connection
	rooms     map[string]map[string]*Connection // conversationID -> connectionID -> connection
	connRooms map[string]map[string]struct{}    // connectionID -> set of conversationIDs
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[string]*Connection),
		users:     make(map[int64]map[string]*Connection),
		rooms:     make(map[string]map[string]*Connection),
		connRooms: make(map[string]map[string]struct{}),
	}
}

// Register tracks conn under its user and starts its write loop.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	if _, ok := r.conns[conn.ID]; ok {
		r.mu.Unlock()
		return
	}
	r.conns[conn.ID] = conn
	byUser := r.users[conn.UserID]
	if byUser == nil {
		byUser = make(map[string]*Connection)
		r.users[conn.UserID] = byUser
	}
	byUser[conn.ID] = conn
	r.mu.Unlock()

	conn.Start()
}

// Unregister removes the connection and all its room subscriptions.
// Once it returns no broadcast can reach the connection.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	r.detachLocked(connectionID)
	r.mu.Unlock()
}

// JoinRoom subscribes a registered connection to the conversation room.
// It reports false when the connection is not registered.
func (r *Registry) JoinRoom(connectionID, conversationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[connectionID]
	if !ok {
		return false
	}
	r.joinLocked(conversationID, conn)
	return true
}

// JoinUser subscribes every live connection of userID to the room and
// returns how many connections that was.
func (r *Registry) JoinUser(userID int64, conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.users[userID] {
		r.joinLocked(conversationID, conn)
	}
	return len(r.users[userID])
}

// LeaveRoom removes the connection from the conversation room.
func (r *Registry) LeaveRoom(connectionID, conversationID string) {
	r.mu.Lock()
	r.leaveLocked(conversationID, connectionID)
	r.mu.Unlock()
}

// LeaveUser removes every connection of userID from the room.
func (r *Registry) LeaveUser(userID int64, conversationID string) {
	r.mu.Lock()
	for id := range r.users[userID] {
		r.leaveLocked(conversationID, id)
	}
	r.mu.Unlock()
}

// DropRoom unsubscribes everyone from the conversation room.
func (r *Registry) DropRoom(conversationID string) {
	r.mu.Lock()
	for id := range r.rooms[conversationID] {
		r.leaveLocked(conversationID, id)
	}
	r.mu.Unlock()
}

// ConnectionsForUser returns the live connections of userID.
func (r *Registry) ConnectionsForUser(userID int64) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.users[userID])
}

// ConnectionsInRoom returns the connections subscribed to the conversation.
func (r *Registry) ConnectionsInRoom(conversationID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.rooms[conversationID])
}

// InRoom tells whether the connection is subscribed to the conversation.
func (r *Registry) InRoom(connectionID, conversationID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connRooms[connectionID][conversationID]
	return ok
}

// Online filters userIDs down to those with at least one live connection.
func (r *Registry) Online(userIDs []int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if len(r.users[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Broadcast writes payload to all connections in the conversation and
// returns how many accepted it.
func (r *Registry) Broadcast(conversationID string, payload []byte) int {
	r.mu.RLock()
	targets := collect(r.rooms[conversationID])
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// NotifyUser delivers payload to every live connection of userID.
func (r *Registry) NotifyUser(userID int64, payload []byte) int {
	r.mu.RLock()
	targets := collect(r.users[userID])
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// Close terminates all tracked connections and clears registry state.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := collect(r.conns)
	r.conns = make(map[string]*Connection)
	r.users = make(map[int64]map[string]*Connection)
	r.rooms = make(map[string]map[string]*Connection)
	r.connRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
	}
}

func (r *Registry) joinLocked(conversationID string, conn *Connection) {
	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[conversationID] = room
	}
	room[conn.ID] = conn

	memberships := r.connRooms[conn.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.connRooms[conn.ID] = memberships
	}
	memberships[conversationID] = struct{}{}
}

func (r *Registry) detachLocked(connectionID string) {
	conn, ok := r.conns[connectionID]
	if !ok {
		return
	}
	delete(r.conns, connectionID)

	if byUser := r.users[conn.UserID]; byUser != nil {
		delete(byUser, connectionID)
		if len(byUser) == 0 {
			delete(r.users, conn.UserID)
		}
	}

	for roomID := range r.connRooms[connectionID] {
		r.leaveLocked(roomID, connectionID)
	}
	delete(r.connRooms, connectionID)
}

func (r *Registry) leaveLocked(conversationID string, connectionID string) {
	if connectionID == "" {
		return
	}
	room := r.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, connectionID)
	if len(room) == 0 {
		delete(r.rooms, conversationID)
	}
	if memberships, ok := r.connRooms[connectionID]; ok {
		delete(memberships, conversationID)
		if len(memberships) == 0 {
			delete(r.connRooms, connectionID)
		}
	}
}

// deliver runs outside r.mu so a slow connection never holds the registry.
func deliver(targets []*Connection, payload []byte) int {
	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

func collect(m map[string]*Connection) []*Connection {
	out := make([]*Connection, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}
