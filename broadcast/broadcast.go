// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/soccerserver/room"
	"github.com/wfunc/soccerserver/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastEventToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToLobby(msgID uint16, data []byte) error
}

// RoomBroadcaster fans messages out to every session of a room. Room
// broadcasts go through the per-session outbound queue, so a slow
// viewer can never stall the caller (the room's simulation loop).
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

// BroadcastToRoom delivers a droppable message (snapshots) to all
// viewers of a room.
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	return b.fanOut(roomID, func(s *session.Session) error {
		return s.Send(msgID, data)
	})
}

// BroadcastEventToRoom delivers a lifecycle event to all viewers of a
// room. Events are enqueued reliably; only a closed session misses one.
func (b *RoomBroadcaster) BroadcastEventToRoom(roomID string, msgID uint16, data []byte) error {
	return b.fanOut(roomID, func(s *session.Session) error {
		return s.SendEvent(msgID, data)
	})
}

func (b *RoomBroadcaster) fanOut(roomID string, send func(*session.Session) error) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, player := range r.GetPlayers() {
		s, ok := b.sessionManager.Get(player.GetID())
		if !ok {
			continue
		}
		if err := send(s); err != nil {
			// 发送失败的连接由读循环负责清理
			continue
		}
	}
	return nil
}

// BroadcastToLobby delivers a message to every session not currently in
// a room (the room list view).
func (b *RoomBroadcaster) BroadcastToLobby(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.InLobby() {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
