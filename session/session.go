// session/session.go
package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/soccerserver/logger"
	"github.com/wfunc/soccerserver/network"
)

// outboundSize is the per-viewer queue depth. A slow viewer only loses
// snapshots; events use a blocking enqueue.
const outboundSize = 64

var ErrSessionClosed = errors.New("session closed")

type outPacket struct {
	msgID uint16
	data  []byte
}

// Session is one connected viewer. All outbound traffic goes through a
// single writer goroutine so a stalled connection can never block a
// room's simulation loop.
type Session struct {
	ID         string
	Conn       network.Connection
	Username   string
	RoomID     string
	Data       map[string]interface{} // 自定义数据
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex

	out       chan outPacket
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	s := &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
		Data:       make(map[string]interface{}),
		out:        make(chan outPacket, outboundSize),
		done:       make(chan struct{}),
	}
	go s.writePump()
	return s
}

func (s *Session) writePump() {
	for {
		select {
		case p := <-s.out:
			if err := s.Conn.Send(p.msgID, p.data); err != nil {
				logger.Log.Debugf("session %s write failed: %v", s.ID, err)
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) Set(key string, value interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Data[key] = value
}

func (s *Session) Get(key string) interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Data[key]
}

func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.LastActive = time.Now()
}

// Send enqueues a droppable message. When the viewer's queue is full
// the message is discarded; snapshots are eventually consistent, so
// the next one supersedes it.
func (s *Session) Send(msgID uint16, data []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.out <- outPacket{msgID: msgID, data: data}:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// SendEvent enqueues a message that must not be dropped (goal,
// game over, roster changes). It blocks until the writer drains the
// queue or the session closes.
func (s *Session) SendEvent(msgID uint16, data []byte) error {
	select {
	case s.out <- outPacket{msgID: msgID, data: data}:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Dropped returns how many droppable messages this viewer has lost.
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// InLobby returns every session not currently inside a room.
func (m *Manager) InLobby() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.RoomID == "" {
			result = append(result, session)
		}
	}
	return result
}

func (m *Manager) GetByUsername(username string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Username == username {
			result = append(result, session)
		}
	}
	return result
}
