// state/interfaces.go
package state

import (
	"time"

	"github.com/wfunc/soccerserver/game"
)

// Player defines the minimal interface for a roster entry that a state
// needs to interact with.
type Player interface {
	GetID() string
	GetName() string
	GetTeam() game.Team
	IsReady() bool
}

// RoomContext defines the interface that a Room must implement to be
// managed by the state machine. This breaks the import cycle between
// room and state.
type RoomContext interface {
	GetID() string
	GetHost() string
	GetPlayers() map[string]Player
	GetMaxPlayers() int
	ChangeState(newState State) error

	// Broadcast is a droppable send used for snapshots. BroadcastEvent
	// must reach every viewer and is used for lifecycle events.
	Broadcast(msgID uint16, data []byte) error
	BroadcastEvent(msgID uint16, data []byte) error

	// Match returns the running match, nil outside a match.
	Match() *game.Match

	// StepMatch advances the match by one tick and publishes the
	// snapshot on the room's broadcast cadence. The returned events
	// drive lifecycle transitions.
	StepMatch(now time.Time) []game.Event

	// FinishMatch hands the outcome to the stats collaborator and
	// schedules the return to the waiting state.
	FinishMatch(res game.Result)
}
