package room

import (
	"time"

	"github.com/wfunc/soccerserver/models"
)

// Broadcaster defines the interface for fanning messages out to a room.
// This is defined here to break the import cycle between room and
// broadcast. BroadcastToRoom may drop messages for slow viewers;
// BroadcastEventToRoom must deliver to every live viewer.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastEventToRoom(roomID string, msgID uint16, data []byte) error
}

// Metrics is the narrow slice of the monitor a room reports into. A nil
// Metrics is allowed (tests).
type Metrics interface {
	MatchStarted()
	MatchEnded()
	GoalScored()
	ObserveTick(d time.Duration)
}

// ResultSink receives the outcome of a finished match.
type ResultSink interface {
	RecordMatchResult(record *models.MatchRecord) error
}
