package state

import (
	"github.com/wfunc/soccerserver/logger"
)

// NewEndedState creates the terminal match state. The room schedules
// its own return to waiting (FinishMatch), so this state only parks the
// room until that fires.
func NewEndedState(room RoomContext) *EndedState {
	return &EndedState{
		RoomStateBase: RoomStateBase{ID: StateEnded, Room: room},
	}
}

type EndedState struct {
	RoomStateBase
}

func (s *EndedState) OnEnter() {
	logger.Log.Infof("房间 %s 比赛结束", s.Room.GetID())
}
