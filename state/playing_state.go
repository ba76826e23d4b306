package state

import (
	"encoding/json"
	"time"

	"github.com/wfunc/soccerserver/game"
	"github.com/wfunc/soccerserver/logger"
	"github.com/wfunc/soccerserver/models"
	"github.com/wfunc/soccerserver/network"
)

// playingBase 进行中状态的公共部分：驱动模拟循环并分发其事件
type playingBase struct {
	RoomStateBase
}

// step ticks the match and reacts to the simulation's own events. Event
// order within a tick matters: a goal before time-up still counts.
func (s *playingBase) step(now time.Time, inKickoff bool) {
	match := s.Room.Match()
	if match == nil {
		return
	}

	for _, ev := range s.Room.StepMatch(now) {
		switch ev.Kind {
		case game.EventFirstTouch:
			if inKickoff {
				s.Room.ChangeState(NewActiveState(s.Room))
			}

		case game.EventGoal:
			s.broadcastGoal(ev)
			// Restriction re-engages against the conceding team.
			s.Room.ChangeState(NewKickoffState(s.Room))

		case game.EventMatchOver:
			s.broadcastGameOver(ev)
			s.Room.FinishMatch(match.Result())
			s.Room.ChangeState(NewEndedState(s.Room))
		}
	}
}

func (s *playingBase) broadcastGoal(ev game.Event) {
	msg := models.GoalScored{
		Team:  ev.Team.String(),
		Score: models.ScoreInfo{Red: ev.Score.Red, Blue: ev.Score.Blue},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Errorf("房间 %s 序列化进球事件失败: %v", s.Room.GetID(), err)
		return
	}
	s.Room.BroadcastEvent(network.MsgTypeGoalScored, data)
	logger.Log.Infof("Goal for %s in room %s (%d-%d)", msg.Team, s.Room.GetID(), ev.Score.Red, ev.Score.Blue)
}

func (s *playingBase) broadcastGameOver(ev game.Event) {
	msg := models.GameOver{
		Winner:     ev.Winner.String(),
		FinalScore: models.ScoreInfo{Red: ev.Score.Red, Blue: ev.Score.Blue},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Errorf("房间 %s 序列化终局事件失败: %v", s.Room.GetID(), err)
		return
	}
	s.Room.BroadcastEvent(network.MsgTypeGameOver, data)
	logger.Log.Infof("Match over in room %s, winner: %s", s.Room.GetID(), msg.Winner)
}

// NewKickoffState creates the restricted period after match start and
// after each goal: the non-kickoff team is held in its own half until
// the first ball contact.
func NewKickoffState(room RoomContext) *KickoffState {
	return &KickoffState{
		playingBase: playingBase{RoomStateBase{ID: StateKickoff, Room: room}},
	}
}

type KickoffState struct {
	playingBase
}

func (s *KickoffState) OnEnter() {
	logger.Log.Infof("房间 %s 进入开球状态", s.Room.GetID())
}

func (s *KickoffState) OnUpdate(now time.Time) {
	s.step(now, true)
}

// NewActiveState creates the free-play state.
func NewActiveState(room RoomContext) *ActiveState {
	return &ActiveState{
		playingBase: playingBase{RoomStateBase{ID: StateActive, Room: room}},
	}
}

type ActiveState struct {
	playingBase
}

func (s *ActiveState) OnUpdate(now time.Time) {
	s.step(now, false)
}

// NewPausedState freezes play. prev is the state resumed on unpause, so
// a paused kickoff resumes as a kickoff.
func NewPausedState(room RoomContext, prev State) *PausedState {
	return &PausedState{
		RoomStateBase: RoomStateBase{ID: StatePaused, Room: room},
		prev:          prev,
	}
}

type PausedState struct {
	RoomStateBase
	prev State
}

func (s *PausedState) OnEnter() {
	if m := s.Room.Match(); m != nil {
		m.SetPaused(true)
	}
	logger.Log.Infof("房间 %s 暂停", s.Room.GetID())
}

func (s *PausedState) OnExit() {
	if m := s.Room.Match(); m != nil {
		m.SetPaused(false)
	}
}

// OnUpdate keeps ticking so the frozen clock display is still re-sent;
// the paused match itself refuses all mutation.
func (s *PausedState) OnUpdate(now time.Time) {
	s.Room.StepMatch(now)
}

// Resumed returns the state play continues in.
func (s *PausedState) Resumed() State {
	return s.prev
}
