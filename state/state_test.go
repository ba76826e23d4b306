package state

import (
	"testing"
	"time"

	"github.com/wfunc/soccerserver/game"
)

// MockState is a test double for the State interface.
// It helps us track which methods have been called.
type MockState struct {
	ID             string
	OnEnterCalled  bool
	OnExitCalled   bool
	OnUpdateCalled bool
}

func (m *MockState) OnEnter() {
	m.OnEnterCalled = true
}

func (m *MockState) OnExit() {
	m.OnExitCalled = true
}

func (m *MockState) OnUpdate(now time.Time) {
	m.OnUpdateCalled = true
}

func (m *MockState) GetID() string {
	return m.ID
}

// reset clears the call tracking flags.
func (m *MockState) reset() {
	m.OnEnterCalled = false
	m.OnExitCalled = false
	m.OnUpdateCalled = false
}

func TestStateMachine_InitialState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	sm := NewBaseStateMachine(initialState)

	if !initialState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the initial state")
	}

	if sm.GetCurrentState() != initialState {
		t.Error("GetCurrentState should return the initial state")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	nextState := &MockState{ID: "next"}

	sm := NewBaseStateMachine(initialState)
	initialState.reset() // Reset after initialization

	err := sm.ChangeState(nextState)
	if err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}

	if !initialState.OnExitCalled {
		t.Error("Expected OnExit to be called on the old state")
	}

	if !nextState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the new state")
	}

	if sm.GetCurrentState() != nextState {
		t.Error("GetCurrentState should return the new state")
	}
}

func TestStateMachine_AddAndUseTransition(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}
	stateC := &MockState{ID: "C"}

	sm := NewBaseStateMachine(stateA)

	// Add a valid transition from A to B
	err := sm.AddTransition(stateA, stateB, func() bool { return true })
	if err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	// Add a blocked transition from B to C
	err = sm.AddTransition(stateB, stateC, func() bool { return false })
	if err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	// --- Test valid transition ---
	stateA.reset()
	err = sm.ChangeState(stateB)
	if err != nil {
		t.Errorf("Expected transition from A to B to be allowed, but got error: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to be B, but got %s", sm.GetCurrentState().GetID())
	}

	// --- Test blocked transition ---
	stateB.reset()
	err = sm.ChangeState(stateC)
	if err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to remain B after a blocked transition, but got %s", sm.GetCurrentState().GetID())
	}
	if stateB.OnExitCalled {
		t.Error("OnExit should not be called on the current state if transition is blocked")
	}
	if stateC.OnEnterCalled {
		t.Error("OnEnter should not be called on the new state if transition is blocked")
	}
}

// mockRoom is a test double for the RoomContext interface, backed by a
// real match.
type mockRoom struct {
	match    *game.Match
	changed  []string
	finished []game.Result
	events   int
}

func (r *mockRoom) GetID() string                  { return "room1" }
func (r *mockRoom) GetHost() string                { return "host" }
func (r *mockRoom) GetPlayers() map[string]Player  { return nil }
func (r *mockRoom) GetMaxPlayers() int             { return 4 }
func (r *mockRoom) Match() *game.Match             { return r.match }
func (r *mockRoom) FinishMatch(res game.Result)    { r.finished = append(r.finished, res) }
func (r *mockRoom) Broadcast(uint16, []byte) error { return nil }

func (r *mockRoom) BroadcastEvent(uint16, []byte) error {
	r.events++
	return nil
}

func (r *mockRoom) ChangeState(s State) error {
	r.changed = append(r.changed, s.GetID())
	return nil
}

func (r *mockRoom) StepMatch(now time.Time) []game.Event {
	return r.match.Tick(now)
}

func (r *mockRoom) lastChange() string {
	if len(r.changed) == 0 {
		return ""
	}
	return r.changed[len(r.changed)-1]
}

func TestKickoffState_FirstTouchActivates(t *testing.T) {
	room := &mockRoom{match: game.NewMatch(600)}
	room.match.AddPlayer("r1", "Red1", game.TeamRed)

	// Walk the red player from their spawn into the ball at midfield.
	room.match.SetInput("r1", game.Input{Right: true})

	kickoff := NewKickoffState(room)
	for i := 0; i < 150 && room.lastChange() == ""; i++ {
		kickoff.OnUpdate(time.Now())
	}

	if room.lastChange() != StateActive {
		t.Fatalf("Expected the first touch to activate play, got %q", room.lastChange())
	}
}

func TestActiveState_MatchOverEndsRoom(t *testing.T) {
	room := &mockRoom{match: game.NewMatch(1)}

	active := NewActiveState(room)
	base := time.Now()
	active.OnUpdate(base)
	active.OnUpdate(base.Add(2 * time.Second))

	if room.lastChange() != StateEnded {
		t.Fatalf("Expected the expired clock to end the match, got %q", room.lastChange())
	}
	if len(room.finished) != 1 {
		t.Fatalf("Expected exactly one FinishMatch call, got %d", len(room.finished))
	}
	if room.events == 0 {
		t.Error("Expected a game-over broadcast")
	}
}

func TestPausedState_FreezesAndResumes(t *testing.T) {
	room := &mockRoom{match: game.NewMatch(600)}

	active := NewActiveState(room)
	paused := NewPausedState(room, active)

	paused.OnEnter()
	if !room.match.Paused() {
		t.Error("Entering the paused state must pause the match")
	}

	paused.OnExit()
	if room.match.Paused() {
		t.Error("Leaving the paused state must resume the match")
	}

	if paused.Resumed() != State(active) {
		t.Error("Resumed must return the state play continues in")
	}
}

func TestWaitingState_CanStart(t *testing.T) {
	room := &playersRoom{players: map[string]Player{}}
	waiting := NewWaitingState(room)

	if waiting.CanStart() {
		t.Error("An empty room must not start")
	}

	room.players["a"] = &fakePlayer{team: game.TeamRed, ready: true}
	room.players["b"] = &fakePlayer{team: game.TeamBlue, ready: false}
	if waiting.CanStart() {
		t.Error("An unready playing player must block the start")
	}

	room.players["b"] = &fakePlayer{team: game.TeamBlue, ready: true}
	room.players["c"] = &fakePlayer{team: game.TeamSpectator, ready: false}
	if !waiting.CanStart() {
		t.Error("Ready playing players must start regardless of spectators")
	}
}

// playersRoom is a RoomContext double that only serves a roster.
type playersRoom struct {
	mockRoom
	players map[string]Player
}

func (r *playersRoom) GetPlayers() map[string]Player { return r.players }

type fakePlayer struct {
	team  game.Team
	ready bool
}

func (p *fakePlayer) GetID() string       { return "id" }
func (p *fakePlayer) GetName() string     { return "name" }
func (p *fakePlayer) GetTeam() game.Team  { return p.team }
func (p *fakePlayer) IsReady() bool       { return p.ready }
