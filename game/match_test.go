package game

import (
	"math"
	"testing"
	"time"

	"github.com/wfunc/soccerserver/physics"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// tick advances the match with a synthetic clock so wall time does not
// leak into the tests.
func tick(m *Match, at time.Time) []Event {
	return m.Tick(at)
}

func TestAddPlayer_Spawns(t *testing.T) {
	m := NewMatch(600)

	if err := m.AddPlayer("r1", "Red1", TeamRed); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	if err := m.AddPlayer("r2", "Red2", TeamRed); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	if err := m.AddPlayer("b1", "Blue1", TeamBlue); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}

	if m.players[0].Body.X != SpawnRedX || m.players[0].Body.Y != SpawnBaseY {
		t.Errorf("First red spawn expected (%v, %v), got (%v, %v)",
			SpawnRedX, SpawnBaseY, m.players[0].Body.X, m.players[0].Body.Y)
	}
	if m.players[1].Body.Y != SpawnBaseY+SpawnSpacing {
		t.Errorf("Second red spawn expected Y %v, got %v", SpawnBaseY+SpawnSpacing, m.players[1].Body.Y)
	}
	if m.players[2].Body.X != SpawnBlueX || m.players[2].Body.Y != SpawnBaseY {
		t.Errorf("First blue spawn expected (%v, %v), got (%v, %v)",
			SpawnBlueX, SpawnBaseY, m.players[2].Body.X, m.players[2].Body.Y)
	}
}

func TestAddPlayer_Rejections(t *testing.T) {
	m := NewMatch(600)

	if err := m.AddPlayer("s1", "Watcher", TeamSpectator); err == nil {
		t.Error("Spectators must not enter the simulation")
	}
	if err := m.AddPlayer("r1", "Red1", TeamRed); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	if err := m.AddPlayer("r1", "Red1Again", TeamBlue); err == nil {
		t.Error("Duplicate player ids must be rejected")
	}
}

func TestGoal_TopScoresForBlue(t *testing.T) {
	m := NewMatch(600)
	m.ball = physics.Body{X: FieldWidth / 2, Y: 13, VY: -10}

	events := tick(m, time.Now())

	var goal *Event
	for i := range events {
		if events[i].Kind == EventGoal {
			goal = &events[i]
		}
	}
	if goal == nil {
		t.Fatal("Expected a goal event")
	}
	if goal.Team != TeamBlue {
		t.Errorf("A ball through the top goal scores for blue, got %v", goal.Team)
	}
	if m.score.Blue != 1 || m.score.Red != 0 {
		t.Errorf("Expected score 0-1, got %d-%d", m.score.Red, m.score.Blue)
	}
	if m.ball.X != FieldWidth/2 || m.ball.Y != FieldHeight/2 {
		t.Errorf("Ball must reset to center, got (%v, %v)", m.ball.X, m.ball.Y)
	}
	if m.kickoff.Team != TeamRed || m.kickoff.BallTouched {
		t.Errorf("Conceding team (red) must take the kickoff, got %v touched=%v",
			m.kickoff.Team, m.kickoff.BallTouched)
	}
}

func TestGoal_BottomScoresForRed(t *testing.T) {
	m := NewMatch(600)
	m.ball = physics.Body{X: FieldWidth / 2, Y: FieldHeight - 13, VY: 10}

	events := tick(m, time.Now())

	found := false
	for _, ev := range events {
		if ev.Kind == EventGoal && ev.Team == TeamRed {
			found = true
		}
	}
	if !found {
		t.Fatal("A ball through the bottom goal must score for red")
	}
	if m.kickoff.Team != TeamBlue {
		t.Errorf("Conceding team (blue) must take the kickoff, got %v", m.kickoff.Team)
	}
}

func TestGoal_PostBounces(t *testing.T) {
	m := NewMatch(600)
	// Exactly at the goal mouth edge: not strictly inside, so it bounces.
	m.ball = physics.Body{X: GoalLeft, Y: 13, VY: -10}

	events := tick(m, time.Now())

	for _, ev := range events {
		if ev.Kind == EventGoal {
			t.Fatal("The goal mouth boundary must not score")
		}
	}
	if m.ball.Y != BallRadius {
		t.Errorf("Ball must sit on the wall after the bounce, got Y=%v", m.ball.Y)
	}
	if m.ball.VY <= 0 {
		t.Errorf("Velocity must reflect off the wall, got VY=%v", m.ball.VY)
	}
}

func TestKickoff_HalfRestriction(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("b1", "Blue1", TeamBlue)

	// Red has the opening kickoff, so blue is confined to the right half.
	m.SetInput("b1", Input{Left: true})
	for i := 0; i < 200; i++ {
		tick(m, time.Now())
	}

	limit := FieldWidth/2 + PlayerRadius
	if m.players[0].Body.X != limit {
		t.Errorf("Blue must be held at x=%v during kickoff, got %v", limit, m.players[0].Body.X)
	}

	// After the first touch the restriction lifts.
	m.kickoff.BallTouched = true
	tick(m, time.Now())
	if m.players[0].Body.X >= limit {
		t.Errorf("Blue must cross midfield after the first touch, got %v", m.players[0].Body.X)
	}
}

func TestFirstTouch_ReleasesKickoff(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.players[0].Body = physics.Body{X: FieldWidth/2 - 10, Y: FieldHeight / 2}

	events := tick(m, time.Now())

	found := false
	for _, ev := range events {
		if ev.Kind == EventFirstTouch && ev.Team == TeamRed {
			found = true
		}
	}
	if !found {
		t.Fatal("Expected a first-touch event from the overlapping player")
	}
	if !m.kickoff.BallTouched {
		t.Error("BallTouched must latch after the first contact")
	}
	// The ball is pushed out to tangency with a speed bonus.
	if physics.Speed(&m.ball) < TouchSpeedBonus {
		t.Errorf("Ball must gain the contact speed bonus, speed=%v", physics.Speed(&m.ball))
	}
}

func TestKick_InRange(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.players[0].Body = physics.Body{X: 600, Y: 300}
	m.ball = physics.Body{X: 620, Y: 300}

	m.SetInput("r1", Input{Kick: true})
	tick(m, time.Now())

	// The contact resolution pushes the ball to tangency first; it is
	// still inside kick range, so the kick overrides the ball velocity.
	if !almostEqual(m.ball.VX, KickPower) || !almostEqual(m.ball.VY, 0) {
		t.Errorf("Expected ball velocity (%v, 0), got (%v, %v)", KickPower, m.ball.VX, m.ball.VY)
	}
	if m.players[0].Anim == nil || m.players[0].Anim.Type != AnimationKick {
		t.Error("An in-range kick must record a kick animation")
	}
	if m.inputs["r1"].Kick {
		t.Error("The consumed kick edge must be cleared")
	}
}

func TestKick_OutOfRange(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.players[0].Body = physics.Body{X: 600, Y: 300}
	m.ball = physics.Body{X: 660, Y: 300}

	m.SetInput("r1", Input{Kick: true})
	tick(m, time.Now())

	if m.ball.VX != 0 || m.ball.VY != 0 {
		t.Error("An out-of-range kick must not move the ball")
	}
	if m.players[0].Anim != nil {
		t.Error("An out-of-range kick must not animate")
	}
	if m.inputs["r1"].Kick {
		t.Error("The kick edge is consumed even when out of range")
	}
}

func TestKick_EdgeLatched(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)

	m.SetInput("r1", Input{Kick: true})
	// A later movement-only update must not erase the pending press.
	m.SetInput("r1", Input{Up: true})

	if !m.inputs["r1"].Kick {
		t.Error("A kick press between two ticks must be latched")
	}
	if !m.inputs["r1"].Up {
		t.Error("Movement is last-write-wins")
	}
}

func TestPush_DisplacesPlayersAndBall(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.AddPlayer("r2", "Red2", TeamRed)
	m.players[0].Body = physics.Body{X: 600, Y: 300}
	m.players[1].Body = physics.Body{X: 640, Y: 300}
	m.ball = physics.Body{X: 560, Y: 300}

	m.SetInput("r1", Input{Push: true})
	tick(m, time.Now())

	if !almostEqual(m.players[1].Body.X, 648) {
		t.Errorf("Pushed player must be displaced to 648, got %v", m.players[1].Body.X)
	}
	if !almostEqual(m.ball.VX, -PushPower) {
		t.Errorf("Ball inside the push radius gains a velocity impulse, got VX=%v", m.ball.VX)
	}
	if m.players[0].Anim == nil || m.players[0].Anim.Type != AnimationPush {
		t.Error("A push always records a push animation")
	}
}

func TestPush_OutOfRadius(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.AddPlayer("r2", "Red2", TeamRed)
	m.players[0].Body = physics.Body{X: 600, Y: 300}
	m.players[1].Body = physics.Body{X: 700, Y: 300}

	m.SetInput("r1", Input{Push: true})
	tick(m, time.Now())

	if m.players[1].Body.X != 700 {
		t.Errorf("A player outside the push radius must not move, got %v", m.players[1].Body.X)
	}
	if m.players[0].Anim == nil {
		t.Error("The push animation plays even when nothing was hit")
	}
}

func TestDiagonalMovement_Normalized(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	start := m.players[0].Body

	m.SetInput("r1", Input{Down: true, Right: true})
	tick(m, time.Now())

	wantStep := PlayerSpeed * DiagonalFactor
	if !almostEqual(m.players[0].Body.X, start.X+wantStep) ||
		!almostEqual(m.players[0].Body.Y, start.Y+wantStep) {
		t.Errorf("Diagonal step expected %v per axis, got (%v, %v)",
			wantStep, m.players[0].Body.X-start.X, m.players[0].Body.Y-start.Y)
	}
}

func TestClock_MatchOver(t *testing.T) {
	m := NewMatch(1)
	m.score.Red = 2

	base := time.Now()
	tick(m, base) // first tick establishes the clock, dt = 0
	events := tick(m, base.Add(2*time.Second))

	var over *Event
	for i := range events {
		if events[i].Kind == EventMatchOver {
			over = &events[i]
		}
	}
	if over == nil {
		t.Fatal("Expected a match-over event after the clock expired")
	}
	if over.Winner != WinnerRed {
		t.Errorf("Expected red to win 2-0, got %v", over.Winner)
	}
	if m.remaining != 0 {
		t.Errorf("Remaining time must clamp at zero, got %v", m.remaining)
	}
	if !m.Ended() {
		t.Error("The match must be ended")
	}

	// The ended match is inert.
	if evs := tick(m, base.Add(3*time.Second)); len(evs) != 0 {
		t.Errorf("An ended match must emit no further events, got %d", len(evs))
	}
}

func TestPause_FreezesSimulationAndClock(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)

	base := time.Now()
	tick(m, base)
	m.SetPaused(true)

	m.SetInput("r1", Input{Right: true})
	before := m.players[0].Body.X
	remainingBefore := m.Remaining()

	tick(m, base.Add(5*time.Second))

	if m.players[0].Body.X != before {
		t.Error("Players must not move while paused")
	}
	if m.Remaining() != remainingBefore {
		t.Error("The clock must not run while paused")
	}

	// Time spent paused is not charged on resume.
	m.SetPaused(false)
	tick(m, base.Add(5*time.Second+16*time.Millisecond))
	if remainingBefore-m.Remaining() > 0.1 {
		t.Errorf("Resume must only charge the tick delta, lost %v seconds",
			remainingBefore-m.Remaining())
	}
}

func TestAnimation_Expires(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.players[0].Anim = &Animation{Type: AnimationKick}

	for i := 0; i < AnimationTicks; i++ {
		tick(m, time.Now())
	}
	if m.players[0].Anim == nil {
		t.Fatal("Animation must survive its full frame budget")
	}

	tick(m, time.Now())
	if m.players[0].Anim != nil {
		t.Error("Animation must expire after its frame budget")
	}
}

func TestRemovePlayer(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.AddPlayer("b1", "Blue1", TeamBlue)

	m.RemovePlayer("r1")
	if len(m.players) != 1 || m.players[0].ID != "b1" {
		t.Fatal("RemovePlayer must drop exactly the named player")
	}
	if _, ok := m.inputs["r1"]; ok {
		t.Error("RemovePlayer must drop the input buffer")
	}

	// Unknown ids are a no-op.
	m.RemovePlayer("ghost")
	if len(m.players) != 1 {
		t.Error("Removing an unknown id must be a no-op")
	}
}

func TestSetInput_UnknownIgnored(t *testing.T) {
	m := NewMatch(600)
	m.SetInput("ghost", Input{Kick: true})

	if _, ok := m.inputs["ghost"]; ok {
		t.Error("Input for an unknown player must be dropped")
	}
}

func TestSnapshot(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.players[0].Anim = &Animation{Type: AnimationPush, Frame: 3}
	m.score = Score{Red: 1, Blue: 2}

	snap := m.Snapshot()

	if len(snap.Players) != 1 || snap.Players[0].Name != "Red1" {
		t.Fatal("Snapshot must list the roster")
	}
	if snap.Score != (Score{Red: 1, Blue: 2}) {
		t.Errorf("Snapshot score mismatch: %+v", snap.Score)
	}
	if snap.KickoffTeam != TeamRed || snap.BallTouched {
		t.Error("Snapshot must carry the kickoff state")
	}
	anim, ok := snap.Animations["Red1"]
	if !ok || anim.Type != AnimationPush || anim.Frame != 3 {
		t.Errorf("Snapshot animation mismatch: %+v", snap.Animations)
	}
}

func TestResult(t *testing.T) {
	m := NewMatch(600)
	m.AddPlayer("r1", "Red1", TeamRed)
	m.AddPlayer("b1", "Blue1", TeamBlue)
	m.score = Score{Red: 0, Blue: 3}

	res := m.Result()
	if res.Winner != WinnerBlue {
		t.Errorf("Expected blue to win, got %v", res.Winner)
	}
	if len(res.Players) != 2 {
		t.Errorf("Expected 2 result players, got %d", len(res.Players))
	}
}
