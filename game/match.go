// Package game owns the authoritative state of one soccer match and the
// fixed-tick simulation that advances it. A Match is exclusively owned
// by its room's loop; every mutation happens inside Tick or under the
// match mutex.
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/soccerserver/physics"
)

// AnimationType 动画类型
type AnimationType string

const (
	AnimationKick AnimationType = "kick"
	AnimationPush AnimationType = "push"
)

// Animation is a transient per-player visual annotation. Each player has
// one slot; a new event replaces the old one.
type Animation struct {
	Type  AnimationType
	Frame int
}

// Player 场上球员（观众不会被加入比赛）
type Player struct {
	ID   string
	Name string
	Team Team
	Body physics.Body
	Anim *Animation

	LastAction time.Time
}

// Score 比分，比赛内只增不减
type Score struct {
	Red  int
	Blue int
}

// Kickoff tracks the restricted period after match start and after each
// goal. BallTouched flips true on the first ball/player contact and
// stays true until the next goal.
type Kickoff struct {
	Team        Team
	BallTouched bool
}

// EventKind 模拟循环产生的离散事件
type EventKind int

const (
	EventFirstTouch EventKind = iota
	EventGoal
	EventMatchOver
)

type Event struct {
	Kind   EventKind
	Team   Team   // scoring team, for EventGoal
	Score  Score  // score after the event
	Winner Winner // for EventMatchOver
}

// Result is handed to the stats collaborator when a match ends.
type Result struct {
	Winner   Winner
	Score    Score
	Duration float64 // seconds actually played
	Players  []ResultPlayer
}

type ResultPlayer struct {
	ID   string
	Name string
	Team Team
}

// Match is the per-room authoritative state. The room loop is the sole
// ticker; AddPlayer/RemovePlayer/SetInput may be called from connection
// goroutines, so all state is guarded by one mutex that Tick holds for
// the whole tick.
type Match struct {
	mu sync.Mutex

	players []*Player // join order; collision resolution iterates in this order
	inputs  map[string]Input

	ball    physics.Body
	score   Score
	kickoff Kickoff

	remaining float64 // seconds
	duration  float64
	elapsed   float64
	lastTick  time.Time

	paused bool
	ended  bool
}

// NewMatch creates a match with a full clock. Red takes the opening
// kickoff.
func NewMatch(matchSeconds int) *Match {
	if matchSeconds <= 0 {
		matchSeconds = DefaultMatchSeconds
	}
	return &Match{
		inputs:    make(map[string]Input),
		ball:      physics.Body{X: FieldWidth / 2, Y: FieldHeight / 2},
		kickoff:   Kickoff{Team: TeamRed, BallTouched: false},
		remaining: float64(matchSeconds),
		duration:  float64(matchSeconds),
	}
}

// AddPlayer places a new player at their team's spawn column. Spectators
// are rejected: they never enter the simulation.
func (m *Match) AddPlayer(id, name string, team Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !team.Playing() {
		return fmt.Errorf("team %s cannot join the simulation", team)
	}
	teammates := 0
	for _, p := range m.players {
		if p.ID == id {
			return fmt.Errorf("player %s already in match", id)
		}
		if p.Team == team {
			teammates++
		}
	}

	x := SpawnRedX
	if team == TeamBlue {
		x = SpawnBlueX
	}
	y := SpawnBaseY + float64(teammates)*SpawnSpacing

	m.players = append(m.players, &Player{
		ID:   id,
		Name: name,
		Team: team,
		Body: physics.Body{X: x, Y: y},
	})
	m.inputs[id] = Input{}
	return nil
}

// RemovePlayer drops a player and their input buffer. Unknown ids are a
// no-op.
func (m *Match) RemovePlayer(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.players {
		if p.ID == id {
			m.players = append(m.players[:i], m.players[i+1:]...)
			break
		}
	}
	delete(m.inputs, id)
}

// SetInput overwrites a player's buffered movement (last write wins) and
// latches kick/push edges so a press between two ticks is not lost.
func (m *Match) SetInput(id string, in Input) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.inputs[id]
	if !ok {
		return
	}
	in.Kick = in.Kick || prev.Kick
	in.Push = in.Push || prev.Push
	m.inputs[id] = in

	for _, p := range m.players {
		if p.ID == id {
			p.LastAction = time.Now()
			break
		}
	}
}

// SetPaused freezes or resumes the simulation. The clock does not run
// while paused.
func (m *Match) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

func (m *Match) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Match) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

func (m *Match) Score() Score {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

func (m *Match) Remaining() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

func (m *Match) KickoffTeam() Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kickoff.Team
}

func (m *Match) BallTouched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kickoff.BallTouched
}

// Tick advances the match by one simulation step. now drives the match
// clock; physics advances by exactly one integration step per call.
// The returned events are in occurrence order.
func (m *Match) Tick(now time.Time) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	dt := 0.0
	if !m.lastTick.IsZero() {
		dt = now.Sub(m.lastTick).Seconds()
	}
	m.lastTick = now

	if m.paused || m.ended {
		return nil
	}

	var events []Event

	m.stepPlayers()
	m.stepBall()
	events = m.checkGoals(events)
	events = m.resolveContacts(events)
	m.applyAbilities()
	m.ageAnimations()

	m.elapsed += dt
	m.remaining -= dt
	if m.remaining <= 0 {
		m.remaining = 0
		m.ended = true
		events = append(events, Event{
			Kind:   EventMatchOver,
			Score:  m.score,
			Winner: m.winner(),
		})
	}
	return events
}

// stepPlayers derives each player's velocity from buffered input,
// integrates and clamps. Players have no inertia: direction changes are
// instantaneous.
func (m *Match) stepPlayers() {
	for _, p := range m.players {
		dx, dy := m.inputs[p.ID].axes()
		p.Body.VX = dx * PlayerSpeed
		p.Body.VY = dy * PlayerSpeed

		physics.Integrate(&p.Body)
		physics.ClampToBounds(&p.Body, PlayerRadius, FieldWidth, FieldHeight)
		m.clampToOwnHalf(p)
	}
}

// clampToOwnHalf enforces the kickoff restriction: until the first ball
// contact, the non-kickoff team stays in its own half. Red defends the
// left half, blue the right.
func (m *Match) clampToOwnHalf(p *Player) {
	if m.kickoff.BallTouched || p.Team == m.kickoff.Team {
		return
	}
	switch p.Team {
	case TeamRed:
		if p.Body.X > FieldWidth/2-PlayerRadius {
			p.Body.X = FieldWidth/2 - PlayerRadius
		}
	case TeamBlue:
		if p.Body.X < FieldWidth/2+PlayerRadius {
			p.Body.X = FieldWidth/2 + PlayerRadius
		}
	}
}

func (m *Match) stepBall() {
	physics.Integrate(&m.ball)
	physics.ApplyFriction(&m.ball, BallFriction)

	// Side walls never score; reflect and clamp.
	if m.ball.X-BallRadius < 0 {
		physics.ResolveWallBounce(&m.ball.X, &m.ball.VX, BallRadius, WallRestitution)
	} else if m.ball.X+BallRadius > FieldWidth {
		physics.ResolveWallBounce(&m.ball.X, &m.ball.VX, FieldWidth-BallRadius, WallRestitution)
	}
}

// checkGoals handles the two goal walls. A crossing strictly inside the
// goal mouth scores; anything else is an ordinary bounce. The top goal
// belongs to red, so blue scores there, and vice versa.
func (m *Match) checkGoals(events []Event) []Event {
	inMouth := m.ball.X > GoalLeft && m.ball.X < GoalRight

	if m.ball.Y-BallRadius < 0 {
		if inMouth {
			events = m.recordGoal(events, TeamBlue)
		} else {
			physics.ResolveWallBounce(&m.ball.Y, &m.ball.VY, BallRadius, WallRestitution)
		}
	} else if m.ball.Y+BallRadius > FieldHeight {
		if inMouth {
			events = m.recordGoal(events, TeamRed)
		} else {
			physics.ResolveWallBounce(&m.ball.Y, &m.ball.VY, FieldHeight-BallRadius, WallRestitution)
		}
	}
	return events
}

func (m *Match) recordGoal(events []Event, scorer Team) []Event {
	switch scorer {
	case TeamRed:
		m.score.Red++
	case TeamBlue:
		m.score.Blue++
	}

	// The conceded team restarts play under kickoff restriction.
	m.kickoff = Kickoff{Team: scorer.Opponent(), BallTouched: false}
	m.resetBall()

	return append(events, Event{Kind: EventGoal, Team: scorer, Score: m.score})
}

func (m *Match) resetBall() {
	m.ball = physics.Body{X: FieldWidth / 2, Y: FieldHeight / 2}
}

// resolveContacts resolves ball/player overlaps in join order; when two
// players touch the ball in the same tick the later one wins the final
// ball velocity. Any contact releases the kickoff restriction.
func (m *Match) resolveContacts(events []Event) []Event {
	for _, p := range m.players {
		hit := physics.ResolveCircleCollision(&m.ball, p.Body.X, p.Body.Y, PlayerRadius+BallRadius, TouchSpeedBonus)
		if hit && !m.kickoff.BallTouched {
			m.kickoff.BallTouched = true
			events = append(events, Event{Kind: EventFirstTouch, Team: p.Team})
		}
	}
	return events
}

// applyAbilities consumes pending kick/push edges. A kick out of range
// is a no-op with no animation; a push always animates and shoves
// whatever is inside its radius.
func (m *Match) applyAbilities() {
	for _, p := range m.players {
		in := m.inputs[p.ID]
		if !in.Kick && !in.Push {
			continue
		}

		if in.Kick {
			m.kickBall(p)
			in.Kick = false
		}
		if in.Push {
			m.push(p)
			in.Push = false
		}
		m.inputs[p.ID] = in
	}
}

// kickBall shoots the ball at KickPower along the player-to-ball vector,
// not the player's movement direction.
func (m *Match) kickBall(p *Player) {
	if physics.Dist(p.Body.X, p.Body.Y, m.ball.X, m.ball.Y) >= KickDistance {
		return
	}
	m.ball.VX = 0
	m.ball.VY = 0
	physics.Impulse(&m.ball, p.Body.X, p.Body.Y, KickPower)
	p.Anim = &Animation{Type: AnimationKick}
}

// push shoves nearby players away by a fixed displacement and gives the
// ball a velocity impulse. Player velocity is rebuilt from input every
// tick, so the shove is positional.
func (m *Match) push(p *Player) {
	for _, q := range m.players {
		if q == p {
			continue
		}
		d := physics.Dist(p.Body.X, p.Body.Y, q.Body.X, q.Body.Y)
		if d == 0 || d >= PushRadius {
			continue
		}
		nx := (q.Body.X - p.Body.X) / d
		ny := (q.Body.Y - p.Body.Y) / d
		q.Body.X += nx * PushPower
		q.Body.Y += ny * PushPower
		physics.ClampToBounds(&q.Body, PlayerRadius, FieldWidth, FieldHeight)
	}

	if physics.Dist(p.Body.X, p.Body.Y, m.ball.X, m.ball.Y) < PushRadius {
		physics.Impulse(&m.ball, p.Body.X, p.Body.Y, PushPower)
	}
	p.Anim = &Animation{Type: AnimationPush}
}

func (m *Match) ageAnimations() {
	for _, p := range m.players {
		if p.Anim == nil {
			continue
		}
		p.Anim.Frame++
		if p.Anim.Frame > AnimationTicks {
			p.Anim = nil
		}
	}
}

func (m *Match) winner() Winner {
	switch {
	case m.score.Red > m.score.Blue:
		return WinnerRed
	case m.score.Blue > m.score.Red:
		return WinnerBlue
	default:
		return WinnerDraw
	}
}

// Result builds the outcome handed to the stats collaborator.
func (m *Match) Result() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := Result{
		Winner:   m.winner(),
		Score:    m.score,
		Duration: m.elapsed,
	}
	for _, p := range m.players {
		res.Players = append(res.Players, ResultPlayer{ID: p.ID, Name: p.Name, Team: p.Team})
	}
	return res
}
