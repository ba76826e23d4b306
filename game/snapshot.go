package game

// Snapshot is a consistent copy of the observable match state, taken
// under the match mutex. The wire layer (models) maps it to JSON.
type Snapshot struct {
	Players     []PlayerSnapshot
	Ball        BallSnapshot
	Score       Score
	Time        float64
	KickoffTeam Team
	BallTouched bool
	Animations  map[string]Animation // keyed by player name
}

type PlayerSnapshot struct {
	ID   string
	Name string
	Team Team
	X, Y float64
}

type BallSnapshot struct {
	X, Y float64
}

// Snapshot copies the broadcastable state.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Players:     make([]PlayerSnapshot, 0, len(m.players)),
		Ball:        BallSnapshot{X: m.ball.X, Y: m.ball.Y},
		Score:       m.score,
		Time:        m.remaining,
		KickoffTeam: m.kickoff.Team,
		BallTouched: m.kickoff.BallTouched,
		Animations:  make(map[string]Animation),
	}
	for _, p := range m.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:   p.ID,
			Name: p.Name,
			Team: p.Team,
			X:    p.Body.X,
			Y:    p.Body.Y,
		})
		if p.Anim != nil {
			snap.Animations[p.Name] = *p.Anim
		}
	}
	return snap
}
