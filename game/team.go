package game

import "fmt"

// Team 球队标签。观众不参与准备检查和物理模拟。
type Team int

const (
	TeamSpectator Team = iota
	TeamRed
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "spectator"
	}
}

// Playing reports whether the team takes part in the match.
func (t Team) Playing() bool {
	return t == TeamRed || t == TeamBlue
}

// Opponent returns the opposing playing team. Spectator has none.
func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	default:
		return TeamSpectator
	}
}

func ParseTeam(s string) (Team, error) {
	switch s {
	case "red":
		return TeamRed, nil
	case "blue":
		return TeamBlue, nil
	case "spectator":
		return TeamSpectator, nil
	default:
		return TeamSpectator, fmt.Errorf("unknown team %q", s)
	}
}

// Winner 比赛结果
type Winner int

const (
	WinnerDraw Winner = iota
	WinnerRed
	WinnerBlue
)

func (w Winner) String() string {
	switch w {
	case WinnerRed:
		return "red"
	case WinnerBlue:
		return "blue"
	default:
		return "draw"
	}
}
