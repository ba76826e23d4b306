// models/models.go
package models

import (
	"time"

	"github.com/wfunc/soccerserver/game"
)

// ScoreInfo 比分
type ScoreInfo struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

// PlayerState 广播中的单个球员
type PlayerState struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Team string  `json:"team"`
	Name string  `json:"name"`
}

type BallState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type AnimationState struct {
	Type  string `json:"type"`
	Frame int    `json:"frame"`
}

// GameState is the periodic game_state snapshot pushed to every viewer
// of a room.
type GameState struct {
	Players     []PlayerState             `json:"players"`
	Ball        BallState                 `json:"ball"`
	Score       ScoreInfo                 `json:"score"`
	Time        float64                   `json:"time"`
	KickoffTeam string                    `json:"kickoff_team"`
	BallTouched bool                      `json:"ball_touched"`
	Animations  map[string]AnimationState `json:"animations"`
}

// NewGameState maps an engine snapshot onto the wire format.
func NewGameState(snap game.Snapshot) GameState {
	gs := GameState{
		Players:     make([]PlayerState, 0, len(snap.Players)),
		Ball:        BallState{X: snap.Ball.X, Y: snap.Ball.Y},
		Score:       ScoreInfo{Red: snap.Score.Red, Blue: snap.Score.Blue},
		Time:        snap.Time,
		KickoffTeam: snap.KickoffTeam.String(),
		BallTouched: snap.BallTouched,
		Animations:  make(map[string]AnimationState, len(snap.Animations)),
	}
	for _, p := range snap.Players {
		gs.Players = append(gs.Players, PlayerState{
			ID:   p.ID,
			X:    p.X,
			Y:    p.Y,
			Team: p.Team.String(),
			Name: p.Name,
		})
	}
	for name, a := range snap.Animations {
		gs.Animations[name] = AnimationState{Type: string(a.Type), Frame: a.Frame}
	}
	return gs
}

// GoalScored 单次进球事件
type GoalScored struct {
	Team  string    `json:"team"`
	Score ScoreInfo `json:"score"`
}

// GameOver 终局事件
type GameOver struct {
	Winner     string    `json:"winner"`
	FinalScore ScoreInfo `json:"finalScore"`
}

type GamePaused struct {
	Paused bool `json:"paused"`
}

type GameStarted struct {
	RoomID string `json:"roomId"`
}

// --- 房间 / 大厅 ---

// PlayerInRoom 房间名单里的一个玩家
type PlayerInRoom struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Team     string `json:"team"`
	Ready    bool   `json:"ready"`
}

type RoomInfo struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Host           string         `json:"host"`
	Players        []PlayerInRoom `json:"players"`
	CurrentPlayers int            `json:"current_players"`
	MaxPlayers     int            `json:"maxPlayers"`
	Status         string         `json:"status"`
}

type RoomList struct {
	Rooms []RoomInfo `json:"rooms"`
}

type RoomUpdated struct {
	Room RoomInfo `json:"room"`
}

type PlayerJoined struct {
	Player PlayerInRoom `json:"player"`
	Room   RoomInfo     `json:"room"`
}

type PlayerLeft struct {
	PlayerID string   `json:"playerId"`
	Username string   `json:"username"`
	Room     RoomInfo `json:"room"`
}

type ChatMessage struct {
	Player    string  `json:"player"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// --- 客户端请求 ---

type CreateRoomRequest struct {
	Name       string `json:"name"`
	Host       string `json:"host"`
	MaxPlayers int    `json:"maxPlayers"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type ChangeTeamRequest struct {
	Team string `json:"team"`
}

type PlayerReadyRequest struct {
	Ready bool `json:"ready"`
}

type StartGameRequest struct {
	RoomID string `json:"roomId"`
}

type TogglePauseRequest struct {
	RoomID string `json:"roomId"`
	Paused bool   `json:"paused"`
}

type PlayerInputRequest struct {
	Keys map[string]bool `json:"keys"`
	Kick bool            `json:"kick"`
	Push bool            `json:"push"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

// --- 持久化 ---

// MatchRecord 一场比赛的最终结果
type MatchRecord struct {
	RoomID     string        `json:"room_id"`
	Winner     string        `json:"winner"`
	FinalScore ScoreInfo     `json:"finalScore"`
	Duration   int           `json:"duration"` // seconds
	Players    []MatchPlayer `json:"players"`
	CreatedAt  time.Time     `json:"created_at"`
}

type MatchPlayer struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Team     string `json:"team"`
	Outcome  string `json:"outcome"` // win/lose/draw
}

// PlayerStats 玩家累计战绩
type PlayerStats struct {
	Username   string `json:"username"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Draws      int    `json:"draws"`
	Goals      int    `json:"goals"`
}
