// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/soccerserver/game"
	"github.com/wfunc/soccerserver/logger"
	"github.com/wfunc/soccerserver/models"
	"github.com/wfunc/soccerserver/network"
	"github.com/wfunc/soccerserver/session"
	"github.com/wfunc/soccerserver/state"
	"github.com/wfunc/soccerserver/timer"
)

var (
	ErrNotHost         = errors.New("only the host can do that")
	ErrMatchInProgress = errors.New("a match is already running")
	ErrPlayersNotReady = errors.New("not all players are ready")
	ErrNoMatch         = errors.New("no active match")
	ErrUnknownPlayer   = errors.New("player not in room")
)

// RoomStatus 表示房间的业务状态（大厅展示用）
type RoomStatus int

const (
	StatusWaiting RoomStatus = iota
	StatusPlaying
	StatusFinished
)

func (s RoomStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	default:
		return "waiting"
	}
}

// Rules 单个房间的比赛参数
type Rules struct {
	TickHz       int
	BroadcastHz  int
	MatchSeconds int
	ResetDelay   time.Duration
}

func DefaultRules() Rules {
	return Rules{
		TickHz:       60,
		BroadcastHz:  20,
		MatchSeconds: game.DefaultMatchSeconds,
		ResetDelay:   5 * time.Second,
	}
}

// Member 房间名单里的一个玩家（包括观众）
type Member struct {
	Session  *session.Session
	Username string
	Team     game.Team
	Ready    bool
	JoinedAt time.Time
}

// --- state.Player 接口 ---

func (m *Member) GetID() string      { return m.Session.ID }
func (m *Member) GetName() string    { return m.Username }
func (m *Member) GetTeam() game.Team { return m.Team }
func (m *Member) IsReady() bool      { return m.Ready }

// Options 是房间的依赖集合，由 Manager 注入
type Options struct {
	Broadcaster Broadcaster
	Timers      *timer.Manager
	Results     ResultSink
	Metrics     Metrics
	Rules       Rules
}

// Room 是游戏房间的核心结构。每个房间有自己独立的 tick 循环，
// 房间之间不共享任何可变状态。
type Room struct {
	ID         string
	Name       string
	Host       string
	MaxPlayers int

	Status       RoomStatus
	Players      map[string]*Member // sessionID -> member
	StateMachine state.StateMachine
	CreatedAt    time.Time

	match      *game.Match
	matchMutex sync.RWMutex

	opts           Options
	sinceBroadcast int // only touched by the room loop

	statusMutex sync.RWMutex
	playerMutex sync.RWMutex
	ticker      *time.Ticker
	closeChan   chan bool
	closeOnce   sync.Once

	// onRosterChange 由 server 注入，用于向大厅推送房间列表
	onRosterChange func()
}

// NewRoom 创建一个新房间并启动它的 tick 循环
func NewRoom(id, name, host string, maxPlayers int, opts Options) *Room {
	if opts.Rules.TickHz <= 0 {
		opts.Rules = DefaultRules()
	}

	room := &Room{
		ID:         id,
		Name:       name,
		Host:       host,
		MaxPlayers: maxPlayers,
		Status:     StatusWaiting,
		Players:    make(map[string]*Member),
		CreatedAt:  time.Now(),
		opts:       opts,
		closeChan:  make(chan bool),
	}

	// 初始化状态机，将房间自身作为上下文传入
	initial := state.NewWaitingState(room)
	room.StateMachine = state.NewBaseStateMachine(initial)
	room.StateMachine.AddTransition(initial, state.NewKickoffState(room), room.canStart)

	room.ticker = time.NewTicker(time.Second / time.Duration(opts.Rules.TickHz))
	go room.loop()

	return room
}

// broadcastEvery is how many simulation ticks separate two snapshots.
func (r *Room) broadcastEvery() int {
	every := r.opts.Rules.TickHz / r.opts.Rules.BroadcastHz
	if every <= 0 {
		every = 1
	}
	return every
}

// --- 实现 state.RoomContext 接口 ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) GetHost() string {
	return r.Host
}

func (r *Room) GetMaxPlayers() int {
	return r.MaxPlayers
}

// GetPlayers 获取房间中的所有玩家，返回的map值为 state.Player 接口
func (r *Room) GetPlayers() map[string]state.Player {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	// 返回副本以避免并发修改
	players := make(map[string]state.Player, len(r.Players))
	for k, v := range r.Players {
		players[k] = v
	}
	return players
}

// ChangeState 改变房间的状态机状态
func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

func (r *Room) Broadcast(msgID uint16, data []byte) error {
	if r.opts.Broadcaster == nil {
		return nil
	}
	return r.opts.Broadcaster.BroadcastToRoom(r.ID, msgID, data)
}

func (r *Room) BroadcastEvent(msgID uint16, data []byte) error {
	if r.opts.Broadcaster == nil {
		return nil
	}
	return r.opts.Broadcaster.BroadcastEventToRoom(r.ID, msgID, data)
}

// Match returns the running match, nil outside a match.
func (r *Room) Match() *game.Match {
	r.matchMutex.RLock()
	defer r.matchMutex.RUnlock()
	return r.match
}

func (r *Room) setMatch(m *game.Match) {
	r.matchMutex.Lock()
	defer r.matchMutex.Unlock()
	r.match = m
}

// StepMatch advances the match one tick, reports metrics and publishes
// the snapshot on the broadcast cadence.
func (r *Room) StepMatch(now time.Time) []game.Event {
	match := r.Match()
	if match == nil {
		return nil
	}

	start := time.Now()
	events := match.Tick(now)
	if r.opts.Metrics != nil {
		r.opts.Metrics.ObserveTick(time.Since(start))
	}

	r.sinceBroadcast++
	if r.sinceBroadcast >= r.broadcastEvery() {
		r.sinceBroadcast = 0
		r.publishSnapshot(match)
	}

	if r.opts.Metrics != nil {
		for _, ev := range events {
			if ev.Kind == game.EventGoal {
				r.opts.Metrics.GoalScored()
			}
		}
	}
	return events
}

func (r *Room) publishSnapshot(match *game.Match) {
	msg := models.NewGameState(match.Snapshot())
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Errorf("房间 %s 序列化快照失败: %v", r.ID, err)
		return
	}
	r.Broadcast(network.MsgTypeGameState, data)
}

// FinishMatch records the outcome and schedules the return to waiting.
// The database write runs off the room loop.
func (r *Room) FinishMatch(res game.Result) {
	r.SetStatus(StatusFinished)
	if r.opts.Metrics != nil {
		r.opts.Metrics.MatchEnded()
	}

	record := buildMatchRecord(r.ID, res)
	if r.opts.Results != nil {
		go func() {
			if err := r.opts.Results.RecordMatchResult(record); err != nil {
				logger.Log.Errorf("房间 %s 保存比赛结果失败: %v", r.ID, err)
			}
		}()
	}

	reset := func() { r.resetToWaiting() }
	if r.opts.Timers != nil {
		r.opts.Timers.AddTimer(r.opts.Rules.ResetDelay, 0, reset)
	} else {
		time.AfterFunc(r.opts.Rules.ResetDelay, reset)
	}
}

func buildMatchRecord(roomID string, res game.Result) *models.MatchRecord {
	record := &models.MatchRecord{
		RoomID:     roomID,
		Winner:     res.Winner.String(),
		FinalScore: models.ScoreInfo{Red: res.Score.Red, Blue: res.Score.Blue},
		Duration:   int(res.Duration),
		CreatedAt:  time.Now(),
	}
	for _, p := range res.Players {
		outcome := "draw"
		switch {
		case res.Winner == game.WinnerRed && p.Team == game.TeamRed,
			res.Winner == game.WinnerBlue && p.Team == game.TeamBlue:
			outcome = "win"
		case res.Winner != game.WinnerDraw:
			outcome = "lose"
		}
		record.Players = append(record.Players, models.MatchPlayer{
			UserID:   p.ID,
			Username: p.Name,
			Team:     p.Team.String(),
			Outcome:  outcome,
		})
	}
	return record
}

// resetToWaiting clears the finished match and reopens the lobby.
func (r *Room) resetToWaiting() {
	r.setMatch(nil)

	r.playerMutex.Lock()
	for _, m := range r.Players {
		m.Ready = false
	}
	r.playerMutex.Unlock()

	r.SetStatus(StatusWaiting)
	r.ChangeState(state.NewWaitingState(r))
	r.notifyRoomUpdated()
}

// --- 房间核心逻辑 ---

// AddPlayer 添加一个玩家到房间，新玩家从观众席开始。
// 一个会话同时只能属于一个房间：已在别的房间的会话会被拒绝。
func (r *Room) AddPlayer(s *session.Session, username string) bool {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()

	if s.RoomID != "" && s.RoomID != r.ID {
		return false
	}
	if _, exists := r.Players[s.ID]; exists {
		return false
	}
	if len(r.Players) >= r.MaxPlayers {
		return false
	}

	r.Players[s.ID] = &Member{
		Session:  s,
		Username: username,
		Team:     game.TeamSpectator,
		JoinedAt: time.Now(),
	}
	s.RoomID = r.ID
	return true
}

// RemovePlayer 从房间移除一个玩家；进行中的比赛同步移除
func (r *Room) RemovePlayer(sessionID string) {
	r.playerMutex.Lock()
	if member, exists := r.Players[sessionID]; exists {
		member.Session.RoomID = ""
		delete(r.Players, sessionID)
	}
	r.playerMutex.Unlock()

	if match := r.Match(); match != nil {
		match.RemovePlayer(sessionID)
	}
}

// GetMember 获取单个玩家
func (r *Room) GetMember(sessionID string) (*Member, bool) {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	member, exists := r.Players[sessionID]
	return member, exists
}

// SetTeam changes a member's team. A running match keeps its original
// roster; the change takes effect at the next kickoff from waiting.
func (r *Room) SetTeam(sessionID string, team game.Team) error {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()

	member, exists := r.Players[sessionID]
	if !exists {
		return ErrUnknownPlayer
	}
	member.Team = team
	if !team.Playing() {
		member.Ready = false
	}
	return nil
}

func (r *Room) SetReady(sessionID string, ready bool) error {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()

	member, exists := r.Players[sessionID]
	if !exists {
		return ErrUnknownPlayer
	}
	member.Ready = ready
	return nil
}

// canStart reports whether every playing member is ready, with at least
// one playing member. Spectators never count.
func (r *Room) canStart() bool {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	playing := 0
	for _, m := range r.Players {
		if !m.Team.Playing() {
			continue
		}
		playing++
		if !m.Ready {
			return false
		}
	}
	return playing > 0
}

// orderedMembers returns the roster in join order. Match join order is
// load-bearing: ball contacts resolve in this order.
func (r *Room) orderedMembers() []*Member {
	r.playerMutex.RLock()
	members := make([]*Member, 0, len(r.Players))
	for _, m := range r.Players {
		members = append(members, m)
	}
	r.playerMutex.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].Session.ID < members[j].Session.ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members
}

// StartMatch begins a match. Only the host may start; every playing
// member must be ready; a running match is never restarted.
func (r *Room) StartMatch(sessionID string) error {
	member, ok := r.GetMember(sessionID)
	if !ok {
		return ErrUnknownPlayer
	}
	if member.Username != r.Host {
		return ErrNotHost
	}
	if r.StateMachine.GetCurrentState().GetID() != state.StateWaiting {
		return ErrMatchInProgress
	}
	if !r.canStart() {
		return ErrPlayersNotReady
	}

	match := game.NewMatch(r.opts.Rules.MatchSeconds)
	for _, m := range r.orderedMembers() {
		if !m.Team.Playing() {
			continue
		}
		if err := match.AddPlayer(m.Session.ID, m.Username, m.Team); err != nil {
			return err
		}
	}

	r.setMatch(match)
	r.sinceBroadcast = 0
	r.SetStatus(StatusPlaying)
	if r.opts.Metrics != nil {
		r.opts.Metrics.MatchStarted()
	}

	if err := r.ChangeState(state.NewKickoffState(r)); err != nil {
		r.setMatch(nil)
		r.SetStatus(StatusWaiting)
		return err
	}

	data, _ := json.Marshal(models.GameStarted{RoomID: r.ID})
	r.BroadcastEvent(network.MsgTypeGameStarted, data)
	logger.Log.Infof("Match started in room %s", r.ID)
	return nil
}

// TogglePause pauses or resumes the running match. Requests that do not
// match the current state are a no-op.
func (r *Room) TogglePause(paused bool) error {
	if r.Match() == nil {
		return ErrNoMatch
	}

	current := r.StateMachine.GetCurrentState()
	switch {
	case paused && (current.GetID() == state.StateKickoff || current.GetID() == state.StateActive):
		if err := r.ChangeState(state.NewPausedState(r, current)); err != nil {
			return err
		}
	case !paused && current.GetID() == state.StatePaused:
		pausedState, ok := current.(*state.PausedState)
		if !ok {
			return ErrNoMatch
		}
		if err := r.ChangeState(pausedState.Resumed()); err != nil {
			return err
		}
	default:
		return nil
	}

	data, _ := json.Marshal(models.GamePaused{Paused: paused})
	r.BroadcastEvent(network.MsgTypeGamePaused, data)
	return nil
}

// UpdateInput overwrites a player's input buffer. Input outside a match
// is ignored.
func (r *Room) UpdateInput(sessionID string, in game.Input) {
	match := r.Match()
	if match == nil {
		return
	}
	match.SetInput(sessionID, in)
}

// SetStatus 设置房间的业务状态
func (r *Room) SetStatus(status RoomStatus) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	r.Status = status
}

// GetStatus 获取房间的业务状态
func (r *Room) GetStatus() RoomStatus {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.Status
}

// PlayerCount returns the roster size including spectators.
func (r *Room) PlayerCount() int {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return len(r.Players)
}

// Info 构建大厅和房间内展示用的房间信息
func (r *Room) Info() models.RoomInfo {
	members := r.orderedMembers()

	info := models.RoomInfo{
		ID:             r.ID,
		Name:           r.Name,
		Host:           r.Host,
		MaxPlayers:     r.MaxPlayers,
		CurrentPlayers: len(members),
		Status:         r.GetStatus().String(),
		Players:        make([]models.PlayerInRoom, 0, len(members)),
	}
	for _, m := range members {
		info.Players = append(info.Players, models.PlayerInRoom{
			UserID:   m.Session.ID,
			Username: m.Username,
			Team:     m.Team.String(),
			Ready:    m.Ready,
		})
	}
	return info
}

// OnRosterChange registers the lobby push hook.
func (r *Room) OnRosterChange(fn func()) {
	r.onRosterChange = fn
}

// notifyRoomUpdated broadcasts the roster to the room and pokes the
// lobby hook.
func (r *Room) notifyRoomUpdated() {
	data, err := json.Marshal(models.RoomUpdated{Room: r.Info()})
	if err == nil {
		r.BroadcastEvent(network.MsgTypeRoomUpdated, data)
	}
	if r.onRosterChange != nil {
		r.onRosterChange()
	}
}

// NotifyRoomUpdated is the exported form used by the server handlers.
func (r *Room) NotifyRoomUpdated() {
	r.notifyRoomUpdated()
}

// loop 是房间的主循环，定时驱动状态更新。一个房间的崩溃只能
// 毁掉它自己的循环，不允许波及其他房间。
func (r *Room) loop() {
	for {
		select {
		case <-r.ticker.C:
			if !r.safeUpdate() {
				r.ticker.Stop()
				return
			}
		case <-r.closeChan:
			r.ticker.Stop()
			return
		}
	}
}

// safeUpdate runs one state update and contains panics. Returns false
// when the loop must stop.
func (r *Room) safeUpdate() (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Errorf("room %s loop panicked, stopping its loop: %v", r.ID, rec)
			r.SetStatus(StatusFinished)
			ok = false
		}
	}()

	if current := r.StateMachine.GetCurrentState(); current != nil {
		current.OnUpdate(time.Now())
	}
	return true
}

// Close 关闭房间，停止主循环。进行中的比赛直接废弃。
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		// An abandoned live match still ends; the gauge must not leak.
		if r.opts.Metrics != nil && r.GetStatus() == StatusPlaying && r.Match() != nil {
			r.opts.Metrics.MatchEnded()
		}
		close(r.closeChan)
	})
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	opts  Options
	mutex sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器；opts 是所有房间共享的依赖
func NewRoomManager(opts Options) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

// SetBroadcaster wires the fan-out once both managers exist. Call it
// before any room is created.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.opts.Broadcaster = b
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(id, name, host string, maxPlayers int) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room := NewRoom(id, name, host, maxPlayers, m.opts)
	m.rooms[id] = room
	return room
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		room.Close()
		delete(m.rooms, id)
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// RoomInfos returns the lobby listing, oldest room first.
func (m *Manager) RoomInfos() []models.RoomInfo {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})

	infos := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}
