package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/soccerserver/broadcast"
	"github.com/wfunc/soccerserver/game"
	"github.com/wfunc/soccerserver/logger"
	"github.com/wfunc/soccerserver/models"
	"github.com/wfunc/soccerserver/monitor"
	"github.com/wfunc/soccerserver/network"
	"github.com/wfunc/soccerserver/room"
	soccer_rpc "github.com/wfunc/soccerserver/rpc"
	"github.com/wfunc/soccerserver/services"
	"github.com/wfunc/soccerserver/session"
	"github.com/wfunc/soccerserver/timer"
)

type GameServer struct {
	addr            string
	upgrader        websocket.Upgrader
	roomManager     *room.Manager
	sessionManager  *session.Manager
	statsService    *services.StatsService
	broadcaster     broadcast.Broadcaster
	rpcServer       *soccer_rpc.Server
	monitor         *monitor.Monitor
	defaultMaxUsers int
	shutdownChan    chan struct{}
}

func NewGameServer(addr, rpcAddr string, stats *services.StatsService, timers *timer.Manager, mon *monitor.Monitor, rules room.Rules, defaultMaxPlayers int) *GameServer {
	if defaultMaxPlayers <= 0 {
		defaultMaxPlayers = 6
	}
	s := &GameServer{
		addr:            addr,
		sessionManager:  session.NewManager(),
		statsService:    stats,
		monitor:         mon,
		defaultMaxUsers: defaultMaxPlayers,
		shutdownChan:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	opts := room.Options{
		Timers:  timers,
		Results: stats,
		Rules:   rules,
	}
	if mon != nil {
		opts.Metrics = mon
	}
	s.roomManager = room.NewRoomManager(opts)

	// 广播器在房间管理器之后创建，房间依赖通过 Options 注入
	rb := broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	s.broadcaster = rb
	s.roomManager.SetBroadcaster(rb)

	// 初始化RPC服务器
	rpcServer, err := soccer_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	gameService := soccer_rpc.NewGameService(stats, s.roomManager)
	rpc.Register(gameService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Soccer server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.monitor != nil {
		s.monitor.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	// 新连接先收到一份大厅房间列表
	s.sendRoomList(sess)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		if sess.RoomID != "" {
			s.leaveRoom(sess)
		}
		s.sessionManager.Remove(sess.GetID())
		if s.monitor != nil {
			s.monitor.DecOnlinePlayers()
		}
		sess.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	if s.monitor != nil {
		s.monitor.IncMessagesReceived()
	}

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeChangeTeam:
		s.handleChangeTeam(sess, packet)
	case network.MsgTypePlayerReady:
		s.handlePlayerReady(sess, packet)
	case network.MsgTypeStartGame:
		s.handleStartGame(sess, packet)
	case network.MsgTypeTogglePause:
		s.handleTogglePause(sess, packet)
	case network.MsgTypeChatMessage:
		s.handleChat(sess, packet)
	case network.MsgTypePlayerInput:
		s.handlePlayerInput(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req models.CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "invalid create_room request")
		return
	}
	if req.Host == "" {
		s.sendError(sess, "host name required")
		return
	}
	normalizeCreateRoom(&req, s.defaultMaxUsers)

	// 一个会话同时只能在一个房间里
	if sess.RoomID != "" {
		s.leaveRoom(sess)
	}
	sess.Username = req.Host

	roomID := uuid.New().String()
	r := s.roomManager.CreateRoom(roomID, req.Name, req.Host, req.MaxPlayers)
	r.OnRosterChange(s.pushRoomList)
	r.AddPlayer(sess, req.Host)

	logger.Log.Infof("Session %s (%s) created room %s", sess.GetID(), req.Host, roomID)

	data, _ := json.Marshal(models.RoomUpdated{Room: r.Info()})
	sess.SendEvent(network.MsgTypeRoomUpdated, data)
	s.pushRoomList()
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req models.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "invalid join_room request")
		return
	}
	if req.Username == "" {
		s.sendError(sess, "username required")
		return
	}

	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		s.sendError(sess, "room not found")
		return
	}

	// 加入新房间前先退出旧房间，避免一个会话挂在两个房间里
	if sess.RoomID != "" && sess.RoomID != req.RoomID {
		s.leaveRoom(sess)
	}

	sess.Username = req.Username
	if !r.AddPlayer(sess, req.Username) {
		s.sendError(sess, "room is full")
		return
	}
	r.OnRosterChange(s.pushRoomList)

	logger.Log.Infof("Session %s (%s) joined room %s", sess.GetID(), req.Username, req.RoomID)

	info := r.Info()
	joined, _ := json.Marshal(models.PlayerJoined{
		Player: models.PlayerInRoom{
			UserID:   sess.GetID(),
			Username: req.Username,
			Team:     game.TeamSpectator.String(),
		},
		Room: info,
	})
	r.BroadcastEvent(network.MsgTypePlayerJoined, joined)
	s.pushRoomList()
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	if sess.RoomID == "" {
		return
	}
	s.leaveRoom(sess)
	s.sendRoomList(sess)
}

// leaveRoom removes the session from its room and tears the room down
// when it empties out.
func (s *GameServer) leaveRoom(sess *session.Session) {
	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		sess.RoomID = ""
		return
	}

	r.RemovePlayer(sess.GetID())

	if r.PlayerCount() == 0 {
		s.roomManager.RemoveRoom(r.ID)
		logger.Log.Infof("Room %s removed (empty)", r.ID)
	} else {
		left, _ := json.Marshal(models.PlayerLeft{
			PlayerID: sess.GetID(),
			Username: sess.Username,
			Room:     r.Info(),
		})
		r.BroadcastEvent(network.MsgTypePlayerLeft, left)
	}
	s.pushRoomList()
}

func (s *GameServer) handleChangeTeam(sess *session.Session, packet *network.Packet) {
	var req models.ChangeTeamRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "invalid change_team request")
		return
	}

	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		s.sendError(sess, "not in a room")
		return
	}

	team, err := game.ParseTeam(req.Team)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}
	if err := r.SetTeam(sess.GetID(), team); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	r.NotifyRoomUpdated()
}

func (s *GameServer) handlePlayerReady(sess *session.Session, packet *network.Packet) {
	var req models.PlayerReadyRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "invalid player_ready request")
		return
	}

	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		s.sendError(sess, "not in a room")
		return
	}
	if err := r.SetReady(sess.GetID(), req.Ready); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	r.NotifyRoomUpdated()
}

func (s *GameServer) handleStartGame(sess *session.Session, packet *network.Packet) {
	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		s.sendError(sess, "not in a room")
		return
	}
	if err := r.StartMatch(sess.GetID()); err != nil {
		s.sendError(sess, err.Error())
		return
	}
	s.pushRoomList()
}

func (s *GameServer) handleTogglePause(sess *session.Session, packet *network.Packet) {
	var req models.TogglePauseRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "invalid toggle_pause request")
		return
	}

	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		s.sendError(sess, "not in a room")
		return
	}
	if err := r.TogglePause(req.Paused); err != nil {
		s.sendError(sess, err.Error())
		return
	}
}

func (s *GameServer) handleChat(sess *session.Session, packet *network.Packet) {
	var req models.ChatRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.Message == "" {
		return
	}

	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		return
	}

	msg, _ := json.Marshal(models.ChatMessage{
		Player:    sess.Username,
		Message:   req.Message,
		Timestamp: float64(time.Now().UnixMilli()) / 1000,
	})
	r.BroadcastEvent(network.MsgTypeChatMessage, msg)
}

func (s *GameServer) handlePlayerInput(sess *session.Session, packet *network.Packet) {
	var req models.PlayerInputRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	r, exists := s.roomManager.GetRoom(sess.RoomID)
	if !exists {
		return
	}
	r.UpdateInput(sess.GetID(), game.InputFromKeys(req.Keys, req.Kick, req.Push))
}

// normalizeCreateRoom fills the optional create_room fields with their
// defaults.
func normalizeCreateRoom(req *models.CreateRoomRequest, defaultMaxPlayers int) {
	if req.Name == "" {
		req.Name = req.Host + "'s room"
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = defaultMaxPlayers
	}
}

func (s *GameServer) sendError(sess *session.Session, msg string) {
	data, _ := json.Marshal(models.ErrorMessage{Message: msg})
	sess.SendEvent(network.MsgTypeError, data)
}

// sendRoomList 给单个会话推送大厅房间列表
func (s *GameServer) sendRoomList(sess *session.Session) {
	data, _ := json.Marshal(models.RoomList{Rooms: s.roomManager.RoomInfos()})
	sess.Send(network.MsgTypeRoomList, data)
}

// pushRoomList 向所有大厅内的会话推送最新房间列表
func (s *GameServer) pushRoomList() {
	data, err := json.Marshal(models.RoomList{Rooms: s.roomManager.RoomInfos()})
	if err != nil {
		return
	}
	s.broadcaster.BroadcastToLobby(network.MsgTypeRoomList, data)
	if s.monitor != nil {
		s.monitor.SetOpenRooms(s.roomManager.Count())
	}
}
