package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/soccerserver/logger"
	"github.com/wfunc/soccerserver/models"
	"github.com/wfunc/soccerserver/room"
	"github.com/wfunc/soccerserver/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the
// caller through the net/rpc package before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService 对外暴露的运维查询接口（战绩、大厅列表）
type GameService struct {
	stats *services.StatsService
	rooms *room.Manager
}

func NewGameService(stats *services.StatsService, rooms *room.Manager) *GameService {
	return &GameService{stats: stats, rooms: rooms}
}

// net/rpc 方法签名要求：导出方法、导出参数、第二个参数是指针、返回 error

type GetPlayerStatsArgs struct {
	Username string
}

type GetPlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (gs *GameService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := gs.stats.GetPlayerStats(args.Username)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.RoomInfo
}

func (gs *GameService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = gs.rooms.RoomInfos()
	return nil
}
