package main

import (
	"time"

	"github.com/wfunc/soccerserver/config"
	"github.com/wfunc/soccerserver/game"
	"github.com/wfunc/soccerserver/logger"
	"github.com/wfunc/soccerserver/monitor"
	"github.com/wfunc/soccerserver/persistence"
	"github.com/wfunc/soccerserver/room"
	"github.com/wfunc/soccerserver/server"
	"github.com/wfunc/soccerserver/services"
	"github.com/wfunc/soccerserver/timer"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := openDatabase(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Info("Database connection successful.")

	statsService := services.NewStatsService(db)

	// Metrics endpoint
	mon := monitor.NewMonitor("soccerserver")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Shared timer wheel for room resets
	timers := timer.NewManager()
	defer timers.Stop()

	rules := room.Rules{
		TickHz:       cfg.Game.TickHz,
		BroadcastHz:  cfg.Game.BroadcastHz,
		MatchSeconds: cfg.Game.MatchSeconds,
		ResetDelay:   time.Duration(cfg.Game.ResetDelaySeconds) * time.Second,
	}
	if rules.MatchSeconds <= 0 {
		rules.MatchSeconds = game.DefaultMatchSeconds
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, statsService, timers, mon, rules, cfg.Game.DefaultMaxPlayers)

	// Start Server
	logger.Log.Infof("Starting soccer server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}

// openDatabase 根据配置选择持久化实现
func openDatabase(cfg *config.Config) (persistence.Database, error) {
	pg := cfg.Database.Postgres
	switch cfg.Database.Driver {
	case "pq":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
}
