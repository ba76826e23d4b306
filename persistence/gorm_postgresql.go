// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/soccerserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(
		&models.GormPlayer{},
		&models.GormMatchRecord{},
		&models.GormRoom{},
	); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveMatchRecord 保存比赛记录并更新每个玩家的战绩
func (p *GormPostgreSQL) SaveMatchRecord(record *models.MatchRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		players := make(map[string]interface{}, len(record.Players))
		for _, mp := range record.Players {
			players[mp.Username] = map[string]interface{}{
				"user_id": mp.UserID,
				"team":    mp.Team,
				"outcome": mp.Outcome,
			}
		}

		row := models.GormMatchRecord{
			RoomID:    record.RoomID,
			Winner:    record.Winner,
			ScoreRed:  record.FinalScore.Red,
			ScoreBlue: record.FinalScore.Blue,
			Duration:  record.Duration,
			Players:   players,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for _, mp := range record.Players {
			if err := applyOutcome(tx, mp.Username, mp.Outcome); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyOutcome upserts a player's cumulative counters.
func applyOutcome(tx *gorm.DB, username, outcome string) error {
	var player models.GormPlayer
	err := tx.Where("username = ?", username).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		player = models.GormPlayer{Username: username}
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"total_games": gorm.Expr("total_games + 1"),
	}
	switch outcome {
	case "win":
		updates["wins"] = gorm.Expr("wins + 1")
	case "lose":
		updates["losses"] = gorm.Expr("losses + 1")
	default:
		updates["draws"] = gorm.Expr("draws + 1")
	}
	return tx.Model(&player).Updates(updates).Error
}

// LoadPlayerStats 读取玩家累计战绩
func (p *GormPostgreSQL) LoadPlayerStats(username string) (*models.PlayerStats, error) {
	var player models.GormPlayer
	err := p.db.Where("username = ?", username).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	return &models.PlayerStats{
		Username:   player.Username,
		TotalGames: player.TotalGames,
		Wins:       player.Wins,
		Losses:     player.Losses,
		Draws:      player.Draws,
		Goals:      player.Goals,
	}, nil
}

// SaveRoomState 保存房间状态快照
func (p *GormPostgreSQL) SaveRoomState(info models.RoomInfo) error {
	players := make(map[string]interface{}, len(info.Players))
	for _, pl := range info.Players {
		players[pl.Username] = map[string]interface{}{
			"user_id": pl.UserID,
			"team":    pl.Team,
			"ready":   pl.Ready,
		}
	}

	var row models.GormRoom
	err := p.db.Where("room_id = ?", info.ID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.GormRoom{
			RoomID:  info.ID,
			Name:    info.Name,
			Host:    info.Host,
			Status:  info.Status,
			Players: players,
		}
		return p.db.Create(&row).Error
	}
	if err != nil {
		return err
	}

	return p.db.Model(&row).Updates(map[string]interface{}{
		"status":  info.Status,
		"players": players,
	}).Error
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
