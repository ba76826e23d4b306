// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/soccerserver/models"
)

// PostgreSQL 数据库实现（database/sql 版本）
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS players (
            id SERIAL PRIMARY KEY,
            username TEXT UNIQUE NOT NULL,
            total_games INT NOT NULL DEFAULT 0,
            wins INT NOT NULL DEFAULT 0,
            losses INT NOT NULL DEFAULT 0,
            draws INT NOT NULL DEFAULT 0,
            goals INT NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS match_records (
            id SERIAL PRIMARY KEY,
            room_id TEXT NOT NULL,
            winner TEXT NOT NULL,
            score_red INT NOT NULL,
            score_blue INT NOT NULL,
            duration INT NOT NULL DEFAULT 0,
            players JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS rooms (
            id SERIAL PRIMARY KEY,
            room_id TEXT UNIQUE NOT NULL,
            name TEXT NOT NULL,
            host TEXT NOT NULL,
            status TEXT NOT NULL,
            players JSONB,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	return err
}

// SaveMatchRecord 在一个事务里写入比赛记录并更新玩家战绩
func (p *PostgreSQL) SaveMatchRecord(record *models.MatchRecord) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	playersJSON, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        INSERT INTO match_records (room_id, winner, score_red, score_blue, duration, players)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		record.RoomID, record.Winner, record.FinalScore.Red, record.FinalScore.Blue,
		record.Duration, playersJSON)
	if err != nil {
		return err
	}

	for _, mp := range record.Players {
		wins, losses, draws := 0, 0, 0
		switch mp.Outcome {
		case "win":
			wins = 1
		case "lose":
			losses = 1
		default:
			draws = 1
		}

		_, err = tx.Exec(`
            INSERT INTO players (username, total_games, wins, losses, draws)
            VALUES ($1, 1, $2, $3, $4)
            ON CONFLICT (username) DO UPDATE SET
                total_games = players.total_games + 1,
                wins = players.wins + $2,
                losses = players.losses + $3,
                draws = players.draws + $4,
                updated_at = CURRENT_TIMESTAMP`,
			mp.Username, wins, losses, draws)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadPlayerStats 读取玩家累计战绩
func (p *PostgreSQL) LoadPlayerStats(username string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{Username: username}
	err := p.db.QueryRow(`
        SELECT total_games, wins, losses, draws, goals
        FROM players WHERE username = $1`, username).
		Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.Draws, &stats.Goals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// SaveRoomState 保存房间状态快照
func (p *PostgreSQL) SaveRoomState(info models.RoomInfo) error {
	playersJSON, err := json.Marshal(info.Players)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
        INSERT INTO rooms (room_id, name, host, status, players)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (room_id) DO UPDATE SET
            status = $4,
            players = $5,
            updated_at = CURRENT_TIMESTAMP`,
		info.ID, info.Name, info.Host, info.Status, playersJSON)
	return err
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
