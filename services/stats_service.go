// services/stats_service.go
package services

import (
	"errors"

	"github.com/wfunc/soccerserver/models"
	"github.com/wfunc/soccerserver/persistence"
)

// StatsService 比赛结果与玩家战绩
type StatsService struct {
	db persistence.Database
}

func NewStatsService(db persistence.Database) *StatsService {
	return &StatsService{db: db}
}

// RecordMatchResult persists a finished match. Implements
// room.ResultSink.
func (s *StatsService) RecordMatchResult(record *models.MatchRecord) error {
	if record == nil || record.RoomID == "" {
		return errors.New("invalid match record")
	}
	return s.db.SaveMatchRecord(record)
}

// GetPlayerStats 获取玩家累计战绩；没有记录的玩家返回零值
func (s *StatsService) GetPlayerStats(username string) (*models.PlayerStats, error) {
	stats, err := s.db.LoadPlayerStats(username)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return &models.PlayerStats{Username: username}, nil
	}
	return stats, err
}

// SaveRoomState 把房间快照落库（重启后大厅可以恢复展示）
func (s *StatsService) SaveRoomState(info models.RoomInfo) error {
	return s.db.SaveRoomState(info)
}
