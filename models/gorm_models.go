// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormPlayer 玩家累计战绩
type GormPlayer struct {
	gorm.Model
	Username   string `gorm:"uniqueIndex;not null"`
	TotalGames int    `gorm:"default:0"`
	Wins       int    `gorm:"default:0"`
	Losses     int    `gorm:"default:0"`
	Draws      int    `gorm:"default:0"`
	Goals      int    `gorm:"default:0"`
}

// GormMatchRecord 比赛记录
type GormMatchRecord struct {
	gorm.Model
	RoomID    string                 `gorm:"index;not null"`
	Winner    string                 `gorm:"not null"`
	ScoreRed  int                    `gorm:"not null"`
	ScoreBlue int                    `gorm:"not null"`
	Duration  int                    `gorm:"default:0"` // 比赛时长(秒)
	Players   map[string]interface{} `gorm:"type:jsonb"`
}

// GormRoom 房间状态快照
type GormRoom struct {
	gorm.Model
	RoomID  string                 `gorm:"uniqueIndex;not null"`
	Name    string                 `gorm:"not null"`
	Host    string                 `gorm:"not null"`
	Status  string                 `gorm:"not null"`
	Players map[string]interface{} `gorm:"type:jsonb"`
}
