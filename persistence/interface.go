// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/soccerserver/models"
)

// Database 数据库接口
type Database interface {
	// SaveMatchRecord writes the match row and updates every
	// participant's cumulative stats in one transaction.
	SaveMatchRecord(record *models.MatchRecord) error
	LoadPlayerStats(username string) (*models.PlayerStats, error)
	SaveRoomState(info models.RoomInfo) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
