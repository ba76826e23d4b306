package room

import (
	"os"
	"testing"

	"github.com/wfunc/soccerserver/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}
