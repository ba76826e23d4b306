package network

const (
	MsgTypeHeartbeat = 1

	// 客户端 -> 服务器
	MsgTypeJoinRoom    = 101
	MsgTypeLeaveRoom   = 102
	MsgTypeCreateRoom  = 103
	MsgTypeChangeTeam  = 104
	MsgTypePlayerReady = 105
	MsgTypeStartGame   = 106
	MsgTypeTogglePause = 107
	MsgTypeChatMessage = 108

	MsgTypePlayerInput = 201

	// 服务器 -> 客户端
	MsgTypeRoomList     = 301
	MsgTypeRoomUpdated  = 302
	MsgTypePlayerJoined = 303
	MsgTypePlayerLeft   = 304
	MsgTypeGameStarted  = 305
	MsgTypeGameState    = 306
	MsgTypeGoalScored   = 307
	MsgTypeGameOver     = 308
	MsgTypeGamePaused   = 309

	MsgTypeError = 400
)
