package game

const (
	FieldWidth  = 1200.0
	FieldHeight = 600.0

	PlayerRadius = 20.0
	BallRadius   = 12.0

	PlayerSpeed    = 4.0
	DiagonalFactor = 0.707 // per-axis scale for diagonal input

	BallFriction    = 0.98
	WallRestitution = 0.8
	TouchSpeedBonus = 2.0 // added to ball speed on player contact

	KickPower    = 15.0
	KickDistance = PlayerRadius + BallRadius + 5

	PushRadius = 3 * PlayerRadius
	PushPower  = 8.0

	GoalWidth = 200.0
	GoalLeft  = (FieldWidth - GoalWidth) / 2
	GoalRight = GoalLeft + GoalWidth

	AnimationTicks = 10 // frames before a kick/push animation expires

	// 出生点布局：红队左列，蓝队右列，队友间隔80
	SpawnRedX    = 200.0
	SpawnBlueX   = 1000.0
	SpawnBaseY   = 300.0
	SpawnSpacing = 80.0

	DefaultMatchSeconds = 600
)
