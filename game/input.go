package game

// Input is one player's buffered input. Movement is last-write-wins;
// Kick and Push are edge-triggered and cleared by the tick that
// consumes them.
type Input struct {
	Up, Down, Left, Right bool
	Kick                  bool
	Push                  bool
}

// InputFromKeys translates the client's key map (WASD or arrow keys)
// into an Input.
func InputFromKeys(keys map[string]bool, kick, push bool) Input {
	return Input{
		Up:    keys["w"] || keys["arrowup"],
		Down:  keys["s"] || keys["arrowdown"],
		Left:  keys["a"] || keys["arrowleft"],
		Right: keys["d"] || keys["arrowright"],
		Kick:  kick,
		Push:  push,
	}
}

// axes returns the movement direction, with diagonal input normalized
// to a constant per-axis magnitude.
func (in Input) axes() (dx, dy float64) {
	if in.Up {
		dy--
	}
	if in.Down {
		dy++
	}
	if in.Left {
		dx--
	}
	if in.Right {
		dx++
	}
	if dx != 0 && dy != 0 {
		dx *= DiagonalFactor
		dy *= DiagonalFactor
	}
	return dx, dy
}
