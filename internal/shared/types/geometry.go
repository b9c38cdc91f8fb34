package types

// Position is a window's top-left corner in viewport pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a window's dimensions in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds couples a position and size, used to save pre-maximize state.
type Bounds struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
}

// Viewport is the client's usable screen area.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
