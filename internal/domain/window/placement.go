package window

import (
	"github.com/agencyrpg/backend/internal/shared/types"
)

// Placement constants. The cascade offset wraps rather than drifting
// off-screen, and a corner of every window must stay inside the
// viewport.
const (
	taskbarHeight  = 48
	narrowViewport = 1024
	narrowScale    = 1.4

	cascadeStep  = 30
	cascadeWrapX = 150
	cascadeWrapY = 120
	recenterX    = 60
	recenterY    = 45

	visibleMargin = 80
)

type tierSpec struct {
	widthPct  float64
	heightPct float64
	min       types.Size
	max       types.Size
}

var tierSpecs = map[types.SizeTier]tierSpec{
	types.TierSmall: {
		widthPct:  0.30,
		heightPct: 0.45,
		min:       types.Size{Width: 320, Height: 240},
		max:       types.Size{Width: 520, Height: 420},
	},
	types.TierMedium: {
		widthPct:  0.45,
		heightPct: 0.55,
		min:       types.Size{Width: 480, Height: 360},
		max:       types.Size{Width: 860, Height: 640},
	},
	types.TierLarge: {
		widthPct:  0.62,
		heightPct: 0.70,
		min:       types.Size{Width: 640, Height: 480},
		max:       types.Size{Width: 1180, Height: 820},
	},
}

// DefaultSize computes the opening size for a window of the given tier.
// A remembered size from a previous resize overrides the viewport
// computation but is still clamped into the tier's bounds, so a memory
// entry written on a different viewport can never produce an unusable
// window.
func DefaultSize(tier types.SizeTier, vp types.Viewport, remembered *types.Size) types.Size {
	spec, ok := tierSpecs[tier]
	if !ok {
		spec = tierSpecs[types.TierMedium]
	}

	if remembered != nil {
		return types.Size{
			Width:  clampInt(remembered.Width, spec.min.Width, spec.max.Width),
			Height: clampInt(remembered.Height, spec.min.Height, spec.max.Height),
		}
	}

	// Narrow viewports over-size rather than shrinking below the tier
	// minimum, so windows stay usable on small screens.
	scale := 1.0
	if vp.Width < narrowViewport {
		scale = narrowScale
	}

	return types.Size{
		Width:  clampInt(int(float64(vp.Width)*spec.widthPct*scale), spec.min.Width, spec.max.Width),
		Height: clampInt(int(float64(vp.Height)*spec.heightPct*scale), spec.min.Height, spec.max.Height),
	}
}

// MinSize returns the floor size for a window of the given tier.
func MinSize(tier types.SizeTier) types.Size {
	spec, ok := tierSpecs[tier]
	if !ok {
		spec = tierSpecs[types.TierMedium]
	}
	return spec.min
}

// CascadePosition computes where a new window opens: centered over the
// viewport minus the taskbar strip, offset diagonally by how many
// windows are already open, wrapping so the cascade never leaves the
// screen.
func CascadePosition(size types.Size, vp types.Viewport, existing int) types.Position {
	usableHeight := vp.Height - taskbarHeight

	x := (vp.Width-size.Width)/2 + (existing*cascadeStep)%cascadeWrapX - recenterX
	y := (usableHeight-size.Height)/2 + (existing*cascadeStep)%cascadeWrapY - recenterY

	return clampOnScreen(types.Position{X: x, Y: y}, size, vp)
}

// clampOnScreen keeps at least a grabbable corner of the window inside
// the viewport.
func clampOnScreen(pos types.Position, size types.Size, vp types.Viewport) types.Position {
	return types.Position{
		X: clampInt(pos.X, visibleMargin-size.Width, vp.Width-visibleMargin),
		Y: clampInt(pos.Y, 0, vp.Height-taskbarHeight-visibleMargin),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
