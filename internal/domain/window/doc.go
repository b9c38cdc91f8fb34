// Package window implements the desktop's window registry and
// lifecycle controller.
//
// The registry tracks every open application instance with its
// geometry, stacking order, and minimized/maximized state. A single
// monotonic allocator hands out z-indexes, so stacking is always
// totally ordered: the most recently raised window paints on top and
// no two windows ever tie. At most one window is active at a time;
// when the active window closes or minimizes, the highest visible
// window takes over, or none does.
//
// Placement is pure policy: app types map to size tiers with
// viewport-relative targets and hard pixel bounds, a per-app size
// memory overrides the computed default (still clamped), and new
// windows cascade diagonally from center with wraparound.
package window
