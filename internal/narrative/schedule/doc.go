// Package schedule provides timed delivery of narrative effects.
//
// Story beats are declarative (delay, effect) pairs owned by the
// scheduling subsystem; a subsystem that goes quiet (morale recovers,
// ending aborted, server shutdown) drains its whole queue with one
// CancelAll instead of tracking individual timer handles.
package schedule
