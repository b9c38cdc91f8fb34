// Package ending drives the game's four ending sequences.
//
// An ending is a fixed, ordered list of named phases selected once when
// the ending starts. The orchestrator knows nothing about phase content
// or duration: each concrete phase is a one-shot, self-driving timed
// sequence that calls Advance exactly once when it judges itself
// complete. Terminal state is explicit: Current reports no phase once
// the index runs off the end, and further advances are absorbed.
//
// The package also owns the acquisition branch, a strictly
// forward-moving enum that gates which ending a playthrough can reach.
package ending
