// Package conduct implements the workplace-conduct escalation state
// machine.
//
// Flagged incidents climb a warning ladder from 0 to 7, one rung per
// incident regardless of severity; severity shapes only the score
// penalty and the logged record. Each rung fires a distinct hardcoded
// consequence script, from a formal warning up through press leaks,
// litigation, and finally forced resignation, which hands the
// playthrough to the ending orchestrator. Level 7 is absorbing.
//
// A parallel positive accumulator rewards good behavior: fixed credits
// with one-shot thresholds that never refire, even if the score drops
// below a threshold and climbs back over it.
package conduct
