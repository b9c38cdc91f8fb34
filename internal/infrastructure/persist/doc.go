// Package persist provides the desktop's snapshot store.
//
// Each subsystem owns a fixed key (windows, size_memory, conduct,
// ending, notifications, chat_transcript, inbox, funds) and serializes
// its own state on
// every change. Writes are best-effort: a failed write degrades to
// "state not persisted this tick" with no retry. Reads fall back to
// defaults on absent or corrupt snapshots. There is no transactional
// coordination between keys; each subsystem reconstructs independently
// on boot.
package persist
