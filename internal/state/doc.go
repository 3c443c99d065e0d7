// Package state holds what the UI shows: the search and achievements phases,
// the listed rows and their bitmaps, and the status line.
//
// # Ownership
//
// A Session has a single owner, the UI goroutine. Background work never
// touches it; tasks post envelopes to the dispatch queue and the UI applies
// them on its next poll:
//
//	tasks.Runner ──Post──▶ dispatch.Queue ──Drain──▶ Session.ApplyAll
//
// No locks are needed because nothing else reads or writes the session.
//
// # Phases
//
//	search:       idle ─▶ searching ─▶ listed | failed
//	achievements: idle ─▶ loading ─▶ listed
//
// Starting a new search resets both. Input is validated before any task
// starts, so a bad SteamID never leaves the idle phase.
//
// # Stale Results
//
// The session records the epoch returned when it starts a search or an
// achievements load, and drops envelopes carrying any other epoch. Image
// envelopes are additionally matched against the rows currently listed; one
// whose row is gone is ignored.
package state
