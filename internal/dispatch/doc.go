// Package dispatch carries results from background tasks to the UI goroutine.
//
// # Envelopes
//
// An Envelope wraps one Result with the Scope and epoch of the task that
// produced it. Result is closed to four variants:
//
//	SearchResult        games owned by a SteamID
//	AchievementsResult  a player's achievements, global stats and schema
//	ImageReady          a resolved bitmap for a Target, nil when resolution failed
//	Error               a user-facing message for a failed operation
//
// Targets name the row an image belongs to (box art by app ID, icons by app
// ID and API name), so an image for a row that no longer exists is ignored.
//
// # Queue
//
// Queue is an unbounded FIFO. Tasks Post from any goroutine and never block;
// the single consumer Drains on a timer or after a signal on Ready. Requeue
// returns envelopes a consumer drained but did not use to the head of the
// queue.
package dispatch
