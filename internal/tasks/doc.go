// Package tasks runs Steam lookups and image resolution off the UI goroutine.
//
// Every operation started through a Runner posts exactly one envelope to the
// dispatch queue, whether it succeeds, fails or panics. Envelopes carry the
// scope and epoch that were current when the task began; starting a new search
// or achievements load bumps the epoch and cancels the previous generation's
// context, so the consumer can drop whatever the old generation still posts.
//
// The achievements load fans out three requests (player achievements, global
// percentages and the schema) with an errgroup and posts one combined result.
package tasks
