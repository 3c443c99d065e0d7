// Package steam provides an HTTP client for the Steam Web API.
//
// # Overview
//
// The client issues read-only GET requests for a user's owned games, their
// achievement progress on a title, the global unlock percentages for a title,
// and the title's achievement schema (names, descriptions, icon URLs).
//
// # Two Layers
//
// Every endpoint has a strict method returning (T, error):
//
//   - OwnedGames: ErrPrivateProfile when the response has no games field
//   - PlayerAchievements: ErrNoStats when Steam reports success=false
//   - GlobalAchievementStats
//   - Schema
//
// and a fail-soft Fetch* wrapper that logs the error and returns a fallback.
// The background runner only uses the Fetch* layer through the Fetcher
// interface, so nothing crosses into the UI as an error:
//
//   - FetchOwnedGames: (nil, false) for a private profile or any failure,
//     (empty, true) for a user who owns nothing
//   - FetchPlayerAchievements: empty for success=false and for transport errors
//   - FetchGlobalAchievementStats, FetchSchema: empty on any failure
//
// # Request Handling
//
// All requests:
//   - Use the caller's context plus the configured per-request timeout (10s)
//   - Set Accept: application/json and User-Agent: steamview/0.1
//   - Treat any non-2xx status as a *StatusError
//   - Check key presence with gjson before decoding, so a missing field and an
//     empty list stay distinguishable
//
// The API key travels as a query parameter. Transport errors are rewritten so
// the key never reaches the log file.
//
// # Input Validation
//
// ValidateSteamID rejects anything but a 17-digit SteamID64 before a request is
// built.
package steam
