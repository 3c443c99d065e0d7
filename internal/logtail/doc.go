// Package logtail reads the end of the steamview log file for the in-app log
// pane.
//
// Read keeps a ring buffer of the last N lines, so memory stays bounded by N
// however large the file grows. Tail additionally parses each line as a
// log/slog text record:
//
//	time=2026-10-18T09:12:44.120+02:00 level=INFO msg="search started" component=session steam_id=76561198000000000
//
// Lines in any other format are kept verbatim in Entry.Raw.
package logtail
