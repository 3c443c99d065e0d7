// Package ui is the Bubble Tea front end of steamview.
//
// # Views
//
//   - Games: a SteamID input above the owned-games list. Each row shows a
//     half-block thumbnail of the box art, the title and playtime.
//   - Achievements: the selected game's achievements with icon, unlock state
//     and global unlock percentage, in a scrollable viewport.
//   - Log: the tail of the steamview log file.
//
// # Update Loop
//
// The model owns a state.Session. A tick every PollTick (100ms by default)
// drains the dispatch queue and applies each envelope to the session; nothing
// else writes to it. User actions call into the session, which validates
// input and starts background work through its Launcher.
//
// # Rendering Images
//
// Bitmaps are scaled to cols x 2*rows pixels and drawn with the upper half
// block "▀", foreground taking the top pixel and background the bottom one.
// Colours degrade with the terminal's profile.
//
// # Keys
//
// "/" edits the SteamID, enter searches or opens the selected game, esc goes
// back, "l" toggles the log pane, "T" cycles themes and "?" shows help. Theme
// and last SteamID persist through the prefs package.
package ui
