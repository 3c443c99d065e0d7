// Package config builds the steamview runtime configuration.
//
// # Sources
//
// Load layers three sources, later ones winning:
//
//  1. Built-in defaults (see Default)
//  2. An optional TOML file, ~/.config/steamview/config.toml unless a path is given
//  3. Environment variables
//
// A missing file falls back to defaults. A file that exists but fails to parse is
// an error.
//
// # TOML Format
//
//	api_base_url    = "https://api.steampowered.com"
//	cdn_base_url    = "https://steamcdn-a.akamaihd.net"
//	language        = "english"
//	cache_dir       = "~/.cache/steamview/image_cache"
//	log_file        = "~/.local/state/steamview/steamview.log"
//	log_level       = "info"
//	request_timeout = "10s"
//	image_timeout   = "5s"
//	poll_interval   = "100ms"
//
// Every field is optional. Tilde expansion is applied to paths.
//
// # Environment
//
//   - STEAM_API_KEY: the Steam Web API key. Required by Validate.
//   - STEAMVIEW_CACHE_DIR: overrides cache_dir
//   - STEAMVIEW_LOG_FILE: overrides log_file
//   - STEAMVIEW_LOG_LEVEL: overrides log_level
//
// The API key is never read from the file so it does not end up in dotfile
// repositories.
//
// # Validation
//
// Validate returns ErrMissingAPIKey when the key is absent. The CLI treats that
// as a fatal startup error; every other failure in the application degrades
// gracefully.
package config
