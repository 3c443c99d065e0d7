// Package app is the composition root of steamview.
//
// # Wiring
//
//	Setup()
//	  ├─> config.Load + Validate      TOML file, env overlay, required API key
//	  ├─> logging.Setup               slog to the log file
//	  ├─> steam.NewClient             Web API client
//	  ├─> imagecache.NewFromConfig    on-disk image cache
//	  ├─> dispatch.NewQueue           results waiting for the consumer
//	  └─> tasks.New                   one goroutine per operation
//
// Run hands the Env to the Bubble Tea UI, which drains the queue on its own
// tick. The headless commands (Env.Games, Env.Achievements) use Pump instead:
// a fixed-interval drain loop that also wakes when the queue signals a post,
// and stops once the envelope it waits for arrives.
//
// A missing STEAM_API_KEY is the only fatal startup error. Every later
// failure degrades to an empty result or an error message.
package app
