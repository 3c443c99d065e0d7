package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/steamview/internal/config"
	"github.com/five82/steamview/internal/dispatch"
	"github.com/five82/steamview/internal/imagecache"
	"github.com/five82/steamview/internal/logging"
	"github.com/five82/steamview/internal/steam"
	"github.com/five82/steamview/internal/tasks"
	"github.com/five82/steamview/internal/ui"
)

// Options configure the steamview application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses ~/.config/steamview/prefs.toml
	PollEvery  time.Duration // zero uses poll_interval from the config
	SteamID    string        // prefilled into the search input
}

// Env holds the wired components shared by the TUI and the headless commands.
type Env struct {
	Config config.Config
	Logger *slog.Logger
	Client *steam.Client
	Cache  *imagecache.Cache
	Queue  *dispatch.Queue
	Runner *tasks.Runner

	closeLog func() error
}

// Setup loads and validates the configuration and builds every component. A
// missing API key is returned as config.ErrMissingAPIKey.
func Setup(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newEnv(ctx, cfg)
}

func newEnv(ctx context.Context, cfg config.Config) (*Env, error) {
	logger, closeLog, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := steam.NewClient(&cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init steam client: %w", err)
	}
	cache, err := imagecache.NewFromConfig(&cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init image cache: %w", err)
	}

	queue := dispatch.NewQueue()
	runner := tasks.New(ctx, queue, client, cache, logger)
	logger.Info("steamview started", "cache_dir", cache.Dir(), "api", cfg.APIBaseURL)

	return &Env{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Cache:    cache,
		Queue:    queue,
		Runner:   runner,
		closeLog: closeLog,
	}, nil
}

// Close cancels outstanding tasks, waits for them to post and closes the log.
func (e *Env) Close() error {
	e.Runner.Close()
	if n := e.Runner.Outstanding(); n > 0 {
		e.Logger.Debug("waiting for tasks", "outstanding", n)
	}
	e.Runner.Wait()
	e.Logger.Info("steamview stopped")
	return e.closeLog()
}

// Run boots the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	env, err := Setup(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, env.Close()) }()

	return ui.Run(ui.Options{
		Context:   ctx,
		Queue:     env.Queue,
		Launcher:  env.Runner,
		BoxArtURL: env.Client.BoxArtURL,
		Logger:    env.Logger,
		PollTick:  env.Config.PollInterval,
		Language:  env.Config.Language,
		LogPath:   env.Config.LogFile,
		PrefsPath: opts.PrefsPath,
		SteamID:   opts.SteamID,
	})
}
