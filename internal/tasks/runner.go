package tasks

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/five82/steamview/internal/dispatch"
	"github.com/five82/steamview/internal/logging"
	"github.com/five82/steamview/internal/steam"
)

// SearchFailedMessage is posted when the owned-games lookup yields nothing.
const SearchFailedMessage = "Could not fetch games. Ensure the SteamID is valid and the profile is public."

// ImageResolver turns a URL into a resized bitmap, or nil on failure.
// *imagecache.Cache implements it.
type ImageResolver interface {
	Resolve(ctx context.Context, url, key string, size image.Point) image.Image
}

type generation struct {
	epoch  uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Runner starts one goroutine per requested operation. Every goroutine posts
// exactly one envelope to the queue, tagged with the scope and the epoch that
// was current when it started. Starting a new search or achievements load
// cancels the previous generation of that scope.
type Runner struct {
	root   context.Context
	queue  *dispatch.Queue
	api    steam.Fetcher
	images ImageResolver
	logger *slog.Logger

	wg          sync.WaitGroup
	outstanding atomic.Int64

	mu     sync.Mutex
	scopes map[dispatch.Scope]*generation
}

// New returns a Runner whose tasks derive from ctx.
func New(ctx context.Context, queue *dispatch.Queue, api steam.Fetcher, images ImageResolver, logger *slog.Logger) *Runner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Runner{
		root:   ctx,
		queue:  queue,
		api:    api,
		images: images,
		logger: logging.OrDefault(logger).With("component", "tasks"),
		scopes: make(map[dispatch.Scope]*generation),
	}
}

// begin starts a new generation for scope and cancels the previous one.
func (r *Runner) begin(scope dispatch.Scope) *generation {
	r.mu.Lock()
	defer r.mu.Unlock()

	var epoch uint64
	if prev, ok := r.scopes[scope]; ok {
		prev.cancel()
		epoch = prev.epoch
	}
	ctx, cancel := context.WithCancel(r.root)
	gen := &generation{epoch: epoch + 1, ctx: ctx, cancel: cancel}
	r.scopes[scope] = gen
	return gen
}

func (r *Runner) current(scope dispatch.Scope) *generation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen, ok := r.scopes[scope]; ok {
		return gen
	}
	ctx, cancel := context.WithCancel(r.root)
	gen := &generation{ctx: ctx, cancel: cancel}
	r.scopes[scope] = gen
	return gen
}

func (r *Runner) liveEpoch(scope dispatch.Scope) uint64 {
	return r.current(scope).epoch
}

// IsCurrent reports whether env belongs to the live generation of its scope.
func (r *Runner) IsCurrent(env dispatch.Envelope) bool {
	return env.Epoch == r.liveEpoch(env.Scope)
}

// Outstanding reports how many tasks have not posted their envelope yet.
func (r *Runner) Outstanding() int {
	return int(r.outstanding.Load())
}

// Search looks up the games owned by steamID. It supersedes any previous
// search and any open achievements view.
func (r *Runner) Search(steamID string) uint64 {
	r.begin(dispatch.ScopeAchievements)
	gen := r.begin(dispatch.ScopeSearch)

	r.spawn(dispatch.ScopeSearch, gen, dispatch.Error{Message: SearchFailedMessage}, func(ctx context.Context) dispatch.Result {
		games, ok := r.api.FetchOwnedGames(ctx, steamID)
		if !ok {
			return dispatch.Error{Message: SearchFailedMessage}
		}
		return dispatch.SearchResult{SteamID: steamID, Games: games}
	})
	return gen.epoch
}

// LoadAchievements fetches steamID's achievements for appID together with the
// global percentages and the schema, and posts one AchievementsResult.
func (r *Runner) LoadAchievements(steamID string, appID int, gameName string) uint64 {
	gen := r.begin(dispatch.ScopeAchievements)

	fallback := dispatch.AchievementsResult{SteamID: steamID, AppID: appID, GameName: gameName}
	r.spawn(dispatch.ScopeAchievements, gen, fallback, func(ctx context.Context) dispatch.Result {
		var (
			achievements []steam.Achievement
			global       []steam.GlobalAchievementStat
			schema       []steam.AchievementSchema
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(r.guard("player achievements", func() {
			achievements = r.api.FetchPlayerAchievements(gctx, steamID, appID)
		}))
		g.Go(r.guard("global stats", func() {
			global = r.api.FetchGlobalAchievementStats(gctx, appID)
		}))
		g.Go(r.guard("schema", func() {
			schema = r.api.FetchSchema(gctx, appID)
		}))
		_ = g.Wait()

		result := fallback
		result.Achievements = steam.MergeSchema(achievements, schema)
		result.GlobalStats = global
		return result
	})
	return gen.epoch
}

// ResolveImage resolves url for target under the current generation of scope
// and posts one ImageReady. A superseded or failed task posts a nil bitmap.
func (r *Runner) ResolveImage(scope dispatch.Scope, target dispatch.Target, url, key string, size image.Point) {
	gen := r.current(scope)
	fallback := dispatch.ImageReady{Target: target}
	r.spawn(scope, gen, fallback, func(ctx context.Context) dispatch.Result {
		if ctx.Err() != nil {
			return fallback
		}
		return dispatch.ImageReady{Target: target, Bitmap: r.images.Resolve(ctx, url, key, size)}
	})
}

// Wait blocks until every started task has posted its envelope.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels every live generation. Tasks still post their envelopes.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, gen := range r.scopes {
		gen.cancel()
	}
}

// guard adapts fn for an errgroup. A panic is logged and the fetch counts as
// empty.
func (r *Runner) guard(op string, fn func()) func() error {
	return func() error {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("fetch panicked", "op", op, "panic", p)
			}
		}()
		fn()
		return nil
	}
}

func (r *Runner) spawn(scope dispatch.Scope, gen *generation, fallback dispatch.Result, fn func(context.Context) dispatch.Result) {
	r.wg.Add(1)
	r.outstanding.Add(1)
	go func() {
		defer r.wg.Done()
		result := fallback
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("task panicked", "scope", scope, "kind", fallback.Kind(), "panic", p)
			}
			r.queue.Post(dispatch.Envelope{Scope: scope, Epoch: gen.epoch, Result: result})
			r.outstanding.Add(-1)
		}()
		result = fn(gen.ctx)
	}()
}
