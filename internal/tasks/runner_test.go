package tasks

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/five82/steamview/internal/dispatch"
	"github.com/five82/steamview/internal/steam"
)

const testSteamID = "76561198000000000"

type fakeFetcher struct {
	mu      sync.Mutex
	games   []steam.Game
	gamesOK bool
	block   chan struct{}
	panicOn string

	achievements []steam.Achievement
	global       []steam.GlobalAchievementStat
	schema       []steam.AchievementSchema
	calls        []string
}

func (f *fakeFetcher) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.panicOn == call {
		panic("boom: " + call)
	}
}

func (f *fakeFetcher) FetchOwnedGames(ctx context.Context, steamID string) ([]steam.Game, bool) {
	f.record("owned")
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, false
		}
	}
	return f.games, f.gamesOK
}

func (f *fakeFetcher) FetchPlayerAchievements(ctx context.Context, steamID string, appID int) []steam.Achievement {
	f.record("achievements")
	return f.achievements
}

func (f *fakeFetcher) FetchGlobalAchievementStats(ctx context.Context, appID int) []steam.GlobalAchievementStat {
	f.record("global")
	return f.global
}

func (f *fakeFetcher) FetchSchema(ctx context.Context, appID int) []steam.AchievementSchema {
	f.record("schema")
	return f.schema
}

func (f *fakeFetcher) BoxArtURL(appID int) string {
	return fmt.Sprintf("https://cdn.test/steam/apps/%d/header.jpg", appID)
}

type fakeResolver struct {
	mu   sync.Mutex
	urls []string
	fail bool
}

func (r *fakeResolver) Resolve(ctx context.Context, url, key string, size image.Point) image.Image {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
	if r.fail {
		return nil
	}
	return image.NewRGBA(image.Rectangle{Max: size})
}

func newTestRunner(t *testing.T, api steam.Fetcher, images ImageResolver) (*Runner, *dispatch.Queue) {
	t.Helper()
	queue := dispatch.NewQueue()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(context.Background(), queue, api, images, logger)
	t.Cleanup(r.Close)
	return r, queue
}

func twoGames() []steam.Game {
	return []steam.Game{
		{AppID: 440, Name: "Team Fortress 2", PlaytimeForever: 1200},
		{AppID: 570, Name: "Dota 2", PlaytimeForever: 30},
	}
}

func TestSearchPostsOneSearchResult(t *testing.T) {
	api := &fakeFetcher{games: twoGames(), gamesOK: true}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	epoch := r.Search(testSteamID)
	r.Wait()

	envs := queue.Drain()
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	env := envs[0]
	if env.Scope != dispatch.ScopeSearch || env.Epoch != epoch {
		t.Fatalf("envelope scope/epoch = %v/%d, want search/%d", env.Scope, env.Epoch, epoch)
	}
	result, ok := env.Result.(dispatch.SearchResult)
	if !ok {
		t.Fatalf("result = %T, want SearchResult", env.Result)
	}
	if result.SteamID != testSteamID || len(result.Games) != 2 {
		t.Fatalf("result = %+v, want 2 games for %s", result, testSteamID)
	}
	if r.Outstanding() != 0 {
		t.Fatalf("Outstanding = %d after Wait, want 0", r.Outstanding())
	}
}

func TestSearchFailurePostsError(t *testing.T) {
	api := &fakeFetcher{gamesOK: false}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	r.Search(testSteamID)
	r.Wait()

	envs := queue.Drain()
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	result, ok := envs[0].Result.(dispatch.Error)
	if !ok || result.Message != SearchFailedMessage {
		t.Fatalf("result = %#v, want Error with search failure message", envs[0].Result)
	}
}

func TestSearchEmptyLibraryIsNotAnError(t *testing.T) {
	api := &fakeFetcher{games: []steam.Game{}, gamesOK: true}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	r.Search(testSteamID)
	r.Wait()

	envs := queue.Drain()
	result, ok := envs[0].Result.(dispatch.SearchResult)
	if !ok {
		t.Fatalf("result = %T, want SearchResult", envs[0].Result)
	}
	if len(result.Games) != 0 {
		t.Fatalf("games = %d, want 0", len(result.Games))
	}
}

func TestSearchThenAchievementsEndToEnd(t *testing.T) {
	api := &fakeFetcher{
		games:   twoGames(),
		gamesOK: true,
		achievements: []steam.Achievement{
			{APIName: "TF_PLAY_GAME_EVERYCLASS", Achieved: true},
			{APIName: "TF_SECRET"},
		},
		global: []steam.GlobalAchievementStat{
			{APIName: "TF_PLAY_GAME_EVERYCLASS", Percent: 61.25},
		},
		schema: []steam.AchievementSchema{
			{APIName: "TF_PLAY_GAME_EVERYCLASS", DisplayName: "Head of the Class", IconURL: "https://cdn.test/a.jpg", IconGrayURL: "https://cdn.test/a_gray.jpg"},
		},
	}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	r.Search(testSteamID)
	r.Wait()
	first := queue.Drain()
	if len(first) != 1 {
		t.Fatalf("got %d envelopes after search, want 1", len(first))
	}
	search := first[0].Result.(dispatch.SearchResult)
	if len(search.Games) != 2 {
		t.Fatalf("games = %d, want 2", len(search.Games))
	}

	epoch := r.LoadAchievements(testSteamID, 440, "Team Fortress 2")
	r.Wait()
	second := queue.Drain()
	if len(second) != 1 {
		t.Fatalf("got %d envelopes after achievements, want 1", len(second))
	}
	if second[0].Scope != dispatch.ScopeAchievements || second[0].Epoch != epoch {
		t.Fatalf("envelope scope/epoch = %v/%d, want achievements/%d", second[0].Scope, second[0].Epoch, epoch)
	}
	result, ok := second[0].Result.(dispatch.AchievementsResult)
	if !ok {
		t.Fatalf("result = %T, want AchievementsResult", second[0].Result)
	}
	if result.AppID != 440 || result.GameName != "Team Fortress 2" {
		t.Fatalf("result app = %d/%q", result.AppID, result.GameName)
	}
	if len(result.Achievements) != 2 {
		t.Fatalf("achievements = %d, want 2", len(result.Achievements))
	}
	if got := result.Achievements[0].DisplayName; got != "Head of the Class" {
		t.Fatalf("DisplayName = %q, want schema name merged in", got)
	}

	percents := steam.IndexPercents(result.GlobalStats)
	if got := percents.Label("TF_PLAY_GAME_EVERYCLASS"); got != "61.2" && got != "61.3" {
		t.Fatalf("percent label = %q, want 61.2 or 61.3", got)
	}
	if got := percents.Label("TF_SECRET"); got != steam.NotAvailable {
		t.Fatalf("unmatched percent label = %q, want %q", got, steam.NotAvailable)
	}
}

func TestConcurrentImagesPostOneEnvelopePerTarget(t *testing.T) {
	const n = 12
	resolver := &fakeResolver{}
	r, queue := newTestRunner(t, &fakeFetcher{}, resolver)

	for i := range n {
		appID := 1000 + i
		r.ResolveImage(dispatch.ScopeSearch, dispatch.BoxArtTarget(appID),
			fmt.Sprintf("https://cdn.test/%d.jpg", appID), fmt.Sprint(appID), image.Pt(4, 2))
	}
	r.Wait()

	envs := queue.Drain()
	if len(envs) != n {
		t.Fatalf("got %d envelopes, want %d", len(envs), n)
	}
	seen := make(map[dispatch.Target]bool, n)
	for _, env := range envs {
		ready, ok := env.Result.(dispatch.ImageReady)
		if !ok {
			t.Fatalf("result = %T, want ImageReady", env.Result)
		}
		if ready.Bitmap == nil {
			t.Fatalf("target %v has nil bitmap", ready.Target)
		}
		if seen[ready.Target] {
			t.Fatalf("target %v delivered twice", ready.Target)
		}
		seen[ready.Target] = true
	}
}

func TestImageFailurePostsNilBitmap(t *testing.T) {
	r, queue := newTestRunner(t, &fakeFetcher{}, &fakeResolver{fail: true})

	target := dispatch.IconTarget(440, "TF_SECRET")
	r.ResolveImage(dispatch.ScopeAchievements, target, "https://cdn.test/x.jpg", "440_TF_SECRET", image.Pt(8, 8))
	r.Wait()

	envs := queue.Drain()
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	ready := envs[0].Result.(dispatch.ImageReady)
	if ready.Target != target || ready.Bitmap != nil {
		t.Fatalf("ImageReady = %+v, want nil bitmap for %v", ready, target)
	}
}

func TestNewSearchSupersedesOldOne(t *testing.T) {
	api := &fakeFetcher{games: twoGames(), gamesOK: true, block: make(chan struct{})}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	first := r.Search(testSteamID)
	second := r.Search(testSteamID)
	if second <= first {
		t.Fatalf("second epoch %d not after first %d", second, first)
	}
	close(api.block)
	r.Wait()

	envs := queue.Drain()
	if len(envs) != 2 {
		t.Fatalf("got %d envelopes, want 2", len(envs))
	}
	current := 0
	for _, env := range envs {
		if r.IsCurrent(env) {
			current++
			if env.Epoch != second {
				t.Fatalf("current envelope has epoch %d, want %d", env.Epoch, second)
			}
		}
	}
	if current != 1 {
		t.Fatalf("%d envelopes are current, want 1", current)
	}
}

func TestSearchSupersedesAchievements(t *testing.T) {
	api := &fakeFetcher{games: twoGames(), gamesOK: true}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	r.LoadAchievements(testSteamID, 440, "Team Fortress 2")
	r.Search(testSteamID)
	r.Wait()

	for _, env := range queue.Drain() {
		if env.Scope == dispatch.ScopeAchievements && r.IsCurrent(env) {
			t.Fatalf("achievements envelope still current after a new search")
		}
	}
}

func TestCancelledGenerationPostsNilImage(t *testing.T) {
	resolver := &fakeResolver{}
	r, queue := newTestRunner(t, &fakeFetcher{}, resolver)

	r.begin(dispatch.ScopeAchievements)
	r.Close()
	r.ResolveImage(dispatch.ScopeAchievements, dispatch.IconTarget(1, "A"), "https://cdn.test/a.jpg", "1_A", image.Pt(2, 2))
	r.Wait()

	envs := queue.Drain()
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	if ready := envs[0].Result.(dispatch.ImageReady); ready.Bitmap != nil {
		t.Fatalf("cancelled resolve produced a bitmap")
	}
	if len(resolver.urls) != 0 {
		t.Fatalf("resolver called %d times after cancellation, want 0", len(resolver.urls))
	}
}

func TestPanickingTaskStillPostsOnce(t *testing.T) {
	api := &fakeFetcher{games: twoGames(), gamesOK: true, panicOn: "owned"}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	r.Search(testSteamID)
	r.Wait()

	envs := queue.Drain()
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	if _, ok := envs[0].Result.(dispatch.Error); !ok {
		t.Fatalf("result = %T, want Error fallback", envs[0].Result)
	}
}

func TestPanickingAchievementsFetchPostsEmptyResult(t *testing.T) {
	api := &fakeFetcher{panicOn: "global"}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	r.LoadAchievements(testSteamID, 440, "Team Fortress 2")
	r.Wait()

	envs := queue.Drain()
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	result, ok := envs[0].Result.(dispatch.AchievementsResult)
	if !ok || result.AppID != 440 || len(result.Achievements) != 0 {
		t.Fatalf("result = %#v, want empty AchievementsResult for 440", envs[0].Result)
	}
}

func TestReadySignalsAfterPost(t *testing.T) {
	api := &fakeFetcher{games: twoGames(), gamesOK: true}
	r, queue := newTestRunner(t, api, &fakeResolver{})

	r.Search(testSteamID)
	select {
	case <-queue.Ready():
	case <-time.After(2 * time.Second):
		t.Fatalf("queue never signalled ready")
	}
	r.Wait()
	if queue.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", queue.Len())
	}
}
