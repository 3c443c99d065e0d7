package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/steamview/internal/config"
	"github.com/five82/steamview/internal/dispatch"
	"github.com/five82/steamview/internal/imagecache"
	"github.com/five82/steamview/internal/steam"
)

const testSteamID = "76561198000000000"

type fakeSteam struct {
	server      *httptest.Server
	imageHits   atomic.Int32
	private     bool
	noStats     bool
	headerImage []byte
}

func newFakeSteam(t *testing.T) *fakeSteam {
	t.Helper()
	f := &fakeSteam{headerImage: pngBytes(t, 184, 69)}
	mux := http.NewServeMux()
	mux.HandleFunc("/IPlayerService/GetOwnedGames/v1/", func(w http.ResponseWriter, r *http.Request) {
		if f.private {
			_, _ = w.Write([]byte(`{"response":{}}`))
			return
		}
		_, _ = w.Write([]byte(`{"response":{"game_count":2,"games":[
			{"appid":440,"name":"Team Fortress 2","playtime_forever":1234},
			{"appid":570,"name":"Dota 2","playtime_forever":42}
		]}}`))
	})
	mux.HandleFunc("/ISteamUserStats/GetPlayerAchievements/v1/", func(w http.ResponseWriter, r *http.Request) {
		if f.noStats {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"playerstats":{"error":"Requested app has no stats","success":false}}`))
			return
		}
		_, _ = w.Write([]byte(`{"playerstats":{"steamID":"76561198000000000","gameName":"Team Fortress 2","success":true,"achievements":[
			{"apiname":"TF_PLAY_GAME_EVERYCLASS","achieved":1,"unlocktime":1700000000},
			{"apiname":"TF_GET_HEALPOINTS","achieved":0,"unlocktime":0}
		]}}`))
	})
	mux.HandleFunc("/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"achievementpercentages":{"achievements":[
			{"name":"TF_PLAY_GAME_EVERYCLASS","percent":"61.7"}
		]}}`))
	})
	mux.HandleFunc("/ISteamUserStats/GetSchemaForGame/v2/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"game":{"availableGameStats":{"achievements":[
			{"name":"TF_PLAY_GAME_EVERYCLASS","displayName":"Head of the Class","description":"Play every class."},
			{"name":"TF_GET_HEALPOINTS","displayName":"Field Medic"}
		]}}}`))
	})
	mux.HandleFunc("/cdn/steam/apps/", func(w http.ResponseWriter, r *http.Request) {
		f.imageHits.Add(1)
		if strings.Contains(r.URL.Path, "/570/") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(f.headerImage)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 27, G: 40, B: 56, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTestEnv(t *testing.T, f *fakeSteam) *Env {
	t.Helper()
	cfg := config.Default()
	cfg.APIKey = "secret-key"
	cfg.APIBaseURL = f.server.URL
	cfg.CDNBaseURL = f.server.URL + "/cdn"
	cfg.CacheDir = filepath.Join(t.TempDir(), "image_cache")
	cfg.LogFile = filepath.Join(t.TempDir(), "steamview.log")
	cfg.RequestTimeout = 2 * time.Second
	cfg.ImageTimeout = 2 * time.Second
	cfg.PollInterval = 10 * time.Millisecond

	env, err := newEnv(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newEnv returned error: %v", err)
	}
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSetup_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STEAM_API_KEY", "")

	_, err := Setup(context.Background(), Options{ConfigPath: filepath.Join(t.TempDir(), "none.toml")})
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("Setup error = %v, want ErrMissingAPIKey", err)
	}
}

func TestSetup_BuildsEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("STEAM_API_KEY", "abc")
	t.Setenv("STEAMVIEW_CACHE_DIR", filepath.Join(home, "cache"))
	t.Setenv("STEAMVIEW_LOG_FILE", filepath.Join(home, "log", "steamview.log"))

	env, err := Setup(context.Background(), Options{PollEvery: 25 * time.Millisecond})
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	defer func() { _ = env.Close() }()

	if env.Config.PollInterval != 25*time.Millisecond {
		t.Fatalf("PollInterval = %v, want override", env.Config.PollInterval)
	}
	if env.Cache.Dir() != filepath.Join(home, "cache") {
		t.Fatalf("cache dir = %q", env.Cache.Dir())
	}
}

func TestGamesThenAchievementsEndToEnd(t *testing.T) {
	f := newFakeSteam(t)
	env := newTestEnv(t, f)
	ctx := testContext(t)

	games, _, err := env.Games(ctx, testSteamID, false)
	if err != nil {
		t.Fatalf("Games returned error: %v", err)
	}
	if len(games) != 2 || games[0].AppID != 440 {
		t.Fatalf("games = %#v, want 440 and 570", games)
	}

	report, err := env.Achievements(ctx, testSteamID, 440)
	if err != nil {
		t.Fatalf("Achievements returned error: %v", err)
	}
	if len(report.Achievements) != 2 {
		t.Fatalf("achievements = %d, want 2", len(report.Achievements))
	}
	first, second := report.Achievements[0], report.Achievements[1]
	if first.Name != "Head of the Class" || first.Percent != "61.7" || !first.Achieved {
		t.Fatalf("first = %#v", first)
	}
	if second.Name != "Field Medic" || second.Percent != steam.NotAvailable {
		t.Fatalf("second = %#v, want unmatched percent N/A", second)
	}
}

func TestGames_IgnoresSupersededEnvelopes(t *testing.T) {
	f := newFakeSteam(t)
	env := newTestEnv(t, f)

	env.Queue.Post(dispatch.Envelope{
		Scope:  dispatch.ScopeSearch,
		Epoch:  99,
		Result: dispatch.SearchResult{SteamID: testSteamID, Games: []steam.Game{{AppID: 1, Name: "Old"}}},
	})
	games, _, err := env.Games(testContext(t), testSteamID, false)
	if err != nil {
		t.Fatalf("Games returned error: %v", err)
	}
	if len(games) != 2 || games[0].AppID != 440 {
		t.Fatalf("games = %#v, want the live search result", games)
	}
}

func TestClose_WaitsForOutstandingTasks(t *testing.T) {
	f := newFakeSteam(t)
	env := newTestEnv(t, f)

	env.Runner.Search(testSteamID)
	if err := env.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if n := env.Runner.Outstanding(); n != 0 {
		t.Fatalf("Outstanding after Close = %d, want 0", n)
	}
}

func TestGames_PrivateProfileFails(t *testing.T) {
	f := newFakeSteam(t)
	f.private = true
	env := newTestEnv(t, f)

	_, _, err := env.Games(testContext(t), testSteamID, false)
	if err == nil || !strings.Contains(err.Error(), "profile is public") {
		t.Fatalf("Games error = %v, want search failure message", err)
	}
}

func TestGames_InvalidSteamIDStartsNothing(t *testing.T) {
	f := newFakeSteam(t)
	env := newTestEnv(t, f)

	_, _, err := env.Games(testContext(t), "not-an-id", false)
	if !errors.Is(err, steam.ErrInvalidSteamID) {
		t.Fatalf("Games error = %v, want ErrInvalidSteamID", err)
	}
	if env.Runner.Outstanding() != 0 || env.Queue.Len() != 0 {
		t.Fatalf("invalid input started work")
	}
}

func TestGames_FetchArtPopulatesCache(t *testing.T) {
	f := newFakeSteam(t)
	env := newTestEnv(t, f)
	ctx := testContext(t)

	_, resolved, err := env.Games(ctx, testSteamID, true)
	if err != nil {
		t.Fatalf("Games returned error: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("resolved = %d, want 1 (570 is a 404)", resolved)
	}
	if !env.Cache.Has(imagecache.BoxArtKey(440)) {
		t.Fatalf("box art for 440 not cached")
	}
	if env.Cache.Has(imagecache.BoxArtKey(570)) {
		t.Fatalf("404 box art left a cache entry")
	}

	hits := f.imageHits.Load()
	if _, _, err := env.Games(ctx, testSteamID, true); err != nil {
		t.Fatalf("second Games returned error: %v", err)
	}
	if got := f.imageHits.Load() - hits; got != 1 {
		t.Fatalf("second prefetch made %d image requests, want 1 (only the uncached 404)", got)
	}
}

func TestAchievements_NoStats(t *testing.T) {
	f := newFakeSteam(t)
	f.noStats = true
	env := newTestEnv(t, f)

	report, err := env.Achievements(testContext(t), testSteamID, 440)
	if !errors.Is(err, ErrNoAchievements) {
		t.Fatalf("Achievements error = %v, want ErrNoAchievements", err)
	}
	if report.AppID != 440 {
		t.Fatalf("report.AppID = %d, want 440", report.AppID)
	}
}

func TestPump_StopsWhenHandled(t *testing.T) {
	queue := dispatch.NewQueue()
	go func() {
		time.Sleep(20 * time.Millisecond)
		queue.Post(dispatch.Envelope{Scope: dispatch.ScopeSearch, Epoch: 1, Result: dispatch.Error{Message: "a"}})
		queue.Post(dispatch.Envelope{Scope: dispatch.ScopeSearch, Epoch: 2, Result: dispatch.Error{Message: "b"}})
	}()

	var seen []uint64
	err := Pump(testContext(t), queue, time.Hour, func(env dispatch.Envelope) bool {
		seen = append(seen, env.Epoch)
		return env.Epoch == 2
	})
	if err != nil {
		t.Fatalf("Pump returned error: %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("seen = %v, want [1 2] in order", seen)
	}
}

func TestPump_LeavesUnhandledEnvelopesQueued(t *testing.T) {
	queue := dispatch.NewQueue()
	for epoch := uint64(1); epoch <= 3; epoch++ {
		queue.Post(dispatch.Envelope{Scope: dispatch.ScopeSearch, Epoch: epoch, Result: dispatch.Error{Message: "x"}})
	}

	err := Pump(testContext(t), queue, time.Hour, func(dispatch.Envelope) bool { return true })
	if err != nil {
		t.Fatalf("Pump returned error: %v", err)
	}
	rest := queue.Drain()
	if len(rest) != 2 || rest[0].Epoch != 2 || rest[1].Epoch != 3 {
		t.Fatalf("left on queue = %v, want epochs [2 3]", rest)
	}
}

func TestPump_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Pump(ctx, dispatch.NewQueue(), 0, func(dispatch.Envelope) bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Pump error = %v, want context.Canceled", err)
	}
}
