package state

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/five82/steamview/internal/dispatch"
	"github.com/five82/steamview/internal/imagecache"
	"github.com/five82/steamview/internal/logging"
	"github.com/five82/steamview/internal/steam"
)

// SearchPhase tracks the owned-games lookup.
type SearchPhase int

const (
	SearchIdle SearchPhase = iota
	Searching
	GamesListed
	SearchFailed
)

func (p SearchPhase) String() string {
	switch p {
	case Searching:
		return "searching"
	case GamesListed:
		return "listed"
	case SearchFailed:
		return "failed"
	default:
		return "idle"
	}
}

// AchievementsPhase tracks the achievements view.
type AchievementsPhase int

const (
	AchievementsIdle AchievementsPhase = iota
	LoadingAchievements
	AchievementsListed
)

func (p AchievementsPhase) String() string {
	switch p {
	case LoadingAchievements:
		return "loading"
	case AchievementsListed:
		return "listed"
	default:
		return "idle"
	}
}

// Status and error texts shown to the user.
const (
	StatusLoadingGames        = "Loading games..."
	StatusLoadingAchievements = "Loading achievements..."
	StatusNoGames             = "No games found for this account."
	StatusNoAchievements      = "No achievements available for this game."
)

// Launcher starts background work. *tasks.Runner implements it.
type Launcher interface {
	Search(steamID string) uint64
	LoadAchievements(steamID string, appID int, gameName string) uint64
	ResolveImage(scope dispatch.Scope, target dispatch.Target, url, key string, size image.Point)
}

// GameRow is one listed game. Bitmap is the placeholder until its box art
// arrives.
type GameRow struct {
	Game   steam.Game
	Bitmap image.Image
	Loaded bool
}

// AchievementRow is one listed achievement with its global percentage label.
type AchievementRow struct {
	Achievement steam.Achievement
	Percent     string
	Bitmap      image.Image
	Loaded      bool
}

// Session is the presentation state. It is owned by the UI goroutine: only
// that goroutine calls its methods, and the dispatch queue is the only way
// background results reach it.
type Session struct {
	launcher  Launcher
	boxArtURL func(appID int) string
	logger    *slog.Logger

	placeholderBoxArt image.Image
	placeholderIcon   image.Image

	SteamID string
	Search  SearchPhase
	Status  string
	Err     string
	Games   []GameRow

	Achievements AchievementsPhase
	AppID        int
	GameName     string
	Rows         []AchievementRow

	searchEpoch       uint64
	achievementsEpoch uint64
	gameIndex         map[int]int
	rowIndex          map[string]int
}

// NewSession returns an idle session. boxArtURL maps an app ID to its header
// image URL.
func NewSession(launcher Launcher, boxArtURL func(appID int) string, logger *slog.Logger) *Session {
	return &Session{
		launcher:          launcher,
		boxArtURL:         boxArtURL,
		logger:            logging.OrDefault(logger).With("component", "session"),
		placeholderBoxArt: imagecache.Placeholder(imagecache.BoxArtSize),
		placeholderIcon:   imagecache.Placeholder(imagecache.IconSize),
		gameIndex:         map[int]int{},
		rowIndex:          map[string]int{},
	}
}

// Busy reports whether a search is in flight; the search input is disabled
// meanwhile.
func (s *Session) Busy() bool {
	return s.Search == Searching
}

// PlaceholderBoxArt is the bitmap shown for games without box art.
func (s *Session) PlaceholderBoxArt() image.Image { return s.placeholderBoxArt }

// PlaceholderIcon is the bitmap shown for achievements without an icon.
func (s *Session) PlaceholderIcon() image.Image { return s.placeholderIcon }

// StartSearch validates input and starts a search. Invalid input is rejected
// before any work starts and leaves the current results in place.
func (s *Session) StartSearch(input string) error {
	if s.Busy() {
		return fmt.Errorf("a search is already running")
	}
	steamID, err := steam.ValidateSteamID(input)
	if err != nil {
		s.Err = err.Error()
		return err
	}

	s.clearGames()
	s.clearAchievements()
	s.SteamID = steamID
	s.Search = Searching
	s.Status = StatusLoadingGames
	s.Err = ""
	s.searchEpoch = s.launcher.Search(steamID)
	s.logger.Info("search started", "steam_id", steamID, "epoch", s.searchEpoch)
	return nil
}

// SelectGame opens the achievements view for the game at index i.
func (s *Session) SelectGame(i int) error {
	if i < 0 || i >= len(s.Games) {
		return fmt.Errorf("no game at index %d", i)
	}
	game := s.Games[i].Game
	s.clearAchievements()
	s.AppID = game.AppID
	s.GameName = game.Name
	s.Achievements = LoadingAchievements
	s.Status = StatusLoadingAchievements
	s.Err = ""
	s.achievementsEpoch = s.launcher.LoadAchievements(s.SteamID, game.AppID, game.Name)
	s.logger.Info("loading achievements", "appid", game.AppID, "epoch", s.achievementsEpoch)
	return nil
}

// CloseAchievements returns the achievements view to idle. Results still in
// flight for it are dropped on arrival.
func (s *Session) CloseAchievements() {
	s.clearAchievements()
	if s.Status == StatusLoadingAchievements || s.Status == StatusNoAchievements {
		s.Status = ""
	}
}

// Apply hands one envelope to the handler for its variant. It returns false
// when the envelope was stale or addressed a row that no longer exists.
func (s *Session) Apply(env dispatch.Envelope) bool {
	if env.Result == nil {
		s.logger.Warn("dropping envelope without result", "scope", env.Scope, "epoch", env.Epoch)
		return false
	}
	if !s.current(env) {
		s.logger.Debug("dropping stale envelope", "kind", env.Result.Kind(), "scope", env.Scope, "epoch", env.Epoch)
		return false
	}
	switch r := env.Result.(type) {
	case dispatch.SearchResult:
		s.handleSearchResult(r)
	case dispatch.AchievementsResult:
		s.handleAchievementsResult(r)
	case dispatch.ImageReady:
		return s.handleImageReady(r)
	case dispatch.Error:
		s.handleError(env.Scope, r)
	default:
		s.logger.Warn("unknown envelope", "kind", fmt.Sprintf("%T", env.Result))
		return false
	}
	return true
}

// ApplyAll applies envelopes in order and reports whether any changed state.
func (s *Session) ApplyAll(envs []dispatch.Envelope) bool {
	changed := false
	for _, env := range envs {
		if s.Apply(env) {
			changed = true
		}
	}
	return changed
}

func (s *Session) current(env dispatch.Envelope) bool {
	switch env.Scope {
	case dispatch.ScopeSearch:
		return env.Epoch != 0 && env.Epoch == s.searchEpoch
	case dispatch.ScopeAchievements:
		return env.Epoch != 0 && env.Epoch == s.achievementsEpoch
	default:
		return false
	}
}

func (s *Session) handleSearchResult(r dispatch.SearchResult) {
	s.Search = GamesListed
	s.Status = ""
	s.Games = make([]GameRow, len(r.Games))
	s.gameIndex = make(map[int]int, len(r.Games))
	for i, g := range r.Games {
		s.Games[i] = GameRow{Game: g, Bitmap: s.placeholderBoxArt}
		s.gameIndex[g.AppID] = i
	}
	if len(r.Games) == 0 {
		s.Status = StatusNoGames
		return
	}
	for _, g := range r.Games {
		s.launcher.ResolveImage(dispatch.ScopeSearch, dispatch.BoxArtTarget(g.AppID),
			s.boxArtURL(g.AppID), imagecache.BoxArtKey(g.AppID), imagecache.BoxArtSize)
	}
}

func (s *Session) handleAchievementsResult(r dispatch.AchievementsResult) {
	s.Achievements = AchievementsListed
	s.AppID = r.AppID
	s.GameName = r.GameName
	s.Status = ""
	if len(r.Achievements) == 0 {
		s.Status = StatusNoAchievements
		s.Rows = nil
		s.rowIndex = map[string]int{}
		return
	}

	percents := steam.IndexPercents(r.GlobalStats)
	s.Rows = make([]AchievementRow, len(r.Achievements))
	s.rowIndex = make(map[string]int, len(r.Achievements))
	for i, a := range r.Achievements {
		s.Rows[i] = AchievementRow{
			Achievement: a,
			Percent:     percents.Label(a.APIName),
			Bitmap:      s.placeholderIcon,
		}
		s.rowIndex[a.APIName] = i
	}
	for _, a := range r.Achievements {
		url := a.Icon()
		if url == "" {
			continue
		}
		s.launcher.ResolveImage(dispatch.ScopeAchievements, dispatch.IconTarget(r.AppID, a.APIName),
			url, imagecache.IconKey(r.AppID, a.APIName), imagecache.IconSize)
	}
}

func (s *Session) handleImageReady(r dispatch.ImageReady) bool {
	switch r.Target.Kind {
	case dispatch.TargetBoxArt:
		i, ok := s.gameIndex[r.Target.AppID]
		if !ok || i >= len(s.Games) {
			return false
		}
		s.Games[i].Bitmap = orPlaceholder(r.Bitmap, s.placeholderBoxArt)
		s.Games[i].Loaded = true
		return true
	case dispatch.TargetIcon:
		if r.Target.AppID != s.AppID {
			return false
		}
		i, ok := s.rowIndex[r.Target.APIName]
		if !ok || i >= len(s.Rows) {
			return false
		}
		s.Rows[i].Bitmap = orPlaceholder(r.Bitmap, s.placeholderIcon)
		s.Rows[i].Loaded = true
		return true
	default:
		return false
	}
}

func (s *Session) handleError(scope dispatch.Scope, r dispatch.Error) {
	s.Status = ""
	s.Err = r.Message
	switch scope {
	case dispatch.ScopeSearch:
		s.Search = SearchFailed
	case dispatch.ScopeAchievements:
		s.Achievements = AchievementsIdle
	}
}

func (s *Session) clearGames() {
	s.Games = nil
	s.gameIndex = map[int]int{}
	s.Search = SearchIdle
	s.searchEpoch = 0
}

func (s *Session) clearAchievements() {
	s.Rows = nil
	s.rowIndex = map[string]int{}
	s.AppID = 0
	s.GameName = ""
	s.Achievements = AchievementsIdle
	s.achievementsEpoch = 0
}

func orPlaceholder(img, placeholder image.Image) image.Image {
	if img == nil {
		return placeholder
	}
	return img
}
