package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/five82/steamview/internal/dispatch"
	"github.com/five82/steamview/internal/imagecache"
	"github.com/five82/steamview/internal/steam"
)

// ErrNoAchievements is returned when a title reports no achievements for the
// player, either because it has none or because the lookup failed.
var ErrNoAchievements = errors.New("no achievements available for this game")

// AchievementLine is one achievement with its resolved global percentage.
type AchievementLine struct {
	APIName     string    `json:"apiname" yaml:"apiname"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Achieved    bool      `json:"achieved" yaml:"achieved"`
	UnlockTime  time.Time `json:"unlock_time,omitzero" yaml:"unlock_time,omitempty"`
	Percent     string    `json:"percent" yaml:"percent"`
}

// AchievementReport is the headless result for one title.
type AchievementReport struct {
	SteamID      string            `json:"steamid" yaml:"steamid"`
	AppID        int               `json:"appid" yaml:"appid"`
	Achievements []AchievementLine `json:"achievements" yaml:"achievements"`
}

// Games runs a search through the task runner and waits for its result.
// With fetchArt set it also resolves every title's box art into the cache
// and returns how many images resolved.
func (e *Env) Games(ctx context.Context, input string, fetchArt bool) ([]steam.Game, int, error) {
	steamID, err := steam.ValidateSteamID(input)
	if err != nil {
		return nil, 0, err
	}

	e.Runner.Search(steamID)
	var (
		games   []steam.Game
		failure error
	)
	err = Pump(ctx, e.Queue, e.Config.PollInterval, func(env dispatch.Envelope) bool {
		if env.Scope != dispatch.ScopeSearch || !e.Runner.IsCurrent(env) {
			return false
		}
		switch r := env.Result.(type) {
		case dispatch.SearchResult:
			games = r.Games
			return true
		case dispatch.Error:
			failure = errors.New(r.Message)
			return true
		}
		return false
	})
	if err != nil {
		return nil, 0, err
	}
	if failure != nil {
		return nil, 0, failure
	}
	if !fetchArt || len(games) == 0 {
		return games, 0, nil
	}

	cached := 0
	for _, g := range games {
		if e.Cache.Has(imagecache.BoxArtKey(g.AppID)) {
			cached++
		}
		e.Runner.ResolveImage(dispatch.ScopeSearch, dispatch.BoxArtTarget(g.AppID),
			e.Client.BoxArtURL(g.AppID), imagecache.BoxArtKey(g.AppID), imagecache.BoxArtSize)
	}
	pending, resolved := len(games), 0
	err = Pump(ctx, e.Queue, e.Config.PollInterval, func(env dispatch.Envelope) bool {
		ready, ok := env.Result.(dispatch.ImageReady)
		if !ok || env.Scope != dispatch.ScopeSearch || !e.Runner.IsCurrent(env) {
			return false
		}
		if ready.Bitmap != nil {
			resolved++
		}
		pending--
		return pending == 0
	})
	if err != nil {
		return games, resolved, err
	}
	e.Logger.Info("box art prefetched", "games", len(games), "resolved", resolved, "already_cached", cached)
	return games, resolved, nil
}

// Achievements loads a player's achievements for appID with global
// percentages merged in.
func (e *Env) Achievements(ctx context.Context, input string, appID int) (AchievementReport, error) {
	steamID, err := steam.ValidateSteamID(input)
	if err != nil {
		return AchievementReport{}, err
	}
	if appID <= 0 {
		return AchievementReport{}, fmt.Errorf("invalid appid %d", appID)
	}

	e.Runner.LoadAchievements(steamID, appID, "")
	var result dispatch.AchievementsResult
	err = Pump(ctx, e.Queue, e.Config.PollInterval, func(env dispatch.Envelope) bool {
		r, ok := env.Result.(dispatch.AchievementsResult)
		if !ok || env.Scope != dispatch.ScopeAchievements || !e.Runner.IsCurrent(env) {
			return false
		}
		result = r
		return true
	})
	if err != nil {
		return AchievementReport{}, err
	}
	return BuildReport(result)
}

// BuildReport pairs each achievement with its global percentage.
func BuildReport(r dispatch.AchievementsResult) (AchievementReport, error) {
	report := AchievementReport{SteamID: r.SteamID, AppID: r.AppID}
	if len(r.Achievements) == 0 {
		return report, ErrNoAchievements
	}
	percents := steam.IndexPercents(r.GlobalStats)
	report.Achievements = make([]AchievementLine, 0, len(r.Achievements))
	for _, a := range r.Achievements {
		report.Achievements = append(report.Achievements, AchievementLine{
			APIName:     a.APIName,
			Name:        a.Title(),
			Description: a.Description,
			Achieved:    a.Achieved,
			UnlockTime:  a.UnlockTime,
			Percent:     percents.Label(a.APIName),
		})
	}
	return report, nil
}
