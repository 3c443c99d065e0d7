package dispatch

import (
	"fmt"
	"image"

	"github.com/five82/steamview/internal/steam"
)

// Scope groups envelopes by the view that requested them. Each scope has its
// own epoch counter in the task runner.
type Scope int

const (
	ScopeSearch Scope = iota + 1
	ScopeAchievements
)

func (s Scope) String() string {
	switch s {
	case ScopeSearch:
		return "search"
	case ScopeAchievements:
		return "achievements"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Envelope carries one task result to the UI goroutine. Epoch is the scope's
// generation when the task was started.
type Envelope struct {
	Scope  Scope
	Epoch  uint64
	Result Result
}

// Result is implemented by SearchResult, AchievementsResult, ImageReady and
// Error only.
type Result interface {
	Kind() string
	sealed()
}

// SearchResult lists the games owned by SteamID.
type SearchResult struct {
	SteamID string
	Games   []steam.Game
}

// AchievementsResult holds a user's achievements for one title together with
// the title's global unlock percentages. Achievements is empty both when the
// title has no stats and when the request failed.
type AchievementsResult struct {
	SteamID      string
	AppID        int
	GameName     string
	Achievements []steam.Achievement
	GlobalStats  []steam.GlobalAchievementStat
}

// ImageReady delivers a resolved bitmap for Target. Bitmap is nil when the
// image could not be resolved.
type ImageReady struct {
	Target Target
	Bitmap image.Image
}

// Error is a user-facing failure message.
type Error struct {
	Message string
}

func (SearchResult) Kind() string       { return "search_result" }
func (AchievementsResult) Kind() string { return "achievements_result" }
func (ImageReady) Kind() string         { return "image_ready" }
func (Error) Kind() string              { return "error" }

func (SearchResult) sealed()       {}
func (AchievementsResult) sealed() {}
func (ImageReady) sealed()         {}
func (Error) sealed()              {}

// TargetKind tells which kind of row an image belongs to.
type TargetKind int

const (
	TargetBoxArt TargetKind = iota + 1
	TargetIcon
)

// Target identifies the row an image is meant for. Rows are looked up by
// value, so a target outliving its row is harmless.
type Target struct {
	Kind    TargetKind
	AppID   int
	APIName string
}

// BoxArtTarget addresses a game row.
func BoxArtTarget(appID int) Target {
	return Target{Kind: TargetBoxArt, AppID: appID}
}

// IconTarget addresses an achievement row.
func IconTarget(appID int, apiName string) Target {
	return Target{Kind: TargetIcon, AppID: appID, APIName: apiName}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetBoxArt:
		return fmt.Sprintf("boxart:%d", t.AppID)
	case TargetIcon:
		return fmt.Sprintf("icon:%d:%s", t.AppID, t.APIName)
	default:
		return "target:unknown"
	}
}
