package steam

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Game is one entry of a user's owned-games list.
type Game struct {
	AppID            int    `json:"appid" yaml:"appid"`
	Name             string `json:"name" yaml:"name"`
	PlaytimeForever  int    `json:"playtime_forever" yaml:"playtime_forever"`
	PlaytimeTwoWeeks int    `json:"playtime_2weeks,omitempty" yaml:"playtime_2weeks,omitempty"`
	ImgIconURL       string `json:"img_icon_url,omitempty" yaml:"img_icon_url,omitempty"`
}

// Playtime returns the lifetime playtime as a duration.
func (g Game) Playtime() time.Duration {
	return time.Duration(g.PlaytimeForever) * time.Minute
}

// Achievement is a user's progress on one achievement of a title. IconURL and
// IconGrayURL are empty when the upstream did not supply them.
type Achievement struct {
	APIName     string    `json:"apiname" yaml:"apiname"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Description string    `json:"description" yaml:"description"`
	Achieved    bool      `json:"achieved" yaml:"achieved"`
	UnlockTime  time.Time `json:"unlock_time,omitzero" yaml:"unlock_time,omitempty"`
	IconURL     string    `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
	IconGrayURL string    `json:"icongray_url,omitempty" yaml:"icongray_url,omitempty"`
}

// Title returns the display name, falling back to the API name.
func (a Achievement) Title() string {
	if strings.TrimSpace(a.DisplayName) != "" {
		return a.DisplayName
	}
	if a.APIName != "" {
		return a.APIName
	}
	return "Unknown"
}

// Icon returns the colour icon for unlocked achievements and the grey one
// otherwise. Empty when the matching URL is absent.
func (a Achievement) Icon() string {
	if a.Achieved {
		return a.IconURL
	}
	return a.IconGrayURL
}

// GlobalAchievementStat is the share of all players who unlocked an achievement.
type GlobalAchievementStat struct {
	APIName string  `json:"apiname" yaml:"apiname"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// AchievementSchema is the static definition of an achievement for a title.
type AchievementSchema struct {
	APIName     string
	DisplayName string
	Description string
	IconURL     string
	IconGrayURL string
	Hidden      bool
}

// NotAvailable is shown in place of a global percentage with no matching stat.
const NotAvailable = "N/A"

// PercentIndex maps API names to global unlock percentages.
type PercentIndex map[string]float64

// IndexPercents builds a PercentIndex from global stats.
func IndexPercents(stats []GlobalAchievementStat) PercentIndex {
	idx := make(PercentIndex, len(stats))
	for _, s := range stats {
		idx[s.APIName] = s.Percent
	}
	return idx
}

// Lookup returns the percentage for apiName, if known.
func (p PercentIndex) Lookup(apiName string) (float64, bool) {
	v, ok := p[apiName]
	return v, ok
}

// Label formats the percentage for apiName, or NotAvailable.
func (p PercentIndex) Label(apiName string) string {
	v, ok := p.Lookup(apiName)
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// MergeSchema fills display names, descriptions and icon URLs that the player
// response left empty. Values already present are kept.
func MergeSchema(achievements []Achievement, schema []AchievementSchema) []Achievement {
	if len(schema) == 0 || len(achievements) == 0 {
		return achievements
	}
	byName := make(map[string]AchievementSchema, len(schema))
	for _, s := range schema {
		byName[s.APIName] = s
	}
	out := make([]Achievement, len(achievements))
	for i, a := range achievements {
		if s, ok := byName[a.APIName]; ok {
			if a.DisplayName == "" {
				a.DisplayName = s.DisplayName
			}
			if a.Description == "" {
				a.Description = s.Description
			}
			if a.IconURL == "" {
				a.IconURL = s.IconURL
			}
			if a.IconGrayURL == "" {
				a.IconGrayURL = s.IconGrayURL
			}
		}
		out[i] = a
	}
	return out
}

// Wire shapes. Only the fields steamview reads are declared.

type ownedGamesResponse struct {
	Response struct {
		GameCount int    `json:"game_count"`
		Games     []Game `json:"games"`
	} `json:"response"`
}

type playerAchievementsResponse struct {
	PlayerStats struct {
		SteamID      string              `json:"steamID"`
		GameName     string              `json:"gameName"`
		Achievements []playerAchievement `json:"achievements"`
		Success      bool                `json:"success"`
		Error        string              `json:"error"`
	} `json:"playerstats"`
}

type playerAchievement struct {
	APIName     string `json:"apiname"`
	Achieved    int    `json:"achieved"`
	UnlockTime  int64  `json:"unlocktime"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icongray"`
}

func (p playerAchievement) toAchievement() Achievement {
	a := Achievement{
		APIName:     p.APIName,
		DisplayName: p.Name,
		Description: p.Description,
		Achieved:    p.Achieved == 1,
		IconURL:     p.Icon,
		IconGrayURL: p.IconGray,
	}
	if p.UnlockTime > 0 {
		a.UnlockTime = time.Unix(p.UnlockTime, 0).UTC()
	}
	return a
}

type globalPercentagesResponse struct {
	AchievementPercentages struct {
		Achievements []struct {
			Name    string          `json:"name"`
			Percent json.RawMessage `json:"percent"`
		} `json:"achievements"`
	} `json:"achievementpercentages"`
}

type schemaResponse struct {
	Game struct {
		GameName           string `json:"gameName"`
		AvailableGameStats struct {
			Achievements []struct {
				Name        string `json:"name"`
				DisplayName string `json:"displayName"`
				Description string `json:"description"`
				Icon        string `json:"icon"`
				IconGray    string `json:"icongray"`
				Hidden      int    `json:"hidden"`
			} `json:"achievements"`
		} `json:"availableGameStats"`
	} `json:"game"`
}

// parsePercent accepts a percentage encoded as a JSON number or string.
// A missing or null value is zero.
func parsePercent(data json.RawMessage) (float64, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return 0, nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse percent %q: %w", raw, err)
	}
	return v, nil
}
