package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/five82/steamview/internal/config"
	"github.com/five82/steamview/internal/logging"
)

var (
	// ErrPrivateProfile means the owned-games response carried no games field,
	// which Steam does for private or otherwise inaccessible profiles.
	ErrPrivateProfile = errors.New("no games data; profile may be private")
	// ErrNoStats means Steam reported success=false for a player's achievements,
	// typically because the title has no stat tracking.
	ErrNoStats = errors.New("no achievement stats for this title")
)

// StatusError is returned for non-2xx responses. Body holds at most
// maxBodyBytes of the response.
type StatusError struct {
	Endpoint string
	Code     int
	Body     []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Endpoint, e.Code)
}

// Fetcher is the fail-soft surface the background runner depends on. *Client
// implements it; tests substitute fakes.
type Fetcher interface {
	FetchOwnedGames(ctx context.Context, steamID string) ([]Game, bool)
	FetchPlayerAchievements(ctx context.Context, steamID string, appID int) []Achievement
	FetchGlobalAchievementStats(ctx context.Context, appID int) []GlobalAchievementStat
	FetchSchema(ctx context.Context, appID int) []AchievementSchema
	BoxArtURL(appID int) string
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the Steam Web API.
type Client struct {
	baseURL   *url.URL
	cdnURL    *url.URL
	http      *http.Client
	apiKey    string
	language  string
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

const (
	defaultUserAgent = "steamview/0.1"
	maxBodyBytes     = 16 << 20

	ownedGamesPath         = "/IPlayerService/GetOwnedGames/v1/"
	playerAchievementsPath = "/ISteamUserStats/GetPlayerAchievements/v1/"
	globalPercentagesPath  = "/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2/"
	schemaPath             = "/ISteamUserStats/GetSchemaForGame/v2/"
)

// NewClient builds a Client from cfg. The API key is not checked here; see
// config.Validate.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	base, err := parseBaseURL(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api_base_url: %w", err)
	}
	cdn, err := parseBaseURL(cfg.CDNBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse cdn_base_url: %w", err)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   base,
		cdnURL:    cdn,
		http:      &http.Client{},
		apiKey:    cfg.APIKey,
		language:  cfg.Language,
		timeout:   timeout,
		userAgent: defaultUserAgent,
		logger:    logging.OrDefault(logger).With("component", "steam"),
	}, nil
}

// BoxArtURL returns the CDN URL of a title's header image.
func (c *Client) BoxArtURL(appID int) string {
	return joinURL(c.cdnURL, fmt.Sprintf("/steam/apps/%d/header.jpg", appID), nil).String()
}

// OwnedGames returns the games owned by steamID. It returns ErrPrivateProfile
// when the response has no games field. A present but empty list is not an error.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]Game, error) {
	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("steamid", steamID)
	values.Set("include_appinfo", "1")
	values.Set("include_played_free_games", "1")
	values.Set("format", "json")

	body, err := c.get(ctx, ownedGamesPath, values)
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(body, "response.games").Exists() {
		return nil, ErrPrivateProfile
	}
	var payload ownedGamesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	games := payload.Response.Games
	if games == nil {
		games = []Game{}
	}
	return games, nil
}

// PlayerAchievements returns steamID's achievements for appID. It returns
// ErrNoStats when Steam answers with success=false, which it does with either
// a 200 or a 4xx status.
func (c *Client) PlayerAchievements(ctx context.Context, steamID string, appID int) ([]Achievement, error) {
	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("steamid", steamID)
	values.Set("appid", strconv.Itoa(appID))
	if c.language != "" {
		values.Set("l", c.language)
	}

	body, err := c.get(ctx, playerAchievementsPath, values)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && reportsFailure(statusErr.Body) {
			return nil, noStatsError(statusErr.Body)
		}
		return nil, err
	}
	if reportsFailure(body) || !gjson.GetBytes(body, "playerstats.success").Exists() {
		return nil, noStatsError(body)
	}

	var payload playerAchievementsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out := make([]Achievement, 0, len(payload.PlayerStats.Achievements))
	for _, a := range payload.PlayerStats.Achievements {
		out = append(out, a.toAchievement())
	}
	return out, nil
}

// GlobalAchievementStats returns the global unlock percentages for appID.
func (c *Client) GlobalAchievementStats(ctx context.Context, appID int) ([]GlobalAchievementStat, error) {
	values := url.Values{}
	values.Set("gameid", strconv.Itoa(appID))

	body, err := c.get(ctx, globalPercentagesPath, values)
	if err != nil {
		return nil, err
	}
	var payload globalPercentagesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out := make([]GlobalAchievementStat, 0, len(payload.AchievementPercentages.Achievements))
	for _, a := range payload.AchievementPercentages.Achievements {
		pct, err := parsePercent(a.Percent)
		if err != nil {
			c.logger.Warn("skipping global stat", "appid", appID, "name", a.Name, "error", err)
			continue
		}
		out = append(out, GlobalAchievementStat{APIName: a.Name, Percent: pct})
	}
	return out, nil
}

// Schema returns the achievement definitions for appID.
func (c *Client) Schema(ctx context.Context, appID int) ([]AchievementSchema, error) {
	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("appid", strconv.Itoa(appID))
	if c.language != "" {
		values.Set("l", c.language)
	}

	body, err := c.get(ctx, schemaPath, values)
	if err != nil {
		return nil, err
	}
	var payload schemaResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	defs := payload.Game.AvailableGameStats.Achievements
	out := make([]AchievementSchema, 0, len(defs))
	for _, d := range defs {
		out = append(out, AchievementSchema{
			APIName:     d.Name,
			DisplayName: d.DisplayName,
			Description: d.Description,
			IconURL:     d.Icon,
			IconGrayURL: d.IconGray,
			Hidden:      d.Hidden == 1,
		})
	}
	return out, nil
}

// FetchOwnedGames is the fail-soft form of OwnedGames. ok is false when the
// profile exposes no games or the request failed; an empty slice with ok true
// means the user owns nothing.
func (c *Client) FetchOwnedGames(ctx context.Context, steamID string) (games []Game, ok bool) {
	defer c.recoverSoft("owned games", func() { games, ok = nil, false })

	games, err := c.OwnedGames(ctx, steamID)
	if err != nil {
		if errors.Is(err, ErrPrivateProfile) {
			c.logger.Warn("no games data; profile may be private", "steam_id", steamID)
		} else {
			c.logger.Error("fetch owned games failed", "steam_id", steamID, "error", err)
		}
		return nil, false
	}
	c.logger.Info("fetched owned games", "steam_id", steamID, "count", len(games))
	return games, true
}

// FetchPlayerAchievements is the fail-soft form of PlayerAchievements. Both a
// transport failure and a success=false answer yield an empty slice.
func (c *Client) FetchPlayerAchievements(ctx context.Context, steamID string, appID int) (out []Achievement) {
	defer c.recoverSoft("player achievements", func() { out = []Achievement{} })

	achievements, err := c.PlayerAchievements(ctx, steamID, appID)
	if err != nil {
		if errors.Is(err, ErrNoStats) {
			c.logger.Info("no achievement stats", "appid", appID, "error", err)
		} else {
			c.logger.Error("fetch achievements failed", "appid", appID, "error", err)
		}
		return []Achievement{}
	}
	c.logger.Info("fetched achievements", "appid", appID, "count", len(achievements))
	return achievements
}

// FetchGlobalAchievementStats is the fail-soft form of GlobalAchievementStats.
func (c *Client) FetchGlobalAchievementStats(ctx context.Context, appID int) (out []GlobalAchievementStat) {
	defer c.recoverSoft("global achievements", func() { out = []GlobalAchievementStat{} })

	stats, err := c.GlobalAchievementStats(ctx, appID)
	if err != nil {
		c.logger.Error("fetch global achievements failed", "appid", appID, "error", err)
		return []GlobalAchievementStat{}
	}
	return stats
}

// FetchSchema is the fail-soft form of Schema.
func (c *Client) FetchSchema(ctx context.Context, appID int) (out []AchievementSchema) {
	defer c.recoverSoft("schema", func() { out = []AchievementSchema{} })

	schema, err := c.Schema(ctx, appID)
	if err != nil {
		c.logger.Warn("fetch achievement schema failed", "appid", appID, "error", err)
		return []AchievementSchema{}
	}
	return schema
}

func (c *Client) recoverSoft(op string, fallback func()) {
	if r := recover(); r != nil {
		c.logger.Error("recovered panic", "op", op, "panic", r)
		fallback()
	}
}

func (c *Client) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := joinURL(c.baseURL, path, values)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", redactKey(err, c.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Endpoint: path, Code: resp.StatusCode, Body: body}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode response: invalid json from %s", path)
	}
	return body, nil
}

func reportsFailure(body []byte) bool {
	success := gjson.GetBytes(body, "playerstats.success")
	return success.Exists() && !success.Bool()
}

func noStatsError(body []byte) error {
	if msg := gjson.GetBytes(body, "playerstats.error").String(); msg != "" {
		return fmt.Errorf("%w: %s", ErrNoStats, msg)
	}
	return ErrNoStats
}

// redactKey keeps the API key out of logged *url.Error values.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		redacted := *urlErr
		redacted.URL = strings.ReplaceAll(urlErr.URL, key, "REDACTED")
		return &redacted
	}
	return err
}

func joinURL(base *url.URL, path string, values url.Values) *url.URL {
	u := *base
	u.Path = base.Path + path
	if values != nil {
		u.RawQuery = values.Encode()
	}
	return &u
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
