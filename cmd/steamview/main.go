package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/five82/steamview/internal/app"
	"github.com/five82/steamview/internal/config"
	"github.com/five82/steamview/internal/steam"
)

var version = "dev"

// CLI is the top-level command structure for steamview.
type CLI struct {
	Version kong.VersionFlag `help:"Show version." short:"V"`
	Config  string           `help:"Config file path." type:"path" placeholder:"PATH"`
	Prefs   string           `help:"Preferences file path." type:"path" placeholder:"PATH"`
	Poll    int              `help:"Queue poll interval in milliseconds (overrides poll_interval)."`

	TUI          TUICmd          `cmd:"" default:"withargs" help:"Open the interactive browser."`
	Games        GamesCmd        `cmd:"" help:"List the games owned by a SteamID."`
	Achievements AchievementsCmd `cmd:"" help:"List a player's achievements for one game."`
	Cache        CacheCmd        `cmd:"" help:"Inspect the image cache."`
}

func (c *CLI) options() app.Options {
	opts := app.Options{ConfigPath: c.Config, PrefsPath: c.Prefs}
	if c.Poll > 0 {
		opts.PollEvery = time.Duration(c.Poll) * time.Millisecond
	}
	return opts
}

// TUICmd opens the Bubble Tea interface.
type TUICmd struct {
	SteamID string `help:"SteamID64 to prefill." name:"steam-id"`
}

// Run launches the TUI.
func (c *TUICmd) Run(ctx context.Context, cli *CLI) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("tui: requires a terminal (TTY); use the games or achievements commands instead")
	}
	opts := cli.options()
	opts.SteamID = c.SteamID
	return app.Run(ctx, opts)
}

// GamesCmd prints the owned-games list.
type GamesCmd struct {
	SteamID  string `arg:"" help:"SteamID64 of the account."`
	Format   string `help:"Output format." enum:"table,json,yaml" default:"table"`
	FetchArt bool   `help:"Download box art for every game into the image cache."`
}

// Run executes the games command.
func (c *GamesCmd) Run(ctx context.Context, cli *CLI, out io.Writer) error {
	env, err := app.Setup(ctx, cli.options())
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	games, resolved, err := env.Games(ctx, c.SteamID, c.FetchArt)
	if err != nil {
		return fmt.Errorf("games: %w", err)
	}
	if err := writeGames(out, c.Format, games); err != nil {
		return err
	}
	if c.FetchArt {
		fmt.Fprintf(os.Stderr, "box art: %d of %d cached in %s\n", resolved, len(games), env.Cache.Dir())
	}
	return nil
}

// AchievementsCmd prints achievements with global unlock percentages.
type AchievementsCmd struct {
	SteamID string `arg:"" help:"SteamID64 of the account."`
	AppID   int    `arg:"" help:"Steam app ID of the game."`
	Format  string `help:"Output format." enum:"table,json,yaml" default:"table"`
}

// Run executes the achievements command.
func (c *AchievementsCmd) Run(ctx context.Context, cli *CLI, out io.Writer) error {
	env, err := app.Setup(ctx, cli.options())
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	report, err := env.Achievements(ctx, c.SteamID, c.AppID)
	if errors.Is(err, app.ErrNoAchievements) {
		fmt.Fprintln(out, "No achievements available for this game.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("achievements: %w", err)
	}
	return writeAchievements(out, c.Format, report)
}

// CacheCmd groups cache subcommands.
type CacheCmd struct {
	Path CachePathCmd `cmd:"" help:"Print the image cache directory."`
}

// CachePathCmd prints the resolved cache directory. It does not need an API
// key.
type CachePathCmd struct{}

// Run executes the cache path command.
func (c *CachePathCmd) Run(cli *CLI, out io.Writer) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("cache path: %w", err)
	}
	fmt.Fprintln(out, cfg.CacheDir)
	return nil
}

func writeGames(out io.Writer, format string, games []steam.Game) error {
	switch format {
	case "json":
		return writeJSON(out, games)
	case "yaml":
		return writeYAML(out, games)
	}
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{
			strconv.Itoa(g.AppID),
			g.Name,
			fmt.Sprintf("%.1f", g.Playtime().Hours()),
		})
	}
	_, err := fmt.Fprintln(out, newTable("APPID", "NAME", "HOURS").Rows(rows...).Render())
	return err
}

func writeAchievements(out io.Writer, format string, report app.AchievementReport) error {
	switch format {
	case "json":
		return writeJSON(out, report)
	case "yaml":
		return writeYAML(out, report)
	}
	rows := make([][]string, 0, len(report.Achievements))
	for _, a := range report.Achievements {
		done := ""
		if a.Achieved {
			done = "yes"
		}
		pct := a.Percent
		if pct != steam.NotAvailable {
			pct += "%"
		}
		rows = append(rows, []string{a.Name, done, pct, a.Description})
	}
	_, err := fmt.Fprintln(out, newTable("ACHIEVEMENT", "UNLOCKED", "GLOBAL", "DESCRIPTION").Rows(rows...).Render())
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("steamview"),
		kong.Description("Browse Steam libraries and achievements from the terminal."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(out, (*io.Writer)(nil)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "steamview: %v\n", err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "steamview: %v\n", err)
		return 2
	}
	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "steamview: %v\n", err)
		return 1
	}
	return 0
}
