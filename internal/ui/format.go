package ui

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/five82/steamview/internal/steam"
)

// steamLanguages maps Steam API language names to locale tags for number
// formatting.
var steamLanguages = map[string]language.Tag{
	"english":    language.English,
	"german":     language.German,
	"french":     language.French,
	"spanish":    language.Spanish,
	"italian":    language.Italian,
	"portuguese": language.Portuguese,
	"brazilian":  language.BrazilianPortuguese,
	"russian":    language.Russian,
	"polish":     language.Polish,
	"dutch":      language.Dutch,
	"swedish":    language.Swedish,
	"turkish":    language.Turkish,
	"japanese":   language.Japanese,
	"koreana":    language.Korean,
	"schinese":   language.SimplifiedChinese,
	"tchinese":   language.TraditionalChinese,
}

func newPrinter(steamLanguage string) *message.Printer {
	tag, ok := steamLanguages[strings.ToLower(strings.TrimSpace(steamLanguage))]
	if !ok {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

func formatPlaytime(p *message.Printer, minutes int) string {
	switch {
	case minutes <= 0:
		return "never played"
	case minutes < 60:
		return p.Sprintf("%d min", minutes)
	default:
		return p.Sprintf("%.1f hrs", float64(minutes)/60)
	}
}

func formatPercent(label string) string {
	if label == steam.NotAvailable || label == "" {
		return steam.NotAvailable
	}
	return label + "%"
}

func formatUnlock(a steam.Achievement) string {
	if !a.Achieved {
		return "Locked"
	}
	if a.UnlockTime.IsZero() {
		return "Unlocked"
	}
	return "Unlocked " + a.UnlockTime.Local().Format(time.DateOnly)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
