package commands

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)
	bannerTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	bannerLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(9)
	bannerValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))
	bannerHint  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
)

// BannerInfo is what the startup banner shows.
type BannerInfo struct {
	URL       string
	Input     string
	Output    string
	Temporary bool
	AdminURL  string
	Keys      bool
}

// Banner renders the serve startup banner.
func Banner(info BannerInfo) string {
	var b strings.Builder
	b.WriteString(bannerTitle.Render("siteforge dev server"))
	row := func(label, value string) {
		b.WriteString("\n")
		b.WriteString(bannerLabel.Render(label))
		b.WriteString(bannerValue.Render(value))
	}
	row("Local", info.URL)
	row("Input", info.Input)
	out := info.Output
	if info.Temporary {
		out += " (temporary)"
	}
	row("Output", out)
	if info.AdminURL != "" {
		row("Admin", info.AdminURL)
	}
	if info.Keys {
		b.WriteString("\n")
		b.WriteString(bannerHint.Render("press r to rebuild, q or ctrl+c to quit"))
	}
	return bannerBox.Render(b.String())
}
