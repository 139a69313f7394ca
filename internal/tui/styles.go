package tui

import "github.com/charmbracelet/lipgloss"

// Color palette (ANSI 256).
const (
	ColorHeader  = lipgloss.Color("39")
	ColorBorder  = lipgloss.Color("240")
	ColorLabel   = lipgloss.Color("246")
	ColorValue   = lipgloss.Color("255")
	ColorMuted   = lipgloss.Color("242")
	ColorRank    = lipgloss.Color("220")
	ColorLang    = lipgloss.Color("213")
	ColorLink    = lipgloss.Color("37")
	ColorOK      = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
)

// Icons.
const (
	IconStar    = "⭐"
	IconFolder  = "📁"
	IconFile    = "📄"
	IconPackage = "📦"
	IconIssue   = "📋"
	IconOpen    = "🟢"
	IconClosed  = "🔴"
	IconPR      = "🔀"
	IconLink    = "🔗"
	IconWarn    = "⚠"
	IconOK      = "✓"
	IconCross   = "✗"
)

// Shared styles.
//
//nolint:gochecknoglobals // Immutable style values.
var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	SubtleStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	RankStyle    = lipgloss.NewStyle().Foreground(ColorRank).Bold(true)
	LangStyle    = lipgloss.NewStyle().Foreground(ColorLang)
	LinkStyle    = lipgloss.NewStyle().Foreground(ColorLink)
	OKStyle      = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	RuleStyle    = lipgloss.NewStyle().Foreground(ColorBorder)
)

// gradeColor maps a letter grade to its color.
func gradeColor(grade string) lipgloss.Color {
	switch grade {
	case "A":
		return ColorOK
	case "B":
		return lipgloss.Color("190")
	case "C":
		return ColorWarning
	case "D", "F":
		return ColorError
	default:
		return ColorMuted
	}
}
