package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Palette. Over-plan and rejected amounts are red, settled and under-plan
// green, partial states yellow, identifiers blue.
var (
	colorOver    = lipgloss.Color("#fb4934")
	colorUnder   = lipgloss.Color("#8ec07c")
	colorPartial = lipgloss.Color("#fabd2f")
	colorID      = lipgloss.Color("#83a598")
	colorMuted   = lipgloss.Color("#928374")
	colorText    = lipgloss.Color("#ebdbb2")
	colorTitle   = lipgloss.Color("#fe8019")
)

var (
	StyleRed    = lipgloss.NewStyle().Foreground(colorOver)
	StyleGreen  = lipgloss.NewStyle().Foreground(colorUnder)
	StyleYellow = lipgloss.NewStyle().Foreground(colorPartial)
	StyleBlue   = lipgloss.NewStyle().Foreground(colorID)
	StyleDim    = lipgloss.NewStyle().Foreground(colorMuted)
	StyleHeader = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	styleBold   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
)

// VarianceStyle colors a variance: spending over plan is red, under plan green.
func VarianceStyle(variance decimal.Decimal) lipgloss.Style {
	switch variance.Sign() {
	case 1:
		return StyleRed
	case -1:
		return StyleGreen
	default:
		return StyleDim
	}
}

// PaymentStatusPill renders a payment status, highlighting the one that
// settles invoices for dir.
func PaymentStatusPill(status domain.PaymentStatus, dir domain.Direction) string {
	label := statusLabel(status)
	switch {
	case status == dir.EligibleStatus():
		return StyleGreen.Render("● " + label)
	case status == domain.PaymentRejected:
		return StyleRed.Render("✖ " + label)
	case status == domain.PaymentPending:
		return StyleDim.Render("○ " + label)
	default:
		return StyleYellow.Render("◐ " + label)
	}
}

// Header upper-cases text and underlines it to its display width.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return styleBold.Render(text)
}
