package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"nodekit/internal/app"
	"nodekit/internal/doctor"
)

var (
	colorGreen  = lipgloss.Color("35")
	colorCyan   = lipgloss.Color("36")
	colorRed    = lipgloss.Color("167")
	colorDim    = lipgloss.Color("240")
	colorYellow = lipgloss.Color("179")
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleVersion = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)

	styleFresh  = lipgloss.NewStyle().Foreground(colorGreen)
	styleCached = lipgloss.NewStyle().Foreground(colorDim)
	styleWarn   = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	iconSuccess = "✓"
	iconDefault = "*"
	iconWarn    = "!"
	iconError   = "✗"
)

func success(msg string) string {
	return styleSuccess.Render(iconSuccess) + " " + msg
}

// fetchMessage renders a fetch result with a fetched or cached badge.
func fetchMessage(res app.FetchResult) string {
	badge := styleCached.Render("[cached]")
	if res.Status == "fetched" {
		badge = styleFresh.Render("[fetched]")
	}
	msg := fmt.Sprintf("%s@%s %s", res.Name, styleVersion.Render(res.Version), badge)
	if res.Npm != "" {
		msg += styleDim.Render(" (npm " + res.Npm + ")")
	}
	if res.Default {
		msg += " default"
	}
	return success(msg)
}

func listLine(e app.ListEntry) string {
	mark := " "
	if e.Default {
		mark = styleSuccess.Render(iconDefault)
	}
	return fmt.Sprintf("%s %-8s %s", mark, e.Tool, styleVersion.Render(e.Version))
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}

func findingLine(f doctor.Finding) string {
	icon := styleWarn.Render(iconWarn)
	if f.Level == "error" {
		icon = styleError.Render(iconError)
	}
	return fmt.Sprintf("%s %s %s", icon, f.Code, styleDim.Render(f.Message))
}
