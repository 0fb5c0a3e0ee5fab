package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Small terminal-formatting helpers, styled the way the teacher's wizard
// reports progress (a banner, section headers, info/warning lines) but
// built directly on lipgloss rather than an internal prompt package, since
// the CLI has no multi-screen wizard flow to justify one.
var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

func printBanner(title string) {
	fmt.Println(bannerStyle.Render(title))
}

func printHeader(title string) {
	fmt.Println(headerStyle.Render(title))
}

func printInfo(msg string) {
	fmt.Println(infoStyle.Render(msg))
}

func printWarning(msg string) {
	fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+msg))
}

func printSuccess(msg string) {
	fmt.Println(successStyle.Render(msg))
}
