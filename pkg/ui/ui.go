// Package ui holds the terminal styles shared by fwhook's console output.
package ui

import (
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
)

// GetFangScheme returns the same light/dark-aware color scheme fang uses.
func GetFangScheme() fang.ColorScheme {
	isDark := lipgloss.HasDarkBackground(os.Stdin, os.Stdout)
	return fang.DefaultColorScheme(lipgloss.LightDark(isDark))
}

const keyWidth = 20

// KeyValueStyles returns the styles used to render `key  value` listings such
// as `fwhook env`.
func KeyValueStyles() (lipgloss.Style, lipgloss.Style) {
	colorScheme := GetFangScheme()

	keyStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorScheme.Flag).
		Width(keyWidth)

	valueStyle := lipgloss.NewStyle().
		Foreground(colorScheme.Base)

	return keyStyle, valueStyle
}
