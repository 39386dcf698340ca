// Package status renders timer state as short human-readable text shared
// by the tray, the terminal UI and the CLI.
package status

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"focus/internal/core/model"
)

var titleCaser = cases.Title(language.English)

// Title returns the phase label in title case, e.g. "Free Time".
func Title(phase model.Phase) string {
	return titleCaser.String(phase.Label())
}

// Line summarizes a snapshot in one line, e.g. "Focus: 12 min left".
func Line(snapshot model.Snapshot) string {
	remaining, ok := snapshot.DisplayRemaining()
	if !ok {
		return Title(snapshot.Phase)
	}
	return fmt.Sprintf("%s: %s left", Title(snapshot.Phase), Minutes(remaining))
}

// Counters summarizes the accrued totals.
func Counters(counters model.Counters) string {
	return fmt.Sprintf("Focused %s, free time available %s",
		Minutes(counters.FocusMinutesAccrued), Minutes(counters.FreeMinutesBalance))
}

// Minutes formats a whole number of minutes. Negative values show as zero.
func Minutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes == 1 {
		return "1 min"
	}
	if minutes >= 60 && minutes%60 == 0 {
		return fmt.Sprintf("%d h", minutes/60)
	}
	if minutes > 60 {
		return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d min", minutes)
}

// Badge is the compact countdown shown next to the tray icon.
func Badge(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d", minutes)
}
