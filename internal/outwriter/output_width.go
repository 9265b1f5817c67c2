package outwriter

import (
	"os"

	"github.com/huangsam/blameledger/internal/contract"
	"golang.org/x/term"
)

// Bounds of the one flexible column of a table.
const (
	minFlexWidth = 15
	maxFlexWidth = 70
)

// getTerminalWidth returns the configured width, the detected terminal width, or 80.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}

// getMaxColumnWidth returns the room left for the flexible column (an author
// name or a path) once fixedWidth is taken by the other columns.
func getMaxColumnWidth(cfg *contract.Config, fixedWidth int) int {
	// Borders, separators and padding
	available := getTerminalWidth(cfg) - fixedWidth - 20
	return max(minFlexWidth, min(available, maxFlexWidth))
}
