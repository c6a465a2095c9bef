package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Files returns the names of the entries in dir, sorted.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// PrintListing writes the absolute output directory and its sorted contents.
// Color is applied only when w is a terminal.
func PrintListing(w io.Writer, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving output directory: %w", err)
	}
	names, err := Files(dir)
	if err != nil {
		return err
	}

	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true)
	pathStyle := r.NewStyle().Foreground(lipgloss.Color("39"))
	bullet := r.NewStyle().Foreground(lipgloss.Color("245"))

	if _, err := fmt.Fprintln(w, header.Render("Wrote outputs to:"), pathStyle.Render(abs)); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(w, bullet.Render(" -"), name); err != nil {
			return err
		}
	}
	return nil
}
