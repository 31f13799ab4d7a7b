package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"SwingScore/internal/analysis"
)

// WriteFiles stores the CSV and HTML renderings of rep under dir and returns
// their paths.
func WriteFiles(dir string, rep *analysis.Report, rows []analysis.Row) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Join(dir, fileStem(rep.Symbol)+"_"+rep.Profile)

	csvPath := base + ".csv"
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("create csv: %w", err)
	}
	CSV(f, rows)
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}

	htmlPath := base + ".html"
	f, err = os.Create(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("create chart: %w", err)
	}
	if err := Chart(f, rep, rows); err != nil {
		f.Close()
		return nil, fmt.Errorf("render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return []string{csvPath, htmlPath}, nil
}

// fileStem makes a symbol safe for file names ("^TWII" -> "TWII").
func fileStem(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return -1
	}, symbol)
}
