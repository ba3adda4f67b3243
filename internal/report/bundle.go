package report

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/xllucky21/xllucky/pkg/util"
)

// File names inside a report directory.
const (
	MarkdownFile = "Analysis.md"
	ChartFile    = "Chart_Dashboard.png"
	HTMLFile     = "index.html"
)

// Bundle is the human-facing output of one run.
type Bundle struct {
	Markdown string
	Chart    []byte
	HTML     []byte
}

// WriteBundle writes every non-empty part under dir. A failed part does not
// stop the others; the joined error lists every failure.
func WriteBundle(dir string, b Bundle) error {
	var errs []error
	write := func(name string, data []byte) {
		if len(data) == 0 {
			return
		}
		if err := util.WriteFileAtomic(filepath.Join(dir, name), data); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", name, err))
		}
	}
	write(ChartFile, b.Chart)
	write(MarkdownFile, []byte(b.Markdown))
	write(HTMLFile, b.HTML)
	return errors.Join(errs...)
}
