// Package poppler extracts per-page text from PDF files by shelling out
// to pdftotext. The command is executed through a CommandRunner so tests
// can substitute a double.
package poppler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
	"github.com/custodia-labs/folio-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.PageExtractor = (*Extractor)(nil)

// pdftotextBinary is the poppler utility used for extraction.
const pdftotextBinary = "pdftotext"

// Cleaning patterns, applied in order: undo line-wrap hyphenation,
// fold line breaks into spaces, squeeze whitespace runs.
var (
	hyphenBreakRe = regexp.MustCompile(`(\w)-\n(\w)`)
	lineBreakRe   = regexp.MustCompile(`\s*\n\s*`)
	whitespaceRe  = regexp.MustCompile(`\s{2,}`)
)

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor extracts page text using pdftotext.
type Extractor struct {
	runner driven.CommandRunner
}

// New creates an extractor using the system pdftotext binary.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates an extractor with a custom command runner.
// Used by tests.
func NewWithRunner(r driven.CommandRunner) *Extractor {
	return &Extractor{runner: r}
}

// Available reports whether pdftotext is installed.
func Available() bool {
	_, err := exec.LookPath(pdftotextBinary)
	return err == nil
}

// InstallInstructions returns guidance for installing pdftotext.
func InstallInstructions() string {
	return "pdftotext not found. Install poppler:\n" +
		"  macOS:  brew install poppler\n" +
		"  Debian: sudo apt install poppler-utils\n" +
		"  Fedora: sudo dnf install poppler-utils"
}

// Extract returns the ordered (page, raw text) pairs of the PDF at
// path. pdftotext emits a form feed between pages, which is what the
// split relies on.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.PageText, error) {
	out, err := e.runner.Run(ctx, pdftotextBinary, "-enc", "UTF-8", path, "-")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: %s", domain.ErrExtractorUnavailable, InstallInstructions())
		}
		return nil, fmt.Errorf("extracting text from %s: %w", path, err)
	}

	rawPages := strings.Split(string(out), "\f")
	pages := make([]domain.PageText, 0, len(rawPages))
	for i, raw := range rawPages {
		// pdftotext terminates the last page with a form feed too,
		// leaving a trailing empty element.
		if i == len(rawPages)-1 && strings.TrimSpace(raw) == "" {
			continue
		}
		pages = append(pages, domain.PageText{Page: i + 1, Text: raw})
	}

	return pages, nil
}

// Clean normalizes raw page text: rejoins words split across line
// breaks ("conser-\nvation" -> "conservation"), folds remaining line
// breaks into spaces, and collapses whitespace runs.
func (e *Extractor) Clean(raw string) string {
	s := hyphenBreakRe.ReplaceAllString(raw, "$1$2")
	s = lineBreakRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
