// Package chunker provides deterministic overlapping text windowing.
//
// A chunker walks cleaned page text left to right producing windows of a
// target length with a fixed overlap. The final window always reaches
// exactly the end of the text, so concatenating windows (minus overlaps)
// reconstructs the input.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/folio-cli/internal/core/domain"
)

// DefaultSize is the default window length in characters.
const DefaultSize = 800

// DefaultOverlap is the default number of overlapping characters
// between consecutive windows.
const DefaultOverlap = 120

// Window is one text window with its character offsets in the input.
type Window struct {
	// Start is the offset of the window's first character.
	Start int

	// End is the offset one past the window's last character.
	End int

	// Text is the input substring [Start, End).
	Text string
}

// Chunker splits text into overlapping windows.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker with the given window size and overlap.
// It fails fast on invalid parameters: size must be positive and the
// overlap must satisfy 0 <= overlap < size, otherwise the advance step
// would stall.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d",
			domain.ErrInvalidInput, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured window length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split produces the ordered windows covering text. Empty text yields
// no windows.
func (c *Chunker) Split(text string) []Window {
	if text == "" {
		return nil
	}

	n := len(text)
	windows := make([]Window, 0, n/(c.size-c.overlap)+1)

	start := 0
	for start < n {
		end := start + c.size
		if end > n {
			end = n
		}

		windows = append(windows, Window{Start: start, End: end, Text: text[start:end]})

		if end == n {
			break
		}
		start = end - c.overlap
		if start < 0 {
			start = 0
		}
	}

	return windows
}
