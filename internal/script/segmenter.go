// Package script turns raw generation output into consumable content: it
// segments delimited narrative streams into ordered parts and parses
// structured-mode content plans.
package script

import "strings"

// Segmenter incrementally splits accumulated stream text into ordered parts
// on a sentinel delimiter. The whole buffer is re-split on every feed, so
// chunk boundaries falling inside the delimiter are harmless. The final
// part is provisional until Finalize.
type Segmenter struct {
	delimiter   string
	accumulated strings.Builder
	chunks      int
	frozen      bool
}

// NewSegmenter creates a segmenter for the given delimiter.
func NewSegmenter(delimiter string) *Segmenter {
	return &Segmenter{delimiter: delimiter}
}

// Feed appends a chunk to the accumulated text. Chunks must be fed in
// arrival order; feeding after Finalize is ignored.
func (s *Segmenter) Feed(chunk string) {
	if s.frozen {
		return
	}
	s.accumulated.WriteString(chunk)
	s.chunks++
}

// Parts returns the ordered non-empty trimmed segments of the accumulated
// text. While the stream is open the last element may still grow.
func (s *Segmenter) Parts() []string {
	raw := strings.Split(s.accumulated.String(), s.delimiter)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Finalize freezes the segmenter and returns the finished parts. The
// previously provisional final element becomes a finished part.
func (s *Segmenter) Finalize() []string {
	s.frozen = true
	return s.Parts()
}

// Accumulated returns the full text received so far.
func (s *Segmenter) Accumulated() string {
	return s.accumulated.String()
}

// ChunkCount returns the number of chunks fed.
func (s *Segmenter) ChunkCount() int {
	return s.chunks
}

// Frozen reports whether Finalize has been called.
func (s *Segmenter) Frozen() bool {
	return s.frozen
}
