// Package chunker splits document text into overlapping word windows for
// embedding and retrieval.
package chunker

import "strings"

const (
	// DefaultChunkSize is the window width in words.
	DefaultChunkSize = 30

	// DefaultOverlap is how many words consecutive windows share.
	DefaultOverlap = 5
)

// Split breaks text into chunks of chunkSize whitespace-separated words.
// Consecutive chunks share overlap words; the window start advances by
// chunkSize-overlap each step. The final chunk may be shorter than chunkSize.
// Empty or all-whitespace text yields no chunks; text shorter than one window
// yields a single chunk with all words. The output is deterministic for a
// given input, so rebuilding a store from the same documents reproduces the
// same chunk sequence.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := min(start+chunkSize, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
