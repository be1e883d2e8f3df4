package chunker

import (
	"strings"
	"testing"
)

// TestSplit_OverlappingWindows tests the window and stride arithmetic.
func TestSplit_OverlappingWindows(t *testing.T) {
	chunks := Split("the cat sat on the mat the cat ran", 5, 2)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	expected := []string{
		"the cat sat on the",
		"on the mat the cat",
		"the cat ran",
	}
	for i, want := range expected {
		if chunks[i] != want {
			t.Errorf("Chunk %d: expected %q, got %q", i, want, chunks[i])
		}
	}
}

// TestSplit_ShortText tests that text shorter than one window yields a single chunk.
func TestSplit_ShortText(t *testing.T) {
	chunks := Split("hello world", 30, 5)

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", chunks[0])
	}
}

// TestSplit_EmptyText tests that empty and whitespace-only input yield no chunks.
func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("", 30, 5); len(chunks) != 0 {
		t.Errorf("Empty text: expected no chunks, got %d", len(chunks))
	}
	if chunks := Split("   \n\t  ", 30, 5); len(chunks) != 0 {
		t.Errorf("Whitespace text: expected no chunks, got %d", len(chunks))
	}
}

// TestSplit_InvalidParams tests that nonsensical window parameters yield no chunks.
func TestSplit_InvalidParams(t *testing.T) {
	cases := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals chunk size", 10, 10},
		{"overlap exceeds chunk size", 10, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if chunks := Split("some words here", tc.chunkSize, tc.overlap); chunks != nil {
				t.Errorf("Expected nil chunks, got %v", chunks)
			}
		})
	}
}

// TestSplit_Deterministic tests that the same input always yields the same chunks.
func TestSplit_Deterministic(t *testing.T) {
	text := "a b c d e f g h i j k l m n o p q r s t u v w x y z"
	first := Split(text, 7, 3)
	second := Split(text, 7, 3)

	if len(first) != len(second) {
		t.Fatalf("Chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Chunk %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

// TestSplit_ReconstructsWordSequence tests that de-duplicating the overlap
// reproduces the original word sequence.
func TestSplit_ReconstructsWordSequence(t *testing.T) {
	text := "one two three four five six seven eight nine ten eleven twelve"
	chunkSize, overlap := 5, 2
	chunks := Split(text, chunkSize, overlap)

	var words []string
	for i, chunk := range chunks {
		parts := strings.Fields(chunk)
		if i > 0 && len(parts) > overlap {
			parts = parts[overlap:]
		} else if i > 0 {
			parts = nil
		}
		words = append(words, parts...)
	}

	got := strings.Join(words, " ")
	if got != text {
		t.Errorf("Reconstruction mismatch:\nwant %q\ngot  %q", text, got)
	}
}

// TestSplit_LastChunkShorter tests that the final window is not padded.
func TestSplit_LastChunkShorter(t *testing.T) {
	chunks := Split("a b c d e f g", 4, 1)

	// Stride 3: windows [a b c d], [d e f g], [g]
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[2] != "g" {
		t.Errorf("Last chunk: expected %q, got %q", "g", chunks[2])
	}
}
