package chunker

import (
	"strings"
	"testing"
)

// TestPlainText_StripsMarkdown tests that structure is removed but prose kept.
func TestPlainText_StripsMarkdown(t *testing.T) {
	source := []byte(`# Title

Hello *world*, this is **bold** and [a link](https://example.com).

## Section

- item one
- item two

` + "```go" + `
func main() {}
` + "```" + `
`)

	text := PlainText(source)

	for _, want := range []string{"Title", "Hello", "world", "bold", "a link", "item one", "func main() {}"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}
	for _, bad := range []string{"#", "**", "](", "```"} {
		if strings.Contains(text, bad) {
			t.Errorf("Expected markdown syntax %q to be stripped, got:\n%s", bad, text)
		}
	}
}

// TestPlainText_PlainInput tests that plain prose survives unchanged modulo whitespace.
func TestPlainText_PlainInput(t *testing.T) {
	source := "the cat sat on the mat"
	text := PlainText([]byte(source))

	if strings.Join(strings.Fields(text), " ") != source {
		t.Errorf("Expected %q, got %q", source, text)
	}
}

// TestPlainText_Empty tests empty input.
func TestPlainText_Empty(t *testing.T) {
	if text := PlainText(nil); text != "" {
		t.Errorf("Expected empty output, got %q", text)
	}
}
