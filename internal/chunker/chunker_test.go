package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

func TestSplitConfigErrors(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split("some text", tc.size, tc.overlap)
			if !errors.Is(err, domain.ErrInvalidChunking) {
				t.Errorf("expected ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	chunks, err := Split("", 100, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestSplitWhitespaceOnlyWindowsDropped(t *testing.T) {
	chunks, err := Split("   \n\t  ", 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected all-whitespace windows to be dropped, got %v", chunks)
	}
}

func TestSplitScenarioFiveThousandChars(t *testing.T) {
	// 5000 characters at size 2000 / overlap 200 produce windows at
	// offsets 0, 1800 and 3600.
	text := strings.Repeat("a", 5000)
	chunks, err := Split(text, 2000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 2000 || len(chunks[1]) != 2000 || len(chunks[2]) != 1400 {
		t.Errorf("unexpected chunk lengths: %d, %d, %d",
			len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplitDeterminism(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 100)
	first, err := Split(text, 300, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Split(text, 300, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitCoversWholeText(t *testing.T) {
	// With no trimming in play, the windows must cover the text to its
	// last byte.
	text := strings.Repeat("x", 4321)
	chunks, err := Split(text, 1000, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	covered := 0
	step := 1000 - 100
	for i, c := range chunks {
		end := i*step + len(c)
		if end > covered {
			covered = end
		}
	}
	if covered < len(text) {
		t.Errorf("windows cover %d of %d bytes", covered, len(text))
	}
}

func TestSplitOverlapDuplicatesContent(t *testing.T) {
	text := strings.Repeat("b", 1000)
	chunks, err := Split(text, 600, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	// The tail of chunk 0 reappears at the head of chunk 1.
	tail := chunks[0][len(chunks[0])-200:]
	head := chunks[1][:200]
	if tail != head {
		t.Error("expected 200 overlapping bytes between adjacent chunks")
	}
}

func TestSplitMultiByteRunesStayIntact(t *testing.T) {
	// Windows count runes, so a boundary can never fall inside a
	// multi-byte character. 1200 runes of CJK text at size 1000 /
	// overlap 100 produce windows at rune offsets 0 and 900.
	text := strings.Repeat("日本語テキスト", 200)
	chunks, err := Split(text, 1000, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
	if n := utf8.RuneCountInString(chunks[0]); n != 1000 {
		t.Errorf("chunk 0 has %d runes, want 1000", n)
	}
	if n := utf8.RuneCountInString(chunks[1]); n != 300 {
		t.Errorf("chunk 1 has %d runes, want 300", n)
	}
	// The overlap region is rune-aligned too.
	runes := []rune(chunks[0])
	if tail := string(runes[len(runes)-100:]); chunks[1][:len(tail)] != tail {
		t.Error("expected 100 overlapping runes between adjacent chunks")
	}
}

func TestSplitZeroOverlap(t *testing.T) {
	text := "abcdefghij"
	chunks, err := Split(text, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"abc", "def", "ghi", "j"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}
