package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"learnquick/internal/domain"
)

func TestSegment_ThreeWindows(t *testing.T) {
	text := strings.Repeat("abcdefghij", 120)
	chunks, err := Segment(text, 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].StartOffset != 450 {
		t.Errorf("expected chunk 2 to start at 450, got %d", chunks[1].StartOffset)
	}
	if chunks[2].StartOffset != 900 || chunks[2].EndOffset != 1200 {
		t.Errorf("unexpected final window [%d,%d)", chunks[2].StartOffset, chunks[2].EndOffset)
	}
	for i, c := range chunks {
		if c.ID != i {
			t.Errorf("chunk %d has id %d", i, c.ID)
		}
		if c.EndOffset-c.StartOffset > 500 {
			t.Errorf("chunk %d exceeds chunk size", i)
		}
	}
}

func TestSegment_Deterministic(t *testing.T) {
	text := "The mitochondria is the powerhouse of the cell. " + strings.Repeat("ATP synthesis ", 40)
	a, err := Segment(text, 64, 16)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Segment(text, 64, 16)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two segmentations of the same input differ")
	}
}

func TestSegment_Coverage(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
	}{
		{"no overlap", strings.Repeat("xyz", 101), 10, 0},
		{"with overlap", "Photosynthesis converts light energy into chemical energy stored in glucose.", 12, 5},
		{"short text", "tiny", 500, 50},
		{"multibyte", strings.Repeat("ünïcödé ", 30), 17, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Segment(tt.text, tt.chunkSize, tt.overlap)
			if err != nil {
				t.Fatal(err)
			}
			var b strings.Builder
			covered := 0
			for i, c := range chunks {
				if i > 0 && c.StartOffset <= chunks[i-1].StartOffset {
					t.Fatalf("start offsets not strictly increasing at %d", i)
				}
				if i > 0 && i < len(chunks)-1 && chunks[i-1].EndOffset-c.StartOffset != tt.overlap {
					t.Errorf("chunk %d overlaps previous by %d, want %d", i, chunks[i-1].EndOffset-c.StartOffset, tt.overlap)
				}
				runes := []rune(c.Text)
				skip := covered - c.StartOffset
				if skip < 0 {
					t.Fatalf("gap before chunk %d", i)
				}
				if skip < len(runes) {
					b.WriteString(string(runes[skip:]))
					covered = c.EndOffset
				}
			}
			if b.String() != tt.text {
				t.Errorf("reconstruction mismatch:\n got %q\nwant %q", b.String(), tt.text)
			}
		})
	}
}

func TestSegment_EmptyText(t *testing.T) {
	chunks, err := Segment("", 500, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestNewWindowChunker_RejectsBadGeometry(t *testing.T) {
	tests := []struct {
		chunkSize, overlap int
	}{
		{500, 500},
		{500, 600},
		{0, 0},
		{-1, 0},
		{10, -1},
	}
	for _, tt := range tests {
		if _, err := NewWindowChunker(tt.chunkSize, tt.overlap); !errors.Is(err, domain.ErrInvalidChunking) {
			t.Errorf("NewWindowChunker(%d, %d) err = %v, want ErrInvalidChunking", tt.chunkSize, tt.overlap, err)
		}
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("Cell\n\n  biology\t101 \r\n")
	if got != "Cell biology 101 " {
		t.Errorf("CleanText = %q", got)
	}
}
