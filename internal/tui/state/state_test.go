package state

import (
	"testing"
	"time"

	"github.com/gfranca/ripple/internal/stream"
)

func TestClampCursor(t *testing.T) {
	if got := ClampCursor(-1, 3); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
	if got := ClampCursor(3, 3); got != 2 {
		t.Fatalf("expected clamp to 2, got %d", got)
	}
	if got := ClampCursor(1, 3); got != 1 {
		t.Fatalf("expected keep 1, got %d", got)
	}
	if got := ClampCursor(5, 0); got != 0 {
		t.Fatalf("expected 0 for empty list, got %d", got)
	}
}

func TestPageStep(t *testing.T) {
	if got := PageStep(0, false); got != 10 {
		t.Fatalf("expected default step 10, got %d", got)
	}
	if got := PageStep(12, false); got != 6 {
		t.Fatalf("expected step 6, got %d", got)
	}
	if got := PageStep(12, true); got != 4 {
		t.Fatalf("expected step 4 with status, got %d", got)
	}
}

func TestCenteredWindow(t *testing.T) {
	start, end := CenteredWindow(5, 3, 3)
	if start != 2 || end != 5 {
		t.Fatalf("unexpected window: start=%d end=%d", start, end)
	}
	start, end = CenteredWindow(5, 0, 3)
	if start != 0 || end != 3 {
		t.Fatalf("unexpected window at top: start=%d end=%d", start, end)
	}
	start, end = CenteredWindow(3, 1, 10)
	if start != 0 || end != 3 {
		t.Fatalf("short list should be fully visible: start=%d end=%d", start, end)
	}
}

func TestNoteIndexByID(t *testing.T) {
	notes := []stream.Note{
		{ID: 10, PublishedAt: time.Now().UTC()},
		{ID: 20, PublishedAt: time.Now().UTC()},
	}
	if got := NoteIndexByID(notes, 20); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if got := NoteIndexByID(notes, 99); got != -1 {
		t.Fatalf("expected -1 for unknown id, got %d", got)
	}
}
