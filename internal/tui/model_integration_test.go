package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gfranca/ripple/internal/app"
	"github.com/gfranca/ripple/internal/storage"
	"github.com/gfranca/ripple/internal/stream"
)

// pagedClient serves fixed pages the way the stream API would.
type pagedClient struct {
	pages map[int][]stream.Note
}

func (c *pagedClient) ListNotes(_ context.Context, page, _ int) ([]stream.Note, error) {
	return c.pages[page], nil
}

func (c *pagedClient) GetAuthor(_ context.Context, key string) (stream.Author, error) {
	return stream.Author{Key: key}, nil
}

func (c *pagedClient) ListThread(_ context.Context, _ int64) ([]stream.Note, error) {
	return nil, nil
}

// streamPage builds n notes with descending ids and publish times starting
// at startID, matching the newest-first feed order.
func streamPage(startID int64, n int) []stream.Note {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	notes := make([]stream.Note, n)
	for i := range notes {
		id := startID - int64(i)
		notes[i] = stream.Note{
			ID:          id,
			AuthorKey:   "author-a",
			Title:       "note",
			PublishedAt: base.Add(-time.Duration(startID-id) * time.Minute).Add(-time.Duration(startID) * time.Hour),
		}
	}
	return notes
}

// Drives the real load-more command through the real service and sqlite
// repository: the grown cached sequence must come back whole, ordered and
// duplicate-free, with the cursor still anchored on the same note.
func TestIntegration_LoadMoreKeepsSequenceIntact(t *testing.T) {
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "ripple.db"))
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := repo.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	pageOne := streamPage(1000, defaultPerPage) // ids 1000..951
	pageTwo := streamPage(950, defaultPerPage)  // ids 950..901
	for i := range pageTwo {
		// Page two is strictly older than page one.
		pageTwo[i].PublishedAt = pageOne[len(pageOne)-1].PublishedAt.Add(-time.Duration(i+1) * time.Minute)
	}
	client := &pagedClient{pages: map[int][]stream.Note{1: pageOne, 2: pageTwo}}
	svc := app.NewService(client, repo)

	m := NewModel(svc, nil, nil, nil, nil, nil, nil)
	msg := refreshCmd(svc)()
	refreshed, ok := msg.(refreshSuccessMsg)
	if !ok {
		t.Fatalf("refresh command returned %T", msg)
	}
	m, _ = update(t, m, refreshed)
	if len(m.logical) != defaultPerPage {
		t.Fatalf("expected %d notes after refresh, got %d", defaultPerPage, len(m.logical))
	}

	m.cursor = len(m.notes) - 1
	anchorID := m.notes[m.cursor].ID

	msg = m.loadMoreCmd()()
	loaded, ok := msg.(loadMoreSuccessMsg)
	if !ok {
		t.Fatalf("load-more command returned %T", msg)
	}
	m, _ = update(t, m, loaded)

	if len(m.logical) != 2*defaultPerPage {
		t.Fatalf("expected %d notes after load-more, got %d", 2*defaultPerPage, len(m.logical))
	}
	seen := make(map[int64]struct{}, len(m.logical))
	for i, n := range m.logical {
		if _, dup := seen[n.ID]; dup {
			t.Fatalf("duplicate note id %d at index %d", n.ID, i)
		}
		seen[n.ID] = struct{}{}
	}
	for _, id := range []int64{1000, 951, 950, 901} {
		if _, ok := seen[id]; !ok {
			t.Fatalf("note %d missing from logical sequence", id)
		}
	}
	for i := 1; i < len(m.logical); i++ {
		if m.logical[i].PublishedAt.After(m.logical[i-1].PublishedAt) {
			t.Fatalf("sequence out of order at index %d", i)
		}
	}
	if m.notes[m.cursor].ID != anchorID {
		t.Fatalf("cursor should stay on note %d, points at %d", anchorID, m.notes[m.cursor].ID)
	}
	if !m.hasNextPage {
		t.Fatal("full second page should keep paging open")
	}
	if m.page != 2 {
		t.Fatalf("expected page 2, got %d", m.page)
	}
}
