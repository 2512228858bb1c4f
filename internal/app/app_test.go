package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gfranca/ripple/internal/stream"
)

type fakeClient struct {
	pages       map[int][]stream.Note
	authors     map[string]stream.Author
	authorCalls int
}

func (f *fakeClient) ListNotes(ctx context.Context, page, perPage int) ([]stream.Note, error) {
	return f.pages[page], nil
}

func (f *fakeClient) GetAuthor(ctx context.Context, key string) (stream.Author, error) {
	f.authorCalls++
	author, ok := f.authors[key]
	if !ok {
		return stream.Author{}, errors.New("unknown author")
	}
	return author, nil
}

func (f *fakeClient) ListThread(ctx context.Context, rootID int64) ([]stream.Note, error) {
	return f.pages[-1], nil
}

type fakeRepo struct {
	notes   map[int64]stream.Note
	authors map[string]stream.Author
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{notes: make(map[int64]stream.Note), authors: make(map[string]stream.Author)}
}

func (f *fakeRepo) SaveNotes(ctx context.Context, notes []stream.Note) error {
	for _, n := range notes {
		f.notes[n.ID] = n
	}
	return nil
}

func (f *fakeRepo) SaveAuthors(ctx context.Context, authors []stream.Author) error {
	for _, a := range authors {
		f.authors[a.Key] = a
	}
	return nil
}

func (f *fakeRepo) ListNotes(ctx context.Context, limit int) ([]stream.Note, error) {
	// Same coercion as the sqlite repository.
	if limit < 1 {
		limit = 20
	}
	out := make([]stream.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	// Newest first, matching the sqlite repository ordering.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].PublishedAt.After(out[i].PublishedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) GetAuthor(ctx context.Context, key string) (stream.Author, bool, error) {
	a, ok := f.authors[key]
	return a, ok, nil
}

func noteAt(id int64, day int) stream.Note {
	return stream.Note{
		ID:          id,
		AuthorKey:   "alice",
		Title:       "note",
		URL:         "https://example.com",
		PublishedAt: time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestRefresh_SavesAndReturnsCached(t *testing.T) {
	client := &fakeClient{pages: map[int][]stream.Note{1: {noteAt(1, 2), noteAt(2, 1)}}}
	repo := newFakeRepo()
	svc := NewService(client, repo)

	notes, err := svc.Refresh(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if len(repo.notes) != 2 {
		t.Fatalf("expected notes cached, got %d", len(repo.notes))
	}
}

func TestLoadMore_ReportsFetchedCount(t *testing.T) {
	client := &fakeClient{pages: map[int][]stream.Note{
		1: {noteAt(1, 3), noteAt(2, 2)},
		2: {noteAt(3, 1)},
	}}
	repo := newFakeRepo()
	svc := NewService(client, repo)

	if _, err := svc.Refresh(context.Background(), 1, 2); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	notes, fetched, err := svc.LoadMore(context.Background(), 2, 2, 10)
	if err != nil {
		t.Fatalf("LoadMore returned error: %v", err)
	}
	if fetched != 1 {
		t.Fatalf("expected fetched count 1, got %d", fetched)
	}
	if len(notes) != 3 {
		t.Fatalf("expected grown sequence of 3, got %d", len(notes))
	}

	_, fetched, err = svc.LoadMore(context.Background(), 3, 2, 10)
	if err != nil {
		t.Fatalf("LoadMore returned error: %v", err)
	}
	if fetched != 0 {
		t.Fatalf("expected exhausted source, got fetched=%d", fetched)
	}
}

func TestGetAuthor_CacheThrough(t *testing.T) {
	client := &fakeClient{authors: map[string]stream.Author{"alice": {Key: "alice", Name: "Alice"}}}
	repo := newFakeRepo()
	svc := NewService(client, repo)

	author, err := svc.GetAuthor(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetAuthor returned error: %v", err)
	}
	if author.Name != "Alice" {
		t.Fatalf("unexpected author: %+v", author)
	}
	if client.authorCalls != 1 {
		t.Fatalf("expected 1 API call, got %d", client.authorCalls)
	}

	if _, err := svc.GetAuthor(context.Background(), "alice"); err != nil {
		t.Fatalf("second GetAuthor returned error: %v", err)
	}
	if client.authorCalls != 1 {
		t.Fatalf("expected cache hit, got %d API calls", client.authorCalls)
	}
}
