package app

import (
	"context"
	"fmt"

	"github.com/gfranca/ripple/internal/stream"
)

// DefaultCacheLimit bounds how many cached notes are loaded for the first
// paint before the initial refresh lands.
const DefaultCacheLimit = 200

type StreamClient interface {
	ListNotes(ctx context.Context, page, perPage int) ([]stream.Note, error)
	GetAuthor(ctx context.Context, key string) (stream.Author, error)
	ListThread(ctx context.Context, rootID int64) ([]stream.Note, error)
}

type Repository interface {
	SaveNotes(ctx context.Context, notes []stream.Note) error
	SaveAuthors(ctx context.Context, authors []stream.Author) error
	ListNotes(ctx context.Context, limit int) ([]stream.Note, error)
	GetAuthor(ctx context.Context, key string) (stream.Author, bool, error)
}

// Service is the pagination engine: it fetches pages from the stream API,
// caches them, and hands the TUI the full cached sequence up to a limit.
type Service struct {
	client StreamClient
	repo   Repository
}

func NewService(client StreamClient, repo Repository) *Service {
	return &Service{client: client, repo: repo}
}

func (s *Service) Refresh(ctx context.Context, page, perPage int) ([]stream.Note, error) {
	notes, err := s.client.ListNotes(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("fetch notes from stream: %w", err)
	}
	if err := s.repo.SaveNotes(ctx, notes); err != nil {
		return nil, fmt.Errorf("save notes to cache: %w", err)
	}

	cached, err := s.repo.ListNotes(ctx, perPage)
	if err != nil {
		return nil, fmt.Errorf("load notes from cache: %w", err)
	}
	return cached, nil
}

func (s *Service) ListCached(ctx context.Context, limit int) ([]stream.Note, error) {
	notes, err := s.repo.ListNotes(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load notes from cache: %w", err)
	}
	return notes, nil
}

// LoadMore fetches one further page and returns the grown cached sequence
// plus how many notes the page actually contained. A short page means the
// source is exhausted.
func (s *Service) LoadMore(ctx context.Context, page, perPage, limit int) ([]stream.Note, int, error) {
	notes, err := s.client.ListNotes(ctx, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch notes from stream: %w", err)
	}
	if len(notes) > 0 {
		if err := s.repo.SaveNotes(ctx, notes); err != nil {
			return nil, 0, fmt.Errorf("save notes to cache: %w", err)
		}
	}

	cached, err := s.repo.ListNotes(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("load notes from cache: %w", err)
	}
	return cached, len(notes), nil
}

// GetAuthor serves profiles cache-first; a miss goes to the API and is
// written back.
func (s *Service) GetAuthor(ctx context.Context, key string) (stream.Author, error) {
	author, found, err := s.repo.GetAuthor(ctx, key)
	if err != nil {
		return stream.Author{}, fmt.Errorf("load author from cache: %w", err)
	}
	if found {
		return author, nil
	}

	author, err = s.client.GetAuthor(ctx, key)
	if err != nil {
		return stream.Author{}, fmt.Errorf("fetch author from stream: %w", err)
	}
	if err := s.repo.SaveAuthors(ctx, []stream.Author{author}); err != nil {
		return stream.Author{}, fmt.Errorf("save author to cache: %w", err)
	}
	return author, nil
}

func (s *Service) ListThread(ctx context.Context, rootID int64) ([]stream.Note, error) {
	notes, err := s.client.ListThread(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("fetch thread from stream: %w", err)
	}
	if len(notes) > 0 {
		if err := s.repo.SaveNotes(ctx, notes); err != nil {
			return nil, fmt.Errorf("save thread to cache: %w", err)
		}
	}
	return notes, nil
}
