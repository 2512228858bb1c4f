package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gfranca/ripple/internal/stream"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS notes (
  id INTEGER PRIMARY KEY,
  author_key TEXT NOT NULL,
  thread_root INTEGER NOT NULL DEFAULT 0,
  title TEXT NOT NULL,
  content TEXT,
  summary TEXT,
  url TEXT NOT NULL,
  published_at TEXT NOT NULL,
  fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS authors (
  key TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  about TEXT,
  picture TEXT,
  fetched_at TEXT NOT NULL
);
`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable verifies the database file accepts writes before the TUI
// starts depending on it.
func (r *Repository) CheckWritable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS write_probe (at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create write probe: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.ExecContext(ctx, `INSERT INTO write_probe (at) VALUES (?)`, now); err != nil {
		return fmt.Errorf("insert write probe: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM write_probe`); err != nil {
		return fmt.Errorf("clear write probe: %w", err)
	}
	return nil
}

func (r *Repository) SaveNotes(ctx context.Context, notes []stream.Note) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO notes (id, author_key, thread_root, title, content, summary, url, published_at, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  author_key=excluded.author_key,
  thread_root=excluded.thread_root,
  title=excluded.title,
  content=excluded.content,
  summary=excluded.summary,
  url=excluded.url,
  published_at=excluded.published_at,
  fetched_at=excluded.fetched_at
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, note := range notes {
		_, err := stmt.ExecContext(
			ctx,
			note.ID,
			note.AuthorKey,
			note.ThreadRoot,
			note.Title,
			note.Content,
			note.Summary,
			note.URL,
			note.PublishedAt.UTC().Format(time.RFC3339Nano),
			now,
		)
		if err != nil {
			return fmt.Errorf("save note %d: %w", note.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) SaveAuthors(ctx context.Context, authors []stream.Author) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO authors (key, name, about, picture, fetched_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  name=excluded.name,
  about=excluded.about,
  picture=excluded.picture,
  fetched_at=excluded.fetched_at
`)
	if err != nil {
		return fmt.Errorf("prepare author statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, author := range authors {
		if _, err := stmt.ExecContext(ctx, author.Key, author.Name, author.About, author.Picture, now); err != nil {
			return fmt.Errorf("save author %s: %w", author.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListNotes returns the newest cached notes, author names joined in where a
// profile has been cached.
func (r *Repository) ListNotes(ctx context.Context, limit int) ([]stream.Note, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT n.id, n.author_key, n.thread_root, n.title, n.content, n.summary, n.url, n.published_at,
       COALESCE(a.name, '')
FROM notes n
LEFT JOIN authors a ON a.key = n.author_key
ORDER BY n.published_at DESC, n.id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]stream.Note, 0, limit)
	for rows.Next() {
		var note stream.Note
		var publishedAt string
		if err := rows.Scan(
			&note.ID,
			&note.AuthorKey,
			&note.ThreadRoot,
			&note.Title,
			&note.Content,
			&note.Summary,
			&note.URL,
			&publishedAt,
			&note.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}

		note.PublishedAt, err = time.Parse(time.RFC3339Nano, publishedAt)
		if err != nil {
			return nil, fmt.Errorf("parse note published_at %q: %w", publishedAt, err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return notes, nil
}

func (r *Repository) GetAuthor(ctx context.Context, key string) (stream.Author, bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT key, name, COALESCE(about, ''), COALESCE(picture, '')
FROM authors
WHERE key = ?
`, key)

	var author stream.Author
	err := row.Scan(&author.Key, &author.Name, &author.About, &author.Picture)
	if err == sql.ErrNoRows {
		return stream.Author{}, false, nil
	}
	if err != nil {
		return stream.Author{}, false, fmt.Errorf("scan author: %w", err)
	}
	return author, true, nil
}
