package stream

import "time"

// Note is the subset of stream API fields required by the client.
type Note struct {
	ID          int64     `json:"id"`
	AuthorKey   string    `json:"author_key"`
	ThreadRoot  int64     `json:"thread_root"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published"`

	AuthorName string `json:"-"`
}

// Author describes the profile metadata attached to a note's author key.
type Author struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	About   string `json:"about"`
	Picture string `json:"picture"`
}
