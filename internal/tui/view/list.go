package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	tuitheme "github.com/gfranca/ripple/internal/tui/theme"

	"github.com/gfranca/ripple/internal/stream"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type NoteLineParams struct {
	Note   stream.Note
	Now    time.Time
	Active bool
	Width  int
	// ThreadReplies is the known reply count, -1 when not yet fetched.
	ThreadReplies int
}

// RenderNoteLine draws one list row: cursor marker, author, title, an
// optional thread badge, and a right-aligned relative timestamp.
func RenderNoteLine(p NoteLineParams, th tuitheme.Theme) string {
	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}
	prefix := fmt.Sprintf(" %s ", cursorMarker)

	author := AuthorLabel(p.Note)
	badge := ""
	if p.ThreadReplies > 0 {
		badge = fmt.Sprintf(" [+%d]", p.ThreadReplies)
	}
	timeLabel := RelativeTimeLabel(p.Now, p.Note.PublishedAt)

	available := p.Width - visibleLen(prefix) - visibleLen(author) - 2 - visibleLen(badge) - 1 - visibleLen(timeLabel)
	if available < 1 {
		available = 1
	}
	title := truncateRunes(strings.TrimSpace(p.Note.Title), available)

	left := prefix + th.Author.Render(author) + ": " + th.NoteTitle.Render(title) + th.ThreadBadge.Render(badge)
	gap := p.Width - visibleLen(left) - visibleLen(timeLabel)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, left+strings.Repeat(" ", gap)+th.Timestamp.Render(timeLabel))
}

func AuthorLabel(n stream.Note) string {
	if name := strings.TrimSpace(n.AuthorName); name != "" {
		return name
	}
	if key := strings.TrimSpace(n.AuthorKey); key != "" {
		return key
	}
	return "unknown"
}

func RelativeTimeLabel(now, then time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	if then.IsZero() {
		return "unknown"
	}
	if then.After(now) {
		return "just now"
	}
	d := now.Sub(then)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", n)
	}
	if d < 24*time.Hour {
		n := int(d / time.Hour)
		if n == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", n)
	}
	n := int(d / (24 * time.Hour))
	if n == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", n)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(reANSICodes.ReplaceAllString(s, ""))
}
