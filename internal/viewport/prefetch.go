package viewport

import "sync"

// Ledger records which side-channel resources have had a prefetch attempted
// during this process, so independent call sites never re-issue the same
// expensive fetch. It records attempts, not successes: callers add a key
// when they initiate a fetch, and there is no removal or retry-after-failure.
// Construct one per process and inject it into consumers.
type Ledger struct {
	mu      sync.Mutex
	images  map[string]struct{}
	authors map[string]struct{}
	threads map[int64]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		images:  make(map[string]struct{}),
		authors: make(map[string]struct{}),
		threads: make(map[int64]struct{}),
	}
}

func (l *Ledger) IsImagePrefetched(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.images[url]
	return ok
}

func (l *Ledger) AddPrefetchedImage(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[url] = struct{}{}
}

func (l *Ledger) IsAuthorPrefetched(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.authors[key]
	return ok
}

func (l *Ledger) AddPrefetchedAuthor(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.authors[key] = struct{}{}
}

func (l *Ledger) IsThreadPrefetched(rootID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.threads[rootID]
	return ok
}

func (l *Ledger) AddPrefetchedThread(rootID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.threads[rootID] = struct{}{}
}
