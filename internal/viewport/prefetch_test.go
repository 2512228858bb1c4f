package viewport

import "testing"

func TestLedger_ImageAttempts(t *testing.T) {
	l := NewLedger()

	if l.IsImagePrefetched("https://example.com/a.png") {
		t.Fatal("expected unknown image to be unprefetched")
	}
	l.AddPrefetchedImage("https://example.com/a.png")
	if !l.IsImagePrefetched("https://example.com/a.png") {
		t.Fatal("expected image recorded after add")
	}
	// Repeated adds are idempotent.
	l.AddPrefetchedImage("https://example.com/a.png")
	if !l.IsImagePrefetched("https://example.com/a.png") {
		t.Fatal("expected image still recorded after repeated add")
	}
	if l.IsImagePrefetched("https://example.com/b.png") {
		t.Fatal("expected other keys unaffected")
	}
}

func TestLedger_NamespacesAreIndependent(t *testing.T) {
	l := NewLedger()

	l.AddPrefetchedAuthor("alice")
	if !l.IsAuthorPrefetched("alice") {
		t.Fatal("expected author recorded")
	}
	if l.IsImagePrefetched("alice") {
		t.Fatal("author add must not leak into image namespace")
	}

	l.AddPrefetchedThread(42)
	if !l.IsThreadPrefetched(42) {
		t.Fatal("expected thread recorded")
	}
	if l.IsThreadPrefetched(43) {
		t.Fatal("expected other thread roots unaffected")
	}
}
