package session

import (
	"errors"
	"testing"
)

func TestStore_SetGetDelete(t *testing.T) {
	s := NewStore()

	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss for unset key")
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Fatalf("unexpected value: %q ok=%v", v, ok)
	}
	s.Delete("k")
	if _, ok := s.Get("k"); ok {
		t.Fatal("expected key deleted")
	}
}

func TestStore_QuotaExceeded(t *testing.T) {
	s := NewStoreWithQuota(10)

	if err := s.Set("abc", "defgh"); err != nil {
		t.Fatalf("Set within quota returned error: %v", err)
	}
	if err := s.Set("xyz", "0123456789"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	// Overwrites are charged against the replaced value, not added on top.
	if err := s.Set("abc", "defgi"); err != nil {
		t.Fatalf("overwrite within quota returned error: %v", err)
	}
	// Deleting frees quota again.
	s.Delete("abc")
	if err := s.Set("ab", "12345678"); err != nil {
		t.Fatalf("Set after delete returned error: %v", err)
	}
}

func TestStore_JSONRoundTrip(t *testing.T) {
	s := NewStore()

	type payload struct {
		N int    `json:"n"`
		S string `json:"s"`
	}
	if err := s.SetJSON("p", payload{N: 7, S: "hi"}); err != nil {
		t.Fatalf("SetJSON returned error: %v", err)
	}

	var out payload
	found, err := s.GetJSON("p", &out)
	if err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if !found || out.N != 7 || out.S != "hi" {
		t.Fatalf("unexpected payload: found=%v out=%+v", found, out)
	}

	found, err = s.GetJSON("nope", &out)
	if found || err != nil {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}

	_ = s.Set("bad", "{not json")
	found, err = s.GetJSON("bad", &out)
	if !found || err == nil {
		t.Fatalf("expected malformed error, got found=%v err=%v", found, err)
	}
}

func TestStore_RestoringFlag(t *testing.T) {
	s := NewStore()

	if s.Restoring() {
		t.Fatal("expected restoring off by default")
	}
	s.SetRestoring(true)
	if !s.Restoring() {
		t.Fatal("expected restoring on")
	}
	if v, ok := s.Get(KeyRestoringScroll); !ok || v != "true" {
		t.Fatalf("expected truthy string flag, got %q ok=%v", v, ok)
	}
	s.SetRestoring(false)
	if s.Restoring() {
		t.Fatal("expected restoring cleared")
	}
}

func TestStore_IDIsStable(t *testing.T) {
	s := NewStore()
	if s.ID() == "" {
		t.Fatal("expected non-empty session id")
	}
	if s.ID() != s.ID() {
		t.Fatal("expected stable session id")
	}
}
