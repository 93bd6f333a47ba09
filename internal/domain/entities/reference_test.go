package entities

import (
	"regexp"
	"testing"
	"time"
)

func TestNewReferenceFormat(t *testing.T) {
	now := time.Date(2026, 3, 7, 15, 4, 5, 0, time.UTC)
	pattern := regexp.MustCompile(`^[A-Z]{3}-20260307-[A-Z0-9]{5}$`)

	for _, prefix := range []string{ReferencePrefixQuote, ReferencePrefixInvoice, ReferencePrefixTransaction} {
		ref := NewReference(prefix, now)
		if !pattern.MatchString(ref) {
			t.Fatalf("unexpected reference format: %s", ref)
		}
		if ref[:3] != prefix {
			t.Fatalf("expected prefix %s, got %s", prefix, ref)
		}
	}
}

func TestNewReferenceUsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 23:30 local is already the next day in UTC.
	now := time.Date(2026, 3, 7, 23, 30, 0, 0, loc)

	ref := NewReference(ReferencePrefixInvoice, now)
	if ref[4:12] != "20260308" {
		t.Fatalf("expected UTC date 20260308 in %s", ref)
	}
}

func TestNewReferenceNotIdempotent(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[NewReference(ReferencePrefixQuote, now)] = true
	}
	// 36^5 values; 50 draws colliding would mean a broken generator.
	if len(seen) < 2 {
		t.Fatalf("expected distinct references, got %d unique of 50", len(seen))
	}
}
