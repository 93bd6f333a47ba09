package entities

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Reference prefixes per entity type.
const (
	ReferencePrefixQuote       = "QUO"
	ReferencePrefixInvoice     = "INV"
	ReferencePrefixTransaction = "TRX"
)

const referenceSuffixLen = 5

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReference produces a human-readable business identifier of the form
// <PREFIX>-<YYYYMMDD>-<5-char-uppercase-suffix>, e.g. INV-20260115-K39QZ.
//
// The generator does not guarantee uniqueness on its own; persistence
// enforces a unique constraint on the reference and callers treat a
// violation as a retryable conflict. Each call yields a fresh value, so it
// must run at most once per creation attempt.
func NewReference(prefix string, now time.Time) string {
	var buf [referenceSuffixLen]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the clock so creation still proceeds.
		ns := now.UnixNano()
		for i := range buf {
			buf[i] = byte(ns >> (8 * i))
		}
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), string(buf[:]))
}
