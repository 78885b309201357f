// Package bucket derives opaque, deterministic identifiers from calendar
// dates so the remote store can filter rows by day or month without ever
// seeing a date. A bucket is the truncated keyed hash of the date; without
// the bucket key the mapping is computationally unlinkable.
package bucket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	prefixDay   = "day"
	prefixMonth = "month"

	// Buckets keep the first 16 bytes of the HMAC: 128 bits is far beyond
	// any per-user collision concern and halves the index column width.
	truncatedLen = 16
)

// Generator computes buckets under one bucket key. The key is copied at
// construction so later wipes of the keyring do not invalidate in-flight use.
type Generator struct {
	key []byte
}

func NewGenerator(key []byte) *Generator {
	return &Generator{key: append([]byte(nil), key...)}
}

// Bucket returns the hex form of the first 16 bytes of
// HMAC-SHA256(key, prefix || ":" || value).
func (g *Generator) Bucket(prefix, value string) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(prefix))
	mac.Write([]byte(":"))
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil)[:truncatedLen])
}

// ForDay buckets a calendar date in YYYY-MM-DD form.
func (g *Generator) ForDay(date string) string {
	return g.Bucket(prefixDay, date)
}

// ForMonth buckets a year-month in YYYY-MM form.
func (g *Generator) ForMonth(yearMonth string) string {
	return g.Bucket(prefixMonth, yearMonth)
}

// ForHabitDay buckets one habit's completion state on one date. The composite
// value goes through the day prefix so habit logs share the entries' scheme.
func (g *Generator) ForHabitDay(habitID, date string) string {
	return g.Bucket(prefixDay, habitID+":"+date)
}
