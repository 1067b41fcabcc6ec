// Package news holds the domain model shared by the normalizer, the cache
// stores, and the presenters.
package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	errs "github.com/mvoitenko/rssreader/internal/errors"
)

// ErrNoCache signals that the cache store holds no records yet. Callers
// report it as an informational notice, not a failure.
var ErrNoCache = errors.New("no cached news yet")

type (
	// Image pairs an original image URL with the file it was mirrored to.
	Image struct {
		URL  string `json:"url" bson:"url"`
		Path string `json:"path" bson:"path"`
	}

	// Record is the flat representation of one feed item. It is immutable
	// once the normalizer produced it; stores persist it verbatim.
	Record struct {
		FeedTitle   string  `json:"feed_title" bson:"feed_title"`
		FeedURL     string  `json:"feed_url" bson:"feed_url"`
		Title       string  `json:"title" bson:"title"`
		Link        string  `json:"link" bson:"link"`
		Published   string  `json:"published" bson:"published"` // YYYY-MM-DD
		Description string  `json:"description" bson:"description"`
		Images      []Image `json:"images" bson:"images"`
	}

	// Query selects cached records by publication date, optionally narrowed
	// to one source feed and capped to a maximum count.
	Query struct {
		FeedURL string
		Date    string // YYYYMMDD
		Limit   int    // 0 means no cap
	}

	// Store is the persisted record collection. Merge appends every record
	// whose digest is not stored yet, keeping insertion order.
	Store interface {
		Merge(ctx context.Context, records []Record) error
		All(ctx context.Context) ([]Record, error)
		Select(ctx context.Context, q Query) ([]Record, error)
	}
)

// Digest returns the structural identity of the record: two records equal in
// every field share a digest. Used by the stores to deduplicate on merge.
func (r Record) Digest() string {
	if r.Images == nil {
		r.Images = []Image{}
	}
	b, _ := json.Marshal(r)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// NormalizeDate renders a parsed publish time as the date string carried by
// Record.Published.
func NormalizeDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// CheckLimit rejects non-positive limit values. It runs before any network
// or storage work.
func CheckLimit(n int) error {
	if n <= 0 {
		return errs.E(errs.KindValidation, fmt.Errorf("wrong --limit value %d: limit must be a positive number", n))
	}
	return nil
}

// Validate rejects malformed dates and negative limits.
func (q Query) Validate() error {
	if _, err := time.Parse("20060102", q.Date); err != nil {
		return errs.E(errs.KindValidation, fmt.Errorf("wrong --date value %q: expected YYYYMMDD", q.Date))
	}
	if q.Limit < 0 {
		return errs.E(errs.KindValidation, fmt.Errorf("wrong --limit value %d: limit must be a positive number", q.Limit))
	}
	return nil
}

// DateISO returns the query date in the dashed form records are stored with.
func (q Query) DateISO() string {
	t, err := time.Parse("20060102", q.Date)
	if err != nil {
		return strings.TrimSpace(q.Date)
	}
	return t.Format("2006-01-02")
}
