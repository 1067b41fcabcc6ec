package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	errs "github.com/mvoitenko/rssreader/internal/errors"
	"github.com/mvoitenko/rssreader/internal/news"
)

// recordRow is the table shape of a record. Image pairs travel as a JSON
// column; the digest column carries the structural identity used for
// merge deduplication.
type recordRow struct {
	ID          string `db:"id"`
	Digest      string `db:"digest"`
	FeedTitle   string `db:"feed_title"`
	FeedURL     string `db:"feed_url"`
	Title       string `db:"title"`
	Link        string `db:"link"`
	Published   string `db:"published"`
	Description string `db:"description"`
	Images      string `db:"images"`
}

var recordColumns = []string{
	"feed_title", "feed_url", "title", "link", "published", "description", "images",
}

func newRow(rec news.Record) (recordRow, error) {
	imgs := rec.Images
	if imgs == nil {
		imgs = []news.Image{}
	}
	encoded, err := json.Marshal(imgs)
	if err != nil {
		return recordRow{}, fmt.Errorf("error encoding image list: %s", err)
	}

	return recordRow{
		ID:          uuid.NewString(),
		Digest:      rec.Digest(),
		FeedTitle:   rec.FeedTitle,
		FeedURL:     rec.FeedURL,
		Title:       rec.Title,
		Link:        rec.Link,
		Published:   rec.Published,
		Description: rec.Description,
		Images:      string(encoded),
	}, nil
}

func (row recordRow) record() (news.Record, error) {
	var imgs []news.Image
	if err := json.Unmarshal([]byte(row.Images), &imgs); err != nil {
		return news.Record{}, fmt.Errorf("error decoding image list: %s", err)
	}
	if imgs == nil {
		imgs = []news.Image{}
	}

	return news.Record{
		FeedTitle:   row.FeedTitle,
		FeedURL:     row.FeedURL,
		Title:       row.Title,
		Link:        row.Link,
		Published:   row.Published,
		Description: row.Description,
		Images:      imgs,
	}, nil
}

// Merge appends every record whose digest is not stored yet, in order, and
// leaves existing rows untouched. Merging the same batch twice is a no-op
// the second time.
func (r Repo) Merge(ctx context.Context, records []news.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errs.E(errs.KindStorage, fmt.Errorf("error starting merge: %s", err))
	}
	defer tx.Rollback()

	const q = `INSERT INTO records (id, digest, feed_title, feed_url, title, link, published, description, images)
	VALUES (:id, :digest, :feed_title, :feed_url, :title, :link, :published, :description, :images)
	ON CONFLICT(digest) DO NOTHING;`
	for _, rec := range records {
		row, err := newRow(rec)
		if err != nil {
			return errs.E(errs.KindStorage, err)
		}
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errs.E(errs.KindStorage, fmt.Errorf("error inserting record: %s", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.E(errs.KindStorage, fmt.Errorf("error committing merge: %s", err))
	}

	return nil
}

// All returns every stored record in insertion order, or ErrNoCache when
// nothing has been merged yet.
func (r Repo) All(ctx context.Context) ([]news.Record, error) {
	empty, err := r.empty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, news.ErrNoCache
	}

	q := fmt.Sprintf("SELECT %s FROM records ORDER BY rowid;", strings.Join(recordColumns, ", "))

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error selecting all records: %s", err))
	}

	return toRecords(rows)
}

// Select returns, in insertion order, the stored records matching the query
// date and optional feed url, capped to the query limit.
func (r Repo) Select(ctx context.Context, query news.Query) ([]news.Record, error) {
	empty, err := r.empty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, news.ErrNoCache
	}

	b := sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"published": query.DateISO()}).
		OrderBy("rowid")
	if query.FeedURL != "" {
		b = b.Where(sq.Eq{"feed_url": query.FeedURL})
	}
	if query.Limit > 0 {
		b = b.Limit(uint64(query.Limit))
	}

	q, args, err := b.ToSql()
	if err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error constructing sql: %s", err))
	}

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error selecting records: %s", err))
	}

	return toRecords(rows)
}

func (r Repo) empty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM records;"); err != nil {
		return false, errs.E(errs.KindStorage, fmt.Errorf("error counting records: %s", err))
	}
	return count == 0, nil
}

func toRecords(rows []recordRow) ([]news.Record, error) {
	records := make([]news.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, errs.E(errs.KindStorage, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
