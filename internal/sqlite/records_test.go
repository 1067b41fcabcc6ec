package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mvoitenko/rssreader/internal/migrations"
	"github.com/mvoitenko/rssreader/internal/news"
)

func testRepo(t *testing.T) Repo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000", path))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	require.NoError(t, migrations.Run(dbx))
	return New(dbx)
}

func sampleRecords() []news.Record {
	return []news.Record{
		{
			FeedTitle:   "Yahoo News",
			FeedURL:     "https://news.yahoo.com/rss/",
			Title:       "Nestor heads into Georgia",
			Link:        "https://news.yahoo.com/nestor.html",
			Published:   "2022-01-05",
			Description: "Rain and wind expected.",
			Images:      []news.Image{{URL: "https://img.example.com/a.png", Path: "images/img.example.coma.png"}},
		},
		{
			FeedTitle:   "Yahoo News",
			FeedURL:     "https://news.yahoo.com/rss/",
			Title:       "Quiet day",
			Link:        "https://news.yahoo.com/quiet.html",
			Published:   "2022-01-06",
			Description: "Nothing happened.",
			Images:      []news.Image{},
		},
	}
}

func TestAllOnEmptyStore(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.All(context.Background())
	assert.ErrorIs(t, err, news.ErrNoCache)
}

func TestMergeRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Merge(ctx, sampleRecords()))

	got, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestMergeIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Merge(ctx, sampleRecords()))
	require.NoError(t, repo.Merge(ctx, sampleRecords()))

	got, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMergeAppendsOnlyNewRecords(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	records := sampleRecords()
	require.NoError(t, repo.Merge(ctx, records[:1]))

	fresh := news.Record{
		FeedTitle: "Yahoo News",
		FeedURL:   "https://news.yahoo.com/rss/",
		Title:     "Late breaking",
		Link:      "https://news.yahoo.com/late.html",
		Published: "2022-01-06",
		Images:    []news.Image{},
	}
	require.NoError(t, repo.Merge(ctx, []news.Record{records[0], fresh}))

	got, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Existing rows stay put; the new one lands at the end.
	assert.Equal(t, records[0], got[0])
	assert.Equal(t, fresh, got[1])
}

func TestMergeChangedDescriptionIsANewRecord(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	records := sampleRecords()
	require.NoError(t, repo.Merge(ctx, records[:1]))

	updated := records[0]
	updated.Description = "The rain has stopped."
	require.NoError(t, repo.Merge(ctx, []news.Record{updated}))

	got, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSelectByDate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Merge(ctx, sampleRecords()))

	got, err := repo.Select(ctx, news.Query{Date: "20220105"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nestor heads into Georgia", got[0].Title)

	// A date with nothing cached returns an empty sequence, not an error.
	got, err = repo.Select(ctx, news.Query{Date: "20220107"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectBySource(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	records := sampleRecords()
	other := records[0]
	other.FeedURL = "https://other.example.com/rss"
	other.Title = "Same day, other feed"
	require.NoError(t, repo.Merge(ctx, append(records, other)))

	got, err := repo.Select(ctx, news.Query{Date: "20220105", FeedURL: "https://other.example.com/rss"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Same day, other feed", got[0].Title)
}

func TestSelectLimit(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	var batch []news.Record
	for i := 0; i < 5; i++ {
		rec := sampleRecords()[0]
		rec.Title = fmt.Sprintf("Story %d", i)
		batch = append(batch, rec)
	}
	require.NoError(t, repo.Merge(ctx, batch))

	got, err := repo.Select(ctx, news.Query{Date: "20220105", Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Stored order survives the truncation.
	assert.Equal(t, "Story 0", got[0].Title)
	assert.Equal(t, "Story 2", got[2].Title)

	// No limit returns every match.
	got, err = repo.Select(ctx, news.Query{Date: "20220105"})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestSelectOnEmptyStore(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Select(context.Background(), news.Query{Date: "20220105"})
	assert.ErrorIs(t, err, news.ErrNoCache)
}
