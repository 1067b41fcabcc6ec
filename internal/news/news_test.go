package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mvoitenko/rssreader/internal/errors"
)

func sampleRecord() Record {
	return Record{
		FeedTitle:   "Yahoo News - Latest News & Headlines",
		FeedURL:     "https://news.yahoo.com/rss/",
		Title:       "Nestor heads into Georgia",
		Link:        "https://news.yahoo.com/nestor.html",
		Published:   "2022-01-05",
		Description: "The storm is expected to bring rain and wind.",
		Images:      []Image{{URL: "https://img.example.com/a.png", Path: "images/img.example.coma.png"}},
	}
}

func TestDigestStable(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	assert.Equal(t, a.Digest(), b.Digest())
}

func TestDigestChangesWithAnyField(t *testing.T) {
	base := sampleRecord()

	changed := sampleRecord()
	changed.Description = "The storm has passed."
	assert.NotEqual(t, base.Digest(), changed.Digest())

	changed = sampleRecord()
	changed.Published = "2022-01-06"
	assert.NotEqual(t, base.Digest(), changed.Digest())
}

func TestDigestNilImagesEqualsEmpty(t *testing.T) {
	a := sampleRecord()
	a.Images = nil
	b := sampleRecord()
	b.Images = []Image{}
	assert.Equal(t, a.Digest(), b.Digest())
}

func TestCheckLimit(t *testing.T) {
	require.NoError(t, CheckLimit(1))
	require.NoError(t, CheckLimit(10))

	for _, n := range []int{0, -1, -100} {
		err := CheckLimit(n)
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	}
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{name: "valid", query: Query{Date: "20220105"}},
		{name: "valid with source and limit", query: Query{Date: "20220105", FeedURL: "https://news.yahoo.com/rss/", Limit: 3}},
		{name: "malformed date", query: Query{Date: "2022-01-05"}, wantErr: true},
		{name: "short date", query: Query{Date: "202201"}, wantErr: true},
		{name: "impossible date", query: Query{Date: "20221399"}, wantErr: true},
		{name: "negative limit", query: Query{Date: "20220105", Limit: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errs.KindValidation, errs.KindOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestQueryDateISO(t *testing.T) {
	q := Query{Date: "20220105"}
	assert.Equal(t, "2022-01-05", q.DateISO())
}
