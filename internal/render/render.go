// Package render presents record sequences as console text, a JSON file, an
// HTML document, or a PDF document. File presenters write one
// timestamp-suffixed artifact per run into their output directory.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvoitenko/rssreader/internal/news"
)

const (
	labelFeed        = "RSS"
	labelFeedURL     = "RSS link"
	labelTitle       = "Title"
	labelLink        = "News link"
	labelPublished   = "Published"
	labelImages      = "Image source"
	labelDescription = "Description"
)

type field struct {
	Label string
	Value string
}

// fields lists a record in presentation order. The image field carries only
// the first image URL.
func fields(r news.Record) []field {
	firstImage := ""
	if len(r.Images) > 0 {
		firstImage = r.Images[0].URL
	}

	return []field{
		{labelFeed, r.FeedTitle},
		{labelFeedURL, r.FeedURL},
		{labelTitle, r.Title},
		{labelLink, r.Link},
		{labelPublished, r.Published},
		{labelImages, firstImage},
		{labelDescription, r.Description},
	}
}

// outputPath creates dir if needed and returns the artifact path for this
// run. The timestamp suffix keeps consecutive runs from overwriting each
// other.
func outputPath(dir, ext string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output dir: %s", err)
	}
	name := "news_feed_" + now.Format("20060102T150405") + ext
	return filepath.Join(dir, name), nil
}
