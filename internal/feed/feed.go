// Package feed fetches an RSS or Atom document and flattens it into records.
package feed

import (
	"context"
	"fmt"
	stdhtml "html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	errs "github.com/mvoitenko/rssreader/internal/errors"
	"github.com/mvoitenko/rssreader/internal/images"
	"github.com/mvoitenko/rssreader/internal/news"
)

// Normalizer turns one feed document into an ordered slice of records,
// mirroring any referenced images along the way.
type Normalizer struct {
	client *http.Client
	parser *gofeed.Parser
	mirror *images.Mirror
}

func NewNormalizer(client *http.Client, mirror *images.Mirror) *Normalizer {
	return &Normalizer{
		client: client,
		parser: gofeed.NewParser(),
		mirror: mirror,
	}
}

// Fetch downloads the feed at source and normalizes every item, preserving
// item order. An unreachable feed, a non-success status, or an unparseable
// publish date fails the whole operation.
func (n *Normalizer) Fetch(ctx context.Context, source string) ([]news.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errs.E(errs.KindNetwork, fmt.Errorf("error building feed request: %s", err))
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, errs.E(errs.KindNetwork, fmt.Errorf("error getting feed url: %s", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.E(errs.KindNetwork, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	parsed, err := n.parser.Parse(resp.Body)
	if err != nil {
		return nil, errs.E(errs.KindParse, fmt.Errorf("error decoding feed: %s", err))
	}

	records := make([]news.Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		published, err := parseDate(item)
		if err != nil {
			return nil, err
		}

		rec := news.Record{
			FeedTitle:   strings.TrimSpace(parsed.Title),
			FeedURL:     source,
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Published:   published,
			Description: stripMarkup(item.Description),
			Images:      []news.Image{},
		}

		// Both image sources are checked independently, so one item may
		// contribute up to two pairs.
		if src, ok := imageSrc(item.Description); ok {
			rec.Images = n.appendImage(ctx, rec.Images, src)
		}
		if src, ok := mediaContentURL(item); ok {
			rec.Images = n.appendImage(ctx, rec.Images, src)
		}

		records = append(records, rec)
	}

	return records, nil
}

// appendImage mirrors src locally and appends the pair. Resolution is best
// effort: a failure skips the image and leaves the record intact.
func (n *Normalizer) appendImage(ctx context.Context, imgs []news.Image, src string) []news.Image {
	path, err := n.mirror.Ensure(ctx, src)
	if err != nil {
		slog.DebugContext(ctx, "skipping image", "url", src, "error", err)
		return imgs
	}
	return append(imgs, news.Image{URL: src, Path: path})
}

// parseDate best-effort parses the raw publish date text of an item.
func parseDate(item *gofeed.Item) (string, error) {
	raw := strings.TrimSpace(item.Published)
	if raw == "" {
		raw = strings.TrimSpace(item.Updated)
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return "", errs.E(errs.KindParse, fmt.Errorf("error parsing publish date %q: %s", raw, err))
	}
	return news.NormalizeDate(t), nil
}

var stripPolicy = bluemonday.StrictPolicy()

// stripMarkup removes all html tags from the string and decodes entities,
// leaving plain text.
func stripMarkup(s string) string {
	s = strings.TrimSpace(s)
	s = stripPolicy.Sanitize(s)
	return strings.TrimSpace(stdhtml.UnescapeString(s))
}

// imageSrc walks the parsed description markup and returns the src attribute
// of the first img element.
func imageSrc(markup string) (string, bool) {
	if markup == "" {
		return "", false
	}
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", false
	}

	var walk func(*html.Node) (string, bool)
	walk = func(node *html.Node) (string, bool) {
		if node.Type == html.ElementNode && node.Data == "img" {
			for _, attr := range node.Attr {
				if attr.Key == "src" && attr.Val != "" {
					return attr.Val, true
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if src, ok := walk(child); ok {
				return src, true
			}
		}
		return "", false
	}

	return walk(root)
}

// mediaContentURL returns the url attribute of the item's media:content
// element, if any.
func mediaContentURL(item *gofeed.Item) (string, bool) {
	for _, ext := range item.Extensions["media"]["content"] {
		if url := ext.Attrs["url"]; url != "" {
			return url, true
		}
	}
	return "", false
}
