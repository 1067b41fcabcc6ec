package render

import (
	"fmt"
	"io"

	"github.com/mvoitenko/rssreader/internal/news"
)

// Console prints each record as padded label: value lines, a blank line
// after the feed url, and two blank lines after each record.
func Console(w io.Writer, records []news.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "Feed is empty")
		return
	}

	for _, r := range records {
		for _, f := range fields(r) {
			fmt.Fprintf(w, "%-15s %s\n", f.Label+":", f.Value)
			if f.Label == labelFeedURL {
				fmt.Fprintln(w)
			}
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w)
	}
}
