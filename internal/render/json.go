package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mvoitenko/rssreader/internal/news"
)

// JSON serializes the full sequence into a timestamp-named file under dir
// and echoes a JSON-like listing to w. Returns the file path.
func JSON(w io.Writer, dir string, records []news.Record, now time.Time) (string, error) {
	path, err := outputPath(dir, ".json", now)
	if err != nil {
		return "", err
	}

	if records == nil {
		records = []news.Record{}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating json file: %s", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("error encoding feed: %s", err)
	}

	fmt.Fprintln(w, "[")
	for _, r := range records {
		fmt.Fprintln(w, " {")
		for _, fl := range fields(r) {
			fmt.Fprintf(w, "  '%s':'%s'\n", fl.Label, fl.Value)
		}
		fmt.Fprintln(w, " },")
	}
	fmt.Fprintln(w, "]")

	return path, nil
}
