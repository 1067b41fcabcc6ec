// Package images mirrors remote feed images into a local directory so the
// HTML and PDF presenters can embed them without refetching.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Mirror downloads each distinct image URL at most once into dir.
type Mirror struct {
	dir    string
	client *http.Client
}

func New(dir string, client *http.Client) *Mirror {
	return &Mirror{dir: dir, client: client}
}

// Ensure returns the local path for url, downloading the file first unless a
// previous run already has.
func (m *Mirror) Ensure(ctx context.Context, url string) (string, error) {
	path := filepath.Join(m.dir, LocalName(url))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating images dir: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error building image request: %s", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error getting image: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code for image: %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating image file: %s", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("error writing image file: %s", err)
	}

	return path, nil
}

// LocalName derives a deterministic file name from an image URL by dropping
// the scheme and the characters that cannot appear in a file name.
func LocalName(url string) string {
	name := strings.TrimPrefix(url, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, ":", "")
	return name
}
