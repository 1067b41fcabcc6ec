package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/mvoitenko/rssreader/internal/news"
)

type (
	htmlImage struct {
		Src template.URL // local path when the file resolves, else the original URL
		URL string
	}

	htmlRecord struct {
		Fields []field
		Images []htmlImage
		Link   string
	}
)

const htmlDoc = `{{range .}}<table border="1" width="100%">
{{range .Fields}}<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>
{{end}}</table>
{{range .Images}}<img src="{{.Src}}" width="220"><br>
<b>Image source:</b> <a href="{{.URL}}">{{.URL}}</a><br>
{{end}}<b>News link:</b> <a href="{{.Link}}">{{.Link}}</a><br><br>
{{end}}`

var htmlTpl = template.Must(template.New("feed").Parse(htmlDoc))

// HTML renders every record as a key/value table followed by its images and
// news link, concatenated into one timestamp-named document under dir.
// Returns the file path.
func HTML(dir string, records []news.Record, now time.Time) (string, error) {
	path, err := outputPath(dir, ".html", now)
	if err != nil {
		return "", err
	}

	view := make([]htmlRecord, 0, len(records))
	for _, r := range records {
		hr := htmlRecord{Link: r.Link}
		for _, f := range fields(r) {
			if f.Label == labelImages || f.Label == labelLink {
				continue
			}
			hr.Fields = append(hr.Fields, f)
		}
		for _, img := range r.Images {
			hr.Images = append(hr.Images, htmlImage{Src: imageSrc(img), URL: img.URL})
		}
		view = append(view, hr)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating html file: %s", err)
	}
	defer f.Close()

	if err := htmlTpl.Execute(f, view); err != nil {
		return "", fmt.Errorf("error rendering html: %s", err)
	}

	return path, nil
}

// imageSrc prefers the locally mirrored file; a missing file falls back to
// the original URL.
func imageSrc(img news.Image) template.URL {
	abs, err := filepath.Abs(img.Path)
	if err != nil {
		return template.URL(img.URL)
	}
	if _, err := os.Stat(abs); err != nil {
		return template.URL(img.URL)
	}
	return template.URL(abs)
}
