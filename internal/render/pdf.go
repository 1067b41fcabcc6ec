package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mvoitenko/rssreader/internal/news"
)

// 1.5 inch in points; every inlined image gets this width with its aspect
// ratio preserved.
const pdfImageWidth = 1.5 * 72

// PDF renders every record as labeled paragraphs with its images inlined,
// concatenated into one timestamp-named letter-format document under dir.
// Returns the file path.
func PDF(dir string, records []news.Record, now time.Time) (string, error) {
	path, err := outputPath(dir, ".pdf", now)
	if err != nil {
		return "", err
	}

	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(72, 72, 72)
	doc.SetAutoPageBreak(true, 18)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for _, r := range records {
		for _, f := range fields(r) {
			if f.Label == labelImages {
				for _, img := range r.Images {
					inlineImage(doc, img)
					paragraph(doc, tr, labelImages, img.URL)
				}
				continue
			}
			paragraph(doc, tr, f.Label, f.Value)
		}
		doc.Ln(12)
	}

	if err := doc.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("error writing pdf: %s", err)
	}

	return path, nil
}

func paragraph(doc *fpdf.Fpdf, tr func(string) string, label, value string) {
	doc.MultiCell(0, 14, tr(label+": "+value), "", "L", false)
	doc.Ln(6)
}

// inlineImage draws the mirrored file at a fixed width, aspect ratio
// preserved. Best effort: unreadable or unsupported files are skipped and
// only the caption remains.
func inlineImage(doc *fpdf.Fpdf, img news.Image) {
	imgType := imageType(img.Path)
	if imgType == "" {
		return
	}
	if _, err := os.Stat(img.Path); err != nil {
		return
	}

	opts := fpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
	info := doc.RegisterImageOptions(img.Path, opts)
	if info == nil || info.Width() <= 0 {
		return
	}

	w := float64(pdfImageWidth)
	h := w * info.Height() / info.Width()
	doc.ImageOptions(img.Path, doc.GetX(), doc.GetY(), w, h, true, opts, 0, "")
	doc.Ln(12)
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	default:
		return ""
	}
}
