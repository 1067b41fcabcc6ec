// Package config carries the ambient settings of the reader: where artifacts
// land on disk, how to reach the stores, and how long to wait on the network.
// Per-run behavior (source, date, limit, output formats) stays on the CLI
// flags.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Path of the sqlite cache database.
	Database string `env:"RSSREADER_DATABASE, default=news.db"`

	MongoURI      string `env:"RSSREADER_MONGO_URI, default=mongodb://localhost:27017"`
	MongoDatabase string `env:"RSSREADER_MONGO_DATABASE, default=news_database"`

	ImagesDir string `env:"RSSREADER_IMAGES_DIR, default=images"`
	JSONDir   string `env:"RSSREADER_JSON_DIR, default=json_files"`
	HTMLDir   string `env:"RSSREADER_HTML_DIR, default=html_files"`
	PDFDir    string `env:"RSSREADER_PDF_DIR, default=pdf_files"`

	// Bounds every feed and image fetch so an unreachable host cannot hang
	// the run forever.
	HTTPTimeout time.Duration `env:"RSSREADER_HTTP_TIMEOUT, default=10s"`
}

func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %s", err)
	}
	return cfg, nil
}
