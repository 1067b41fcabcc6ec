// Rssreader fetches an RSS feed, caches the normalized news items locally,
// and presents them as console text, JSON, HTML, or PDF.
//
// A run either fetches fresh news from --source and merges them into the
// cache, or, with --date, serves previously cached news back.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/mvoitenko/rssreader/internal/config"
	errs "github.com/mvoitenko/rssreader/internal/errors"
	"github.com/mvoitenko/rssreader/internal/feed"
	"github.com/mvoitenko/rssreader/internal/images"
	"github.com/mvoitenko/rssreader/internal/migrations"
	rdmongo "github.com/mvoitenko/rssreader/internal/mongo"
	"github.com/mvoitenko/rssreader/internal/news"
	"github.com/mvoitenko/rssreader/internal/render"
	rdsqlite "github.com/mvoitenko/rssreader/internal/sqlite"
	"github.com/mvoitenko/rssreader/logger"
)

var version = "dev"

var (
	flagSource  string
	flagJSON    bool
	flagVerbose bool
	flagLimit   int
	flagDate    string
	flagHTML    bool
	flagPDF     bool
	flagMongo   bool
)

var rootCmd = &cobra.Command{
	Use:           "rssreader",
	Short:         "Parses an RSS feed",
	Long:          "rssreader fetches an RSS feed, caches the news locally, and renders them to console, JSON, HTML, or PDF.",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rssreader %s\n", version)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagSource, "source", "", "a source url for parsing")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "write collected feed into a json file")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "verbose status messages")
	rootCmd.Flags().IntVar(&flagLimit, "limit", 0, "limit of news in feed; without it the whole feed is provided")
	rootCmd.Flags().StringVar(&flagDate, "date", "", "serve cached news for this date in YYYYMMDD format")
	rootCmd.Flags().BoolVar(&flagHTML, "tohtml", false, "convert feed to html format")
	rootCmd.Flags().BoolVar(&flagPDF, "topdf", false, "convert feed to pdf format")
	rootCmd.Flags().BoolVar(&flagMongo, "mongo", false, "cache news in MongoDB instead of the local database")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %s\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Validation failures surface before any network or storage work.
	if cmd.Flags().Changed("limit") {
		if err := news.CheckLimit(flagLimit); err != nil {
			return err
		}
	}
	if flagDate == "" && flagSource == "" {
		return errs.E(errs.KindValidation, "a --source url is required unless --date serves from the cache")
	}
	query := news.Query{FeedURL: flagSource, Date: flagDate, Limit: flagLimit}
	if flagDate != "" {
		if err := query.Validate(); err != nil {
			return err
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(os.Stdout, flagVerbose))

	store, closeStore, err := openStore(ctx, cfg, flagMongo)
	if err != nil {
		return err
	}
	defer closeStore()

	var shown []news.Record
	if flagDate != "" {
		shown, err = store.Select(ctx, query)
		if errors.Is(err, news.ErrNoCache) {
			fmt.Println("Unfortunately, there's no cached news yet")
			shown = nil
		} else if err != nil {
			return err
		}
		slog.Info("selected cached news", "date", flagDate, "records", len(shown))
	} else {
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		norm := feed.NewNormalizer(client, images.New(cfg.ImagesDir, client))
		records, err := norm.Fetch(ctx, flagSource)
		if err != nil {
			return err
		}
		slog.Info("fetched feed", "source", flagSource, "records", len(records))

		// The full batch is cached; the limit only caps what gets shown.
		if err := store.Merge(ctx, records); err != nil {
			return err
		}
		shown = records
		if flagLimit > 0 && flagLimit < len(shown) {
			shown = shown[:flagLimit]
		}
	}

	now := time.Now()
	if flagHTML {
		path, err := render.HTML(cfg.HTMLDir, shown, now)
		if err != nil {
			return errs.E(errs.KindStorage, err)
		}
		slog.Info("wrote html", "path", path)
	}
	if flagPDF {
		path, err := render.PDF(cfg.PDFDir, shown, now)
		if err != nil {
			return errs.E(errs.KindStorage, err)
		}
		slog.Info("wrote pdf", "path", path)
	}

	if flagJSON {
		path, err := render.JSON(os.Stdout, cfg.JSONDir, shown, now)
		if err != nil {
			return errs.E(errs.KindStorage, err)
		}
		slog.Info("wrote json", "path", path)
	} else {
		render.Console(os.Stdout, shown)
	}

	return nil
}

// openStore picks the cache backend: the local sqlite database by default,
// MongoDB with --mongo.
func openStore(ctx context.Context, cfg config.Config, useMongo bool) (news.Store, func(), error) {
	if useMongo {
		st, err := rdmongo.Dial(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close(context.WithoutCancel(ctx)) }, nil
	}

	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000", cfg.Database))
	if err != nil {
		return nil, nil, errs.E(errs.KindStorage, fmt.Errorf("error opening database: %s", err))
	}
	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, nil, errs.E(errs.KindStorage, err)
	}
	return rdsqlite.New(dbx), func() { dbx.Close() }, nil
}
