// Package mongo is the alternate cache store backend, selected with --mongo.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	errs "github.com/mvoitenko/rssreader/internal/errors"
	"github.com/mvoitenko/rssreader/internal/news"
)

// Ensure Store implements the store interface
var _ news.Store = (*Store)(nil)

// Store keeps records in a single collection, deduplicated by a unique index
// on the structural digest. ObjectID ordering stands in for insertion order.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// document is the collection shape of a record.
type document struct {
	Digest      string       `bson:"digest"`
	news.Record `bson:",inline"`
}

// Dial connects to the server, retrying the initial ping with a Fibonacci
// backoff while the server comes up. Operations after that never retry.
func Dial(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error connecting to mongo: %s", err))
	}

	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error reaching mongo: %s", err))
	}

	coll := client.Database(database).Collection("records")
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "digest", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error ensuring digest index: %s", err))
	}

	return &Store{client: client, coll: coll}, nil
}

// Close releases the client connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Merge upserts every record keyed by its digest; records already present
// are left exactly as stored.
func (s *Store) Merge(ctx context.Context, records []news.Record) error {
	opts := options.UpdateOne().SetUpsert(true)
	for _, rec := range records {
		filter, update := mergeDocument(rec)
		if _, err := s.coll.UpdateOne(ctx, filter, update, opts); err != nil {
			return errs.E(errs.KindStorage, fmt.Errorf("error merging record: %s", err))
		}
	}
	return nil
}

// All returns every stored record in insertion order, or ErrNoCache when the
// collection is still empty.
func (s *Store) All(ctx context.Context) ([]news.Record, error) {
	return s.find(ctx, bson.D{}, 0)
}

// Select returns the stored records matching the query date and optional
// feed url, capped to the query limit.
func (s *Store) Select(ctx context.Context, q news.Query) ([]news.Record, error) {
	return s.find(ctx, selectFilter(q), int64(q.Limit))
}

func (s *Store) find(ctx context.Context, filter bson.D, limit int64) ([]news.Record, error) {
	count, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error counting records: %s", err))
	}
	if count == 0 {
		return nil, news.ErrNoCache
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error finding records: %s", err))
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errs.E(errs.KindStorage, fmt.Errorf("error decoding records: %s", err))
	}

	records := make([]news.Record, 0, len(docs))
	for _, doc := range docs {
		rec := doc.Record
		if rec.Images == nil {
			rec.Images = []news.Image{}
		}
		records = append(records, rec)
	}
	return records, nil
}

// mergeDocument builds the digest-keyed upsert for one record.
func mergeDocument(rec news.Record) (filter, update bson.D) {
	filter = bson.D{{Key: "digest", Value: rec.Digest()}}
	update = bson.D{{Key: "$setOnInsert", Value: document{Digest: rec.Digest(), Record: rec}}}
	return filter, update
}

// selectFilter builds the find filter for a validated query.
func selectFilter(q news.Query) bson.D {
	filter := bson.D{{Key: "published", Value: q.DateISO()}}
	if q.FeedURL != "" {
		filter = append(filter, bson.E{Key: "feed_url", Value: q.FeedURL})
	}
	return filter
}
