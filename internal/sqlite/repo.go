// Package sqlite is the default cache store backend.
package sqlite

import (
	"github.com/jmoiron/sqlx"

	"github.com/mvoitenko/rssreader/internal/news"
)

// Ensure Repo implements the store interface
var _ news.Store = (*Repo)(nil)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}
