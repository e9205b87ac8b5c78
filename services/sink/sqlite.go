package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"sjsage522/weibosearch/pkg/errors"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS weibo (
	id TEXT PRIMARY KEY,
	bid TEXT,
	user_id TEXT,
	screen_name TEXT,
	text TEXT,
	article_url TEXT,
	topics TEXT,
	at_users TEXT,
	pics TEXT,
	video_url TEXT,
	location TEXT,
	created_at TEXT,
	source TEXT,
	attitudes_count INTEGER,
	comments_count INTEGER,
	reposts_count INTEGER,
	retweet_id TEXT,
	ip TEXT,
	user_authentication TEXT,
	vip_type TEXT,
	vip_level INTEGER,
	keyword TEXT
)`

// SQLiteSink stores records in a single weibo table, replacing on id
type SQLiteSink struct {
	db     *sqlx.DB
	insert string
}

// NewSQLiteSink opens (or creates) the database file at path
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewStorage("sqlite", "failed to create database directory", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorage("sqlite", "failed to open "+path, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.NewStorage("sqlite", "failed to create table", err)
	}

	return &SQLiteSink{
		db: db,
		insert: fmt.Sprintf("INSERT OR REPLACE INTO weibo (%s) VALUES (%s)",
			strings.Join(columns, ", "), namedValues()),
	}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	if _, err := s.db.NamedExecContext(ctx, s.insert, newRow(rec)); err != nil {
		return errors.NewStorage("sqlite", "failed to insert "+rec.Post.ID, err)
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
