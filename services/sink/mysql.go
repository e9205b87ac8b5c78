package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"sjsage522/weibosearch/pkg/errors"
)

const mysqlTableTemplate = "CREATE TABLE IF NOT EXISTS `%s` (" +
	"id varchar(20) NOT NULL, " +
	"bid varchar(12) NOT NULL, " +
	"user_id varchar(20), " +
	"screen_name varchar(30), " +
	"text TEXT, " +
	"article_url varchar(100), " +
	"topics varchar(200), " +
	"at_users varchar(1000), " +
	"pics varchar(3000), " +
	"video_url varchar(1000), " +
	"location varchar(100), " +
	"created_at DATETIME, " +
	"source varchar(30), " +
	"attitudes_count INT, " +
	"comments_count INT, " +
	"reposts_count INT, " +
	"retweet_id varchar(20), " +
	"ip varchar(100), " +
	"user_authentication varchar(100), " +
	"vip_type varchar(50), " +
	"vip_level INT, " +
	"keyword varchar(200), " +
	"PRIMARY KEY (id)" +
	") DEFAULT CHARSET=utf8mb4"

// MySQLSink writes each keyword to its own table inside a per-day
// database named weibo_YYYY_MM_DD.
type MySQLSink struct {
	db       *sqlx.DB
	database string

	mu     sync.Mutex
	tables map[string]bool
}

// NewMySQLSink connects with dsn, ignoring any database it names, and
// creates the database for the current day.
func NewMySQLSink(dsn string, now time.Time) (*MySQLSink, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.NewConfiguration("invalid MYSQL_DSN", err)
	}
	cfg.DBName = ""
	cfg.ParseTime = true

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, errors.NewStorage("mysql", "failed to open connection", err)
	}
	s, err := newMySQLSink(context.Background(), db, "weibo_"+now.Format("2006_01_02"))
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newMySQLSink(ctx context.Context, db *sqlx.DB, database string) (*MySQLSink, error) {
	create := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", database)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, errors.NewStorage("mysql", "failed to create database "+database, err)
	}
	return &MySQLSink{db: db, database: database, tables: make(map[string]bool)}, nil
}

func (s *MySQLSink) Name() string { return "mysql" }

// Database returns the database records are written to
func (s *MySQLSink) Database() string { return s.database }

func (s *MySQLSink) Write(ctx context.Context, rec Record) error {
	table := CleanKeyword(rec.Keyword)
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	updates := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", c, c))
	}
	query := fmt.Sprintf("INSERT INTO `%s`.`%s` (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		s.database, table, strings.Join(columns, ", "), namedValues(), strings.Join(updates, ", "))

	if _, err := s.db.NamedExecContext(ctx, query, newRow(rec)); err != nil {
		return errors.NewStorage("mysql", "failed to upsert "+rec.Post.ID, err)
	}
	return nil
}

func (s *MySQLSink) ensureTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables[table] {
		return nil
	}
	query := fmt.Sprintf(mysqlTableTemplate, s.database+"`.`"+table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.NewStorage("mysql", "failed to create table "+table, err)
	}
	s.tables[table] = true
	return nil
}

func (s *MySQLSink) Close() error {
	return s.db.Close()
}
