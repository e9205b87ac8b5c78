package sink

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLSinkUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS `weibo_2024_03_10`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `weibo_2024_03_10`.`春天`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `weibo_2024_03_10`.`春天`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// the table is created once per keyword
	mock.ExpectExec("INSERT INTO `weibo_2024_03_10`.`春天`").
		WillReturnResult(sqlmock.NewResult(0, 2))

	s, err := newMySQLSink(context.Background(), sqlx.NewDb(db, "mysql"), "weibo_2024_03_10")
	require.NoError(t, err)
	assert.Equal(t, "weibo_2024_03_10", s.Database())

	require.NoError(t, s.Write(context.Background(), testRecord()))
	require.NoError(t, s.Write(context.Background(), testRecord()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSinkInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE DATABASE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO").WillReturnError(assert.AnError)

	s, err := newMySQLSink(context.Background(), sqlx.NewDb(db, "mysql"), "weibo_2024_03_10")
	require.NoError(t, err)

	err = s.Write(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewMySQLSinkInvalidDSN(t *testing.T) {
	_, err := NewMySQLSink("not a dsn", time.Now())
	assert.Error(t, err)
}
