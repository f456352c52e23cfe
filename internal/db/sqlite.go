// Package db opens the SQLite database pair used by the session store.
package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/random"

	_ "embed"
	_ "github.com/mattn/go-sqlite3" // Enable sqlite3 driver
)

//go:embed schema.sql
var schemaScript string

// DBs holds two connections to the same SQLite database. Writes go through a
// single-connection pool to avoid SQLITE_BUSY under concurrency, reads go
// through a read-only pool.
// See https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
type DBs struct {
	ReadWriteDB *sqlx.DB
	ReadDB      *sqlx.DB
}

// NewDB establishes the connection pair and initialises the schema.
//
// The url parameter is the path to the SQLite database file or ":memory:" for
// an in-memory database.
func NewDB(url string) (*DBs, error) {
	// In-memory databases need shared cache mode so that both connections see
	// the same data. A unique name keeps parallel tests isolated.
	// See https://www.sqlite.org/inmemorydb.html.
	inMemoryConfig := ""
	if strings.Contains(url, ":memory:") {
		randomID, err := random.Letters(20)
		if err != nil {
			return nil, errors.Wrap(err, "generate random ID")
		}
		url = fmt.Sprintf("file:%s", randomID)
		inMemoryConfig = "mode=memory&cache=shared"
	}
	commonConfig := "_journal_mode=wal&_busy_timeout=5000&_synchronous=normal&_foreign_keys=on"

	// Options with a leading underscore are SQLite pragmas, the rest are URI
	// parameters. See https://www.sqlite.org/pragma.html and uri.html.
	readConfig := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s&%s", url, commonConfig, inMemoryConfig)
	readWriteConfig := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s&%s", url, commonConfig, inMemoryConfig)

	readWriteDB, err := sqlx.Open("sqlite3", readWriteConfig)
	if err != nil {
		return nil, errors.Wrap(err, "open read-write database")
	}
	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(time.Hour)
	readWriteDB.SetConnMaxIdleTime(time.Hour)

	if _, err = readWriteDB.Exec(schemaScript); err != nil {
		return nil, errors.Wrap(err, "initialize schema")
	}

	readDB, err := sqlx.Open("sqlite3", readConfig)
	if err != nil {
		return nil, errors.Wrap(err, "open read database")
	}
	maxReadConns := 10
	readDB.SetMaxOpenConns(maxReadConns)
	readDB.SetMaxIdleConns(maxReadConns)
	readDB.SetConnMaxLifetime(time.Hour)
	readDB.SetConnMaxIdleTime(time.Hour)

	return &DBs{
		ReadWriteDB: readWriteDB,
		ReadDB:      readDB,
	}, nil
}

// Close closes both connection pools.
func (dbs *DBs) Close() error {
	if err := dbs.ReadDB.Close(); err != nil {
		return errors.Wrap(err, "close read database")
	}
	if err := dbs.ReadWriteDB.Close(); err != nil {
		return errors.Wrap(err, "close read-write database")
	}
	return nil
}
