package db

import (
	"database/sql"
	_ "embed"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
)

//go:embed schema.sql
var schema string

// Open connects to postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "db: open")
	}
	if err := conn.Ping(); err != nil {
		return nil, eris.Wrap(err, "db: ping")
	}
	return conn, nil
}

// Migrate applies the embedded schema. All statements are idempotent
// (CREATE TABLE IF NOT EXISTS), so this is safe to run at every startup.
func Migrate(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return eris.Wrap(err, "db: migrate")
	}
	return nil
}
