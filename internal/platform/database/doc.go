// Package database provides the SQL implementations of the storage interfaces
// defined in internal/store. It opens PostgreSQL (through pgx) or SQLite
// connections from the parsed DATABASE_URL, applies the embedded goose
// migrations and maps driver errors to store errors.
package database
