// Package database manages the bridge's SQLite connection.
//
// SQLite stores the local state-change audit trail. The connection is
// opened with WAL mode and a busy timeout, restricted to a single writer
// (SQLite's natural model), and migrated on startup from SQL files
// embedded by the migrations package.
package database
