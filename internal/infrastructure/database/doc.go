// Package database provides relational store connectivity for the Bakery API.
//
// This package manages:
//   - SQLite connections (github.com/mattn/go-sqlite3) with WAL mode and
//     foreign keys enforced
//   - Embedded, versioned schema migrations tracked in schema_migrations
//   - gorm connections for PostgreSQL (gorm.io/driver/postgres) or SQLite
//     (gorm.io/driver/sqlite)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/app.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements and the file is created 0600.
package database
