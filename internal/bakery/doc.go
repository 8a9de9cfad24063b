// Package bakery holds the Bakery and BakedGood entities and the read-only
// queries the API serves from them.
//
// A bakery owns zero or more baked goods through baked_goods.bakery_id.
// Rows are created and changed by an external administrative process; this
// package only reads them.
//
// Three Repository implementations share one contract:
//   - SQLiteRepository over database/sql and github.com/mattn/go-sqlite3
//   - GormRepository over gorm.io/gorm (PostgreSQL or SQLite dialects)
//   - MemoryRepository, an in-process fake for tests
//
// Baked goods sorted by price are ordered price descending, then id
// ascending, on every backend.
package bakery
