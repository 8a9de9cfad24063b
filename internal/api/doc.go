// Package api implements the read-only HTTP JSON API for bakeries and baked goods.
//
// This package provides:
//   - GET routes for listing bakeries, fetching one bakery with its goods,
//     and price-ordered baked good queries
//   - A health endpoint backed by the store's health check
//   - Middleware stack (request ID, tracing, logging, recovery, CORS)
//
// # Architecture
//
// Handlers depend only on bakery.Repository. Which store sits behind it
// (SQLite with embedded migrations, or gorm over SQLite/PostgreSQL) is decided
// by the process bootstrap.
//
// # Error Bodies
//
// Every non-2xx response that the handlers produce is a JSON object with a
// single "error" key. Unknown paths and non-integer IDs get the router's
// default 404.
package api
