package bakery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the read operations the API serves.
type Repository interface {
	// ListBakeries returns every bakery ordered by ID.
	ListBakeries(ctx context.Context) ([]Bakery, error)

	// GetBakery returns one bakery with its baked goods, or ErrBakeryNotFound.
	GetBakery(ctx context.Context, id int64) (*BakeryDetail, error)

	// ListBakedGoodsByPrice returns every baked good, price descending then ID ascending.
	ListBakedGoodsByPrice(ctx context.Context) ([]BakedGood, error)

	// GetMostExpensiveBakedGood returns the first baked good of the
	// ListBakedGoodsByPrice ordering, or ErrNoBakedGoods.
	GetMostExpensiveBakedGood(ctx context.Context) (*BakedGood, error)
}

// Column lists shared by the queries below.
const (
	bakeryColumns    = `id, name, created_at, updated_at`
	bakedGoodColumns = `id, name, price, bakery_id, created_at, updated_at`

	// priceOrder is the one ordering used for price-sorted reads.
	priceOrder = `ORDER BY price DESC, id ASC`
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed bakery repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListBakeries returns all bakeries ordered by ID.
func (r *SQLiteRepository) ListBakeries(ctx context.Context) ([]Bakery, error) {
	const query = `SELECT ` + bakeryColumns + ` FROM bakeries ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying bakeries: %w", err)
	}
	defer rows.Close()

	bakeries := []Bakery{}
	for rows.Next() {
		b, err := scanBakery(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bakery row: %w", err)
		}
		bakeries = append(bakeries, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bakery rows: %w", err)
	}
	return bakeries, nil
}

// GetBakery returns a single bakery by ID with its baked goods nested.
// The goods are read by a second query in ID order.
func (r *SQLiteRepository) GetBakery(ctx context.Context, id int64) (*BakeryDetail, error) {
	const query = `SELECT ` + bakeryColumns + ` FROM bakeries WHERE id = ?`

	b, err := scanBakery(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBakeryNotFound
		}
		return nil, fmt.Errorf("getting bakery %d: %w", id, err)
	}

	const goodsQuery = `SELECT ` + bakedGoodColumns + `
		FROM baked_goods WHERE bakery_id = ? ORDER BY id`
	goods, err := r.queryBakedGoods(ctx, goodsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("getting baked goods for bakery %d: %w", id, err)
	}
	return newBakeryDetail(*b, goods), nil
}

// ListBakedGoodsByPrice returns all baked goods, most expensive first.
func (r *SQLiteRepository) ListBakedGoodsByPrice(ctx context.Context) ([]BakedGood, error) {
	const query = `SELECT ` + bakedGoodColumns + ` FROM baked_goods ` + priceOrder
	return r.queryBakedGoods(ctx, query)
}

// GetMostExpensiveBakedGood returns the highest-priced baked good.
func (r *SQLiteRepository) GetMostExpensiveBakedGood(ctx context.Context) (*BakedGood, error) {
	const query = `SELECT ` + bakedGoodColumns + ` FROM baked_goods ` + priceOrder + ` LIMIT 1`

	g, err := scanBakedGood(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoBakedGoods
		}
		return nil, fmt.Errorf("getting most expensive baked good: %w", err)
	}
	return g, nil
}

// queryBakedGoods executes a query and returns a non-nil slice of BakedGood.
func (r *SQLiteRepository) queryBakedGoods(ctx context.Context, query string, args ...any) ([]BakedGood, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying baked goods: %w", err)
	}
	defer rows.Close()

	goods := []BakedGood{}
	for rows.Next() {
		g, err := scanBakedGood(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning baked good row: %w", err)
		}
		goods = append(goods, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating baked good rows: %w", err)
	}
	return goods, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBakery(s scanner) (*Bakery, error) {
	var b Bakery
	var createdAt string
	var updatedAt sql.NullString

	if err := s.Scan(&b.ID, &b.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseNullTime(updatedAt)
	return &b, nil
}

func scanBakedGood(s scanner) (*BakedGood, error) {
	var g BakedGood
	var createdAt string
	var updatedAt sql.NullString

	if err := s.Scan(&g.ID, &g.Name, &g.Price, &g.BakeryID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseNullTime(updatedAt)
	return &g, nil
}

// sqliteTimeLayouts are tried in order when parsing timestamp columns.
// Layouts without an offset are read as UTC.
var sqliteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTime parses a timestamp column written by the schema default
// (RFC 3339), by SQLite's datetime(), or as ISO 8601 with or without an
// offset. Zero time is returned if no layout matches.
func parseTime(s string) time.Time {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
