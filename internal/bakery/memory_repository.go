package bakery

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryRepository is an in-process Repository with the same ordering rules
// as the SQL backends. It is safe for concurrent use.
type MemoryRepository struct {
	mu         sync.RWMutex
	bakeries   []Bakery
	bakedGoods []BakedGood
}

// NewMemoryRepository returns a repository seeded with the given rows.
// The slices are copied.
func NewMemoryRepository(bakeries []Bakery, bakedGoods []BakedGood) *MemoryRepository {
	return &MemoryRepository{
		bakeries:   slices.Clone(bakeries),
		bakedGoods: slices.Clone(bakedGoods),
	}
}

// ListBakeries returns all bakeries ordered by ID.
func (r *MemoryRepository) ListBakeries(ctx context.Context) ([]Bakery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	bakeries := slices.Clone(r.bakeries)
	if bakeries == nil {
		bakeries = []Bakery{}
	}
	slices.SortStableFunc(bakeries, func(a, b Bakery) int { return cmp.Compare(a.ID, b.ID) })
	return bakeries, nil
}

// GetBakery returns a single bakery with its baked goods in ID order.
func (r *MemoryRepository) GetBakery(ctx context.Context, id int64) (*BakeryDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := slices.IndexFunc(r.bakeries, func(b Bakery) bool { return b.ID == id })
	if i < 0 {
		return nil, ErrBakeryNotFound
	}

	var goods []BakedGood
	for _, g := range r.bakedGoods {
		if g.BakeryID == id {
			goods = append(goods, g)
		}
	}
	slices.SortStableFunc(goods, func(a, b BakedGood) int { return cmp.Compare(a.ID, b.ID) })
	return newBakeryDetail(r.bakeries[i], goods), nil
}

// ListBakedGoodsByPrice returns all baked goods, price descending then ID ascending.
func (r *MemoryRepository) ListBakedGoodsByPrice(ctx context.Context) ([]BakedGood, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortByPrice(r.bakedGoods), nil
}

// GetMostExpensiveBakedGood returns the first element of ListBakedGoodsByPrice.
func (r *MemoryRepository) GetMostExpensiveBakedGood(ctx context.Context) (*BakedGood, error) {
	goods, err := r.ListBakedGoodsByPrice(ctx)
	if err != nil {
		return nil, err
	}
	if len(goods) == 0 {
		return nil, ErrNoBakedGoods
	}
	return &goods[0], nil
}

// sortByPrice returns a sorted copy using the shared price ordering.
func sortByPrice(goods []BakedGood) []BakedGood {
	sorted := slices.Clone(goods)
	if sorted == nil {
		sorted = []BakedGood{}
	}
	slices.SortStableFunc(sorted, comparePrice)
	return sorted
}

// comparePrice orders by price descending, then ID ascending.
func comparePrice(a, b BakedGood) int {
	if c := b.Price.Cmp(a.Price.Decimal); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
