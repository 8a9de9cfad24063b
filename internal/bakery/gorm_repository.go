package bakery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// bakeryRecord is the gorm model for the bakeries table.
type bakeryRecord struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  *time.Time        `gorm:"autoUpdateTime:false"`
	BakedGoods []bakedGoodRecord `gorm:"foreignKey:BakeryID;constraint:OnDelete:CASCADE"`
}

func (bakeryRecord) TableName() string { return "bakeries" }

// bakedGoodRecord is the gorm model for the baked_goods table. Price is
// unconstrained numeric so no backend rounds or caps it.
type bakedGoodRecord struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Price     Price  `gorm:"type:numeric;not null;check:price >= 0"`
	BakeryID  int64  `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

func (bakedGoodRecord) TableName() string { return "baked_goods" }

func (r bakeryRecord) toBakery() Bakery {
	return Bakery{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt,
	}
}

func (r bakedGoodRecord) toBakedGood() BakedGood {
	return BakedGood{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		BakeryID:  r.BakeryID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt,
	}
}

// GormRepository implements Repository on a gorm connection, typically
// PostgreSQL.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a gorm-backed bakery repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate creates or updates the bakeries and baked_goods tables.
func (r *GormRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&bakeryRecord{}, &bakedGoodRecord{}); err != nil {
		return fmt.Errorf("migrating bakery tables: %w", err)
	}
	return nil
}

// ListBakeries returns all bakeries ordered by ID.
func (r *GormRepository) ListBakeries(ctx context.Context) ([]Bakery, error) {
	var records []bakeryRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("querying bakeries: %w", err)
	}

	bakeries := make([]Bakery, 0, len(records))
	for _, rec := range records {
		bakeries = append(bakeries, rec.toBakery())
	}
	return bakeries, nil
}

// GetBakery returns a single bakery by ID with its baked goods preloaded in
// ID order.
func (r *GormRepository) GetBakery(ctx context.Context, id int64) (*BakeryDetail, error) {
	var rec bakeryRecord
	err := r.db.WithContext(ctx).
		Preload("BakedGoods", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&rec, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBakeryNotFound
		}
		return nil, fmt.Errorf("getting bakery %d: %w", id, err)
	}

	goods := make([]BakedGood, 0, len(rec.BakedGoods))
	for _, g := range rec.BakedGoods {
		goods = append(goods, g.toBakedGood())
	}
	return newBakeryDetail(rec.toBakery(), goods), nil
}

// ListBakedGoodsByPrice returns all baked goods, most expensive first.
func (r *GormRepository) ListBakedGoodsByPrice(ctx context.Context) ([]BakedGood, error) {
	var records []bakedGoodRecord
	if err := r.db.WithContext(ctx).Order("price DESC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("querying baked goods: %w", err)
	}

	goods := make([]BakedGood, 0, len(records))
	for _, rec := range records {
		goods = append(goods, rec.toBakedGood())
	}
	return goods, nil
}

// GetMostExpensiveBakedGood returns the highest-priced baked good.
func (r *GormRepository) GetMostExpensiveBakedGood(ctx context.Context) (*BakedGood, error) {
	var rec bakedGoodRecord
	// Take, not First: First would append its own primary-key ordering.
	err := r.db.WithContext(ctx).Order("price DESC").Order("id ASC").Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoBakedGoods
		}
		return nil, fmt.Errorf("getting most expensive baked good: %w", err)
	}
	g := rec.toBakedGood()
	return &g, nil
}
