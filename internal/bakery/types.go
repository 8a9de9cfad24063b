package bakery

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bakery is a business that sells baked goods.
type Bakery struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// BakedGood is a product sold by exactly one bakery.
type BakedGood struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Price     Price      `json:"price"`
	BakeryID  int64      `json:"bakery_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// BakeryDetail is a bakery together with every baked good it owns, in store
// order. It serialises as the bakery's fields plus a "baked_goods" array.
type BakeryDetail struct {
	Bakery
	BakedGoods []BakedGood `json:"baked_goods"`
}

// newBakeryDetail guarantees BakedGoods encodes as [] rather than null.
func newBakeryDetail(b Bakery, goods []BakedGood) *BakeryDetail {
	if goods == nil {
		goods = []BakedGood{}
	}
	return &BakeryDetail{Bakery: b, BakedGoods: goods}
}

// Price is a non-negative decimal amount.
//
// It scans from and writes to numeric SQL columns through the embedded
// decimal.Decimal, and encodes as a bare JSON number (2.5, not "2.5").
type Price struct {
	decimal.Decimal
}

// NewPrice parses a decimal string such as "2.50".
func NewPrice(value string) (Price, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Price{}, fmt.Errorf("parsing price %q: %w", value, err)
	}
	if d.IsNegative() {
		return Price{}, ErrNegativePrice
	}
	return Price{Decimal: d}, nil
}

// MustPrice is like NewPrice but panics on invalid input. Intended for
// fixtures and tests.
func MustPrice(value string) Price {
	p, err := NewPrice(value)
	if err != nil {
		panic(err)
	}
	return p
}

// MarshalJSON encodes the price as a JSON number.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (p *Price) UnmarshalJSON(data []byte) error {
	return p.Decimal.UnmarshalJSON(data)
}
