package bakery

import "errors"

var (
	// ErrBakeryNotFound is returned when no bakery has the requested ID.
	ErrBakeryNotFound = errors.New("bakery not found")

	// ErrNoBakedGoods is returned when a single baked good is requested from
	// an empty table.
	ErrNoBakedGoods = errors.New("no baked goods found")

	// ErrNegativePrice is returned when a price below zero is constructed.
	ErrNegativePrice = errors.New("price must not be negative")
)
