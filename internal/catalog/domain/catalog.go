package domain

import (
	"errors"
	"time"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

// Product prices are integer minor units (kopecks), never floats.
type Product struct {
	ID             int64
	Name           string
	Description    string
	PriceCents     int64
	CategoryID     *int64
	SizeGroupID    *int64
	PrimaryImageID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductImage struct {
	ID        int64
	ProductID *int64
	URL       string
	AltText   string
	Position  int
}
