package domain

import "errors"

var (
	// ErrInsufficientStock aborts the whole checkout; nothing is decremented.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnknownSize rejects a size label outside the fixed set.
	ErrUnknownSize = errors.New("unknown size")
	// ErrNoSizeGroup means the product has no stock row at all.
	ErrNoSizeGroup = errors.New("no size group for product")
)

// Size labels one counter of a product's size group. Products without sized
// variants keep their whole stock under SizeSingle.
type Size string

const (
	SizeSingle Size = "single"
	SizeS      Size = "S"
	SizeM      Size = "M"
	SizeL      Size = "L"
	SizeXL     Size = "XL"
	SizeXXL    Size = "XXL"
)

func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case SizeSingle, SizeS, SizeM, SizeL, SizeXL, SizeXXL:
		return Size(s), nil
	}
	return "", ErrUnknownSize
}

// Stock is a read-only snapshot of one product's size-group counters.
type Stock struct {
	ProductID int64
	Counts    map[Size]int
}

func (s Stock) Count(size Size) int {
	return s.Counts[size]
}
