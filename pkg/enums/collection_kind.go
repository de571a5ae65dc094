package enums

import "fmt"

// CollectionKind names a per-account product collection.
type CollectionKind string

const (
	CollectionKindCart     CollectionKind = "cart"
	CollectionKindWishlist CollectionKind = "wishlist"
)

var validCollectionKinds = []CollectionKind{
	CollectionKindCart,
	CollectionKindWishlist,
}

// String implements fmt.Stringer.
func (k CollectionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CollectionKind.
func (k CollectionKind) IsValid() bool {
	for _, candidate := range validCollectionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCollectionKind converts raw input into a CollectionKind.
func ParseCollectionKind(value string) (CollectionKind, error) {
	for _, candidate := range validCollectionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collection kind %q", value)
}
