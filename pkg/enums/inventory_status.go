package enums

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InventoryStatus describes a product's stock level.
type InventoryStatus string

const (
	InventoryStatusInStock    InventoryStatus = "INSTOCK"
	InventoryStatusLowStock   InventoryStatus = "LOWSTOCK"
	InventoryStatusOutOfStock InventoryStatus = "OUTOFSTOCK"
)

var validInventoryStatuses = []InventoryStatus{
	InventoryStatusInStock,
	InventoryStatusLowStock,
	InventoryStatusOutOfStock,
}

// String implements fmt.Stringer.
func (s InventoryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventoryStatus.
func (s InventoryStatus) IsValid() bool {
	for _, candidate := range validInventoryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventoryStatus converts raw input into an InventoryStatus.
// Matching ignores case so path segments like "lowstock" resolve.
func ParseInventoryStatus(value string) (InventoryStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validInventoryStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory status %q", value)
}

// UnmarshalJSON rejects statuses outside the closed set.
func (s *InventoryStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("inventory status must be a string: %w", err)
	}
	parsed, err := ParseInventoryStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
