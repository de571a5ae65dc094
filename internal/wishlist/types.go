package wishlist

import (
	"github.com/angelmondragon/storefront-backend/internal/collection"
	product "github.com/angelmondragon/storefront-backend/internal/products"
)

// EntryDTO is one liked product.
type EntryDTO struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	Product   product.ProductDTO `json:"product"`
	CreatedAt int64              `json:"createdAt"`
}

func newEntryDTO(entry collection.Entry, p product.ProductDTO) EntryDTO {
	return EntryDTO{
		ID:        entry.ID,
		UserID:    entry.AccountID,
		Product:   p,
		CreatedAt: entry.CreatedAt.UnixMilli(),
	}
}
