package cart

import (
	"github.com/angelmondragon/storefront-backend/internal/collection"
	product "github.com/angelmondragon/storefront-backend/internal/products"
)

// EntryDTO is one cart line with its product loaded. Timestamps are epoch
// milliseconds.
type EntryDTO struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"userId"`
	Product   product.ProductDTO `json:"product"`
	Quantity  int                `json:"quantity"`
	CreatedAt int64              `json:"createdAt"`
	UpdatedAt int64              `json:"updatedAt"`
}

func newEntryDTO(entry collection.Entry, p product.ProductDTO) EntryDTO {
	return EntryDTO{
		ID:        entry.ID,
		UserID:    entry.AccountID,
		Product:   p,
		Quantity:  entry.Quantity,
		CreatedAt: entry.CreatedAt.UnixMilli(),
		UpdatedAt: entry.UpdatedAt.UnixMilli(),
	}
}
