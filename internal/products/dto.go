package product

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ProductDTO is the wire shape of a catalog entry. Timestamps are epoch
// milliseconds.
type ProductDTO struct {
	ID                int64                 `json:"id"`
	Code              string                `json:"code"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	Image             string                `json:"image"`
	Category          string                `json:"category"`
	Price             decimal.Decimal       `json:"price"`
	Quantity          int                   `json:"quantity"`
	InternalReference string                `json:"internalReference"`
	ShellID           *int                  `json:"shellId,omitempty"`
	InventoryStatus   enums.InventoryStatus `json:"inventoryStatus"`
	Rating            *int                  `json:"rating,omitempty"`
	CreatedAt         int64                 `json:"createdAt"`
	UpdatedAt         int64                 `json:"updatedAt"`
}

// ProductInput is the body of admin create and update calls. Update replaces
// every field.
type ProductInput struct {
	Code              string                `json:"code" validate:"required,max=64"`
	Name              string                `json:"name" validate:"required,max=255"`
	Description       string                `json:"description" validate:"max=2000"`
	Image             string                `json:"image" validate:"max=512"`
	Category          string                `json:"category" validate:"max=100"`
	Price             *decimal.Decimal      `json:"price" validate:"required"`
	Quantity          *int                  `json:"quantity" validate:"required,min=0"`
	InternalReference string                `json:"internalReference" validate:"max=100"`
	ShellID           *int                  `json:"shellId"`
	InventoryStatus   enums.InventoryStatus `json:"inventoryStatus"`
	Rating            *int                  `json:"rating" validate:"omitempty,min=0,max=5"`
}

func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:                p.ID,
		Code:              p.Code,
		Name:              p.Name,
		Description:       p.Description,
		Image:             p.Image,
		Category:          p.Category,
		Price:             p.Price,
		Quantity:          p.Quantity,
		InternalReference: p.InternalReference,
		ShellID:           p.ShellID,
		InventoryStatus:   p.InventoryStatus,
		Rating:            p.Rating,
		CreatedAt:         p.CreatedAt.UnixMilli(),
		UpdatedAt:         p.UpdatedAt.UnixMilli(),
	}
}

func newProductDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out
}

func applyInputToProduct(product *models.Product, input ProductInput) {
	product.Code = strings.TrimSpace(input.Code)
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Image = strings.TrimSpace(input.Image)
	product.Category = strings.TrimSpace(input.Category)
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	product.InternalReference = strings.TrimSpace(input.InternalReference)
	product.ShellID = input.ShellID
	product.InventoryStatus = input.InventoryStatus
	if product.InventoryStatus == "" {
		product.InventoryStatus = enums.InventoryStatusInStock
	}
	product.Rating = input.Rating
}
