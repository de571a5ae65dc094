package wishlist

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/collection"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const kind = enums.CollectionKindWishlist

// Service exposes the principal's wishlist.
type Service interface {
	List(ctx context.Context, principal pkgAuth.Principal) ([]EntryDTO, error)
	Add(ctx context.Context, principal pkgAuth.Principal, productID int64) (*EntryDTO, error)
	Remove(ctx context.Context, principal pkgAuth.Principal, productID int64) error
}

type collectionEngine interface {
	List(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind) ([]collection.Entry, error)
	Add(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64, qty int) (collection.Entry, error)
	Remove(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64) error
}

type productLookup interface {
	FindByIDs(ctx context.Context, ids []int64) (map[int64]product.ProductDTO, error)
}

type service struct {
	engine   collectionEngine
	products productLookup
}

// NewService binds the collection engine to the wishlist.
func NewService(engine collectionEngine, products productLookup) (Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("collection engine required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{engine: engine, products: products}, nil
}

func (s *service) List(ctx context.Context, principal pkgAuth.Principal) ([]EntryDTO, error) {
	entries, err := s.engine.List(ctx, principal, kind)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		if p, ok := catalog[entry.ProductID]; ok {
			out = append(out, newEntryDTO(entry, p))
		}
	}
	return out, nil
}

// Add likes productID; liking it twice fails with collection.ErrAlreadyExists.
func (s *service) Add(ctx context.Context, principal pkgAuth.Principal, productID int64) (*EntryDTO, error) {
	entry, err := s.engine.Add(ctx, principal, kind, productID, 1)
	if err != nil {
		return nil, err
	}
	catalog, err := s.products.FindByIDs(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	p, ok := catalog[productID]
	if !ok {
		return nil, collection.ErrProductNotFound
	}
	dto := newEntryDTO(entry, p)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, principal pkgAuth.Principal, productID int64) error {
	return s.engine.Remove(ctx, principal, kind, productID)
}
