package product

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

const productsCodeConstraint = "products_code_key"

var (
	ErrProductNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrDuplicateCode   = pkgerrors.New(pkgerrors.CodeDuplicate, "product code already exists")
)

// Service exposes catalog reads and admin mutations. Callers check the admin
// role before invoking Create, Update or Delete.
type Service interface {
	List(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id int64) (*ProductDTO, error)
	ListByCategory(ctx context.Context, category string) ([]ProductDTO, error)
	ListByStatus(ctx context.Context, status string) ([]ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id int64, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]ProductDTO, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	return s.list(ctx, ListFilter{})
}

func (s *service) Get(ctx context.Context, id int64) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListByCategory(ctx context.Context, category string) ([]ProductDTO, error) {
	return s.list(ctx, ListFilter{Category: category})
}

func (s *service) ListByStatus(ctx context.Context, status string) ([]ProductDTO, error) {
	parsed, err := enums.ParseInventoryStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inventory status").
			WithDetails(map[string]string{"status": "must be one of INSTOCK, LOWSTOCK, OUTOFSTOCK"})
	}
	return s.list(ctx, ListFilter{Status: parsed})
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	product := &models.Product{}
	applyInputToProduct(product, input)

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, productsCodeConstraint) {
			return nil, ErrDuplicateCode
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return NewProductDTO(created), nil
}

func (s *service) Update(ctx context.Context, id int64, input ProductInput) (*ProductDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return ErrProductNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		applyInputToProduct(product, input)
		updated, err = repo.UpdateProduct(ctx, product)
		if err != nil {
			if db.IsUniqueViolation(err, productsCodeConstraint) {
				return ErrDuplicateCode
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

// Delete removes the product together with every cart and wishlist entry
// that references it.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteCollectionEntries(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete collection entries")
		}
		deleted, err := repo.DeleteProduct(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		if !deleted {
			return ErrProductNotFound
		}
		return nil
	})
}

func (s *service) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	return ok, nil
}

func (s *service) FindByIDs(ctx context.Context, ids []int64) (map[int64]ProductDTO, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	out := make(map[int64]ProductDTO, len(rows))
	for id, row := range rows {
		out[id] = *NewProductDTO(&row)
	}
	return out, nil
}

func (s *service) list(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return newProductDTOs(rows), nil
}

func validateInput(input ProductInput) error {
	details := map[string]string{}
	if input.Price != nil && input.Price.IsNegative() {
		details["price"] = "must be at least 0"
	}
	if input.InventoryStatus != "" && !input.InventoryStatus.IsValid() {
		details["inventoryStatus"] = "must be one of INSTOCK, LOWSTOCK, OUTOFSTOCK"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
