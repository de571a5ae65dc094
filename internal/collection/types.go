package collection

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var (
	ErrProductNotFound = pkgerrors.New(pkgerrors.CodeInvalidReference, "product not found")
	ErrEntryNotFound   = pkgerrors.New(pkgerrors.CodeInvalidReference, "product is not in the collection")
	ErrAlreadyExists   = pkgerrors.New(pkgerrors.CodeDuplicate, "product already in the collection")
	ErrInvalidQuantity = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	ErrQuantityLimit   = pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the allowed maximum")
	ErrUnsupported     = pkgerrors.New(pkgerrors.CodeValidation, "operation not supported for this collection")
	ErrTransient       = pkgerrors.New(pkgerrors.CodeTransient, "collection busy, retry the request")
)

// ErrConflict is returned by stores when a write lost a race that is safe to
// retry. The service never surfaces it directly.
var ErrConflict = errors.New("collection write conflict")

// Key identifies one entry: a product within an account's collection.
type Key struct {
	AccountID int64
	ProductID int64
}

// Entry is a stored collection row. Quantity is always 1 for wishlists.
type Entry struct {
	ID        int64
	Kind      enums.CollectionKind
	AccountID int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists entries. Every mutation is atomic per key; implementations
// report lost races as ErrConflict.
type Store interface {
	List(ctx context.Context, kind enums.CollectionKind, accountID int64) ([]Entry, error)
	// Merge adds delta to the entry's quantity, creating it when absent. It
	// fails with ErrQuantityLimit, leaving the entry untouched, when the
	// merged quantity would exceed limit.
	Merge(ctx context.Context, kind enums.CollectionKind, key Key, delta, limit int) (Entry, error)
	// InsertIfAbsent creates the entry and reports false when it already existed.
	InsertIfAbsent(ctx context.Context, kind enums.CollectionKind, key Key, quantity int) (Entry, bool, error)
	// Replace overwrites the quantity or fails with ErrEntryNotFound.
	Replace(ctx context.Context, kind enums.CollectionKind, key Key, quantity int) (Entry, error)
	// Delete removes the entry; a missing entry is not an error.
	Delete(ctx context.Context, kind enums.CollectionKind, key Key) error
}

// ProductCatalog answers whether a product id is known.
type ProductCatalog interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
