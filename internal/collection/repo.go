package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var entryConflictColumns = []clause.Column{{Name: "account_id"}, {Name: "product_id"}}

// Repository is the gorm-backed Store. Cart rows live in cart_items and
// wishlist rows in wishlist_items.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds a store bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) List(ctx context.Context, kind enums.CollectionKind, accountID int64) ([]Entry, error) {
	query := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id ASC")
	switch kind {
	case enums.CollectionKindCart:
		var rows []models.CartItem
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		out := make([]Entry, 0, len(rows))
		for _, row := range rows {
			out = append(out, cartEntry(row))
		}
		return out, nil
	case enums.CollectionKindWishlist:
		var rows []models.WishlistItem
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		out := make([]Entry, 0, len(rows))
		for _, row := range rows {
			out = append(out, wishlistEntry(row))
		}
		return out, nil
	default:
		return nil, unknownKind(kind)
	}
}

// Merge upserts in one statement so concurrent adds never lose an increment.
func (r *Repository) Merge(ctx context.Context, kind enums.CollectionKind, key Key, delta, limit int) (Entry, error) {
	if kind != enums.CollectionKindCart {
		return Entry{}, ErrUnsupported
	}
	if delta > limit {
		return Entry{}, ErrQuantityLimit
	}
	var entry Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		row := models.CartItem{
			AccountID: key.AccountID,
			ProductID: key.ProductID,
			Quantity:  delta,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		// The conflict branch only fires while the merged total stays within
		// limit; otherwise no row is written.
		res := tx.Clauses(clause.OnConflict{
			Columns: entryConflictColumns,
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"version":    gorm.Expr("cart_items.version + 1"),
				"updated_at": now,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "CAST(cart_items.quantity AS BIGINT) + excluded.quantity <= ?", Vars: []any{limit}},
			}},
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuantityLimit
		}
		stored, err := findCartItem(tx, key)
		if err != nil {
			return err
		}
		entry = cartEntry(*stored)
		return nil
	})
	if err != nil {
		return Entry{}, classify(err)
	}
	return entry, nil
}

func (r *Repository) InsertIfAbsent(ctx context.Context, kind enums.CollectionKind, key Key, quantity int) (Entry, bool, error) {
	var (
		entry   Entry
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		var row any
		switch kind {
		case enums.CollectionKindCart:
			row = &models.CartItem{AccountID: key.AccountID, ProductID: key.ProductID, Quantity: quantity, Version: 1, CreatedAt: now, UpdatedAt: now}
		case enums.CollectionKindWishlist:
			row = &models.WishlistItem{AccountID: key.AccountID, ProductID: key.ProductID, CreatedAt: now}
		default:
			return unknownKind(kind)
		}

		result := tx.Clauses(clause.OnConflict{Columns: entryConflictColumns, DoNothing: true}).Create(row)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected > 0

		var err error
		entry, err = findEntry(tx, kind, key)
		return err
	})
	if err != nil {
		return Entry{}, false, classify(err)
	}
	return entry, created, nil
}

// Replace is a single conditional UPDATE; zero affected rows means absent.
func (r *Repository) Replace(ctx context.Context, kind enums.CollectionKind, key Key, quantity int) (Entry, error) {
	if kind != enums.CollectionKindCart {
		return Entry{}, ErrUnsupported
	}
	var entry Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CartItem{}).
			Where("account_id = ? AND product_id = ?", key.AccountID, key.ProductID).
			Updates(map[string]any{
				"quantity":   quantity,
				"version":    gorm.Expr("version + 1"),
				"updated_at": r.now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEntryNotFound
		}
		stored, err := findCartItem(tx, key)
		if err != nil {
			return err
		}
		entry = cartEntry(*stored)
		return nil
	})
	if err != nil {
		return Entry{}, classify(err)
	}
	return entry, nil
}

func (r *Repository) Delete(ctx context.Context, kind enums.CollectionKind, key Key) error {
	var model any
	switch kind {
	case enums.CollectionKindCart:
		model = &models.CartItem{}
	case enums.CollectionKindWishlist:
		model = &models.WishlistItem{}
	default:
		return unknownKind(kind)
	}
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND product_id = ?", key.AccountID, key.ProductID).
		Delete(model).Error
	return classify(err)
}

func findCartItem(tx *gorm.DB, key Key) (*models.CartItem, error) {
	var row models.CartItem
	if err := tx.Where("account_id = ? AND product_id = ?", key.AccountID, key.ProductID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func findEntry(tx *gorm.DB, kind enums.CollectionKind, key Key) (Entry, error) {
	if kind == enums.CollectionKindCart {
		row, err := findCartItem(tx, key)
		if err != nil {
			return Entry{}, err
		}
		return cartEntry(*row), nil
	}
	var row models.WishlistItem
	if err := tx.Where("account_id = ? AND product_id = ?", key.AccountID, key.ProductID).First(&row).Error; err != nil {
		return Entry{}, err
	}
	return wishlistEntry(row), nil
}

// classify maps lock contention and racing inserts to ErrConflict. A row
// vanishing between write and read-back is also a lost race.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrUnsupported), errors.Is(err, ErrQuantityLimit):
		return err
	case db.IsRetryable(err), db.IsUniqueViolation(err, ""), db.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

func unknownKind(kind enums.CollectionKind) error {
	return fmt.Errorf("unknown collection kind %q", kind)
}

func cartEntry(row models.CartItem) Entry {
	return Entry{
		ID:        row.ID,
		Kind:      enums.CollectionKindCart,
		AccountID: row.AccountID,
		ProductID: row.ProductID,
		Quantity:  row.Quantity,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func wishlistEntry(row models.WishlistItem) Entry {
	return Entry{
		ID:        row.ID,
		Kind:      enums.CollectionKindWishlist,
		AccountID: row.AccountID,
		ProductID: row.ProductID,
		Quantity:  1,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.CreatedAt,
	}
}
