package collection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	opList   = "list"
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
)

// Service applies cart and wishlist semantics on top of a Store.
type Service struct {
	store   Store
	catalog ProductCatalog
	cfg     config.CollectionConfig
	metrics *metrics.CollectionMetrics
	logg    *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// ServiceParams bundles the dependencies for the collection service.
type ServiceParams struct {
	Store   Store
	Catalog ProductCatalog
	Config  config.CollectionConfig
	Metrics *metrics.CollectionMetrics
	Logger  *logger.Logger
}

// NewService constructs the collection engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("collection store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	cfg := params.Config
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxQuantity <= 0 || cfg.MaxQuantity > math.MaxInt32 {
		cfg.MaxQuantity = math.MaxInt32
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		store:   params.Store,
		catalog: params.Catalog,
		cfg:     cfg,
		metrics: params.Metrics,
		logg:    logg,
		sleep:   sleepContext,
	}, nil
}

// List returns the principal's entries of kind.
func (s *Service) List(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind) ([]Entry, error) {
	entries, err := s.list(ctx, principal, kind)
	s.record(kind, opList, err)
	return entries, err
}

// Add merges qty into a cart entry, or creates a wishlist entry and fails
// with ErrAlreadyExists when one is present.
func (s *Service) Add(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64, qty int) (Entry, error) {
	entry, err := s.add(ctx, principal, kind, productID, qty)
	s.record(kind, opAdd, err)
	return entry, err
}

// Update replaces a cart entry's quantity and fails with ErrEntryNotFound when
// the entry is absent.
func (s *Service) Update(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64, qty int) (Entry, error) {
	entry, err := s.update(ctx, principal, kind, productID, qty)
	s.record(kind, opUpdate, err)
	return entry, err
}

// Remove deletes the entry; removing an absent entry succeeds.
func (s *Service) Remove(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64) error {
	err := s.remove(ctx, principal, kind, productID)
	s.record(kind, opRemove, err)
	return err
}

func (s *Service) list(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind) ([]Entry, error) {
	if err := checkScope(principal, kind); err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, kind, principal.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list collection")
	}
	return entries, nil
}

func (s *Service) add(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64, qty int) (Entry, error) {
	if err := s.precheck(ctx, principal, kind, productID); err != nil {
		return Entry{}, err
	}
	key := Key{AccountID: principal.AccountID, ProductID: productID}

	var entry Entry
	switch kind {
	case enums.CollectionKindCart:
		if err := s.checkQuantity(qty); err != nil {
			return Entry{}, err
		}
		err := s.withRetry(ctx, kind, opAdd, func() error {
			var err error
			entry, err = s.store.Merge(ctx, kind, key, qty, s.cfg.MaxQuantity)
			return err
		})
		return entry, err
	default:
		var created bool
		err := s.withRetry(ctx, kind, opAdd, func() error {
			var err error
			entry, created, err = s.store.InsertIfAbsent(ctx, kind, key, 1)
			return err
		})
		if err != nil {
			return Entry{}, err
		}
		if !created {
			return Entry{}, ErrAlreadyExists
		}
		return entry, nil
	}
}

func (s *Service) update(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64, qty int) (Entry, error) {
	if err := s.precheck(ctx, principal, kind, productID); err != nil {
		return Entry{}, err
	}
	if kind != enums.CollectionKindCart {
		return Entry{}, ErrUnsupported
	}
	if err := s.checkQuantity(qty); err != nil {
		return Entry{}, err
	}
	key := Key{AccountID: principal.AccountID, ProductID: productID}

	var entry Entry
	err := s.withRetry(ctx, kind, opUpdate, func() error {
		var err error
		entry, err = s.store.Replace(ctx, kind, key, qty)
		return err
	})
	return entry, err
}

func (s *Service) remove(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64) error {
	if err := s.precheck(ctx, principal, kind, productID); err != nil {
		return err
	}
	key := Key{AccountID: principal.AccountID, ProductID: productID}
	return s.withRetry(ctx, kind, opRemove, func() error {
		return s.store.Delete(ctx, kind, key)
	})
}

func (s *Service) precheck(ctx context.Context, principal pkgAuth.Principal, kind enums.CollectionKind, productID int64) error {
	if err := checkScope(principal, kind); err != nil {
		return err
	}
	if productID <= 0 {
		return ErrProductNotFound
	}
	ok, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if !ok {
		return ErrProductNotFound
	}
	return nil
}

func (s *Service) checkQuantity(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > s.cfg.MaxQuantity {
		return ErrQuantityLimit
	}
	return nil
}

// withRetry runs fn until it stops reporting ErrConflict, up to MaxAttempts.
func (s *Service) withRetry(ctx context.Context, kind enums.CollectionKind, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "collection "+op)
		}
		lastErr = err
		if attempt == s.cfg.MaxAttempts {
			break
		}

		s.metrics.IncRetry(kind.String(), op)
		retryCtx := s.logg.WithFields(ctx, map[string]any{
			"kind":    kind.String(),
			"op":      op,
			"attempt": attempt,
		})
		s.logg.Warn(retryCtx, "collection.retry")

		if err := s.sleep(ctx, s.cfg.RetryBackoff*time.Duration(attempt)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransient, err, ErrTransient.Message())
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransient, lastErr, ErrTransient.Message())
}

func (s *Service) record(kind enums.CollectionKind, op string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		switch pkgerrors.As(err).Code() {
		case pkgerrors.CodeTransient:
			outcome = metrics.OutcomeTransient
		case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
			outcome = metrics.OutcomeError
		default:
			outcome = metrics.OutcomeRejected
		}
	}
	s.metrics.IncOperation(kind.String(), op, outcome)
}

func checkScope(principal pkgAuth.Principal, kind enums.CollectionKind) error {
	if principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown collection kind %q", kind))
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
