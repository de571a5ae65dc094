package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

const (
	accountsEmailConstraint = "accounts_email_key"
	dummyPassword           = "storefront-dummy-password"
)

var (
	ErrDuplicateEmail  = pkgerrors.New(pkgerrors.CodeDuplicate, "email already registered")
	ErrAccountNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	Password  string
}

// CredentialStore owns account registration and password verification.
type CredentialStore struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
	authCfg     config.AuthConfig
	dummyHash   string
	logg        *logger.Logger
}

// CredentialStoreParams packages the dependencies for the credential store.
type CredentialStoreParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	AuthConfig     config.AuthConfig
	Logger         *logger.Logger
}

// NewCredentialStore builds a store and precomputes the hash used to keep
// unknown-email verification as slow as a real one.
func NewCredentialStore(params CredentialStoreParams) (*CredentialStore, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	dummy, err := security.HashPassword(dummyPassword, params.PasswordConfig)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash dummy password")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &CredentialStore{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
		authCfg:     params.AuthConfig,
		dummyHash:   dummy,
		logg:        logg,
	}, nil
}

// Register creates an account, failing with ErrDuplicateEmail when the email
// is taken. An existing account is never modified.
func (s *CredentialStore) Register(ctx context.Context, input RegisterInput) (*models.Account, error) {
	email := s.authCfg.NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required").
			WithDetails(map[string]string{"email": "is required"})
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required").
			WithDetails(map[string]string{"password": "is required"})
	}

	passwordHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var account *models.Account
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		if _, err := s.lookup(ctx, repo, email); err == nil {
			return ErrDuplicateEmail
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check account email")
		}

		created, err := repo.Create(ctx, users.CreateAccountDTO{
			Email:        email,
			Username:     strings.TrimSpace(input.Username),
			FirstName:    strings.TrimSpace(input.FirstName),
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, accountsEmailConstraint) {
				return ErrDuplicateEmail
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
		}
		account = created
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, accountsEmailConstraint) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return account, nil
}

// Verify returns the account and true when password matches. Unknown email
// and wrong password both return (nil, false, nil).
func (s *CredentialStore) Verify(ctx context.Context, email, password string) (*models.Account, bool, error) {
	account, err := s.lookup(ctx, users.NewRepository(s.db.DB()), s.authCfg.NormalizeEmail(email))
	if err != nil {
		if db.IsNotFound(err) {
			_, _ = security.VerifyPassword(password, s.dummyHash)
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, false, nil
	}

	if security.NeedsRehash(account.PasswordHash, s.passwordCfg) {
		s.rehash(ctx, account, password)
	}
	return account, true, nil
}

// FindByEmail resolves a token subject to its account.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.lookup(ctx, users.NewRepository(s.db.DB()), s.authCfg.NormalizeEmail(email))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}
	return account, nil
}

func (s *CredentialStore) lookup(ctx context.Context, repo *users.Repository, email string) (*models.Account, error) {
	if s.authCfg.EmailCaseInsensitive {
		return repo.FindByEmailFold(ctx, email)
	}
	return repo.FindByEmail(ctx, email)
}

// rehash upgrades legacy or outdated hashes after a successful login. Failure
// leaves the old hash in place.
func (s *CredentialStore) rehash(ctx context.Context, account *models.Account, password string) {
	ctx = s.logg.WithAccountID(ctx, account.ID)
	upgraded, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.rehash_failed")
		return
	}
	if err := users.NewRepository(s.db.DB()).UpdatePasswordHash(ctx, account.ID, upgraded); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.rehash_failed")
		return
	}
	account.PasswordHash = upgraded
	s.logg.Debug(ctx, "auth.rehashed")
}
