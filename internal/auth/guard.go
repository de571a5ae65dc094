package auth

import (
	"context"
	"errors"
	"strings"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const bearerScheme = "bearer"

var (
	ErrUnauthenticated = pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required")
	ErrForbidden       = pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
)

type tokenValidator interface {
	Validate(token string) (string, error)
}

type accountResolver interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Guard turns a bearer header into a Principal and checks roles.
type Guard struct {
	tokens   tokenValidator
	accounts accountResolver
	authCfg  config.AuthConfig
	logg     *logger.Logger
}

// GuardParams packages the dependencies for the guard.
type GuardParams struct {
	Tokens     tokenValidator
	Accounts   accountResolver
	AuthConfig config.AuthConfig
	Logger     *logger.Logger
}

// NewGuard builds a guard from its collaborators.
func NewGuard(params GuardParams) (*Guard, error) {
	if params.Tokens == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "token validator required")
	}
	if params.Accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "account resolver required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Guard{
		tokens:   params.Tokens,
		accounts: params.Accounts,
		authCfg:  params.AuthConfig,
		logg:     logg,
	}, nil
}

// Authenticate validates the raw Authorization header value. Credential
// failures are reported as ErrUnauthenticated with the reason only logged; a
// store failure while resolving the subject surfaces as an internal error.
func (g *Guard) Authenticate(ctx context.Context, header string) (pkgAuth.Principal, error) {
	token, ok := bearerToken(header)
	if !ok {
		return pkgAuth.Principal{}, g.reject(ctx, "missing_bearer", nil)
	}

	subject, err := g.tokens.Validate(token)
	if err != nil {
		return pkgAuth.Principal{}, g.reject(ctx, "invalid_token", err)
	}

	account, err := g.accounts.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return pkgAuth.Principal{}, g.reject(ctx, "unknown_subject", err)
		}
		if pkgerrors.As(err) != nil {
			return pkgAuth.Principal{}, err
		}
		return pkgAuth.Principal{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve token subject")
	}

	return g.PrincipalFor(account), nil
}

// PrincipalFor builds the principal for an already verified account.
func (g *Guard) PrincipalFor(account *models.Account) pkgAuth.Principal {
	role := enums.RoleStandard
	if g.authCfg.IsAdminEmail(account.Email) {
		role = enums.RoleAdmin
	}
	return pkgAuth.Principal{
		AccountID: account.ID,
		Email:     account.Email,
		Username:  account.Username,
		FirstName: account.FirstName,
		Role:      role,
	}
}

// RequireRole fails with ErrForbidden when principal lacks role. Any
// authenticated principal satisfies the standard role.
func (g *Guard) RequireRole(principal pkgAuth.Principal, role enums.Role) error {
	if principal.IsZero() {
		return ErrUnauthenticated
	}
	switch role {
	case enums.RoleStandard:
		return nil
	case enums.RoleAdmin:
		if principal.IsAdmin() {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

func (g *Guard) reject(ctx context.Context, reason string, cause error) error {
	ctx = g.logg.WithField(ctx, "reason", reason)
	if cause != nil {
		ctx = g.logg.WithField(ctx, "cause", cause.Error())
	}
	g.logg.Warn(ctx, "auth.rejected")
	return ErrUnauthenticated
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
