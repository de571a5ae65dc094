package auth

import (
	"context"
	"errors"
	"testing"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubValidator struct {
	subject string
	err     error
	got     string
}

func (s *stubValidator) Validate(token string) (string, error) {
	s.got = token
	return s.subject, s.err
}

type stubResolver struct {
	accounts map[string]*models.Account
}

func (s stubResolver) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	if account, ok := s.accounts[email]; ok {
		return account, nil
	}
	return nil, ErrAccountNotFound
}

type failingResolver struct {
	err error
}

func (f failingResolver) FindByEmail(context.Context, string) (*models.Account, error) {
	return nil, f.err
}

func newTestGuard(t *testing.T, validator *stubValidator) *Guard {
	t.Helper()
	guard, err := NewGuard(GuardParams{
		Tokens: validator,
		Accounts: stubResolver{accounts: map[string]*models.Account{
			"a@b.com":         {ID: 1, Email: "a@b.com", Username: "ab", FirstName: "A"},
			"admin@admin.com": {ID: 2, Email: "admin@admin.com", Username: "admin"},
		}},
		AuthConfig: config.AuthConfig{AdminEmail: "admin@admin.com"},
		Logger:     logger.Nop(),
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	return guard
}

func TestAuthenticateResolvesPrincipal(t *testing.T) {
	validator := &stubValidator{subject: "a@b.com"}
	guard := newTestGuard(t, validator)

	principal, err := guard.Authenticate(context.Background(), "Bearer tok-123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if validator.got != "tok-123" {
		t.Fatalf("expected bearer prefix stripped, got %q", validator.got)
	}
	if principal.AccountID != 1 || principal.Role != enums.RoleStandard || principal.Username != "ab" {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestAuthenticateAdminRole(t *testing.T) {
	guard := newTestGuard(t, &stubValidator{subject: "admin@admin.com"})
	principal, err := guard.Authenticate(context.Background(), "bearer tok")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !principal.IsAdmin() {
		t.Fatalf("expected admin principal, got %+v", principal)
	}
}

func TestAuthenticateFailuresAreUnauthenticated(t *testing.T) {
	cases := map[string]struct {
		header    string
		validator *stubValidator
	}{
		"empty header":    {header: "", validator: &stubValidator{subject: "a@b.com"}},
		"wrong scheme":    {header: "Basic abc", validator: &stubValidator{subject: "a@b.com"}},
		"scheme only":     {header: "Bearer ", validator: &stubValidator{subject: "a@b.com"}},
		"malformed":       {header: "Bearer x", validator: &stubValidator{err: pkgAuth.ErrMalformed}},
		"bad signature":   {header: "Bearer x", validator: &stubValidator{err: pkgAuth.ErrBadSignature}},
		"expired":         {header: "Bearer x", validator: &stubValidator{err: pkgAuth.ErrExpired}},
		"unknown subject": {header: "Bearer x", validator: &stubValidator{subject: "gone@b.com"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			guard := newTestGuard(t, tc.validator)
			principal, err := guard.Authenticate(context.Background(), tc.header)
			if !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected unauthenticated, got %v", err)
			}
			if !principal.IsZero() {
				t.Fatalf("expected zero principal, got %+v", principal)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	guard := newTestGuard(t, &stubValidator{})
	standard := pkgAuth.Principal{AccountID: 1, Email: "a@b.com", Role: enums.RoleStandard}
	admin := pkgAuth.Principal{AccountID: 2, Email: "admin@admin.com", Role: enums.RoleAdmin}

	if err := guard.RequireRole(standard, enums.RoleStandard); err != nil {
		t.Fatalf("standard principal should satisfy standard role: %v", err)
	}
	if err := guard.RequireRole(admin, enums.RoleStandard); err != nil {
		t.Fatalf("admin principal should satisfy standard role: %v", err)
	}
	if err := guard.RequireRole(admin, enums.RoleAdmin); err != nil {
		t.Fatalf("admin principal should satisfy admin role: %v", err)
	}
	err := guard.RequireRole(standard, enums.RoleAdmin)
	if !errors.Is(err, ErrForbidden) || !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := guard.RequireRole(pkgAuth.Principal{}, enums.RoleStandard); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("zero principal must be unauthenticated, got %v", err)
	}
}

func TestAdminEmailMatchingFollowsConfig(t *testing.T) {
	guard, err := NewGuard(GuardParams{
		Tokens:     &stubValidator{},
		Accounts:   stubResolver{},
		AuthConfig: config.AuthConfig{AdminEmail: "admin@admin.com"},
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	if guard.PrincipalFor(&models.Account{ID: 9, Email: "Admin@Admin.com"}).IsAdmin() {
		t.Fatal("exact matching must not grant admin to a differently cased email")
	}

	guard.authCfg.EmailCaseInsensitive = true
	if !guard.PrincipalFor(&models.Account{ID: 9, Email: "Admin@Admin.com"}).IsAdmin() {
		t.Fatal("folded matching should grant admin")
	}
}

func TestAuthenticateSurfacesStoreFailure(t *testing.T) {
	cases := map[string]error{
		"typed":   pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("connection refused"), "lookup account"),
		"untyped": errors.New("connection refused"),
	}
	for name, storeErr := range cases {
		t.Run(name, func(t *testing.T) {
			guard, err := NewGuard(GuardParams{
				Tokens:   &stubValidator{subject: "a@b.com"},
				Accounts: failingResolver{err: storeErr},
				Logger:   logger.Nop(),
			})
			if err != nil {
				t.Fatalf("new guard: %v", err)
			}
			_, err = guard.Authenticate(context.Background(), "Bearer tok")
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeInternal {
				t.Fatalf("expected internal error, got code=%s err=%v", code, err)
			}
			if errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("store failure must not look like bad credentials: %v", err)
			}
		})
	}
}

func TestAuthenticateUnknownSubjectIsUnauthenticated(t *testing.T) {
	guard := newTestGuard(t, &stubValidator{subject: "gone@b.com"})
	_, err := guard.Authenticate(context.Background(), "Bearer tok")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
