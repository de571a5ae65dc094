package auth

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	tokenType                 = "Bearer"
	invalidCredentialsMessage = "invalid credentials"
)

// Service defines the behavior needed by the account and token controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

type credentials interface {
	Register(ctx context.Context, input RegisterInput) (*models.Account, error)
	Verify(ctx context.Context, email, password string) (*models.Account, bool, error)
}

type tokenIssuer interface {
	Issue(subject string) (string, error)
}

type service struct {
	credentials credentials
	tokens      tokenIssuer
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Credentials credentials
	Tokens      tokenIssuer
}

// NewService constructs the register/login service.
func NewService(params ServiceParams) (Service, error) {
	if params.Credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	return &service{credentials: params.Credentials, tokens: params.Tokens}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	account, err := s.credentials.Register(ctx, RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		Password:  req.Password,
	})
	if err != nil {
		return nil, err
	}
	return s.respond(account)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	account, ok, err := s.credentials.Verify(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, invalidCredentialsMessage)
	}
	return s.respond(account)
}

func (s *service) respond(account *models.Account) (*AuthResponse, error) {
	token, err := s.tokens.Issue(account.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue token")
	}
	return &AuthResponse{
		Token:     token,
		Type:      tokenType,
		ID:        account.ID,
		Email:     account.Email,
		Username:  account.Username,
		FirstName: account.FirstName,
	}, nil
}
