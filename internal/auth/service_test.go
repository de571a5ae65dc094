package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

type stubCredentials struct {
	registerErr error
	account     *models.Account
	verifyOK    bool
	verifyErr   error
}

func (s stubCredentials) Register(_ context.Context, input RegisterInput) (*models.Account, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &models.Account{ID: 7, Email: input.Email, Username: input.Username, FirstName: input.FirstName}, nil
}

func (s stubCredentials) Verify(context.Context, string, string) (*models.Account, bool, error) {
	return s.account, s.verifyOK, s.verifyErr
}

type stubIssuer struct {
	err error
}

func (s stubIssuer) Issue(subject string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + subject, nil
}

func TestServiceRegisterReturnsToken(t *testing.T) {
	svc, err := NewService(ServiceParams{Credentials: stubCredentials{}, Tokens: stubIssuer{}})
	require.NoError(t, err)

	resp, err := svc.Register(context.Background(), RegisterRequest{Username: "ab", FirstName: "A", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "token-for-a@b.com", resp.Token)
	require.Equal(t, "Bearer", resp.Type)
	require.Equal(t, int64(7), resp.ID)
	require.Equal(t, "A", resp.FirstName)
}

func TestServiceRegisterPropagatesDuplicate(t *testing.T) {
	svc, err := NewService(ServiceParams{Credentials: stubCredentials{registerErr: ErrDuplicateEmail}, Tokens: stubIssuer{}})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestServiceLogin(t *testing.T) {
	account := &models.Account{ID: 3, Email: "a@b.com", Username: "ab"}
	svc, err := NewService(ServiceParams{Credentials: stubCredentials{account: account, verifyOK: true}, Tokens: stubIssuer{}})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, int64(3), resp.ID)
	require.Equal(t, "token-for-a@b.com", resp.Token)
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	svc, err := NewService(ServiceParams{Credentials: stubCredentials{}, Tokens: stubIssuer{}})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "nope"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthenticated), "got %v", err)
}

func TestServiceWrapsIssueFailure(t *testing.T) {
	account := &models.Account{ID: 3, Email: "a@b.com"}
	svc, err := NewService(ServiceParams{
		Credentials: stubCredentials{account: account, verifyOK: true},
		Tokens:      stubIssuer{err: errors.New("boom")},
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal), "got %v", err)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Tokens: stubIssuer{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Credentials: stubCredentials{}})
	require.Error(t, err)
}
