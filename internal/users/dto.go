package users

import (
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// AccountDTO is the transport shape that omits credentials.
type AccountDTO struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
}

// CreateAccountDTO holds the data required by the repo to persist a new account.
type CreateAccountDTO struct {
	Email        string
	Username     string
	FirstName    string
	PasswordHash string
}

func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:        a.ID,
		Email:     a.Email,
		Username:  a.Username,
		FirstName: a.FirstName,
	}
}

func (c CreateAccountDTO) ToModel() *models.Account {
	return &models.Account{
		Email:        c.Email,
		Username:     c.Username,
		FirstName:    c.FirstName,
		PasswordHash: c.PasswordHash,
	}
}
