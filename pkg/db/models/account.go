package models

import "time"

// Account is a registered shopper identity. Role is derived from the email
// at request time and is not stored.
type Account struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Email        string    `gorm:"column:email;not null;uniqueIndex:accounts_email_key"`
	Username     string    `gorm:"column:username;not null"`
	FirstName    string    `gorm:"column:firstname"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string { return "accounts" }
