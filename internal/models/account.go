package models

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a person who can own, join and work in workspaces
type Account struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	DisplayName string    `gorm:"column:display_name;not null" json:"display_name"`
	Settings    JSONB     `gorm:"column:settings;type:jsonb;default:'{}'" json:"settings"`
	Timestamps
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate normalizes the email so lookups are case-insensitive
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	a.Email = NormalizeEmail(a.Email)
	return nil
}

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountManager provides ORM methods for Account
type AccountManager struct {
	db *gorm.DB
}

// NewAccountManager creates a new AccountManager instance
func NewAccountManager(db *gorm.DB) *AccountManager {
	return &AccountManager{db: db}
}

// CreateAccount creates a new account
func (m *AccountManager) CreateAccount(ctx context.Context, account *Account) error {
	return translate(m.db.WithContext(ctx).Create(account).Error)
}

// GetAccount retrieves an account by ID
func (m *AccountManager) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	var account Account
	if err := m.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by its normalized email
func (m *AccountManager) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := m.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&account).Error
	if err != nil {
		return nil, translate(err)
	}
	return &account, nil
}
