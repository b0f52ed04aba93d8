// Package repository provides data access interfaces and implementations
package repository

import (
	"context"

	"bridge-backend/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines the interface for user account data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.UserAccount) error
	GetByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	AddWallet(ctx context.Context, accountID uint, wallet *models.SmartWallet) error
	FindWallet(ctx context.Context, chainKey, destination string) (*models.SmartWallet, error)
}

// accountRepository implements AccountRepository
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new user account
func (r *accountRepository) Create(ctx context.Context, account *models.UserAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByEmail retrieves an account with its wallets by email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	var account models.UserAccount
	err := r.db.WithContext(ctx).
		Preload("Wallets").
		Where("email = ?", email).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// AddWallet appends a wallet record to an account
func (r *accountRepository) AddWallet(ctx context.Context, accountID uint, wallet *models.SmartWallet) error {
	wallet.AccountID = accountID
	return r.db.WithContext(ctx).Create(wallet).Error
}

// FindWallet looks up a cached wallet record by chain and destination
func (r *accountRepository) FindWallet(ctx context.Context, chainKey, destination string) (*models.SmartWallet, error) {
	var wallet models.SmartWallet
	err := r.db.WithContext(ctx).
		Where("chain_key = ? AND destination = ?", chainKey, destination).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
