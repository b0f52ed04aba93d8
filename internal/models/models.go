package models

import (
	"time"
)

// PaymentStatus payment request lifecycle status
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // request created, waiting for payer
	PaymentStatusProcessing PaymentStatus = "processing" // transfer in flight
	PaymentStatusCompleted  PaymentStatus = "completed"  // mint confirmed
	PaymentStatusFailed     PaymentStatus = "failed"     // a step exhausted its retries
)

// WalletRole smart wallet contract role
type WalletRole string

const (
	WalletRoleBurn     WalletRole = "burn-only"
	WalletRoleTransfer WalletRole = "transfer-only"
)

// UserAccount is a registered user keyed by email.
type UserAccount struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	Email     string        `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Wallets   []SmartWallet `gorm:"foreignKey:AccountID" json:"wallets"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SmartWallet is the local record of a factory-deployed wallet contract.
// The on-chain event log is the source of truth; rows here are a cache and
// are treated as append-only history.
type SmartWallet struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	AccountID   uint       `gorm:"index" json:"-"`
	Address     string     `gorm:"size:42;not null;index" json:"address"`
	ChainKey    string     `gorm:"size:32;not null" json:"chain"`
	Role        WalletRole `gorm:"size:16;not null" json:"role"`
	Destination string     `gorm:"size:66" json:"destination"` // mint recipient or encoded transfer destination
	CreatedAt   time.Time  `json:"created_at"`
}

// PaymentRequest is a durable payment record addressed by payid. Status and
// hash are updated as a transfer progresses; rows are never deleted.
type PaymentRequest struct {
	ID          uint          `gorm:"primaryKey" json:"-"`
	PayID       string        `gorm:"uniqueIndex;size:64;not null" json:"payid"`
	Email       string        `gorm:"size:255;not null;index" json:"email"`
	Wallets     string        `gorm:"type:text" json:"wallets"` // JSON snapshot of the payer's smart wallets
	Amount      string        `gorm:"size:64;not null" json:"amount"` // decimal USDC string
	Status      PaymentStatus `gorm:"size:16;not null;default:pending" json:"status"`
	TxHash      string        `gorm:"size:66" json:"tx_hash"`
	Description string        `gorm:"size:512" json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
