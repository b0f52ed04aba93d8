package dto

// ==================== Wallet DTOs ====================

// CreateWalletRequest create a burn wallet on a single chain
type CreateWalletRequest struct {
	ChainKey      string `json:"chain" binding:"required"`
	MintRecipient string `json:"mint_recipient" binding:"required"`
}

// CreateAllWalletsRequest provision the full wallet set for an account
type CreateAllWalletsRequest struct {
	Email       string `json:"email"`
	Destination string `json:"destination" binding:"required"`
}

// ==================== Transfer DTOs ====================

// TransferRequest start a burn -> attest -> mint transfer.
// Amount accepts a decimal USDC string ("0.001") or an integer string in
// smallest units ("1000"); conversion happens at this boundary.
type TransferRequest struct {
	SourceChain   string `json:"chain" binding:"required"`
	DestChain     string `json:"dest_chain" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	PayID         string `json:"payid"`
}

// ==================== Payment DTOs ====================

// CreatePaymentRequest create a durable payment request
type CreatePaymentRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// UpdatePaymentStatusRequest update status/hash as a transfer progresses
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
	TxHash string `json:"tx_hash"`
}

// ==================== Shared ====================

// ErrorResponse structured failure: message plus classification
type ErrorResponse struct {
	Error          string `json:"error"`
	Classification string `json:"classification,omitempty"`
	Details        string `json:"details,omitempty"`
}
