package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// FundingSource identifies which entry point produced a funding record
type FundingSource string

const (
	FundingSourceWallet   FundingSource = "wallet"
	FundingSourcePaystack FundingSource = "paystack"
)

// FundingRecord is an append-only fact: one inbound payment or top-up
type FundingRecord struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TxReference   string          `json:"txReference"`
	WalletAddress null.String     `json:"walletAddress"`
	Source        FundingSource   `json:"source"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// UserBalance is the mutable projection credited by funding records
type UserBalance struct {
	UserID       uuid.UUID       `json:"userId"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// LedgerTotal pairs a user's balance with the sum of their funding records
type LedgerTotal struct {
	UserID    uuid.UUID
	Balance   decimal.Decimal
	LedgerSum decimal.Decimal
}

// Difference is Balance minus LedgerSum.
func (t LedgerTotal) Difference() decimal.Decimal {
	return t.Balance.Sub(t.LedgerSum)
}

// RecordFundingInput is the validated input of the shared ledger sequence
type RecordFundingInput struct {
	UserID        uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	TxReference   string
	WalletAddress null.String
	Source        FundingSource
}

// RecordFundingResult describes the outcome of a ledger sequence.
// Duplicate is set when TxReference was already recorded; Record then holds
// the earlier record when it could be loaded.
type RecordFundingResult struct {
	Record    *FundingRecord `json:"record,omitempty"`
	Balance   *UserBalance   `json:"balance,omitempty"`
	Duplicate bool           `json:"duplicate"`
}

// DirectFundingRequest is the body accepted by the direct funding recorder
type DirectFundingRequest struct {
	UserID        string           `json:"user_id" binding:"required"`
	Amount        *decimal.Decimal `json:"amount" binding:"required"`
	Currency      string           `json:"currency" binding:"required"`
	TxReference   string           `json:"tx_reference" binding:"required"`
	WalletAddress string           `json:"wallet_address" binding:"required"`
}
