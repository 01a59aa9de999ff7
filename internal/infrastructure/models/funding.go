package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

type FundingRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency      string          `gorm:"type:varchar(10);not null"`
	TxReference   string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	WalletAddress null.String     `gorm:"type:varchar(64)"`
	Source        string          `gorm:"type:varchar(20);not null"`
	CreatedAt     time.Time
}

func (FundingRecord) TableName() string {
	return "funding_records"
}

// Profile is the user row owned by the account service; only the balance
// columns are mapped here.
type Profile struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TotalBalance decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	UpdatedAt    time.Time
}

func (Profile) TableName() string {
	return "profiles"
}
