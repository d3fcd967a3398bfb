package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item represents a purchasable entry in the catalogue.
type Item struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Category  string          `json:"category" db:"category"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
