package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"code-redemption/internal/domain"
)

// SaleRecord is the append-only ledger entry of a direct purchase.
type SaleRecord struct {
	ID          string          `json:"id"`
	Code        string          `json:"activation_code"`
	BuyerEmail  string          `json:"user_email"`
	Price       decimal.Decimal `json:"sale_price"`
	CardName    string          `json:"card_name"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

func NewSaleRecord(code, email string, price decimal.Decimal, cardName string, now time.Time) (*SaleRecord, error) {
	addr, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return &SaleRecord{
		ID:          NewID(),
		Code:        code,
		BuyerEmail:  addr,
		Price:       price,
		CardName:    cardName,
		PurchasedAt: now,
	}, nil
}

// NormalizeEmail validates a buyer address and returns its bare form.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 255 {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// Revenue is an aggregate over consumed codes attributable to a proxy or channel.
type Revenue struct {
	ProxyID       *string         `json:"proxy_id,omitempty"`
	ChannelID     *string         `json:"channel_id,omitempty"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	ConsumedCount int             `json:"consumed_count"`
	From          *time.Time      `json:"start_date,omitempty"`
	To            *time.Time      `json:"end_date,omitempty"`
}

// SaleStats summarizes the ledger over a filter window.
type SaleStats struct {
	TotalSales   int             `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	ByCard       []CardSales     `json:"by_card"`
	From         *time.Time      `json:"start_date,omitempty"`
	To           *time.Time      `json:"end_date,omitempty"`
}

// CardSales is one card's share of SaleStats, ordered by revenue.
type CardSales struct {
	CardName string          `json:"card_name"`
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
}
