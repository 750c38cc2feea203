package model

import "time"

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// Page is a limit/offset window shared by every list query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// CodeFilter selects activation codes of one card.
type CodeFilter struct {
	CardID   string
	ProxyID  *string
	Status   *CodeStatus
	Exported *bool
	Page     Page
}

// OrderFilter selects orders for admin and staff views.
type OrderFilter struct {
	Statuses    []OrderStatus
	ChannelID   *string
	BuyerID     *string
	OldestFirst bool // default is newest first
	Page        Page
}

// SaleFilter selects ledger entries. BuyerEmail matches the normalized
// address exactly; CardName is a case-insensitive substring.
type SaleFilter struct {
	CardName   *string
	BuyerEmail *string
	From     *time.Time
	To       *time.Time
	Page     Page
}

// RevenueQuery names the aggregation target. Exactly one of ProxyID,
// ChannelID or Query is expected; Query matches proxy identifiers.
type RevenueQuery struct {
	ProxyID   *string
	ChannelID *string
	Query     string
	From      *time.Time
	To        *time.Time
}
