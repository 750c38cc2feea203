package model

import (
	"time"

	"github.com/shopspring/decimal"

	"code-redemption/internal/domain"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted:
		return true
	}
	return false
}

// Order tracks the fulfilment of one redeemed activation code.
// Card name and price are copied at creation so history survives catalog edits.
type Order struct {
	ID          string          `json:"id"`
	CodeID      string          `json:"code_id"`
	Code        string          `json:"activation_code"`
	Status      OrderStatus     `json:"status"`
	BuyerID     *string         `json:"buyer_id,omitempty"`
	ChannelID   *string         `json:"channel_id,omitempty"`
	Remarks     string          `json:"remarks,omitempty"`
	CardName    string          `json:"card_name"`
	CardPrice   decimal.Decimal `json:"pricing"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewOrder creates a pending order for a code that has already been claimed.
func NewOrder(code *ActivationCode, card *Card, buyerID, channelID *string, remarks string, now time.Time) (*Order, error) {
	if code == nil || card == nil {
		return nil, domain.ErrInvalidArgument
	}
	if code.Status != CodeStatusConsuming {
		return nil, domain.ErrCodeStateInvalid
	}
	ch := normalizeOptional(channelID)
	if ch == nil {
		ch = card.ChannelID
	}
	return &Order{
		ID:        NewID(),
		CodeID:    code.ID,
		Code:      code.Code,
		Status:    OrderStatusPending,
		BuyerID:   normalizeOptional(buyerID),
		ChannelID: ch,
		Remarks:   remarks,
		CardName:  card.Name,
		CardPrice: card.Price,
		CreatedAt: now,
	}, nil
}

// AwaitingFulfilment reports whether staff still has to act on the order.
func (o *Order) AwaitingFulfilment() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// Start marks the order as picked up by staff. Starting twice is allowed.
func (o *Order) Start() error {
	switch o.Status {
	case OrderStatusPending:
		o.Status = OrderStatusProcessing
		return nil
	case OrderStatusProcessing:
		return nil
	default:
		return domain.ErrOrderCompleted
	}
}

// Complete stamps CompletedAt once; it reports false if the order was already completed.
func (o *Order) Complete(at time.Time, remarks string) bool {
	if o.Status == OrderStatusCompleted {
		return false
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &at
	if remarks != "" {
		o.Remarks = remarks
	}
	return true
}

// OrderStats counts orders per status.
type OrderStats struct {
	Total      int `json:"total_orders"`
	Pending    int `json:"pending_orders"`
	Processing int `json:"processing_orders"`
	Completed  int `json:"completed_orders"`
}
