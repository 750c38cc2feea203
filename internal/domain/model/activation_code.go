package model

import (
	"time"

	"code-redemption/internal/domain"
)

type CodeStatus string

const (
	CodeStatusAvailable CodeStatus = "available" // generated, not yet claimed
	CodeStatusConsuming CodeStatus = "consuming" // claimed by an order awaiting fulfilment
	CodeStatusConsumed  CodeStatus = "consumed"  // order completed by staff
)

func (s CodeStatus) Valid() bool {
	switch s {
	case CodeStatusAvailable, CodeStatusConsuming, CodeStatusConsumed:
		return true
	}
	return false
}

// ActivationCode represents a single-use code that can be redeemed against a card.
type ActivationCode struct {
	ID        string     `json:"id"`
	CardID    string     `json:"card_id"`
	Code      string     `json:"code"`
	Status    CodeStatus `json:"status"`
	Exported  bool       `json:"exported"`
	ProxyID   *string    `json:"proxy_id,omitempty"` // owning reseller, nil for direct stock
	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"` // set once, on consuming -> consumed
}

// NewActivationCode builds a fresh available code for a card.
func NewActivationCode(cardID, code string, proxyID *string, now time.Time) *ActivationCode {
	return &ActivationCode{
		ID:        NewID(),
		CardID:    cardID,
		Code:      code,
		Status:    CodeStatusAvailable,
		ProxyID:   normalizeOptional(proxyID),
		CreatedAt: now,
	}
}

// OwnedBy reports whether the code belongs to the given proxy.
func (c *ActivationCode) OwnedBy(proxyID string) bool {
	return c.ProxyID != nil && *c.ProxyID == proxyID
}

// Claim moves the code from available to consuming.
func (c *ActivationCode) Claim() error {
	if c.Status != CodeStatusAvailable {
		return domain.ErrCodeAlreadyUsed
	}
	c.Status = CodeStatusConsuming
	return nil
}

// Consume moves the code from consuming to consumed and stamps UsedAt.
// Consuming an already consumed code is a no-op so completion can be retried.
func (c *ActivationCode) Consume(at time.Time) error {
	switch c.Status {
	case CodeStatusConsumed:
		return nil
	case CodeStatusConsuming:
		c.Status = CodeStatusConsumed
		c.UsedAt = &at
		return nil
	default:
		return domain.ErrCodeStateInvalid
	}
}
