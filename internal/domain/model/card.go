package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"code-redemption/internal/domain"
)

// Card is a sellable product definition. Activation codes are generated
// against a card and inherit its price at order time.
type Card struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	ChannelID   *string         `json:"channel_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (c *Card) IsZero() bool { return c == nil || c.ID == "" }

// NewCard validates and constructs a card.
func NewCard(name, description string, price decimal.Decimal, active bool, channelID *string) (*Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if price.IsNegative() {
		return nil, domain.ErrNegativePrice
	}
	return &Card{
		ID:          NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Price:       price.Round(2),
		Active:      active,
		ChannelID:   normalizeOptional(channelID),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// CardPatch carries a partial card update; nil fields are left untouched.
type CardPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Active      *bool            `json:"active,omitempty"`
	ChannelID   *string          `json:"channel_id,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p CardPatch) Apply(c *Card) (*Card, error) {
	out := *c
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, domain.ErrEmptyName
		}
		out.Name = name
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return nil, domain.ErrNegativePrice
		}
		out.Price = p.Price.Round(2)
	}
	if p.Active != nil {
		out.Active = *p.Active
	}
	if p.ChannelID != nil {
		out.ChannelID = normalizeOptional(p.ChannelID)
	}
	return &out, nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
