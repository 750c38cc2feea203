package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"code-redemption/internal/domain"
)

const (
	maxChannelIDLen          = 64
	maxChannelNameLen        = 100
	maxChannelDescriptionLen = 500
)

// Channel is a registered sales channel. Cards, orders and staff accounts
// refer to it by ID.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewChannel validates and constructs a channel. An empty id is replaced by
// a generated one.
func NewChannel(id, name, description string) (*Channel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewID()
	}
	if utf8.RuneCountInString(id) > maxChannelIDLen || strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return nil, domain.ErrChannelIDInvalid
	}
	ch := &Channel{ID: id, CreatedAt: time.Now().UTC()}
	if err := ch.setName(name); err != nil {
		return nil, err
	}
	if err := ch.setDescription(description); err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *Channel) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxChannelNameLen {
		return domain.ErrNameTooLong
	}
	c.Name = name
	return nil
}

func (c *Channel) setDescription(d string) error {
	d = strings.TrimSpace(d)
	if utf8.RuneCountInString(d) > maxChannelDescriptionLen {
		return domain.ErrDescriptionTooLong
	}
	c.Description = d
	return nil
}

// ChannelPatch carries a partial channel update; nil fields are left untouched.
type ChannelPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply returns a copy of c with the patch applied.
func (p ChannelPatch) Apply(c *Channel) (*Channel, error) {
	out := *c
	if p.Name != nil {
		if err := out.setName(*p.Name); err != nil {
			return nil, err
		}
	}
	if p.Description != nil {
		if err := out.setDescription(*p.Description); err != nil {
			return nil, err
		}
	}
	return &out, nil
}
