// Package policy holds the role x operation table that gates every use case.
package policy

import (
	"fmt"

	"code-redemption/internal/domain"
	"code-redemption/internal/domain/model"
)

type Operation string

const (
	CardList   Operation = "card.list"
	CardGet    Operation = "card.get"
	CardCreate Operation = "card.create"
	CardUpdate Operation = "card.update"
	CardDelete Operation = "card.delete"

	CodeGenerate  Operation = "code.generate"
	CodeDeleteAll Operation = "code.delete_all"
	CodeStock     Operation = "code.stock"
	CodeList      Operation = "code.list"
	CodeCheck     Operation = "code.check"
	CodeExport    Operation = "code.export"

	OrderPurchase Operation = "order.purchase"
	OrderRedeem   Operation = "order.redeem"
	OrderList     Operation = "order.list"
	OrderStats    Operation = "order.stats"
	OrderMine     Operation = "order.mine"
	OrderQueue    Operation = "order.queue"
	OrderStart    Operation = "order.start"
	OrderComplete Operation = "order.complete"
	OrderGet      Operation = "order.get"

	ChannelCreate Operation = "channel.create"
	ChannelGet    Operation = "channel.get"
	ChannelList   Operation = "channel.list"
	ChannelUpdate Operation = "channel.update"
	ChannelDelete Operation = "channel.delete"

	SaleList         Operation = "sale.list"
	SaleStats        Operation = "sale.stats"
	RevenueAggregate Operation = "revenue.aggregate"
)

// Scope narrows what an allowed actor may see.
type Scope int

const (
	ScopeAll Scope = iota
	// ScopeOwn limits the actor to rows it owns (proxy codes, proxy revenue).
	ScopeOwn
	// ScopeReadOnly allows observation without mutation.
	ScopeReadOnly
)

var (
	admin     = model.RoleAdmin
	staff     = model.RoleStaff
	proxy     = model.RoleProxy
	user      = model.RoleUser
	anonymous = model.RoleAnonymous
)

func everyone() map[model.Role]Scope {
	return map[model.Role]Scope{admin: ScopeAll, staff: ScopeAll, proxy: ScopeAll, user: ScopeAll, anonymous: ScopeAll}
}

// table is the only place that decides who may do what.
var table = map[Operation]map[model.Role]Scope{
	CardList:   everyone(),
	CardGet:    everyone(),
	CardCreate: {admin: ScopeAll},
	CardUpdate: {admin: ScopeAll},
	CardDelete: {admin: ScopeAll},

	CodeGenerate:  {admin: ScopeAll},
	CodeDeleteAll: {admin: ScopeAll},
	CodeStock:     {admin: ScopeAll, staff: ScopeAll},
	CodeList:      {admin: ScopeAll, staff: ScopeReadOnly, proxy: ScopeOwn},
	CodeCheck:     everyone(),
	CodeExport:    {admin: ScopeAll, proxy: ScopeOwn},

	OrderPurchase: everyone(),
	OrderRedeem:   everyone(),
	OrderList:     {admin: ScopeAll},
	OrderStats:    {admin: ScopeAll},
	OrderMine:     {admin: ScopeAll, staff: ScopeAll, proxy: ScopeAll, user: ScopeAll},
	OrderQueue:    {admin: ScopeAll, staff: ScopeAll},
	OrderStart:    {admin: ScopeAll, staff: ScopeAll},
	OrderComplete: {admin: ScopeAll, staff: ScopeAll},
	OrderGet:      {admin: ScopeAll, staff: ScopeAll},

	ChannelCreate: {admin: ScopeAll},
	ChannelGet:    {admin: ScopeAll},
	ChannelList:   {admin: ScopeAll},
	ChannelUpdate: {admin: ScopeAll},
	ChannelDelete: {admin: ScopeAll},

	SaleList:         {admin: ScopeAll},
	SaleStats:        {admin: ScopeAll},
	RevenueAggregate: {admin: ScopeAll, proxy: ScopeOwn},
}

// DeniedError is returned when the table has no entry for the actor's role.
// It unwraps to domain.ErrForbidden for every role and carries the page the
// caller should be sent to instead.
type DeniedError struct {
	Op       Operation
	Role     model.Role
	Redirect string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s not allowed for role %s", e.Op, e.Role)
}

func (e *DeniedError) Unwrap() error { return domain.ErrForbidden }

// Redirect is the fallback destination for a role.
func Redirect(r model.Role) string {
	switch r {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleStaff:
		return "/staff/orders"
	default:
		return "/"
	}
}

// Authorize returns the scope granted to the actor for op, or a *DeniedError.
func Authorize(actor model.Actor, op Operation) (Scope, error) {
	role := actor.Role
	if actor.IsAnonymous() {
		role = model.RoleAnonymous
	}
	if scope, ok := table[op][role]; ok {
		return scope, nil
	}
	return 0, &DeniedError{Op: op, Role: role, Redirect: Redirect(role)}
}

// Allowed is a convenience for callers that only need a yes/no.
func Allowed(actor model.Actor, op Operation) bool {
	_, err := Authorize(actor, op)
	return err == nil
}

// Operations lists every operation known to the table.
func Operations() []Operation {
	out := make([]Operation, 0, len(table))
	for op := range table {
		out = append(out, op)
	}
	return out
}
