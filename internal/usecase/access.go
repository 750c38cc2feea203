package usecase

import (
	"context"

	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/policy"
	"code-redemption/internal/infra/logging"
	"code-redemption/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// authorize consults the policy table and records denials.
func authorize(ctx context.Context, log *zerolog.Logger, actor model.Actor, op policy.Operation) (policy.Scope, error) {
	scope, err := policy.Authorize(actor, op)
	if err != nil {
		metrics.IncAccessDenied(string(op), string(actor.Role))
		logging.With(ctx, log).Debug().Str("op", string(op)).Str("role", string(actor.Role)).Msg("access denied")
	}
	return scope, err
}

// staffChannelAllows reports whether a channel-bound staff member may act on
// something belonging to channelID. Admins and unbound staff see every channel.
func staffChannelAllows(actor model.Actor, channelID *string) bool {
	if actor.Role != model.RoleStaff || actor.ChannelID == nil {
		return true
	}
	return channelID != nil && *channelID == *actor.ChannelID
}
