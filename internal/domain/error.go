package domain

import (
	"errors"
	"fmt"
)

var (
	// Error taxonomy. Every business failure wraps exactly one of these.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("entity not found")
	ErrConflict        = errors.New("conflict")
	ErrOutOfStock      = errors.New("out of stock")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")

	// Infrastructure failures, never shown to callers verbatim.
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)

var (
	ErrCardNotFound       = fmt.Errorf("%w: card does not exist", ErrNotFound)
	ErrCardNameTaken      = fmt.Errorf("%w: card name already exists", ErrConflict)
	ErrCardInactive       = fmt.Errorf("%w: card is not active", ErrInvalidArgument)
	ErrCardHasCodes       = fmt.Errorf("%w: card still has activation codes", ErrConflict)
	ErrCodeNotFound       = fmt.Errorf("%w: activation code invalid", ErrNotFound)
	ErrCodeAlreadyUsed    = fmt.Errorf("%w: activation code already in use", ErrConflict)
	ErrCodesInUse         = fmt.Errorf("%w: some activation codes are not available", ErrConflict)
	ErrCodeStateInvalid   = fmt.Errorf("%w: activation code state does not allow this transition", ErrConflict)
	ErrChannelMismatch    = fmt.Errorf("%w: activation code does not belong to this channel", ErrInvalidArgument)
	ErrOrderNotFound      = fmt.Errorf("%w: order does not exist", ErrNotFound)
	ErrOrderCompleted     = fmt.Errorf("%w: order already completed", ErrConflict)
	ErrNoCodesAvailable   = fmt.Errorf("%w: no activation codes left for this card", ErrOutOfStock)
	ErrIdentityRequired   = fmt.Errorf("%w: sign in required", ErrUnauthorized)
	ErrBatchSizeInvalid   = fmt.Errorf("%w: count must be between 1 and 1000", ErrInvalidArgument)
	ErrNegativePrice      = fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	ErrEmptyName          = fmt.Errorf("%w: name is required", ErrInvalidArgument)
	ErrInvalidEmail       = fmt.Errorf("%w: a valid email is required", ErrInvalidArgument)
	ErrRevenueTargetUnset = fmt.Errorf("%w: a proxy id, channel id or query is required", ErrInvalidArgument)
	ErrConcurrentUpdate   = fmt.Errorf("%w: concurrent update, please retry", ErrConflict)
	ErrChannelNotFound    = fmt.Errorf("%w: channel does not exist", ErrNotFound)
	ErrChannelNameTaken   = fmt.Errorf("%w: channel name already exists", ErrConflict)
	ErrChannelIDTaken     = fmt.Errorf("%w: channel id already exists", ErrConflict)
	ErrChannelIDInvalid   = fmt.Errorf("%w: channel id must be at most 64 characters without spaces", ErrInvalidArgument)
	ErrChannelInUse       = fmt.Errorf("%w: channel is still referenced by cards", ErrConflict)
	ErrUnknownChannel     = fmt.Errorf("%w: channel is not registered", ErrInvalidArgument)
	ErrNameTooLong        = fmt.Errorf("%w: name must be at most 100 characters", ErrInvalidArgument)
	ErrDescriptionTooLong = fmt.Errorf("%w: description must be at most 500 characters", ErrInvalidArgument)
)

// IsDomainError reports whether err belongs to the business taxonomy rather
// than being an infrastructure failure.
func IsDomainError(err error) bool {
	for _, k := range []error{ErrInvalidArgument, ErrNotFound, ErrConflict, ErrOutOfStock, ErrUnauthorized, ErrForbidden} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
