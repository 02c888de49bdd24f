package domain

import "errors"

// Kind classifies an error for the caller: whether it is worth retrying and
// how it should be surfaced.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindContention
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindContention:
		return "contention"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf walks the chain of err and returns the kind of the first domain
// error found.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

var (
	ErrNumberCount         = newErr(KindValidation, "number of fields per board must be between 5 and 8")
	ErrNumberRange         = newErr(KindValidation, "numbers must be between 1 and 16")
	ErrNumbersNotUnique    = newErr(KindValidation, "all numbers must be unique")
	ErrUnpricedCount       = newErr(KindValidation, "invalid number of fields for pricing")
	ErrWinningNumberRange  = newErr(KindValidation, "winning numbers must be between 1 and 16")
	ErrWinningNumberUnique = newErr(KindValidation, "winning numbers must be unique")
	ErrDepositAmount       = newErr(KindValidation, "deposit amount must be positive")
	ErrDepositReference    = newErr(KindValidation, "a valid deposit reference is required")
	ErrTotalGames          = newErr(KindValidation, "total games must be positive when set")
	ErrFullName            = newErr(KindValidation, "full name is required")
	ErrInvalidEmail        = newErr(KindValidation, "a valid email is required")

	ErrGameNotFound         = newErr(KindNotFound, "game not found")
	ErrPlayerNotFound       = newErr(KindNotFound, "player not found")
	ErrBoardNotFound        = newErr(KindNotFound, "board not found")
	ErrTransactionNotFound  = newErr(KindNotFound, "transaction not found")
	ErrSubscriptionNotFound = newErr(KindNotFound, "subscription not found")
	ErrNoGameStats          = newErr(KindNotFound, "future games have no stats")

	ErrGameNotOpen            = newErr(KindConflict, "game isn't active")
	ErrGameFinished           = newErr(KindConflict, "game is already finished")
	ErrDeadlinePassed         = newErr(KindConflict, "guess deadline has passed for this game")
	ErrDeadlineNotPassed      = newErr(KindConflict, "cannot publish numbers before the guess deadline")
	ErrGameNotActive          = newErr(KindConflict, "only the active game can be ended")
	ErrPlayerInactive         = newErr(KindConflict, "player must be active to purchase boards")
	ErrInsufficientFunds      = newErr(KindConflict, "player balance too low")
	ErrNotDeposit             = newErr(KindConflict, "only deposits can be processed")
	ErrNotPending             = newErr(KindConflict, "only pending deposits can be processed")
	ErrDuplicateReference     = newErr(KindConflict, "a deposit with this reference already exists")
	ErrEmailTaken             = newErr(KindConflict, "a player with this email already exists")
	ErrSubscriptionCancelled  = newErr(KindConflict, "subscription is already cancelled")
	ErrBoardAlreadySubscribed = newErr(KindConflict, "subscription already has a board for this game")

	ErrLockBusy = newErr(KindContention, "another transaction is already in progress, please try again")

	ErrNoScheduledGame         = newErr(KindFatal, "no scheduled game for the current week")
	ErrNextGameMissing         = newErr(KindFatal, "next game is missing")
	ErrNextGameAlreadyActive   = newErr(KindFatal, "next game is already active")
	ErrNextGameAlreadyFinished = newErr(KindFatal, "next game is already finished")
)
