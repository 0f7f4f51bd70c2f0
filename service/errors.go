package service

import "errors"

// Validation errors are rejected synchronously and never partially applied.
var (
	ErrInvalidWager    = errors.New("wager amount out of bounds")
	ErrInvalidBet      = errors.New("bet amount out of bounds")
	ErrInvalidDuration = errors.New("challenge duration out of bounds")
	ErrSelfChallenge   = errors.New("cannot challenge yourself")
	ErrUnknownOpponent = errors.New("opponent not found")
	ErrInvalidTarget   = errors.New("bet target is not a participant")
)

// Conflict errors are rejected without side effects; any escrow debit
// attempted in the same operation is rolled back with the transaction.
var (
	ErrNotFound           = errors.New("challenge not found")
	ErrWrongParticipant   = errors.New("user is not the named opponent")
	ErrAlreadyDecided     = errors.New("challenge already decided")
	ErrAlreadyJoined      = errors.New("user already joined this challenge")
	ErrChallengeFull      = errors.New("challenge participant cap reached")
	ErrWrongStatus        = errors.New("challenge is not in a valid status for this operation")
	ErrChallengeNotActive = errors.New("challenge is not active")
	ErrBettingClosed      = errors.New("betting window has closed")
	ErrIsParticipant      = errors.New("participants cannot bet on their own challenge")
	ErrDuplicateBet       = errors.New("user already holds a bet on this challenge")
)

// Ledger errors abort the triggering operation before any challenge
// state mutation is committed.
var ErrInsufficientFunds = errors.New("insufficient balance")

// ErrSourceUnavailable means the external score source could not be
// reached; callers must treat it as retryable, not fatal.
var ErrSourceUnavailable = errors.New("score source unavailable")
