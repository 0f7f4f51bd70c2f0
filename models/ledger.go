package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial         TransactionType = "initial"
	TransactionTypeChallengeEscrow TransactionType = "challenge_escrow"
	TransactionTypeChallengeRefund TransactionType = "challenge_refund"
	TransactionTypeChallengeWin    TransactionType = "challenge_win"
	TransactionTypeBetStake        TransactionType = "bet_stake"
	TransactionTypeBetPayout       TransactionType = "bet_payout"
	TransactionTypeBetRefund       TransactionType = "bet_refund"
	TransactionTypeHouseGuarantee  TransactionType = "house_guarantee"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeChallenge RelatedType = "challenge"
	RelatedTypeBet       RelatedType = "bet"
)

// LedgerEntry is an immutable record of a single balance change.
// Entries are only ever appended; the sum of ChangeAmount for an account
// equals that account's current balance.
type LedgerEntry struct {
	ID              int64           `db:"id"`
	DiscordID       int64           `db:"discord_id"`
	BalanceBefore   int64           `db:"balance_before"`
	BalanceAfter    int64           `db:"balance_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Metadata        map[string]any  `db:"metadata"`
	RelatedID       *int64          `db:"related_id"`
	RelatedType     *RelatedType    `db:"related_type"`
	CreatedAt       time.Time       `db:"created_at"`
}
