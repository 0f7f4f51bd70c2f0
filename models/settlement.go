package models

// ScoreResult is a participant's normalized leaderboard score.
// Higher is always better; inversion for time-like metrics happens
// before a ScoreResult is built.
type ScoreResult struct {
	Score    float64
	Rank     int
	HasScore bool
}

// SettlementOutcome classifies how a challenge resolved
type SettlementOutcome string

const (
	SettlementOutcomeWinner    SettlementOutcome = "winner"
	SettlementOutcomeTie       SettlementOutcome = "tie"
	SettlementOutcomeNoContest SettlementOutcome = "no_contest"
)

// BetPayout is the settlement line for a single bet
type BetPayout struct {
	BetID           int64
	BettorDiscordID int64
	// Refund is the bettor's own stake coming back
	Refund int64
	// Share is the bettor-funded slice of the losing pool
	Share int64
	// HouseBonus is the house-funded sole-bettor guarantee
	HouseBonus int64
}

// Total returns the full amount credited to the bettor
func (p *BetPayout) Total() int64 {
	return p.Refund + p.Share + p.HouseBonus
}

// SettlementPlan is the pure output of the payout engine: who gets how
// much, with no side effects. The caller applies it through the ledger.
type SettlementPlan struct {
	Outcome         SettlementOutcome
	WinnerDiscordID int64
	// WagerPool is the total escrowed wager GP; on a winner outcome it is
	// credited to the winner in full.
	WagerPool int64
	// ParticipantRefunds maps participant to refunded escrow on tie/no-contest
	ParticipantRefunds map[int64]int64
	BetPayouts         []BetPayout
	// BetRefunds maps bettor to refunded stake on tie/no-contest
	BetRefunds map[int64]int64
	// HouseRetained is rounding remainder plus any losing pool no winning
	// bet backed; it is never distributed.
	HouseRetained int64
}
