package models

import (
	"time"
)

// ChallengeType distinguishes head-to-head challenges from open ones
type ChallengeType string

const (
	ChallengeTypeDirect ChallengeType = "direct"
	ChallengeTypeOpen   ChallengeType = "open"
)

// ChallengeStatus represents the lifecycle state of a challenge
type ChallengeStatus string

const (
	ChallengeStatusPending   ChallengeStatus = "pending"
	ChallengeStatusOpen      ChallengeStatus = "open"
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusCompleted ChallengeStatus = "completed"
	ChallengeStatusDeclined  ChallengeStatus = "declined"
	ChallengeStatusCancelled ChallengeStatus = "cancelled"
)

// Challenge represents a score-based competition participants stake GP on
type Challenge struct {
	ID               int64           `db:"id"`
	Type             ChallengeType   `db:"challenge_type"`
	CreatorDiscordID int64           `db:"creator_discord_id"`
	// OpponentDiscordID is set only for direct challenges
	OpponentDiscordID *int64 `db:"opponent_discord_id"`

	GameID        string `db:"game_id"`
	LeaderboardID string `db:"leaderboard_id"`
	Title         string `db:"title"`
	Description   string `db:"description"`

	WagerAmount int64           `db:"wager_amount"`
	Status      ChallengeStatus `db:"status"`

	// InvertScores negates raw leaderboard scores before comparison, for
	// metrics where lower is better (times, strokes).
	InvertScores bool `db:"invert_scores"`

	// MaxParticipants caps an open challenge's participant list; nil means uncapped
	MaxParticipants *int `db:"max_participants"`
	DurationHours   int  `db:"duration_hours"`

	CreatedAt          time.Time  `db:"created_at"`
	AcceptanceDeadline time.Time  `db:"acceptance_deadline"`
	StartsAt           *time.Time `db:"starts_at"`
	EndsAt             *time.Time `db:"ends_at"`
	BettingClosesAt    *time.Time `db:"betting_closes_at"`

	WinnerDiscordID *int64     `db:"winner_discord_id"`
	ResolveAttempts int        `db:"resolve_attempts"`
	CompletedAt     *time.Time `db:"completed_at"`
}

// ChallengeParticipant represents a user staked into a challenge
type ChallengeParticipant struct {
	ID          int64     `db:"id"`
	ChallengeID int64     `db:"challenge_id"`
	DiscordID   int64     `db:"discord_id"`
	Username    string    `db:"username"`
	JoinedAt    time.Time `db:"joined_at"`
	LastScore   *float64  `db:"last_score"`
	Rank        *int      `db:"rank"`
	WagerPaid   bool      `db:"wager_paid"`
}

// ChallengeBet represents a third-party side bet on a challenge outcome
type ChallengeBet struct {
	ID              int64     `db:"id"`
	ChallengeID     int64     `db:"challenge_id"`
	BettorDiscordID int64     `db:"bettor_discord_id"`
	Username        string    `db:"username"`
	TargetDiscordID int64     `db:"target_discord_id"`
	Amount          int64     `db:"amount"`
	PlacedAt        time.Time `db:"placed_at"`
	Paid            bool      `db:"paid"`
	// PayoutAmount and HouseContribution are written exactly once during settlement
	PayoutAmount      *int64 `db:"payout_amount"`
	HouseContribution *int64 `db:"house_contribution"`
}

// ChallengeDetail combines a challenge with its participants and bets
type ChallengeDetail struct {
	Challenge    *Challenge
	Participants []*ChallengeParticipant
	Bets         []*ChallengeBet
}

// IsTerminal checks if the challenge has reached a final state
func (c *Challenge) IsTerminal() bool {
	switch c.Status {
	case ChallengeStatusCompleted, ChallengeStatusDeclined, ChallengeStatusCancelled:
		return true
	}
	return false
}

// IsActive checks if the challenge is running
func (c *Challenge) IsActive() bool {
	return c.Status == ChallengeStatusActive
}

// CanAcceptBets checks if side bets may still be placed at the given time
func (c *Challenge) CanAcceptBets(now time.Time) bool {
	if c.Status != ChallengeStatusActive || c.BettingClosesAt == nil {
		return false
	}
	return now.Before(*c.BettingClosesAt)
}

// HasEnded checks if an active challenge's competition window has elapsed
func (c *Challenge) HasEnded(now time.Time) bool {
	if c.Status != ChallengeStatusActive || c.EndsAt == nil {
		return false
	}
	return !now.Before(*c.EndsAt)
}

// AcceptanceExpired checks if the acceptance deadline has passed
func (c *Challenge) AcceptanceExpired(now time.Time) bool {
	return now.After(c.AcceptanceDeadline)
}

// IsFull checks whether the participant count has reached the cap
func (c *Challenge) IsFull(participantCount int) bool {
	return c.MaxParticipants != nil && participantCount >= *c.MaxParticipants
}

// WagerPool returns the total GP escrowed by paid participants
func (d *ChallengeDetail) WagerPool() int64 {
	var pool int64
	for _, p := range d.Participants {
		if p.WagerPaid {
			pool += d.Challenge.WagerAmount
		}
	}
	return pool
}

// IsParticipant checks if a user is staked into the challenge
func (d *ChallengeDetail) IsParticipant(discordID int64) bool {
	for _, p := range d.Participants {
		if p.DiscordID == discordID {
			return true
		}
	}
	return false
}

// FindParticipant returns the participant entry for a user, or nil
func (d *ChallengeDetail) FindParticipant(discordID int64) *ChallengeParticipant {
	for _, p := range d.Participants {
		if p.DiscordID == discordID {
			return p
		}
	}
	return nil
}

// FindBet returns the bet held by a bettor, or nil
func (d *ChallengeDetail) FindBet(bettorDiscordID int64) *ChallengeBet {
	for _, b := range d.Bets {
		if b.BettorDiscordID == bettorDiscordID {
			return b
		}
	}
	return nil
}

// TotalBetAmount returns the sum of all bet stakes on the challenge
func (d *ChallengeDetail) TotalBetAmount() int64 {
	var total int64
	for _, b := range d.Bets {
		total += b.Amount
	}
	return total
}
