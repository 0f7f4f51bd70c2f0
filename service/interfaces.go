package service

import (
	"context"
	"time"

	"arenabot/events"
	"arenabot/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByDiscordID retrieves a user by their Discord ID
	GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, discordID int64, username string, initialBalance int64) (*models.User, error)

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, discordID int64, amount int64) error

	// DeductBalance deducts from a user's balance atomically, failing with
	// ErrInsufficientFunds when the balance cannot cover the amount
	DeductBalance(ctx context.Context, discordID int64, amount int64) error
}

// LedgerRepository defines the interface for the append-only GP ledger
type LedgerRepository interface {
	// Record appends a new ledger entry; entries are never mutated or deleted
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByUser returns ledger entries for a user, newest first
	GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.LedgerEntry, error)

	// SumByUser returns the sum of all change amounts for a user.
	// It must equal the user's current balance at every point in time.
	SumByUser(ctx context.Context, discordID int64) (int64, error)
}

// ChallengeRepository defines the interface for challenge aggregate data access
type ChallengeRepository interface {
	// Create persists a new challenge together with its creator participant
	Create(ctx context.Context, challenge *models.Challenge, creator *models.ChallengeParticipant) error

	// GetByID retrieves a challenge by its ID
	GetByID(ctx context.Context, id int64) (*models.Challenge, error)

	// GetByIDForUpdate retrieves a challenge and locks its row for the
	// duration of the transaction, serializing mutations per challenge
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Challenge, error)

	// GetDetailByID retrieves a challenge with its participants and bets
	GetDetailByID(ctx context.Context, id int64) (*models.ChallengeDetail, error)

	// Update persists challenge fields for the given row
	Update(ctx context.Context, challenge *models.Challenge) error

	// UpdateStatusIf transitions status only when the stored status matches
	// expected, returning false when the row was already transitioned
	UpdateStatusIf(ctx context.Context, id int64, expected, next models.ChallengeStatus) (bool, error)

	// AddParticipant appends a participant entry
	AddParticipant(ctx context.Context, participant *models.ChallengeParticipant) error

	// UpdateParticipantResults writes resolved scores and ranks
	UpdateParticipantResults(ctx context.Context, participants []*models.ChallengeParticipant) error

	// AddBet appends a bet entry
	AddBet(ctx context.Context, bet *models.ChallengeBet) error

	// UpdateBetSettlements writes paid flags and payout amounts, exactly once
	UpdateBetSettlements(ctx context.Context, bets []*models.ChallengeBet) error

	// GetExpiredPending returns pending or open challenges whose acceptance
	// deadline has passed without activation
	GetExpiredPending(ctx context.Context, now time.Time) ([]*models.Challenge, error)

	// GetEndedActive returns active challenges whose end time has passed
	GetEndedActive(ctx context.Context, now time.Time) ([]*models.Challenge, error)

	// ListOpen returns open-type challenges still accepting joiners
	ListOpen(ctx context.Context, limit int) ([]*models.Challenge, error)

	// ListActiveByUser returns non-terminal challenges a user participates in
	ListActiveByUser(ctx context.Context, discordID int64) ([]*models.Challenge, error)
}

// UserService defines the interface for user operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates a new one with
	// the configured starting balance
	GetOrCreateUser(ctx context.Context, discordID int64, username string) (*models.User, error)

	// GetBalance returns a user's current GP balance from the ledger account
	GetBalance(ctx context.Context, discordID int64) (int64, error)
}

// CreateChallengeParams carries everything needed to create a challenge
type CreateChallengeParams struct {
	Type             models.ChallengeType
	CreatorDiscordID int64
	// OpponentDiscordID names the opponent for direct challenges; zero for open
	OpponentDiscordID int64
	GameID            string
	LeaderboardID     string
	Title             string
	Description       string
	WagerAmount       int64
	DurationHours     int
	InvertScores      bool
	// MaxParticipants caps an open challenge; nil means uncapped
	MaxParticipants *int
}

// ChallengeService defines the interface for challenge lifecycle operations
type ChallengeService interface {
	// Create validates and creates a challenge, escrowing the creator's wager
	Create(ctx context.Context, params CreateChallengeParams) (*models.Challenge, error)

	// Accept activates a pending direct challenge, escrowing the acceptor's wager
	Accept(ctx context.Context, challengeID, userID int64) (*models.Challenge, error)

	// Join adds a participant to an open challenge, escrowing their wager
	Join(ctx context.Context, challengeID, userID int64) (*models.Challenge, error)

	// Decline declines a pending direct challenge and refunds escrow
	Decline(ctx context.Context, challengeID, userID int64) error

	// Cancel cancels a not-yet-active challenge and refunds escrow
	Cancel(ctx context.Context, challengeID, userID int64) error

	// PlaceBet places a side bet on an active challenge within the betting window
	PlaceBet(ctx context.Context, challengeID, bettorID, targetID, amount int64) (*models.ChallengeBet, error)

	// GetChallengeDetail retrieves full details of a challenge
	GetChallengeDetail(ctx context.Context, challengeID int64) (*models.ChallengeDetail, error)

	// ListOpenChallenges returns open challenges accepting joiners
	ListOpenChallenges(ctx context.Context, limit int) ([]*models.Challenge, error)

	// ListActiveChallengesByUser returns a user's non-terminal challenges
	ListActiveChallengesByUser(ctx context.Context, discordID int64) ([]*models.Challenge, error)
}

// ScoreSource is the outbound port to the external leaderboard provider
type ScoreSource interface {
	// GetLeaderboardEntries returns one page of leaderboard rows. It must
	// tolerate partial or missing entries for given users.
	GetLeaderboardEntries(ctx context.Context, leaderboardID string, offset, limit int) ([]models.LeaderboardEntry, error)
}

// ScoreResolver resolves each participant's current normalized score
type ScoreResolver interface {
	// Resolve returns a per-participant score map. Missing participants get
	// HasScore=false rather than failing the call; an unreachable source
	// fails the whole call with ErrSourceUnavailable.
	Resolve(ctx context.Context, detail *models.ChallengeDetail) (map[int64]models.ScoreResult, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	LedgerRepository() LedgerRepository
	ChallengeRepository() ChallengeRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
