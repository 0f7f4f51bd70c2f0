package repository

import (
	"context"
	"fmt"
	"time"

	"arenabot/database"
	"arenabot/models"

	"github.com/jackc/pgx/v5"
)

// challengeColumns is the select list shared by every challenge query
const challengeColumns = `
	id, challenge_type, creator_discord_id, opponent_discord_id,
	game_id, leaderboard_id, title, description, wager_amount, status,
	invert_scores, max_participants, duration_hours, created_at,
	acceptance_deadline, starts_at, ends_at, betting_closes_at,
	winner_discord_id, resolve_attempts, completed_at
`

// ChallengeRepository implements the challenge aggregate data access
type ChallengeRepository struct {
	q queryable
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{q: db.Pool}
}

// newChallengeRepositoryWithTx creates a new challenge repository with a transaction
func newChallengeRepositoryWithTx(tx queryable) *ChallengeRepository {
	return &ChallengeRepository{q: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (*models.Challenge, error) {
	var c models.Challenge
	err := row.Scan(
		&c.ID,
		&c.Type,
		&c.CreatorDiscordID,
		&c.OpponentDiscordID,
		&c.GameID,
		&c.LeaderboardID,
		&c.Title,
		&c.Description,
		&c.WagerAmount,
		&c.Status,
		&c.InvertScores,
		&c.MaxParticipants,
		&c.DurationHours,
		&c.CreatedAt,
		&c.AcceptanceDeadline,
		&c.StartsAt,
		&c.EndsAt,
		&c.BettingClosesAt,
		&c.WinnerDiscordID,
		&c.ResolveAttempts,
		&c.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persists a new challenge together with its creator participant
func (r *ChallengeRepository) Create(ctx context.Context, challenge *models.Challenge, creator *models.ChallengeParticipant) error {
	query := `
		INSERT INTO challenges (
			challenge_type, creator_discord_id, opponent_discord_id,
			game_id, leaderboard_id, title, description, wager_amount, status,
			invert_scores, max_participants, duration_hours, acceptance_deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		challenge.Type,
		challenge.CreatorDiscordID,
		challenge.OpponentDiscordID,
		challenge.GameID,
		challenge.LeaderboardID,
		challenge.Title,
		challenge.Description,
		challenge.WagerAmount,
		challenge.Status,
		challenge.InvertScores,
		challenge.MaxParticipants,
		challenge.DurationHours,
		challenge.AcceptanceDeadline,
	).Scan(&challenge.ID, &challenge.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	creator.ChallengeID = challenge.ID
	if err := r.AddParticipant(ctx, creator); err != nil {
		return fmt.Errorf("failed to add creator participant: %w", err)
	}

	return nil
}

// GetByID retrieves a challenge by its ID
func (r *ChallengeRepository) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `FROM challenges WHERE id = $1`

	challenge, err := scanChallenge(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}

	return challenge, nil
}

// GetByIDForUpdate retrieves a challenge and locks its row for the
// duration of the transaction. Every read-then-write path on a challenge
// goes through this lock, which serializes mutations per challenge id.
func (r *ChallengeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `FROM challenges WHERE id = $1 FOR UPDATE`

	challenge, err := scanChallenge(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock challenge %d: %w", id, err)
	}

	return challenge, nil
}

// GetDetailByID retrieves a challenge with its participants and bets
func (r *ChallengeRepository) GetDetailByID(ctx context.Context, id int64) (*models.ChallengeDetail, error) {
	challenge, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, nil
	}

	participants, err := r.getParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	bets, err := r.getBets(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.ChallengeDetail{
		Challenge:    challenge,
		Participants: participants,
		Bets:         bets,
	}, nil
}

func (r *ChallengeRepository) getParticipants(ctx context.Context, challengeID int64) ([]*models.ChallengeParticipant, error) {
	query := `
		SELECT id, challenge_id, discord_id, username, joined_at, last_score, rank, wager_paid
		FROM challenge_participants
		WHERE challenge_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.q.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants for challenge %d: %w", challengeID, err)
	}
	defer rows.Close()

	var participants []*models.ChallengeParticipant
	for rows.Next() {
		var p models.ChallengeParticipant
		err := rows.Scan(&p.ID, &p.ChallengeID, &p.DiscordID, &p.Username, &p.JoinedAt, &p.LastScore, &p.Rank, &p.WagerPaid)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

func (r *ChallengeRepository) getBets(ctx context.Context, challengeID int64) ([]*models.ChallengeBet, error) {
	query := `
		SELECT id, challenge_id, bettor_discord_id, username, target_discord_id,
		       amount, placed_at, paid, payout_amount, house_contribution
		FROM challenge_bets
		WHERE challenge_id = $1
		ORDER BY placed_at, id
	`

	rows, err := r.q.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for challenge %d: %w", challengeID, err)
	}
	defer rows.Close()

	var bets []*models.ChallengeBet
	for rows.Next() {
		var b models.ChallengeBet
		err := rows.Scan(&b.ID, &b.ChallengeID, &b.BettorDiscordID, &b.Username, &b.TargetDiscordID,
			&b.Amount, &b.PlacedAt, &b.Paid, &b.PayoutAmount, &b.HouseContribution)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}

// Update persists the mutable challenge fields
func (r *ChallengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	query := `
		UPDATE challenges
		SET status = $1, starts_at = $2, ends_at = $3, betting_closes_at = $4,
		    winner_discord_id = $5, resolve_attempts = $6, completed_at = $7
		WHERE id = $8
	`

	result, err := r.q.Exec(ctx, query,
		challenge.Status,
		challenge.StartsAt,
		challenge.EndsAt,
		challenge.BettingClosesAt,
		challenge.WinnerDiscordID,
		challenge.ResolveAttempts,
		challenge.CompletedAt,
		challenge.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update challenge %d: %w", challenge.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("challenge %d not found", challenge.ID)
	}

	return nil
}

// UpdateStatusIf transitions status only when the stored status matches
// expected. Terminal transitions go through this compare-and-swap so a
// challenge can never be settled twice.
func (r *ChallengeRepository) UpdateStatusIf(ctx context.Context, id int64, expected, next models.ChallengeStatus) (bool, error) {
	query := `
		UPDATE challenges
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, next, id, expected)
	if err != nil {
		return false, fmt.Errorf("failed to transition challenge %d to %s: %w", id, next, err)
	}

	return result.RowsAffected() > 0, nil
}

// AddParticipant appends a participant entry
func (r *ChallengeRepository) AddParticipant(ctx context.Context, participant *models.ChallengeParticipant) error {
	query := `
		INSERT INTO challenge_participants (challenge_id, discord_id, username, joined_at, wager_paid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		participant.ChallengeID,
		participant.DiscordID,
		participant.Username,
		participant.JoinedAt,
		participant.WagerPaid,
	).Scan(&participant.ID)

	if err != nil {
		return fmt.Errorf("failed to add participant %d to challenge %d: %w", participant.DiscordID, participant.ChallengeID, err)
	}

	return nil
}

// UpdateParticipantResults writes resolved scores and ranks
func (r *ChallengeRepository) UpdateParticipantResults(ctx context.Context, participants []*models.ChallengeParticipant) error {
	query := `
		UPDATE challenge_participants
		SET last_score = $1, rank = $2
		WHERE id = $3
	`

	for _, p := range participants {
		if _, err := r.q.Exec(ctx, query, p.LastScore, p.Rank, p.ID); err != nil {
			return fmt.Errorf("failed to update participant %d results: %w", p.ID, err)
		}
	}

	return nil
}

// AddBet appends a bet entry
func (r *ChallengeRepository) AddBet(ctx context.Context, bet *models.ChallengeBet) error {
	query := `
		INSERT INTO challenge_bets (challenge_id, bettor_discord_id, username, target_discord_id, amount, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		bet.ChallengeID,
		bet.BettorDiscordID,
		bet.Username,
		bet.TargetDiscordID,
		bet.Amount,
		bet.PlacedAt,
	).Scan(&bet.ID)

	if err != nil {
		return fmt.Errorf("failed to add bet by %d on challenge %d: %w", bet.BettorDiscordID, bet.ChallengeID, err)
	}

	return nil
}

// UpdateBetSettlements writes paid flags and payout amounts
func (r *ChallengeRepository) UpdateBetSettlements(ctx context.Context, bets []*models.ChallengeBet) error {
	query := `
		UPDATE challenge_bets
		SET paid = $1, payout_amount = $2, house_contribution = $3
		WHERE id = $4
	`

	for _, b := range bets {
		if _, err := r.q.Exec(ctx, query, b.Paid, b.PayoutAmount, b.HouseContribution, b.ID); err != nil {
			return fmt.Errorf("failed to update bet %d settlement: %w", b.ID, err)
		}
	}

	return nil
}

// GetExpiredPending returns pending or open challenges whose acceptance
// deadline has passed without activation
func (r *ChallengeRepository) GetExpiredPending(ctx context.Context, now time.Time) ([]*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE status IN ('pending', 'open') AND acceptance_deadline < $1
		ORDER BY acceptance_deadline
	`

	return r.queryChallenges(ctx, query, now)
}

// GetEndedActive returns active challenges whose end time has passed
func (r *ChallengeRepository) GetEndedActive(ctx context.Context, now time.Time) ([]*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE status = 'active' AND ends_at <= $1
		ORDER BY ends_at
	`

	return r.queryChallenges(ctx, query, now)
}

// ListOpen returns open-type challenges still accepting joiners
func (r *ChallengeRepository) ListOpen(ctx context.Context, limit int) ([]*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE challenge_type = 'open' AND status = 'open'
		ORDER BY created_at DESC
		LIMIT $1
	`

	return r.queryChallenges(ctx, query, limit)
}

// ListActiveByUser returns non-terminal challenges a user participates in
func (r *ChallengeRepository) ListActiveByUser(ctx context.Context, discordID int64) ([]*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE status IN ('pending', 'open', 'active')
		  AND id IN (SELECT challenge_id FROM challenge_participants WHERE discord_id = $1)
		ORDER BY created_at DESC
	`

	return r.queryChallenges(ctx, query, discordID)
}

func (r *ChallengeRepository) queryChallenges(ctx context.Context, query string, args ...any) ([]*models.Challenge, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		challenge, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, challenge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate challenges: %w", err)
	}

	return challenges, nil
}
