package service

import (
	"context"
	"fmt"
	"time"

	"arenabot/config"
	"arenabot/events"
	"arenabot/models"
)

type challengeService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewChallengeService creates a new challenge service
func NewChallengeService(uowFactory UnitOfWorkFactory, cfg *config.Config) ChallengeService {
	return &challengeService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// minParticipants is the participant count at which a challenge activates
const minParticipants = 2

// Create validates and creates a challenge, escrowing the creator's wager.
// Escrow and challenge creation commit as a single atomic unit.
func (s *challengeService) Create(ctx context.Context, params CreateChallengeParams) (*models.Challenge, error) {
	if params.WagerAmount < s.config.MinWagerAmount || params.WagerAmount > s.config.MaxWagerAmount {
		return nil, fmt.Errorf("%w: %d GP (allowed %d-%d)", ErrInvalidWager, params.WagerAmount, s.config.MinWagerAmount, s.config.MaxWagerAmount)
	}
	duration := time.Duration(params.DurationHours) * time.Hour
	if duration < s.config.MinChallengeDuration || duration > s.config.MaxChallengeDuration {
		return nil, fmt.Errorf("%w: %dh", ErrInvalidDuration, params.DurationHours)
	}
	if params.Title == "" {
		return nil, fmt.Errorf("challenge title cannot be empty")
	}
	if params.Type == models.ChallengeTypeDirect && params.OpponentDiscordID == params.CreatorDiscordID {
		return nil, ErrSelfChallenge
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	creator, err := uow.UserRepository().GetByDiscordID(ctx, params.CreatorDiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, fmt.Errorf("creator not found")
	}

	now := time.Now()
	challenge := &models.Challenge{
		Type:             params.Type,
		CreatorDiscordID: params.CreatorDiscordID,
		GameID:           params.GameID,
		LeaderboardID:    params.LeaderboardID,
		Title:            params.Title,
		Description:      params.Description,
		WagerAmount:      params.WagerAmount,
		InvertScores:     params.InvertScores,
		MaxParticipants:  params.MaxParticipants,
		DurationHours:    params.DurationHours,
		CreatedAt:        now,
		AcceptanceDeadline: now.Add(s.config.AcceptanceDeadlineOffset),
	}

	var opponentID int64
	switch params.Type {
	case models.ChallengeTypeDirect:
		opponent, err := uow.UserRepository().GetByDiscordID(ctx, params.OpponentDiscordID)
		if err != nil {
			return nil, fmt.Errorf("failed to get opponent: %w", err)
		}
		if opponent == nil {
			return nil, ErrUnknownOpponent
		}
		opponentID = opponent.DiscordID
		challenge.OpponentDiscordID = &opponentID
		challenge.Status = models.ChallengeStatusPending
	case models.ChallengeTypeOpen:
		challenge.Status = models.ChallengeStatusOpen
	default:
		return nil, fmt.Errorf("unknown challenge type %q", params.Type)
	}

	creatorParticipant := &models.ChallengeParticipant{
		DiscordID: creator.DiscordID,
		Username:  creator.Username,
		JoinedAt:  now,
		WagerPaid: true,
	}
	if err := uow.ChallengeRepository().Create(ctx, challenge, creatorParticipant); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	// Escrow the creator's wager; the debit fails ahead of any commit when
	// the balance cannot cover it
	if err := Debit(ctx, uow, creator.DiscordID, challenge.WagerAmount,
		models.TransactionTypeChallengeEscrow, challenge.ID, models.RelatedTypeChallenge,
		map[string]any{"title": challenge.Title}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.ChallengeCreatedEvent{
		ChallengeID:   challenge.ID,
		ChallengeType: challenge.Type,
		CreatorID:     challenge.CreatorDiscordID,
		OpponentID:    opponentID,
		Title:         challenge.Title,
		WagerAmount:   challenge.WagerAmount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return challenge, nil
}

// Accept activates a pending direct challenge, escrowing the acceptor's wager
func (s *challengeService) Accept(ctx context.Context, challengeID, userID int64) (*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		return nil, ErrNotFound
	}
	if challenge.Type != models.ChallengeTypeDirect {
		return nil, ErrWrongStatus
	}
	if challenge.Status != models.ChallengeStatusPending {
		return nil, ErrAlreadyDecided
	}
	if challenge.OpponentDiscordID == nil || *challenge.OpponentDiscordID != userID {
		return nil, ErrWrongParticipant
	}

	now := time.Now()
	// Past the acceptance deadline the challenge belongs to the expiry
	// sweep; acceptance no longer wins the race
	if challenge.AcceptanceExpired(now) {
		return nil, ErrAlreadyDecided
	}

	acceptor, err := uow.UserRepository().GetByDiscordID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get acceptor: %w", err)
	}
	if acceptor == nil {
		return nil, fmt.Errorf("acceptor not found")
	}

	if err := Debit(ctx, uow, userID, challenge.WagerAmount,
		models.TransactionTypeChallengeEscrow, challenge.ID, models.RelatedTypeChallenge,
		map[string]any{"title": challenge.Title}); err != nil {
		return nil, err
	}

	participant := &models.ChallengeParticipant{
		ChallengeID: challenge.ID,
		DiscordID:   acceptor.DiscordID,
		Username:    acceptor.Username,
		JoinedAt:    now,
		WagerPaid:   true,
	}
	if err := uow.ChallengeRepository().AddParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	s.activate(challenge, now)
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}

	uow.EventBus().Publish(events.ChallengeAcceptedEvent{
		ChallengeID: challenge.ID,
		AcceptorID:  userID,
		Title:       challenge.Title,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return challenge, nil
}

// Join adds a participant to an open challenge, escrowing their wager.
// The row lock taken by GetByIDForUpdate serializes concurrent joins, so
// two callers can never both claim the last slot.
func (s *challengeService) Join(ctx context.Context, challengeID, userID int64) (*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		return nil, ErrNotFound
	}
	if challenge.Type != models.ChallengeTypeOpen {
		return nil, ErrWrongStatus
	}

	now := time.Now()
	switch challenge.Status {
	case models.ChallengeStatusOpen:
		// still gathering its first participants
	case models.ChallengeStatusActive:
		// late joins are allowed until the betting window closes
		if !challenge.CanAcceptBets(now) {
			return nil, ErrBettingClosed
		}
	default:
		return nil, ErrWrongStatus
	}

	detail, err := uow.ChallengeRepository().GetDetailByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge detail: %w", err)
	}
	if detail.IsParticipant(userID) {
		return nil, ErrAlreadyJoined
	}
	if challenge.IsFull(len(detail.Participants)) {
		return nil, ErrChallengeFull
	}

	joiner, err := uow.UserRepository().GetByDiscordID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get joiner: %w", err)
	}
	if joiner == nil {
		return nil, fmt.Errorf("joiner not found")
	}

	if err := Debit(ctx, uow, userID, challenge.WagerAmount,
		models.TransactionTypeChallengeEscrow, challenge.ID, models.RelatedTypeChallenge,
		map[string]any{"title": challenge.Title}); err != nil {
		return nil, err
	}

	participant := &models.ChallengeParticipant{
		ChallengeID: challenge.ID,
		DiscordID:   joiner.DiscordID,
		Username:    joiner.Username,
		JoinedAt:    now,
		WagerPaid:   true,
	}
	if err := uow.ChallengeRepository().AddParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	participantCount := len(detail.Participants) + 1
	activated := false
	if challenge.Status == models.ChallengeStatusOpen && participantCount >= minParticipants {
		s.activate(challenge, now)
		activated = true
		if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
			return nil, fmt.Errorf("failed to update challenge: %w", err)
		}
	}

	uow.EventBus().Publish(events.ChallengeJoinedEvent{
		ChallengeID:      challenge.ID,
		JoinerID:         userID,
		ParticipantCount: participantCount,
		Activated:        activated,
		Title:            challenge.Title,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return challenge, nil
}

// activate moves a challenge to active and derives its window timestamps
// from the activation instant
func (s *challengeService) activate(challenge *models.Challenge, now time.Time) {
	endsAt := now.Add(time.Duration(challenge.DurationHours) * time.Hour)
	bettingClosesAt := now.Add(s.config.BettingWindowOffset)
	if bettingClosesAt.After(endsAt) {
		bettingClosesAt = endsAt
	}

	challenge.Status = models.ChallengeStatusActive
	challenge.StartsAt = &now
	challenge.EndsAt = &endsAt
	challenge.BettingClosesAt = &bettingClosesAt
}

// Decline declines a pending direct challenge and refunds the creator's escrow
func (s *challengeService) Decline(ctx context.Context, challengeID, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		return ErrNotFound
	}
	if challenge.Type != models.ChallengeTypeDirect {
		return ErrWrongStatus
	}
	if challenge.Status != models.ChallengeStatusPending {
		return ErrAlreadyDecided
	}
	if challenge.OpponentDiscordID == nil || *challenge.OpponentDiscordID != userID {
		return ErrWrongParticipant
	}

	if err := s.refundEscrow(ctx, uow, challengeID); err != nil {
		return err
	}

	challenge.Status = models.ChallengeStatusDeclined
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}

	uow.EventBus().Publish(events.ChallengeDeclinedEvent{
		ChallengeID: challenge.ID,
		DeclinerID:  userID,
		Title:       challenge.Title,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Cancel cancels a not-yet-active challenge and refunds all escrowed wagers
func (s *challengeService) Cancel(ctx context.Context, challengeID, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		return ErrNotFound
	}
	if challenge.CreatorDiscordID != userID {
		return ErrWrongParticipant
	}
	if challenge.Status != models.ChallengeStatusPending && challenge.Status != models.ChallengeStatusOpen {
		return ErrAlreadyDecided
	}

	if err := s.refundEscrow(ctx, uow, challengeID); err != nil {
		return err
	}

	challenge.Status = models.ChallengeStatusCancelled
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}

	uow.EventBus().Publish(events.ChallengeCancelledEvent{
		ChallengeID: challenge.ID,
		ActorID:     userID,
		Title:       challenge.Title,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// refundEscrow returns the wager of every participant who has paid it
func (s *challengeService) refundEscrow(ctx context.Context, uow UnitOfWork, challengeID int64) error {
	detail, err := uow.ChallengeRepository().GetDetailByID(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge detail: %w", err)
	}

	for _, p := range detail.Participants {
		if !p.WagerPaid {
			continue
		}
		if err := Credit(ctx, uow, p.DiscordID, detail.Challenge.WagerAmount,
			models.TransactionTypeChallengeRefund, challengeID, models.RelatedTypeChallenge,
			map[string]any{"title": detail.Challenge.Title}); err != nil {
			return fmt.Errorf("failed to refund participant %d: %w", p.DiscordID, err)
		}
	}

	return nil
}

// PlaceBet places a side bet on an active challenge. Bets are accepted only
// strictly before the betting-close timestamp.
func (s *challengeService) PlaceBet(ctx context.Context, challengeID, bettorID, targetID, amount int64) (*models.ChallengeBet, error) {
	if amount < s.config.MinBetAmount || amount > s.config.MaxBetAmount {
		return nil, fmt.Errorf("%w: %d GP (allowed %d-%d)", ErrInvalidBet, amount, s.config.MinBetAmount, s.config.MaxBetAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		return nil, ErrNotFound
	}
	if challenge.Status != models.ChallengeStatusActive {
		return nil, ErrChallengeNotActive
	}

	now := time.Now()
	if !challenge.CanAcceptBets(now) {
		return nil, ErrBettingClosed
	}

	detail, err := uow.ChallengeRepository().GetDetailByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge detail: %w", err)
	}
	if detail.IsParticipant(bettorID) {
		return nil, ErrIsParticipant
	}
	if detail.FindBet(bettorID) != nil {
		return nil, ErrDuplicateBet
	}
	if !detail.IsParticipant(targetID) {
		return nil, ErrInvalidTarget
	}

	bettor, err := uow.UserRepository().GetByDiscordID(ctx, bettorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bettor: %w", err)
	}
	if bettor == nil {
		return nil, fmt.Errorf("bettor not found")
	}

	bet := &models.ChallengeBet{
		ChallengeID:     challengeID,
		BettorDiscordID: bettorID,
		Username:        bettor.Username,
		TargetDiscordID: targetID,
		Amount:          amount,
		PlacedAt:        now,
	}
	if err := uow.ChallengeRepository().AddBet(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	if err := Debit(ctx, uow, bettorID, amount,
		models.TransactionTypeBetStake, bet.ID, models.RelatedTypeBet,
		map[string]any{"challenge_id": challengeID, "target": targetID}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		ChallengeID: challengeID,
		BettorID:    bettorID,
		TargetID:    targetID,
		Amount:      amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}

// GetChallengeDetail retrieves full details of a challenge
func (s *challengeService) GetChallengeDetail(ctx context.Context, challengeID int64) (*models.ChallengeDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.ChallengeRepository().GetDetailByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge detail: %w", err)
	}
	if detail == nil {
		return nil, ErrNotFound
	}

	return detail, nil
}

// ListOpenChallenges returns open challenges accepting joiners
func (s *challengeService) ListOpenChallenges(ctx context.Context, limit int) ([]*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenges, err := uow.ChallengeRepository().ListOpen(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open challenges: %w", err)
	}

	return challenges, nil
}

// ListActiveChallengesByUser returns a user's non-terminal challenges
func (s *challengeService) ListActiveChallengesByUser(ctx context.Context, discordID int64) ([]*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenges, err := uow.ChallengeRepository().ListActiveByUser(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active challenges: %w", err)
	}

	return challenges, nil
}
