package service

import (
	"context"
	"fmt"
	"time"

	"arenabot/config"
	"arenabot/events"
	"arenabot/models"

	log "github.com/sirupsen/logrus"
)

// LifecycleScheduler drives time-triggered challenge transitions with
// periodic sweeps. All timing state comes from persisted timestamps, so a
// restart between creation and resolution loses nothing.
type LifecycleScheduler struct {
	uowFactory UnitOfWorkFactory
	resolver   ScoreResolver
	engine     *PayoutEngine
	config     *config.Config
}

// NewLifecycleScheduler creates a scheduler with injected dependencies
func NewLifecycleScheduler(uowFactory UnitOfWorkFactory, resolver ScoreResolver, engine *PayoutEngine, cfg *config.Config) *LifecycleScheduler {
	return &LifecycleScheduler{
		uowFactory: uowFactory,
		resolver:   resolver,
		engine:     engine,
		config:     cfg,
	}
}

// Start launches the sweep worker on the configured cadence and returns a
// cleanup function to stop it gracefully
func (s *LifecycleScheduler) Start(ctx context.Context) func() {
	ticker := time.NewTicker(s.config.SweepInterval)
	stopChan := make(chan struct{})

	runSweeps := func() {
		if err := s.SweepExpirations(ctx); err != nil {
			log.Errorf("Expiration sweep failed: %v", err)
		}
		if err := s.SweepCompletions(ctx); err != nil {
			log.Errorf("Completion sweep failed: %v", err)
		}
	}

	go func() {
		log.Info("Lifecycle scheduler started")

		// Run immediately on startup
		runSweeps()

		for {
			select {
			case <-ctx.Done():
				log.Info("Lifecycle scheduler shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Lifecycle scheduler shutting down (stop requested)...")
				return
			case <-ticker.C:
				runSweeps()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}

// SweepExpirations auto-declines pending direct challenges and cancels
// never-activated open challenges once their acceptance deadline passes,
// refunding all escrowed wagers.
func (s *LifecycleScheduler) SweepExpirations(ctx context.Context) error {
	expired, err := s.listExpired(ctx)
	if err != nil {
		return err
	}

	for _, challenge := range expired {
		if err := s.expireChallenge(ctx, challenge.ID); err != nil {
			log.Errorf("Failed to expire challenge %d: %v", challenge.ID, err)
		}
	}

	return nil
}

func (s *LifecycleScheduler) listExpired(ctx context.Context) ([]*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.ChallengeRepository().GetExpiredPending(ctx, time.Now())
}

func (s *LifecycleScheduler) expireChallenge(ctx context.Context, challengeID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Re-check under the row lock; an accept or join may have raced the sweep
	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil {
		return nil
	}
	if challenge.Status != models.ChallengeStatusPending && challenge.Status != models.ChallengeStatusOpen {
		return nil
	}
	if !challenge.AcceptanceExpired(time.Now()) {
		return nil
	}

	detail, err := uow.ChallengeRepository().GetDetailByID(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge detail: %w", err)
	}
	for _, p := range detail.Participants {
		if !p.WagerPaid {
			continue
		}
		if err := Credit(ctx, uow, p.DiscordID, challenge.WagerAmount,
			models.TransactionTypeChallengeRefund, challengeID, models.RelatedTypeChallenge,
			map[string]any{"title": challenge.Title, "reason": "acceptance_expired"}); err != nil {
			return fmt.Errorf("failed to refund participant %d: %w", p.DiscordID, err)
		}
	}

	if challenge.Status == models.ChallengeStatusPending {
		challenge.Status = models.ChallengeStatusDeclined
	} else {
		challenge.Status = models.ChallengeStatusCancelled
	}
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}

	if challenge.Status == models.ChallengeStatusDeclined {
		uow.EventBus().Publish(events.ChallengeDeclinedEvent{
			ChallengeID: challenge.ID,
			Title:       challenge.Title,
		})
	} else {
		uow.EventBus().Publish(events.ChallengeCancelledEvent{
			ChallengeID: challenge.ID,
			Title:       challenge.Title,
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"challengeID": challenge.ID,
		"status":      challenge.Status,
	}).Info("Expired unaccepted challenge")

	return nil
}

// SweepCompletions settles every active challenge whose competition window
// has elapsed. A challenge whose scores cannot be resolved stays active and
// is retried next sweep; past the attempt bound it is forced to no-contest
// so escrowed GP never stays locked indefinitely.
func (s *LifecycleScheduler) SweepCompletions(ctx context.Context) error {
	ended, err := s.listEnded(ctx)
	if err != nil {
		return err
	}

	for _, challenge := range ended {
		if err := s.completeChallenge(ctx, challenge.ID); err != nil {
			log.Errorf("Failed to complete challenge %d: %v", challenge.ID, err)
		}
	}

	return nil
}

func (s *LifecycleScheduler) listEnded(ctx context.Context) ([]*models.Challenge, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.ChallengeRepository().GetEndedActive(ctx, time.Now())
}

func (s *LifecycleScheduler) completeChallenge(ctx context.Context, challengeID int64) error {
	// Resolve scores before taking the row lock; an HTTP round trip has no
	// business inside the settlement transaction. Nothing about an ended
	// challenge can change between this read and the locked re-check.
	detail, err := s.readDetail(ctx, challengeID)
	if err != nil {
		return err
	}
	if detail == nil || !detail.Challenge.HasEnded(time.Now()) {
		return nil
	}

	scores, err := s.resolver.Resolve(ctx, detail)
	if err != nil {
		// Every resolution failure counts against the attempt bound.
		// A permanent provider error (bad token, deleted leaderboard)
		// would otherwise keep the escrow locked forever.
		return s.recordResolveFailure(ctx, challengeID, err)
	}

	return s.settle(ctx, challengeID, scores)
}

func (s *LifecycleScheduler) readDetail(ctx context.Context, challengeID int64) (*models.ChallengeDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.ChallengeRepository().GetDetailByID(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge detail: %w", err)
	}
	return detail, nil
}

// recordResolveFailure counts a resolution failure and forces a
// no-contest refund once the bounded attempt count is exhausted
func (s *LifecycleScheduler) recordResolveFailure(ctx context.Context, challengeID int64, cause error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil || !challenge.IsActive() {
		uow.Rollback()
		return nil
	}

	challenge.ResolveAttempts++
	exhausted := challenge.ResolveAttempts >= s.config.MaxResolveAttempts

	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"challengeID": challengeID,
		"attempts":    challenge.ResolveAttempts,
		"max":         s.config.MaxResolveAttempts,
		"error":       cause,
	}).Warn("Score resolution failed, will retry")

	if !exhausted {
		return nil
	}

	// No scores at all settles as a no-contest refund
	log.WithField("challengeID", challengeID).Warn("Resolve attempts exhausted, forcing no-contest refund")
	return s.settle(ctx, challengeID, map[int64]models.ScoreResult{})
}

// settle applies a settlement exactly once: the status re-check, the
// ledger transactions, and the terminal transition share one locked
// database transaction, so overlapping sweeps observe a terminal status
// and do nothing.
func (s *LifecycleScheduler) settle(ctx context.Context, challengeID int64, scores map[int64]models.ScoreResult) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	challenge, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge: %w", err)
	}
	if challenge == nil || !challenge.IsActive() {
		// Already settled by another sweep cycle
		return nil
	}

	detail, err := uow.ChallengeRepository().GetDetailByID(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("failed to get challenge detail: %w", err)
	}

	plan, err := s.engine.ComputeSettlement(detail, scores)
	if err != nil {
		return fmt.Errorf("failed to compute settlement: %w", err)
	}

	if err := s.applyPlan(ctx, uow, detail, plan, scores); err != nil {
		return err
	}

	ok, err := uow.ChallengeRepository().UpdateStatusIf(ctx, challengeID, models.ChallengeStatusActive, models.ChallengeStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to complete challenge: %w", err)
	}
	if !ok {
		// Lost the transition despite the lock; abandon without side effects
		return nil
	}

	uow.EventBus().Publish(events.ChallengeCompletedEvent{
		ChallengeID: challenge.ID,
		Outcome:     plan.Outcome,
		WinnerID:    plan.WinnerDiscordID,
		WagerPool:   plan.WagerPool,
		Title:       challenge.Title,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"challengeID": challengeID,
		"outcome":     plan.Outcome,
		"winnerID":    plan.WinnerDiscordID,
		"wagerPool":   plan.WagerPool,
	}).Info("Challenge settled")

	return nil
}

// applyPlan turns a settlement plan into ledger transactions and writes
// the once-only settlement fields on participants, bets, and the challenge
func (s *LifecycleScheduler) applyPlan(ctx context.Context, uow UnitOfWork, detail *models.ChallengeDetail, plan *models.SettlementPlan, scores map[int64]models.ScoreResult) error {
	challenge := detail.Challenge

	if plan.Outcome == models.SettlementOutcomeWinner {
		if err := Credit(ctx, uow, plan.WinnerDiscordID, plan.WagerPool,
			models.TransactionTypeChallengeWin, challenge.ID, models.RelatedTypeChallenge,
			map[string]any{"title": challenge.Title, "pool": plan.WagerPool}); err != nil {
			return fmt.Errorf("failed to credit winner: %w", err)
		}
		winnerID := plan.WinnerDiscordID
		challenge.WinnerDiscordID = &winnerID
	} else {
		for discordID, amount := range plan.ParticipantRefunds {
			if err := Credit(ctx, uow, discordID, amount,
				models.TransactionTypeChallengeRefund, challenge.ID, models.RelatedTypeChallenge,
				map[string]any{"title": challenge.Title, "reason": string(plan.Outcome)}); err != nil {
				return fmt.Errorf("failed to refund participant %d: %w", discordID, err)
			}
		}
	}

	payoutsByBet := make(map[int64]models.BetPayout, len(plan.BetPayouts))
	for _, payout := range plan.BetPayouts {
		payoutsByBet[payout.BetID] = payout

		if stakeBack := payout.Refund + payout.Share; stakeBack > 0 {
			if err := Credit(ctx, uow, payout.BettorDiscordID, stakeBack,
				models.TransactionTypeBetPayout, payout.BetID, models.RelatedTypeBet,
				map[string]any{"challenge_id": challenge.ID}); err != nil {
				return fmt.Errorf("failed to pay bettor %d: %w", payout.BettorDiscordID, err)
			}
		}
		// House contributions are booked separately for auditability
		if payout.HouseBonus > 0 {
			if err := Credit(ctx, uow, payout.BettorDiscordID, payout.HouseBonus,
				models.TransactionTypeHouseGuarantee, payout.BetID, models.RelatedTypeBet,
				map[string]any{"challenge_id": challenge.ID}); err != nil {
				return fmt.Errorf("failed to pay house guarantee to %d: %w", payout.BettorDiscordID, err)
			}
		}
	}

	for bettorID, amount := range plan.BetRefunds {
		bet := detail.FindBet(bettorID)
		if bet == nil {
			continue
		}
		if err := Credit(ctx, uow, bettorID, amount,
			models.TransactionTypeBetRefund, bet.ID, models.RelatedTypeBet,
			map[string]any{"challenge_id": challenge.ID, "reason": string(plan.Outcome)}); err != nil {
			return fmt.Errorf("failed to refund bettor %d: %w", bettorID, err)
		}
	}

	// Write resolved scores and ranks onto the participant records
	for _, p := range detail.Participants {
		if result, ok := scores[p.DiscordID]; ok && result.HasScore {
			score := result.Score
			rank := result.Rank
			p.LastScore = &score
			p.Rank = &rank
		}
	}
	if err := uow.ChallengeRepository().UpdateParticipantResults(ctx, detail.Participants); err != nil {
		return fmt.Errorf("failed to update participant results: %w", err)
	}

	// Mark every bet paid with its settlement amounts, exactly once
	for _, bet := range detail.Bets {
		var payoutAmount, houseContribution int64
		if payout, ok := payoutsByBet[bet.ID]; ok {
			payoutAmount = payout.Total()
			houseContribution = payout.HouseBonus
		} else if refund, ok := plan.BetRefunds[bet.BettorDiscordID]; ok {
			payoutAmount = refund
		}
		bet.Paid = true
		bet.PayoutAmount = &payoutAmount
		bet.HouseContribution = &houseContribution
	}
	if err := uow.ChallengeRepository().UpdateBetSettlements(ctx, detail.Bets); err != nil {
		return fmt.Errorf("failed to update bet settlements: %w", err)
	}

	now := time.Now()
	challenge.CompletedAt = &now
	if err := uow.ChallengeRepository().Update(ctx, challenge); err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}

	return nil
}
