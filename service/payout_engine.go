package service

import (
	"fmt"

	"arenabot/models"
)

// PayoutEngine computes settlement plans from challenge state and resolved
// scores. It is a pure calculator: it never touches the ledger or the
// store; the scheduler applies whatever plan it produces.
type PayoutEngine struct {
	houseGuaranteePercent int64
}

// NewPayoutEngine creates a payout engine with the given sole-bettor
// guarantee ratio (50 means half the stake)
func NewPayoutEngine(houseGuaranteePercent int64) *PayoutEngine {
	return &PayoutEngine{houseGuaranteePercent: houseGuaranteePercent}
}

// ComputeSettlement determines the outcome and builds the full payout plan
// for an active challenge whose competition window has elapsed.
func (e *PayoutEngine) ComputeSettlement(detail *models.ChallengeDetail, scores map[int64]models.ScoreResult) (*models.SettlementPlan, error) {
	challenge := detail.Challenge
	if challenge.Status != models.ChallengeStatusActive {
		return nil, fmt.Errorf("challenge %d is not active (status %s)", challenge.ID, challenge.Status)
	}

	winnerID, outcome := determineWinner(detail.Participants, scores)

	plan := &models.SettlementPlan{
		Outcome:            outcome,
		WinnerDiscordID:    winnerID,
		WagerPool:          detail.WagerPool(),
		ParticipantRefunds: make(map[int64]int64),
		BetRefunds:         make(map[int64]int64),
	}

	if outcome != models.SettlementOutcomeWinner {
		// Tie or no contest: everyone gets exactly their escrow back and
		// every bet stake is returned. Net ledger change across all
		// accounts is zero.
		for _, p := range detail.Participants {
			if p.WagerPaid {
				plan.ParticipantRefunds[p.DiscordID] = challenge.WagerAmount
			}
		}
		for _, b := range detail.Bets {
			plan.BetRefunds[b.BettorDiscordID] = b.Amount
		}
		return plan, nil
	}

	e.settleBets(plan, detail.Bets)
	return plan, nil
}

// determineWinner picks the participant with the strictly highest
// normalized score. Two or more participants sharing the top score is a
// tie; no recorded scores at all is a no-contest.
func determineWinner(participants []*models.ChallengeParticipant, scores map[int64]models.ScoreResult) (int64, models.SettlementOutcome) {
	var (
		best      float64
		bestID    int64
		bestCount int
		scored    int
	)

	for _, p := range participants {
		result, ok := scores[p.DiscordID]
		if !ok || !result.HasScore {
			continue
		}
		scored++
		switch {
		case scored == 1 || result.Score > best:
			best = result.Score
			bestID = p.DiscordID
			bestCount = 1
		case result.Score == best:
			bestCount++
		}
	}

	if scored == 0 {
		return 0, models.SettlementOutcomeNoContest
	}
	if bestCount > 1 {
		return 0, models.SettlementOutcomeTie
	}
	return bestID, models.SettlementOutcomeWinner
}

// settleBets distributes the losing pool across winning bets using the pot
// model: stake back plus a floor-division share proportional to stake.
// Rounding remainders and unbacked losing pools stay with the house.
func (e *PayoutEngine) settleBets(plan *models.SettlementPlan, bets []*models.ChallengeBet) {
	var (
		winningBets []*models.ChallengeBet
		winningSum  int64
		losingPool  int64
	)
	for _, b := range bets {
		if b.TargetDiscordID == plan.WinnerDiscordID {
			winningBets = append(winningBets, b)
			winningSum += b.Amount
		} else {
			losingPool += b.Amount
		}
	}

	if len(winningBets) == 0 {
		// Nobody backed the winner; the losing pool is retained
		plan.HouseRetained += losingPool
		return
	}

	if len(winningBets) == 1 && losingPool == 0 {
		// Sole bettor with no opposing action: the house funds a
		// guaranteed profit so early bettors are not penalized
		bet := winningBets[0]
		plan.BetPayouts = append(plan.BetPayouts, models.BetPayout{
			BetID:           bet.ID,
			BettorDiscordID: bet.BettorDiscordID,
			Refund:          bet.Amount,
			HouseBonus:      bet.Amount * e.houseGuaranteePercent / 100,
		})
		return
	}

	var distributed int64
	for _, bet := range winningBets {
		share := losingPool * bet.Amount / winningSum
		distributed += share
		plan.BetPayouts = append(plan.BetPayouts, models.BetPayout{
			BetID:           bet.ID,
			BettorDiscordID: bet.BettorDiscordID,
			Refund:          bet.Amount,
			Share:           share,
		})
	}
	// Floor division never favors bettors
	plan.HouseRetained += losingPool - distributed
}
