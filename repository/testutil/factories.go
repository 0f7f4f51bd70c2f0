package testutil

import (
	"time"

	"arenabot/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(discordID int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		DiscordID: discordID,
		Username:  username,
		Balance:   1000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(discordID int64, username string, balance int64) *models.User {
	user := CreateTestUser(discordID, username)
	user.Balance = balance
	return user
}

// CreateTestLedgerEntry creates a test ledger entry
func CreateTestLedgerEntry(discordID int64, transactionType models.TransactionType) *models.LedgerEntry {
	return &models.LedgerEntry{
		DiscordID:       discordID,
		BalanceBefore:   1000,
		BalanceAfter:    900,
		ChangeAmount:    -100,
		TransactionType: transactionType,
		Metadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestLedgerEntryWithAmounts creates a test ledger entry with specific amounts
func CreateTestLedgerEntryWithAmounts(discordID int64, before, after, change int64, transactionType models.TransactionType) *models.LedgerEntry {
	entry := CreateTestLedgerEntry(discordID, transactionType)
	entry.BalanceBefore = before
	entry.BalanceAfter = after
	entry.ChangeAmount = change
	return entry
}

// CreateTestChallenge creates a pending direct challenge between two users
func CreateTestChallenge(creatorID, opponentID int64) *models.Challenge {
	now := time.Now()
	return &models.Challenge{
		Type:               models.ChallengeTypeDirect,
		CreatorDiscordID:   creatorID,
		OpponentDiscordID:  &opponentID,
		GameID:             "test-game",
		LeaderboardID:      "weekly-score",
		Title:              "Test Challenge",
		WagerAmount:        100,
		Status:             models.ChallengeStatusPending,
		DurationHours:      24,
		CreatedAt:          now,
		AcceptanceDeadline: now.Add(24 * time.Hour),
	}
}

// CreateTestOpenChallenge creates an open challenge with a participant cap
func CreateTestOpenChallenge(creatorID int64, maxParticipants int) *models.Challenge {
	challenge := CreateTestChallenge(creatorID, 0)
	challenge.Type = models.ChallengeTypeOpen
	challenge.OpponentDiscordID = nil
	challenge.Status = models.ChallengeStatusOpen
	challenge.MaxParticipants = &maxParticipants
	return challenge
}

// CreateTestParticipant creates a paid participant entry
func CreateTestParticipant(challengeID, discordID int64, username string) *models.ChallengeParticipant {
	return &models.ChallengeParticipant{
		ChallengeID: challengeID,
		DiscordID:   discordID,
		Username:    username,
		JoinedAt:    time.Now(),
		WagerPaid:   true,
	}
}

// CreateTestBet creates a bet entry
func CreateTestBet(challengeID, bettorID, targetID, amount int64) *models.ChallengeBet {
	return &models.ChallengeBet{
		ChallengeID:     challengeID,
		BettorDiscordID: bettorID,
		Username:        "bettor",
		TargetDiscordID: targetID,
		Amount:          amount,
		PlacedAt:        time.Now(),
	}
}
