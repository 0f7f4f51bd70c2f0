package service

import (
	"context"
	"testing"
	"time"

	"arenabot/config"
	"arenabot/events"
	"arenabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type challengeMocks struct {
	factory       *MockUnitOfWorkFactory
	uow           *MockUnitOfWork
	userRepo      *MockUserRepository
	ledgerRepo    *MockLedgerRepository
	challengeRepo *MockChallengeRepository
}

func newChallengeMocks() *challengeMocks {
	m := &challengeMocks{
		factory:       new(MockUnitOfWorkFactory),
		uow:           new(MockUnitOfWork),
		userRepo:      new(MockUserRepository),
		ledgerRepo:    new(MockLedgerRepository),
		challengeRepo: new(MockChallengeRepository),
	}
	m.uow.SetRepositories(m.userRepo, m.ledgerRepo, m.challengeRepo)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Commit").Return(nil).Maybe()
	m.uow.On("Rollback").Return(nil).Maybe()
	return m
}

func (m *challengeMocks) assertExpectations(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
	m.ledgerRepo.AssertExpectations(t)
	m.challengeRepo.AssertExpectations(t)
}

func testUser(discordID int64, balance int64) *models.User {
	return &models.User{
		DiscordID: discordID,
		Username:  "user",
		Balance:   balance,
	}
}

func pendingDirectChallenge(id int64, creatorID, opponentID int64, wager int64) *models.Challenge {
	opp := opponentID
	return &models.Challenge{
		ID:                 id,
		Type:               models.ChallengeTypeDirect,
		CreatorDiscordID:   creatorID,
		OpponentDiscordID:  &opp,
		GameID:             "game",
		LeaderboardID:      "lb",
		Title:              "challenge",
		WagerAmount:        wager,
		Status:             models.ChallengeStatusPending,
		DurationHours:      24,
		CreatedAt:          time.Now(),
		AcceptanceDeadline: time.Now().Add(24 * time.Hour),
	}
}

func activeChallenge(id int64, creatorID, opponentID int64, wager int64) *models.Challenge {
	c := pendingDirectChallenge(id, creatorID, opponentID, wager)
	now := time.Now()
	ends := now.Add(24 * time.Hour)
	closes := now.Add(12 * time.Hour)
	c.Status = models.ChallengeStatusActive
	c.StartsAt = &now
	c.EndsAt = &ends
	c.BettingClosesAt = &closes
	return c
}

func TestChallengeService_Create_Direct(t *testing.T) {
	ctx := context.Background()
	m := newChallengeMocks()
	svc := NewChallengeService(m.factory, config.NewTestConfig())

	creator := testUser(1, 1000)
	opponent := testUser(2, 1000)

	m.userRepo.On("GetByDiscordID", ctx, int64(1)).Return(creator, nil)
	m.userRepo.On("GetByDiscordID", ctx, int64(2)).Return(opponent, nil)

	m.challengeRepo.On("Create", ctx, mock.MatchedBy(func(c *models.Challenge) bool {
		return c.Type == models.ChallengeTypeDirect &&
			c.Status == models.ChallengeStatusPending &&
			c.CreatorDiscordID == 1 &&
			*c.OpponentDiscordID == 2 &&
			c.WagerAmount == 100
	}), mock.MatchedBy(func(p *models.ChallengeParticipant) bool {
		return p.DiscordID == 1 && p.WagerPaid
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Challenge).ID = 77
	})

	m.userRepo.On("DeductBalance", ctx, int64(1), int64(100)).Return(nil)
	m.ledgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.DiscordID == 1 &&
			e.ChangeAmount == -100 &&
			e.TransactionType == models.TransactionTypeChallengeEscrow &&
			*e.RelatedID == 77 &&
			*e.RelatedType == models.RelatedTypeChallenge
	})).Return(nil)

	challenge, err := svc.Create(ctx, CreateChallengeParams{
		Type:              models.ChallengeTypeDirect,
		CreatorDiscordID:  1,
		OpponentDiscordID: 2,
		GameID:            "game",
		LeaderboardID:     "lb",
		Title:             "first to 100",
		WagerAmount:       100,
		DurationHours:     24,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(77), challenge.ID)
	assert.Equal(t, models.ChallengeStatusPending, challenge.Status)
	assert.Nil(t, challenge.StartsAt)

	// Creation and escrow publish after commit
	published := m.uow.PublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventTypeChallengeCreated, published[1].Type())

	m.assertExpectations(t)
}

func TestChallengeService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	tests := []struct {
		name    string
		params  CreateChallengeParams
		wantErr error
	}{
		{
			name: "wager below minimum",
			params: CreateChallengeParams{
				Type: models.ChallengeTypeDirect, CreatorDiscordID: 1, OpponentDiscordID: 2,
				Title: "t", WagerAmount: 5, DurationHours: 24,
			},
			wantErr: ErrInvalidWager,
		},
		{
			name: "wager above maximum",
			params: CreateChallengeParams{
				Type: models.ChallengeTypeDirect, CreatorDiscordID: 1, OpponentDiscordID: 2,
				Title: "t", WagerAmount: 20000, DurationHours: 24,
			},
			wantErr: ErrInvalidWager,
		},
		{
			name: "duration too short",
			params: CreateChallengeParams{
				Type: models.ChallengeTypeDirect, CreatorDiscordID: 1, OpponentDiscordID: 2,
				Title: "t", WagerAmount: 100, DurationHours: 0,
			},
			wantErr: ErrInvalidDuration,
		},
		{
			name: "duration too long",
			params: CreateChallengeParams{
				Type: models.ChallengeTypeDirect, CreatorDiscordID: 1, OpponentDiscordID: 2,
				Title: "t", WagerAmount: 100, DurationHours: 400,
			},
			wantErr: ErrInvalidDuration,
		},
		{
			name: "self challenge",
			params: CreateChallengeParams{
				Type: models.ChallengeTypeDirect, CreatorDiscordID: 1, OpponentDiscordID: 1,
				Title: "t", WagerAmount: 100, DurationHours: 24,
			},
			wantErr: ErrSelfChallenge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newChallengeMocks()
			svc := NewChallengeService(m.factory, cfg)

			_, err := svc.Create(ctx, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChallengeService_Create_UnknownOpponent(t *testing.T) {
	ctx := context.Background()
	m := newChallengeMocks()
	svc := NewChallengeService(m.factory, config.NewTestConfig())

	m.userRepo.On("GetByDiscordID", ctx, int64(1)).Return(testUser(1, 1000), nil)
	m.userRepo.On("GetByDiscordID", ctx, int64(2)).Return(nil, nil)

	_, err := svc.Create(ctx, CreateChallengeParams{
		Type: models.ChallengeTypeDirect, CreatorDiscordID: 1, OpponentDiscordID: 2,
		Title: "t", WagerAmount: 100, DurationHours: 24,
	})
	assert.ErrorIs(t, err, ErrUnknownOpponent)
}

func TestChallengeService_Create_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	m := newChallengeMocks()
	svc := NewChallengeService(m.factory, config.NewTestConfig())

	m.userRepo.On("GetByDiscordID", ctx, int64(1)).Return(testUser(1, 50), nil)
	m.userRepo.On("GetByDiscordID", ctx, int64(2)).Return(testUser(2, 1000), nil)
	m.challengeRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Create(ctx, CreateChallengeParams{
		Type: models.ChallengeTypeDirect, CreatorDiscordID: 1, OpponentDiscordID: 2,
		Title: "t", WagerAmount: 100, DurationHours: 24,
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	m.uow.AssertNotCalled(t, "Commit")
}

func TestChallengeService_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("successful accept activates", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := pendingDirectChallenge(5, 1, 2, 100)

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(challenge, nil)
		m.userRepo.On("GetByDiscordID", ctx, int64(2)).Return(testUser(2, 1000), nil)
		m.userRepo.On("DeductBalance", ctx, int64(2), int64(100)).Return(nil)
		m.ledgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.DiscordID == 2 && e.TransactionType == models.TransactionTypeChallengeEscrow
		})).Return(nil)
		m.challengeRepo.On("AddParticipant", ctx, mock.MatchedBy(func(p *models.ChallengeParticipant) bool {
			return p.ChallengeID == 5 && p.DiscordID == 2 && p.WagerPaid
		})).Return(nil)
		m.challengeRepo.On("Update", ctx, mock.MatchedBy(func(c *models.Challenge) bool {
			return c.Status == models.ChallengeStatusActive &&
				c.StartsAt != nil && c.EndsAt != nil && c.BettingClosesAt != nil
		})).Return(nil)

		got, err := svc.Accept(ctx, 5, 2)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeStatusActive, got.Status)

		// 24h duration: betting window clamps to the challenge end
		assert.Equal(t, *got.EndsAt, *got.BettingClosesAt)

		m.assertExpectations(t)
	})

	t.Run("wrong user cannot accept", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(pendingDirectChallenge(5, 1, 2, 100), nil)

		_, err := svc.Accept(ctx, 5, 3)
		assert.ErrorIs(t, err, ErrWrongParticipant)
	})

	t.Run("already active", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(activeChallenge(5, 1, 2, 100), nil)

		_, err := svc.Accept(ctx, 5, 2)
		assert.ErrorIs(t, err, ErrAlreadyDecided)
	})

	t.Run("past acceptance deadline", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := pendingDirectChallenge(5, 1, 2, 100)
		challenge.AcceptanceDeadline = time.Now().Add(-time.Hour)
		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(challenge, nil)

		_, err := svc.Accept(ctx, 5, 2)
		assert.ErrorIs(t, err, ErrAlreadyDecided)
	})

	t.Run("not found", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(nil, nil)

		_, err := svc.Accept(ctx, 5, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func openChallenge(id, creatorID int64, wager int64, maxParticipants int) *models.Challenge {
	c := pendingDirectChallenge(id, creatorID, 0, wager)
	c.Type = models.ChallengeTypeOpen
	c.OpponentDiscordID = nil
	c.Status = models.ChallengeStatusOpen
	if maxParticipants > 0 {
		c.MaxParticipants = &maxParticipants
	}
	return c
}

func detailFor(challenge *models.Challenge, participantIDs ...int64) *models.ChallengeDetail {
	var participants []*models.ChallengeParticipant
	for i, id := range participantIDs {
		participants = append(participants, &models.ChallengeParticipant{
			ID:          int64(i + 1),
			ChallengeID: challenge.ID,
			DiscordID:   id,
			WagerPaid:   true,
		})
	}
	return &models.ChallengeDetail{Challenge: challenge, Participants: participants}
}

func TestChallengeService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("second joiner activates", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := openChallenge(7, 1, 100, 4)

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(7)).Return(detailFor(challenge, 1), nil)
		m.userRepo.On("GetByDiscordID", ctx, int64(3)).Return(testUser(3, 1000), nil)
		m.userRepo.On("DeductBalance", ctx, int64(3), int64(100)).Return(nil)
		m.ledgerRepo.On("Record", ctx, mock.Anything).Return(nil)
		m.challengeRepo.On("AddParticipant", ctx, mock.Anything).Return(nil)
		m.challengeRepo.On("Update", ctx, mock.MatchedBy(func(c *models.Challenge) bool {
			return c.Status == models.ChallengeStatusActive
		})).Return(nil)

		got, err := svc.Join(ctx, 7, 3)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeStatusActive, got.Status)

		published := m.uow.PublishedEvents()
		require.NotEmpty(t, published)
		joined := published[len(published)-1].(events.ChallengeJoinedEvent)
		assert.True(t, joined.Activated)
		assert.Equal(t, 2, joined.ParticipantCount)
	})

	t.Run("late join on active challenge", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := openChallenge(7, 1, 100, 4)
		now := time.Now()
		ends := now.Add(24 * time.Hour)
		closes := now.Add(12 * time.Hour)
		challenge.Status = models.ChallengeStatusActive
		challenge.StartsAt = &now
		challenge.EndsAt = &ends
		challenge.BettingClosesAt = &closes

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(7)).Return(detailFor(challenge, 1, 2), nil)
		m.userRepo.On("GetByDiscordID", ctx, int64(4)).Return(testUser(4, 1000), nil)
		m.userRepo.On("DeductBalance", ctx, int64(4), int64(100)).Return(nil)
		m.ledgerRepo.On("Record", ctx, mock.Anything).Return(nil)
		m.challengeRepo.On("AddParticipant", ctx, mock.Anything).Return(nil)

		got, err := svc.Join(ctx, 7, 4)
		require.NoError(t, err)
		assert.Equal(t, models.ChallengeStatusActive, got.Status)
	})

	t.Run("full challenge rejects join", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := openChallenge(7, 1, 100, 2)
		now := time.Now()
		ends := now.Add(24 * time.Hour)
		closes := now.Add(12 * time.Hour)
		challenge.Status = models.ChallengeStatusActive
		challenge.StartsAt = &now
		challenge.EndsAt = &ends
		challenge.BettingClosesAt = &closes

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(7)).Return(detailFor(challenge, 1, 2), nil)

		_, err := svc.Join(ctx, 7, 4)
		assert.ErrorIs(t, err, ErrChallengeFull)
	})

	t.Run("duplicate join rejected", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := openChallenge(7, 1, 100, 4)
		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(7)).Return(detailFor(challenge, 1), nil)

		_, err := svc.Join(ctx, 7, 1)
		assert.ErrorIs(t, err, ErrAlreadyJoined)
	})

	t.Run("join after betting close rejected", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := openChallenge(7, 1, 100, 4)
		now := time.Now()
		started := now.Add(-20 * time.Hour)
		ends := now.Add(4 * time.Hour)
		closed := now.Add(-time.Hour)
		challenge.Status = models.ChallengeStatusActive
		challenge.StartsAt = &started
		challenge.EndsAt = &ends
		challenge.BettingClosesAt = &closed

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(challenge, nil)

		_, err := svc.Join(ctx, 7, 4)
		assert.ErrorIs(t, err, ErrBettingClosed)
	})

	t.Run("direct challenge cannot be joined", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(7)).Return(pendingDirectChallenge(7, 1, 2, 100), nil)

		_, err := svc.Join(ctx, 7, 3)
		assert.ErrorIs(t, err, ErrWrongStatus)
	})
}

func TestChallengeService_Decline(t *testing.T) {
	ctx := context.Background()

	t.Run("opponent declines and creator is refunded", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := pendingDirectChallenge(5, 1, 2, 100)

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(5)).Return(detailFor(challenge, 1), nil)
		m.userRepo.On("GetByDiscordID", ctx, int64(1)).Return(testUser(1, 900), nil)
		m.userRepo.On("AddBalance", ctx, int64(1), int64(100)).Return(nil)
		m.ledgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.DiscordID == 1 &&
				e.ChangeAmount == 100 &&
				e.TransactionType == models.TransactionTypeChallengeRefund
		})).Return(nil)
		m.challengeRepo.On("Update", ctx, mock.MatchedBy(func(c *models.Challenge) bool {
			return c.Status == models.ChallengeStatusDeclined
		})).Return(nil)

		require.NoError(t, svc.Decline(ctx, 5, 2))
		m.assertExpectations(t)
	})

	t.Run("creator cannot decline own challenge", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(pendingDirectChallenge(5, 1, 2, 100), nil)

		err := svc.Decline(ctx, 5, 1)
		assert.ErrorIs(t, err, ErrWrongParticipant)
	})
}

func TestChallengeService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("creator cancels open challenge", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := openChallenge(8, 1, 100, 0)

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(8)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(8)).Return(detailFor(challenge, 1), nil)
		m.userRepo.On("GetByDiscordID", ctx, int64(1)).Return(testUser(1, 900), nil)
		m.userRepo.On("AddBalance", ctx, int64(1), int64(100)).Return(nil)
		m.ledgerRepo.On("Record", ctx, mock.Anything).Return(nil)
		m.challengeRepo.On("Update", ctx, mock.MatchedBy(func(c *models.Challenge) bool {
			return c.Status == models.ChallengeStatusCancelled
		})).Return(nil)

		require.NoError(t, svc.Cancel(ctx, 8, 1))
	})

	t.Run("non-creator cannot cancel", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(8)).Return(openChallenge(8, 1, 100, 0), nil)

		err := svc.Cancel(ctx, 8, 2)
		assert.ErrorIs(t, err, ErrWrongParticipant)
	})

	t.Run("active challenge cannot be cancelled", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(8)).Return(activeChallenge(8, 1, 2, 100), nil)

		err := svc.Cancel(ctx, 8, 1)
		assert.ErrorIs(t, err, ErrAlreadyDecided)
	})
}

func TestChallengeService_PlaceBet(t *testing.T) {
	ctx := context.Background()

	t.Run("successful bet", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := activeChallenge(9, 1, 2, 100)

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(9)).Return(detailFor(challenge, 1, 2), nil)
		m.userRepo.On("GetByDiscordID", ctx, int64(5)).Return(testUser(5, 500), nil)
		m.challengeRepo.On("AddBet", ctx, mock.MatchedBy(func(b *models.ChallengeBet) bool {
			return b.ChallengeID == 9 && b.BettorDiscordID == 5 && b.TargetDiscordID == 1 && b.Amount == 50
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*models.ChallengeBet).ID = 33
		})
		m.userRepo.On("DeductBalance", ctx, int64(5), int64(50)).Return(nil)
		m.ledgerRepo.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.DiscordID == 5 &&
				e.ChangeAmount == -50 &&
				e.TransactionType == models.TransactionTypeBetStake &&
				*e.RelatedID == 33 &&
				*e.RelatedType == models.RelatedTypeBet
		})).Return(nil)

		bet, err := svc.PlaceBet(ctx, 9, 5, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, int64(33), bet.ID)

		m.assertExpectations(t)
	})

	t.Run("bet amount out of range", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		_, err := svc.PlaceBet(ctx, 9, 5, 1, 5)
		assert.ErrorIs(t, err, ErrInvalidBet)

		_, err = svc.PlaceBet(ctx, 9, 5, 1, 100000)
		assert.ErrorIs(t, err, ErrInvalidBet)
	})

	t.Run("inactive challenge", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(pendingDirectChallenge(9, 1, 2, 100), nil)

		_, err := svc.PlaceBet(ctx, 9, 5, 1, 50)
		assert.ErrorIs(t, err, ErrChallengeNotActive)
	})

	t.Run("betting window closed", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := activeChallenge(9, 1, 2, 100)
		closed := time.Now().Add(-time.Minute)
		challenge.BettingClosesAt = &closed

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(challenge, nil)

		_, err := svc.PlaceBet(ctx, 9, 5, 1, 50)
		assert.ErrorIs(t, err, ErrBettingClosed)
	})

	t.Run("participant cannot bet", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := activeChallenge(9, 1, 2, 100)
		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(9)).Return(detailFor(challenge, 1, 2), nil)

		_, err := svc.PlaceBet(ctx, 9, 1, 2, 50)
		assert.ErrorIs(t, err, ErrIsParticipant)
	})

	t.Run("duplicate bet rejected", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := activeChallenge(9, 1, 2, 100)
		detail := detailFor(challenge, 1, 2)
		detail.Bets = []*models.ChallengeBet{{ID: 30, ChallengeID: 9, BettorDiscordID: 5, TargetDiscordID: 1, Amount: 20}}

		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(9)).Return(detail, nil)

		_, err := svc.PlaceBet(ctx, 9, 5, 2, 50)
		assert.ErrorIs(t, err, ErrDuplicateBet)
	})

	t.Run("target must be a participant", func(t *testing.T) {
		m := newChallengeMocks()
		svc := NewChallengeService(m.factory, config.NewTestConfig())

		challenge := activeChallenge(9, 1, 2, 100)
		m.challengeRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(challenge, nil)
		m.challengeRepo.On("GetDetailByID", ctx, int64(9)).Return(detailFor(challenge, 1, 2), nil)

		_, err := svc.PlaceBet(ctx, 9, 5, 6, 50)
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})
}
