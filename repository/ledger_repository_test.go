package repository

import (
	"context"
	"testing"

	"arenabot/models"
	"arenabot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 200001, "alice", 1000)
	require.NoError(t, err)

	t.Run("successful record", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntryWithAmounts(200001, 1000, 900, -100, models.TransactionTypeChallengeEscrow)
		challengeID := int64(42)
		relatedType := models.RelatedTypeChallenge
		entry.RelatedID = &challengeID
		entry.RelatedType = &relatedType

		err := repo.Record(ctx, entry)
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	t.Run("nil metadata", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntryWithAmounts(200001, 900, 1000, 100, models.TransactionTypeChallengeRefund)
		entry.Metadata = nil

		err := repo.Record(ctx, entry)
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
	})

	t.Run("rejects unknown transaction type", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(200001, models.TransactionType("jackpot"))
		err := repo.Record(ctx, entry)
		assert.Error(t, err)
	})
}

func TestLedgerRepository_GetByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 200010, "bob", 1000)
	require.NoError(t, err)

	for _, change := range []int64{-100, -50, 200} {
		entry := testutil.CreateTestLedgerEntryWithAmounts(200010, 0, change, change, models.TransactionTypeBetPayout)
		require.NoError(t, repo.Record(ctx, entry))
	}

	t.Run("newest first", func(t *testing.T) {
		entries, err := repo.GetByUser(ctx, 200010, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, int64(200), entries[0].ChangeAmount)
		assert.Equal(t, int64(-100), entries[2].ChangeAmount)
	})

	t.Run("limit applies", func(t *testing.T) {
		entries, err := repo.GetByUser(ctx, 200010, 2)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("no entries", func(t *testing.T) {
		_, err := userRepo.Create(ctx, 200011, "carol", 1000)
		require.NoError(t, err)

		entries, err := repo.GetByUser(ctx, 200011, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestLedgerRepository_SumByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 200020, "dave", 1000)
	require.NoError(t, err)

	t.Run("zero for no entries", func(t *testing.T) {
		sum, err := repo.SumByUser(ctx, 200020)
		require.NoError(t, err)
		assert.Equal(t, int64(0), sum)
	})

	t.Run("sum of entries matches balance replay", func(t *testing.T) {
		changes := []int64{1000, -100, -50, 75}
		balance := int64(0)
		for _, change := range changes {
			entry := testutil.CreateTestLedgerEntryWithAmounts(200020, balance, balance+change, change, models.TransactionTypeChallengeRefund)
			require.NoError(t, repo.Record(ctx, entry))
			balance += change
		}

		sum, err := repo.SumByUser(ctx, 200020)
		require.NoError(t, err)
		assert.Equal(t, balance, sum)
	})
}
