package repository

import (
	"context"
	"testing"

	"wagerpool/models"
	"wagerpool/repository/testutil"
	"wagerpool/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreditAndDebit(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("credit opens the account", func(t *testing.T) {
		entry, err := repo.Credit(ctx, testutil.CreateTestTransfer("0xabc", "1000000000000000000000000", models.EntryTypeDeposit))
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.True(t, entry.BalanceBefore.IsZero())
		assert.Equal(t, "1000000000000000000000000", entry.BalanceAfter.String())

		account, err := repo.GetByAddress(ctx, "0xabc")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "1000000000000000000000000", account.Balance.String())
	})

	t.Run("debit reduces the balance", func(t *testing.T) {
		entry, err := repo.Debit(ctx, testutil.CreateTestTransfer("0xabc", "1", models.EntryTypeBetEscrow))
		require.NoError(t, err)
		assert.Equal(t, "-1", entry.ChangeAmount.String())
		assert.Equal(t, "999999999999999999999999", entry.BalanceAfter.String())
	})

	t.Run("overdraft is rejected", func(t *testing.T) {
		_, err := repo.Debit(ctx, testutil.CreateTestTransfer("0xabc", "1000000000000000000000000", models.EntryTypeBetEscrow))
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		account, err := repo.GetByAddress(ctx, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, "999999999999999999999999", account.Balance.String())
	})

	t.Run("unknown account cannot be debited", func(t *testing.T) {
		_, err := repo.Debit(ctx, testutil.CreateTestTransfer("0xnobody", "1", models.EntryTypeBetEscrow))
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		account, err := repo.GetByAddress(ctx, "0xnobody")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("history is newest first", func(t *testing.T) {
		entries, err := repo.GetEntries(ctx, "0xabc", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, models.EntryTypeBetEscrow, entries[0].EntryType)
		assert.Equal(t, models.EntryTypeDeposit, entries[1].EntryType)
		assert.Equal(t, true, entries[1].Metadata["test"])
	})
}
