package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wagerpool/config"
	"wagerpool/events"
	"wagerpool/models"
	"wagerpool/repository/testutil"
	"wagerpool/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	integrationAdmin    = "0xadmin"
	integrationTreasury = "0xtreasury"
)

func eth(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Mul(decimal.New(1, 18))
}

func setupServices(t *testing.T) (service.BetService, service.AccountService, *events.Bus) {
	testDB := testutil.SetupTestDatabase(t)

	cfg := config.NewTestConfig()
	cfg.AdminAddresses = []string{integrationAdmin}
	cfg.TreasuryAddress = integrationTreasury

	bus := events.NewBus()
	uowFactory := NewUnitOfWorkFactory(testDB.DB, bus)
	bets := service.NewBetService(uowFactory, service.NewStaticRoleRegistry(cfg.AdminAddresses), cfg)
	accounts := service.NewAccountService(uowFactory)
	return bets, accounts, bus
}

func fund(t *testing.T, accounts service.AccountService, address string, amount decimal.Decimal) {
	t.Helper()
	_, err := accounts.Deposit(context.Background(), address, amount)
	require.NoError(t, err)
}

func balanceOf(t *testing.T, accounts service.AccountService, address string) string {
	t.Helper()
	account, err := accounts.GetAccount(context.Background(), address)
	require.NoError(t, err)
	return account.Balance.String()
}

func TestSettlementFlow_FourBettors(t *testing.T) {
	bets, accounts, bus := setupServices(t)
	ctx := context.Background()

	settledEvents := make(chan events.BetSettledEvent, 1)
	bus.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, e events.Event) {
		settledEvents <- e.(events.BetSettledEvent)
	})

	for _, addr := range []string{"0xa", "0xb", "0xc", "0xd"} {
		fund(t, accounts, addr, eth(10))
	}

	detail, err := bets.PlaceBet(ctx, "0xa", "ETH/USD", 3600, models.DirectionBelow, eth(1), eth(1))
	require.NoError(t, err)
	betID := detail.Bet.ID
	assert.Equal(t, int64(1), betID)

	// joining before approval fails and moves nothing
	_, err = bets.AddBettor(ctx, "0xb", betID, models.GroupOne, eth(2), eth(2))
	assert.ErrorIs(t, err, service.ErrNotApproved)
	assert.Equal(t, eth(10).String(), balanceOf(t, accounts, "0xb"))

	_, err = bets.SetBetValue(ctx, integrationAdmin, betID, decimal.NewFromInt(2000), time.Now())
	require.NoError(t, err)

	_, err = bets.AddBettor(ctx, "0xb", betID, models.GroupOne, eth(2), eth(2))
	require.NoError(t, err)
	_, err = bets.AddBettor(ctx, "0xc", betID, models.GroupTwo, eth(3), eth(3))
	require.NoError(t, err)
	_, err = bets.AddBettor(ctx, "0xd", betID, models.GroupTwo, eth(4), eth(4))
	require.NoError(t, err)

	pools, err := bets.GetPools(ctx, betID)
	require.NoError(t, err)
	assert.True(t, pools.Group1.Equal(eth(3)))
	assert.True(t, pools.Group2.Equal(eth(7)))
	assert.True(t, pools.Total.Equal(eth(10)))

	// settling before close fails
	_, err = bets.SettleBet(ctx, integrationAdmin, betID, decimal.NewFromInt(2000))
	assert.ErrorIs(t, err, service.ErrNotClosed)

	_, err = bets.CloseBet(ctx, integrationAdmin, betID)
	require.NoError(t, err)

	result, err := bets.SettleBet(ctx, integrationAdmin, betID, decimal.NewFromInt(2000))
	require.NoError(t, err)
	require.NotNil(t, result.WinningGroup)
	assert.Equal(t, models.GroupOne, *result.WinningGroup)

	assert.Equal(t, "12333333333333333333", balanceOf(t, accounts, "0xa"))
	assert.Equal(t, "14666666666666666666", balanceOf(t, accounts, "0xb"))
	assert.Equal(t, eth(7).String(), balanceOf(t, accounts, "0xc"))
	assert.Equal(t, eth(6).String(), balanceOf(t, accounts, "0xd"))
	assert.Equal(t, "1", balanceOf(t, accounts, integrationTreasury))

	stored, err := bets.GetBet(ctx, betID)
	require.NoError(t, err)
	assert.Equal(t, models.BetStatusSettled, stored.Bet.Status)
	assert.Equal(t, "3333333333333333333", stored.Group1Members[0].Payout.String())
	assert.True(t, stored.Group2Members[1].Payout.IsZero())

	_, err = bets.SettleBet(ctx, integrationAdmin, betID, decimal.NewFromInt(2000))
	assert.ErrorIs(t, err, service.ErrNotClosed)

	select {
	case ev := <-settledEvents:
		assert.Equal(t, betID, ev.BetID)
		assert.Equal(t, 2, ev.WinnerCount)
	case <-time.After(2 * time.Second):
		t.Fatal("settled event not delivered after commit")
	}
}

func TestSettlementFlow_InsufficientFundsLeavesNoBet(t *testing.T) {
	bets, accounts, _ := setupServices(t)
	ctx := context.Background()

	fund(t, accounts, "0xpoor", decimal.NewFromInt(5))

	_, err := bets.PlaceBet(ctx, "0xpoor", "ETH/USD", 0, models.DirectionAbove, decimal.NewFromInt(6), decimal.NewFromInt(6))
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)

	_, err = bets.GetBet(ctx, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, "5", balanceOf(t, accounts, "0xpoor"))
}

func TestSettlementFlow_ConcurrentSettleOnlyPaysOnce(t *testing.T) {
	bets, accounts, _ := setupServices(t)
	ctx := context.Background()

	fund(t, accounts, "0xa", decimal.NewFromInt(100))
	fund(t, accounts, "0xb", decimal.NewFromInt(100))

	detail, err := bets.PlaceBet(ctx, "0xa", "BTC/USD", 0, models.DirectionAbove, decimal.NewFromInt(10), decimal.NewFromInt(10))
	require.NoError(t, err)
	betID := detail.Bet.ID
	_, err = bets.SetBetValue(ctx, integrationAdmin, betID, decimal.NewFromInt(50), time.Now())
	require.NoError(t, err)
	_, err = bets.AddBettor(ctx, "0xb", betID, models.GroupTwo, decimal.NewFromInt(30), decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = bets.CloseBet(ctx, integrationAdmin, betID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = bets.SettleBet(ctx, integrationAdmin, betID, decimal.NewFromInt(60))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, service.ErrNotClosed), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, "130", balanceOf(t, accounts, "0xa"))
	assert.Equal(t, "70", balanceOf(t, accounts, "0xb"))
}
