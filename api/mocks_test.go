package api

import (
	"context"
	"time"

	"wagerpool/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockBetService struct {
	mock.Mock
}

func (m *mockBetService) PlaceBet(ctx context.Context, caller string, subject string, duration int64, direction models.Direction, wager, attached decimal.Decimal) (*models.BetDetail, error) {
	args := m.Called(ctx, caller, subject, duration, direction, wager, attached)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *mockBetService) AddBettor(ctx context.Context, caller string, betID int64, group models.Group, wager, attached decimal.Decimal) (*models.BetMember, error) {
	args := m.Called(ctx, caller, betID, group, wager, attached)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetMember), args.Error(1)
}

func (m *mockBetService) SetBetValue(ctx context.Context, caller string, betID int64, threshold decimal.Decimal, observedAt time.Time) (*models.Bet, error) {
	args := m.Called(ctx, caller, betID, threshold, observedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *mockBetService) CloseBet(ctx context.Context, caller string, betID int64) (*models.Bet, error) {
	args := m.Called(ctx, caller, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *mockBetService) SettleBet(ctx context.Context, caller string, betID int64, observedValue decimal.Decimal) (*models.SettlementResult, error) {
	args := m.Called(ctx, caller, betID, observedValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

func (m *mockBetService) GetBet(ctx context.Context, betID int64) (*models.BetDetail, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetDetail), args.Error(1)
}

func (m *mockBetService) GetMember(ctx context.Context, betID int64, group models.Group, index int) (*models.BetMember, error) {
	args := m.Called(ctx, betID, group, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetMember), args.Error(1)
}

func (m *mockBetService) GetPools(ctx context.Context, betID int64) (*models.Pools, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pools), args.Error(1)
}

func (m *mockBetService) ListBets(ctx context.Context, status *models.BetStatus, limit int) ([]*models.Bet, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *mockBetService) IsAdmin(ctx context.Context, identity string) bool {
	args := m.Called(ctx, identity)
	return args.Bool(0)
}

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) Deposit(ctx context.Context, address string, amount decimal.Decimal) (*models.Account, error) {
	args := m.Called(ctx, address, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) GetHistory(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, address, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}
