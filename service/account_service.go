package service

import (
	"context"
	"fmt"
	"strings"

	"wagerpool/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

// Deposit funds an account from outside the pool
func (s *accountService) Deposit(ctx context.Context, address string, amount decimal.Decimal) (*models.Account, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if !amount.IsPositive() || !amount.IsInteger() {
		return nil, fmt.Errorf("%w: deposit must be a positive whole amount", ErrInvalidDeposit)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := CreditAccount(ctx, uow, models.Transfer{
		Address:   address,
		Amount:    amount,
		EntryType: models.EntryTypeDeposit,
	})
	if err != nil {
		return nil, err
	}

	account, err := uow.AccountRepository().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %s missing after deposit", address)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"address": address,
		"amount":  amount.String(),
		"balance": entry.BalanceAfter.String(),
	}).Info("Account funded")

	return account, nil
}

// GetAccount returns an account; addresses that were never funded report a zero balance
func (s *accountService) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return &models.Account{Address: address, Balance: decimal.Zero}, nil
	}

	return account, nil
}

// GetHistory returns the most recent ledger entries of an account
func (s *accountService) GetHistory(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.AccountRepository().GetEntries(ctx, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	return entries, nil
}
