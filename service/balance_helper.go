package service

import (
	"context"
	"fmt"

	"wagerpool/events"
	"wagerpool/models"
)

// DebitAccount moves value out of an account through the ledger and emits a
// balance change event. All escrow movements go through here.
func DebitAccount(ctx context.Context, uow UnitOfWork, transfer models.Transfer) (*models.LedgerEntry, error) {
	entry, err := uow.AccountRepository().Debit(ctx, transfer)
	if err != nil {
		return nil, fmt.Errorf("failed to debit %s: %w", transfer.Address, err)
	}

	publishBalanceChange(uow, entry)
	return entry, nil
}

// CreditAccount moves value into an account through the ledger and emits a
// balance change event. All payouts and refunds go through here.
func CreditAccount(ctx context.Context, uow UnitOfWork, transfer models.Transfer) (*models.LedgerEntry, error) {
	entry, err := uow.AccountRepository().Credit(ctx, transfer)
	if err != nil {
		return nil, fmt.Errorf("failed to credit %s: %w", transfer.Address, err)
	}

	publishBalanceChange(uow, entry)
	return entry, nil
}

// Emitted through the transactional bus, so it is only delivered after commit
func publishBalanceChange(uow UnitOfWork, entry *models.LedgerEntry) {
	if entry == nil {
		return
	}
	uow.EventBus().Publish(events.BalanceChangeEvent{
		Address:      entry.Address,
		BetID:        entry.BetID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		EntryType:    entry.EntryType,
		ChangeAmount: entry.ChangeAmount,
	})
}
