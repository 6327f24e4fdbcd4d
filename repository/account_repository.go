package repository

import (
	"context"
	"fmt"

	"wagerpool/database"
	"wagerpool/models"
	"wagerpool/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the ledger on the accounts and ledger_entries tables
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) service.AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByAddress retrieves an account by address
func (r *AccountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	query := `
		SELECT address, balance::text, created_at, updated_at
		FROM accounts
		WHERE address = $1
	`

	var account models.Account
	var balance string
	err := r.q.QueryRow(ctx, query, address).Scan(
		&account.Address,
		&balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account.Balance, err = parseDecimal(balance); err != nil {
		return nil, err
	}

	return &account, nil
}

// Debit removes value from an account. The balance may never go negative.
func (r *AccountRepository) Debit(ctx context.Context, transfer models.Transfer) (*models.LedgerEntry, error) {
	if !transfer.Amount.IsPositive() {
		return nil, fmt.Errorf("debit amount must be positive")
	}

	balance, found, err := r.lockBalance(ctx, transfer.Address)
	if err != nil {
		return nil, err
	}
	if !found || balance.LessThan(transfer.Amount) {
		return nil, fmt.Errorf("%w: %s holds %s, needs %s",
			service.ErrInsufficientFunds, transfer.Address, balance, transfer.Amount)
	}

	return r.apply(ctx, transfer, balance, transfer.Amount.Neg())
}

// Credit adds value to an account, opening it on first use
func (r *AccountRepository) Credit(ctx context.Context, transfer models.Transfer) (*models.LedgerEntry, error) {
	if !transfer.Amount.IsPositive() {
		return nil, fmt.Errorf("credit amount must be positive")
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO accounts (address, balance)
		VALUES ($1, 0)
		ON CONFLICT (address) DO NOTHING
	`, transfer.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	balance, _, err := r.lockBalance(ctx, transfer.Address)
	if err != nil {
		return nil, err
	}

	return r.apply(ctx, transfer, balance, transfer.Amount)
}

// GetEntries returns the most recent ledger entries of an account
func (r *AccountRepository) GetEntries(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, address, balance_before::text, balance_after::text, change_amount::text,
			entry_type, bet_id, metadata, created_at
		FROM ledger_entries
		WHERE address = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.LedgerEntry{}
	for rows.Next() {
		var (
			entry                 models.LedgerEntry
			before, after, change string
			entryType             string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Address,
			&before,
			&after,
			&change,
			&entryType,
			&entry.BetID,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		entry.EntryType = models.EntryType(entryType)
		if entry.BalanceBefore, err = parseDecimal(before); err != nil {
			return nil, err
		}
		if entry.BalanceAfter, err = parseDecimal(after); err != nil {
			return nil, err
		}
		if entry.ChangeAmount, err = parseDecimal(change); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// lockBalance reads an account balance and locks the row for the rest of the transaction
func (r *AccountRepository) lockBalance(ctx context.Context, address string) (decimal.Decimal, bool, error) {
	var raw string
	err := r.q.QueryRow(ctx, `SELECT balance::text FROM accounts WHERE address = $1 FOR UPDATE`, address).Scan(&raw)
	if err == pgx.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to lock account: %w", err)
	}

	balance, err := parseDecimal(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return balance, true, nil
}

// apply writes the new balance and the ledger entry describing the movement
func (r *AccountRepository) apply(ctx context.Context, transfer models.Transfer, before, delta decimal.Decimal) (*models.LedgerEntry, error) {
	after := before.Add(delta)

	_, err := r.q.Exec(ctx, `
		UPDATE accounts
		SET balance = $2::numeric, updated_at = CURRENT_TIMESTAMP
		WHERE address = $1
	`, transfer.Address, after.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	metadata := transfer.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	entry := &models.LedgerEntry{
		Address:       transfer.Address,
		BalanceBefore: before,
		BalanceAfter:  after,
		ChangeAmount:  delta,
		EntryType:     transfer.EntryType,
		BetID:         transfer.BetID,
		Metadata:      metadata,
	}

	err = r.q.QueryRow(ctx, `
		INSERT INTO ledger_entries (
			address, balance_before, balance_after, change_amount, entry_type, bet_id, metadata
		)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5, $6, $7)
		RETURNING id, created_at
	`,
		entry.Address,
		before.String(),
		after.String(),
		delta.String(),
		string(entry.EntryType),
		entry.BetID,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return entry, nil
}
