package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a participant's balance on the ledger
type Account struct {
	Address   string          `db:"address"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// EntryType represents the reason for a ledger movement
type EntryType string

const (
	EntryTypeDeposit          EntryType = "deposit"
	EntryTypeBetEscrow        EntryType = "bet_escrow"
	EntryTypeBetPayout        EntryType = "bet_payout"
	EntryTypeBetRefund        EntryType = "bet_refund"
	EntryTypeTreasuryResidual EntryType = "treasury_residual"
)

// LedgerEntry represents a single balance movement
type LedgerEntry struct {
	ID            int64           `db:"id"`
	Address       string          `db:"address"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	ChangeAmount  decimal.Decimal `db:"change_amount"`
	EntryType     EntryType       `db:"entry_type"`
	BetID         *int64          `db:"bet_id"`
	Metadata      map[string]any  `db:"metadata"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Transfer describes one movement requested from the ledger
type Transfer struct {
	Address   string
	Amount    decimal.Decimal
	EntryType EntryType
	BetID     *int64
	Metadata  map[string]any
}
