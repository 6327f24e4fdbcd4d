package service

import (
	"context"
	"time"

	"wagerpool/events"
	"wagerpool/models"

	"github.com/shopspring/decimal"
)

// BetRepository defines the interface for bet and member data access
type BetRepository interface {
	// Create inserts a new bet and assigns its sequential ID
	Create(ctx context.Context, bet *models.Bet) error

	// GetByID retrieves a bet by its ID, nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// GetByIDForUpdate retrieves a bet and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Bet, error)

	// GetDetailByID retrieves a bet with both ordered member lists
	GetDetailByID(ctx context.Context, id int64) (*models.BetDetail, error)

	// Update persists status, threshold, pools and settlement fields
	Update(ctx context.Context, bet *models.Bet) error

	// List returns bets, newest first, optionally filtered by status
	List(ctx context.Context, status *models.BetStatus, limit int) ([]*models.Bet, error)

	// AddMember appends a member to the end of its group's list
	AddMember(ctx context.Context, member *models.BetMember) error

	// GetMember returns the member at a 0-based position within a group
	GetMember(ctx context.Context, betID int64, group models.Group, position int) (*models.BetMember, error)

	// UpdateMemberPayouts stores the payout computed at settlement
	UpdateMemberPayouts(ctx context.Context, members []*models.BetMember) error
}

// Ledger is the atomic value-transfer primitive. Implementations must run inside
// the caller's transaction so a failed movement rolls back the enclosing call.
type Ledger interface {
	// Debit removes value from an account, failing with ErrInsufficientFunds
	Debit(ctx context.Context, transfer models.Transfer) (*models.LedgerEntry, error)

	// Credit adds value to an account, opening it if needed
	Credit(ctx context.Context, transfer models.Transfer) (*models.LedgerEntry, error)
}

// AccountRepository defines the interface for ledger account data access
type AccountRepository interface {
	Ledger

	// GetByAddress retrieves an account, nil if it has never been funded
	GetByAddress(ctx context.Context, address string) (*models.Account, error)

	// GetEntries returns the most recent ledger entries of an account
	GetEntries(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error)
}

// Role names a capability held in the role registry
type Role string

const (
	RoleAdmin Role = "admin"
)

// RoleRegistry answers capability checks for caller identities
type RoleRegistry interface {
	HasRole(ctx context.Context, identity string, role Role) bool
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// BetService defines the bet registry, lifecycle and settlement operations
type BetService interface {
	// PlaceBet opens a new bet with the caller as the sole group 1 member
	PlaceBet(ctx context.Context, caller string, subject string, duration int64, direction models.Direction, wager, attached decimal.Decimal) (*models.BetDetail, error)

	// AddBettor appends the caller to a group of an approved bet
	AddBettor(ctx context.Context, caller string, betID int64, group models.Group, wager, attached decimal.Decimal) (*models.BetMember, error)

	// SetBetValue approves a bet by attaching its settlement threshold (admin only)
	SetBetValue(ctx context.Context, caller string, betID int64, threshold decimal.Decimal, observedAt time.Time) (*models.Bet, error)

	// CloseBet stops new bettors from joining (admin only)
	CloseBet(ctx context.Context, caller string, betID int64) (*models.Bet, error)

	// SettleBet resolves the outcome and distributes the pool (admin only)
	SettleBet(ctx context.Context, caller string, betID int64, observedValue decimal.Decimal) (*models.SettlementResult, error)

	// GetBet returns a bet with its member lists
	GetBet(ctx context.Context, betID int64) (*models.BetDetail, error)

	// GetMember returns a group member by 0-based index
	GetMember(ctx context.Context, betID int64, group models.Group, index int) (*models.BetMember, error)

	// GetPools returns the pool totals of a bet
	GetPools(ctx context.Context, betID int64) (*models.Pools, error)

	// ListBets returns recent bets, optionally filtered by status
	ListBets(ctx context.Context, status *models.BetStatus, limit int) ([]*models.Bet, error)

	// IsAdmin checks if an identity may approve, close and settle bets
	IsAdmin(ctx context.Context, identity string) bool
}

// AccountService defines ledger account operations
type AccountService interface {
	// Deposit funds an account from outside the pool
	Deposit(ctx context.Context, address string, amount decimal.Decimal) (*models.Account, error)

	// GetAccount returns an account; unknown addresses report a zero balance
	GetAccount(ctx context.Context, address string) (*models.Account, error)

	// GetHistory returns the most recent ledger entries of an account
	GetHistory(ctx context.Context, address string, limit int) ([]*models.LedgerEntry, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	BetRepository() BetRepository
	AccountRepository() AccountRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
