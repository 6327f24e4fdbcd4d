package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus represents the lifecycle stage of a bet
type BetStatus string

const (
	BetStatusCreated  BetStatus = "created"
	BetStatusApproved BetStatus = "approved"
	BetStatusClosed   BetStatus = "closed"
	BetStatusSettled  BetStatus = "settled"
)

// Valid reports whether s is one of the known statuses
func (s BetStatus) Valid() bool {
	switch s {
	case BetStatusCreated, BetStatusApproved, BetStatusClosed, BetStatusSettled:
		return true
	}
	return false
}

// Group identifies one of the two competing sides of a bet
type Group int16

const (
	GroupOne Group = 1
	GroupTwo Group = 2
)

// Valid reports whether g is group 1 or group 2
func (g Group) Valid() bool {
	return g == GroupOne || g == GroupTwo
}

// Opposite returns the other group
func (g Group) Opposite() Group {
	if g == GroupOne {
		return GroupTwo
	}
	return GroupOne
}

// Direction encodes which way the initiator expects the observed value to land
// relative to the threshold. The initiator always sits in group 1.
type Direction int16

const (
	// DirectionAbove: group 1 wins when the observed value is at or above the threshold
	DirectionAbove Direction = 1
	// DirectionBelow: group 1 wins when the observed value is at or below the threshold
	DirectionBelow Direction = 2
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

// Bet represents a two-sided wagering market
type Bet struct {
	ID                 int64            `db:"id"`
	Initiator          string           `db:"initiator"`
	Subject            string           `db:"subject"`
	Duration           int64            `db:"duration"`
	Direction          Direction        `db:"direction"`
	Threshold          *decimal.Decimal `db:"threshold"`
	ApprovedObservedAt *time.Time       `db:"approved_observed_at"`
	Status             BetStatus        `db:"status"`
	Group1Pool         decimal.Decimal  `db:"group1_pool"`
	Group2Pool         decimal.Decimal  `db:"group2_pool"`
	WinningGroup       *Group           `db:"winning_group"`
	ObservedValue      *decimal.Decimal `db:"observed_value"`
	Residual           *decimal.Decimal `db:"residual"`
	Void               bool             `db:"void"`
	CreatedAt          time.Time        `db:"created_at"`
	ApprovedAt         *time.Time       `db:"approved_at"`
	ClosedAt           *time.Time       `db:"closed_at"`
	SettledAt          *time.Time       `db:"settled_at"`
}

// BetMember is one (address, wager) entry in a group's member list
type BetMember struct {
	ID        int64            `db:"id"`
	BetID     int64            `db:"bet_id"`
	Group     Group            `db:"group_number"`
	Position  int              `db:"position"`
	Address   string           `db:"address"`
	Wager     decimal.Decimal  `db:"wager"`
	Payout    *decimal.Decimal `db:"payout"`
	CreatedAt time.Time        `db:"created_at"`
}

// BetDetail combines a bet with both ordered member lists
type BetDetail struct {
	Bet           *Bet
	Group1Members []*BetMember
	Group2Members []*BetMember
}

// Pools is a read-only view of a bet's pool totals
type Pools struct {
	Group1 decimal.Decimal
	Group2 decimal.Decimal
	Total  decimal.Decimal
}

// SettlementPayout is the amount owed to one member at settlement
type SettlementPayout struct {
	Member *BetMember
	Amount decimal.Decimal
}

// SettlementResult represents the outcome of settling a bet
type SettlementResult struct {
	Bet          *Bet
	WinningGroup *Group // nil when the settlement is void
	Void         bool
	WinningPool  decimal.Decimal
	LosingPool   decimal.Decimal
	TotalPool    decimal.Decimal
	Payouts      []SettlementPayout
	TotalPaid    decimal.Decimal
	Residual     decimal.Decimal
}

// IsCreated checks if the bet is awaiting approval
func (b *Bet) IsCreated() bool {
	return b.Status == BetStatusCreated
}

// IsApproved checks if the bet is open for new bettors
func (b *Bet) IsApproved() bool {
	return b.Status == BetStatusApproved
}

// IsClosed checks if the bet is awaiting settlement
func (b *Bet) IsClosed() bool {
	return b.Status == BetStatusClosed
}

// IsSettled checks if the bet has been settled
func (b *Bet) IsSettled() bool {
	return b.Status == BetStatusSettled
}

// CanAcceptBettors checks if members may still join
func (b *Bet) CanAcceptBettors() bool {
	return b.IsApproved()
}

// Pool returns the running pool of the given group
func (b *Bet) Pool(g Group) decimal.Decimal {
	if g == GroupTwo {
		return b.Group2Pool
	}
	return b.Group1Pool
}

// AddToPool increments the pool of the given group
func (b *Bet) AddToPool(g Group, amount decimal.Decimal) {
	if g == GroupTwo {
		b.Group2Pool = b.Group2Pool.Add(amount)
		return
	}
	b.Group1Pool = b.Group1Pool.Add(amount)
}

// TotalPool returns the sum of both pools
func (b *Bet) TotalPool() decimal.Decimal {
	return b.Group1Pool.Add(b.Group2Pool)
}

// Pools returns the pool totals view
func (b *Bet) Pools() Pools {
	return Pools{
		Group1: b.Group1Pool,
		Group2: b.Group2Pool,
		Total:  b.TotalPool(),
	}
}

// Approve attaches the threshold and moves the bet to approved
func (b *Bet) Approve(threshold decimal.Decimal, observedAt time.Time) {
	if b.Status != BetStatusCreated {
		return
	}
	now := time.Now()
	b.Threshold = &threshold
	b.ApprovedObservedAt = &observedAt
	b.ApprovedAt = &now
	b.Status = BetStatusApproved
}

// Close stops new bettors from joining
func (b *Bet) Close() {
	if b.Status != BetStatusApproved {
		return
	}
	now := time.Now()
	b.ClosedAt = &now
	b.Status = BetStatusClosed
}

// MarkSettled records the outcome and moves the bet to its terminal state
func (b *Bet) MarkSettled(observed decimal.Decimal, winner *Group, void bool, residual decimal.Decimal) {
	if b.Status != BetStatusClosed {
		return
	}
	now := time.Now()
	b.ObservedValue = &observed
	b.WinningGroup = winner
	b.Void = void
	b.Residual = &residual
	b.SettledAt = &now
	b.Status = BetStatusSettled
}

// Members returns the member list of the given group
func (d *BetDetail) Members(g Group) []*BetMember {
	if g == GroupTwo {
		return d.Group2Members
	}
	return d.Group1Members
}

// MemberCount returns the number of entries across both groups
func (d *BetDetail) MemberCount() int {
	return len(d.Group1Members) + len(d.Group2Members)
}
