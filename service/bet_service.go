package service

import (
	"context"
	"fmt"
	"time"

	"wagerpool/config"
	"wagerpool/events"
	"wagerpool/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const defaultListLimit = 50

type betService struct {
	uowFactory UnitOfWorkFactory
	roles      RoleRegistry
	config     *config.Config
}

// NewBetService creates a new bet service
func NewBetService(uowFactory UnitOfWorkFactory, roles RoleRegistry, cfg *config.Config) BetService {
	return &betService{
		uowFactory: uowFactory,
		roles:      roles,
		config:     cfg,
	}
}

// validateDeposit checks that the declared wager is a positive whole amount and
// that exactly that much value was attached
func validateDeposit(wager, attached decimal.Decimal) error {
	if !wager.IsPositive() || !wager.IsInteger() {
		return fmt.Errorf("%w: wager must be a positive whole amount", ErrInvalidDeposit)
	}
	if !attached.Equal(wager) {
		return fmt.Errorf("%w: attached %s, wager %s", ErrInvalidDeposit, attached, wager)
	}
	return nil
}

// validateValue checks that a threshold or observed value is an unsigned whole number
func validateValue(name string, v decimal.Decimal) error {
	if v.IsNegative() || !v.IsInteger() {
		return fmt.Errorf("%w: %s %s", ErrInvalidValue, name, v)
	}
	return nil
}

// PlaceBet opens a new bet with the caller's stake escrowed into group 1
func (s *betService) PlaceBet(ctx context.Context, caller string, subject string, duration int64, direction models.Direction, wager, attached decimal.Decimal) (*models.BetDetail, error) {
	if err := validateDeposit(wager, attached); err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, ErrInvalidDirection
	}
	if duration < 0 {
		return nil, ErrInvalidDuration
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet := &models.Bet{
		Initiator:  caller,
		Subject:    subject,
		Duration:   duration,
		Direction:  direction,
		Status:     models.BetStatusCreated,
		Group1Pool: wager,
		Group2Pool: decimal.Zero,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	member := &models.BetMember{
		BetID:   bet.ID,
		Group:   models.GroupOne,
		Address: caller,
		Wager:   wager,
	}
	if err := uow.BetRepository().AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add initiator: %w", err)
	}

	if _, err := DebitAccount(ctx, uow, models.Transfer{
		Address:   caller,
		Amount:    attached,
		EntryType: models.EntryTypeBetEscrow,
		BetID:     &bet.ID,
		Metadata: map[string]any{
			"group": int(models.GroupOne),
		},
	}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:     bet.ID,
		Initiator: caller,
		Subject:   subject,
		Direction: direction,
		Wager:     wager,
		Duration:  duration,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":     bet.ID,
		"initiator": caller,
		"direction": direction,
		"wager":     wager.String(),
	}).Info("Bet placed")

	return &models.BetDetail{
		Bet:           bet,
		Group1Members: []*models.BetMember{member},
		Group2Members: []*models.BetMember{},
	}, nil
}

// AddBettor appends the caller to a group of an approved bet
func (s *betService) AddBettor(ctx context.Context, caller string, betID int64, group models.Group, wager, attached decimal.Decimal) (*models.BetMember, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrNotFound
	}

	if !group.Valid() {
		return nil, ErrInvalidGroup
	}
	if err := validateDeposit(wager, attached); err != nil {
		return nil, err
	}
	if !bet.CanAcceptBettors() {
		return nil, ErrNotApproved
	}

	member := &models.BetMember{
		BetID:   bet.ID,
		Group:   group,
		Address: caller,
		Wager:   wager,
	}
	if err := uow.BetRepository().AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add bettor: %w", err)
	}

	bet.AddToPool(group, wager)
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to update bet pools: %w", err)
	}

	if _, err := DebitAccount(ctx, uow, models.Transfer{
		Address:   caller,
		Amount:    attached,
		EntryType: models.EntryTypeBetEscrow,
		BetID:     &bet.ID,
		Metadata: map[string]any{
			"group":    int(group),
			"position": member.Position,
		},
	}); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.BettorAddedEvent{
		BetID:    bet.ID,
		Group:    group,
		Position: member.Position,
		Address:  caller,
		Wager:    wager,
		PoolSize: bet.Pool(group),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":    bet.ID,
		"group":    group,
		"position": member.Position,
		"address":  caller,
		"wager":    wager.String(),
	}).Info("Bettor added")

	return member, nil
}

// SetBetValue approves a created bet by attaching its settlement threshold
func (s *betService) SetBetValue(ctx context.Context, caller string, betID int64, threshold decimal.Decimal, observedAt time.Time) (*models.Bet, error) {
	if !s.IsAdmin(ctx, caller) {
		return nil, ErrUnauthorized
	}
	if err := validateValue("threshold", threshold); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrNotFound
	}
	if !bet.IsCreated() {
		return nil, ErrAlreadyApproved
	}

	oldStatus := bet.Status
	bet.Approve(threshold, observedAt)
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to approve bet: %w", err)
	}

	uow.EventBus().Publish(events.BetStatusChangedEvent{
		BetID:     bet.ID,
		OldStatus: oldStatus,
		NewStatus: bet.Status,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":     bet.ID,
		"admin":     caller,
		"threshold": threshold.String(),
	}).Info("Bet approved")

	return bet, nil
}

// CloseBet stops an approved bet from accepting new bettors
func (s *betService) CloseBet(ctx context.Context, caller string, betID int64) (*models.Bet, error) {
	if !s.IsAdmin(ctx, caller) {
		return nil, ErrUnauthorized
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrNotFound
	}
	if !bet.IsApproved() {
		return nil, ErrNotApproved
	}

	oldStatus := bet.Status
	bet.Close()
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to close bet: %w", err)
	}

	uow.EventBus().Publish(events.BetStatusChangedEvent{
		BetID:     bet.ID,
		OldStatus: oldStatus,
		NewStatus: bet.Status,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID": bet.ID,
		"admin": caller,
	}).Info("Bet closed")

	return bet, nil
}

// SettleBet resolves a closed bet against the observed value and pays the winners.
// The bet is persisted as settled before any credit is issued.
func (s *betService) SettleBet(ctx context.Context, caller string, betID int64, observedValue decimal.Decimal) (*models.SettlementResult, error) {
	if !s.IsAdmin(ctx, caller) {
		return nil, ErrUnauthorized
	}
	if err := validateValue("observed value", observedValue); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrNotFound
	}
	if !bet.IsClosed() {
		return nil, ErrNotClosed
	}

	detail, err := uow.BetRepository().GetDetailByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, ErrNotFound
	}
	// Work on the locked row, not the detail's copy
	detail.Bet = bet

	result, err := CalculateSettlement(detail, observedValue)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate settlement: %w", err)
	}

	oldStatus := bet.Status
	bet.MarkSettled(observedValue, result.WinningGroup, result.Void, result.Residual)
	if err := uow.BetRepository().Update(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to mark bet settled: %w", err)
	}

	// Every member gets a payout recorded, zero for the losing side
	payoutByMember := make(map[int64]decimal.Decimal, len(result.Payouts))
	for _, p := range result.Payouts {
		payoutByMember[p.Member.ID] = p.Amount
	}
	allMembers := append(append([]*models.BetMember{}, detail.Group1Members...), detail.Group2Members...)
	for _, m := range allMembers {
		amount, ok := payoutByMember[m.ID]
		if !ok {
			amount = decimal.Zero
		}
		m.Payout = &amount
	}
	if err := uow.BetRepository().UpdateMemberPayouts(ctx, allMembers); err != nil {
		return nil, fmt.Errorf("failed to update member payouts: %w", err)
	}

	entryType := models.EntryTypeBetPayout
	if result.Void {
		entryType = models.EntryTypeBetRefund
	}
	for _, p := range result.Payouts {
		if !p.Amount.IsPositive() {
			continue
		}
		if _, err := CreditAccount(ctx, uow, models.Transfer{
			Address:   p.Member.Address,
			Amount:    p.Amount,
			EntryType: entryType,
			BetID:     &bet.ID,
			Metadata: map[string]any{
				"group":    int(p.Member.Group),
				"position": p.Member.Position,
				"wager":    p.Member.Wager.String(),
			},
		}); err != nil {
			return nil, err
		}
	}

	if treasury := s.treasuryAddress(); treasury != "" && result.Residual.IsPositive() {
		if _, err := CreditAccount(ctx, uow, models.Transfer{
			Address:   treasury,
			Amount:    result.Residual,
			EntryType: models.EntryTypeTreasuryResidual,
			BetID:     &bet.ID,
		}); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.BetStatusChangedEvent{
		BetID:     bet.ID,
		OldStatus: oldStatus,
		NewStatus: bet.Status,
	})
	uow.EventBus().Publish(events.BetSettledEvent{
		BetID:         bet.ID,
		ObservedValue: observedValue,
		WinningGroup:  result.WinningGroup,
		Void:          result.Void,
		TotalPool:     result.TotalPool,
		TotalPaid:     result.TotalPaid,
		Residual:      result.Residual,
		WinnerCount:   len(result.Payouts),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	fields := log.Fields{
		"betID":     bet.ID,
		"admin":     caller,
		"observed":  observedValue.String(),
		"totalPool": result.TotalPool.String(),
		"totalPaid": result.TotalPaid.String(),
		"residual":  result.Residual.String(),
		"void":      result.Void,
	}
	if result.WinningGroup != nil {
		fields["winningGroup"] = *result.WinningGroup
	}
	log.WithFields(fields).Info("Bet settled")

	return result, nil
}

// GetBet returns a bet with its member lists
func (s *betService) GetBet(ctx context.Context, betID int64) (*models.BetDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.BetRepository().GetDetailByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet detail: %w", err)
	}
	if detail == nil {
		return nil, ErrNotFound
	}

	return detail, nil
}

// GetMember returns a group member by 0-based index
func (s *betService) GetMember(ctx context.Context, betID int64, group models.Group, index int) (*models.BetMember, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrNotFound
	}
	if !group.Valid() {
		return nil, ErrInvalidGroup
	}
	if index < 0 {
		return nil, ErrNotFound
	}

	member, err := uow.BetRepository().GetMember(ctx, betID, group, index)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, ErrNotFound
	}

	return member, nil
}

// GetPools returns the pool totals of a bet
func (s *betService) GetPools(ctx context.Context, betID int64) (*models.Pools, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrNotFound
	}

	pools := bet.Pools()
	return &pools, nil
}

// ListBets returns recent bets, optionally filtered by status
func (s *betService) ListBets(ctx context.Context, status *models.BetStatus, limit int) ([]*models.Bet, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("unknown bet status %q", *status)
	}
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().List(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	return bets, nil
}

// IsAdmin checks if an identity holds the admin role
func (s *betService) IsAdmin(ctx context.Context, identity string) bool {
	if s.roles == nil {
		return false
	}
	return s.roles.HasRole(ctx, identity, RoleAdmin)
}

func (s *betService) treasuryAddress() string {
	if s.config == nil {
		return ""
	}
	return s.config.TreasuryAddress
}
