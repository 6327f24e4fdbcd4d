package api

import (
	"time"

	"wagerpool/models"

	"github.com/shopspring/decimal"
)

// Amounts are decimal.Decimal, which marshal as JSON strings

type betResponse struct {
	ID                 int64            `json:"id"`
	Initiator          string           `json:"initiator"`
	Subject            string           `json:"subject"`
	Duration           int64            `json:"duration"`
	Direction          models.Direction `json:"direction"`
	Status             models.BetStatus `json:"status"`
	Threshold          *decimal.Decimal `json:"threshold,omitempty"`
	ApprovedObservedAt *time.Time       `json:"approved_observed_at,omitempty"`
	Group1Pool         decimal.Decimal  `json:"group1_pool"`
	Group2Pool         decimal.Decimal  `json:"group2_pool"`
	WinningGroup       *models.Group    `json:"winning_group,omitempty"`
	ObservedValue      *decimal.Decimal `json:"observed_value,omitempty"`
	Residual           *decimal.Decimal `json:"residual,omitempty"`
	Void               bool             `json:"void"`
	CreatedAt          time.Time        `json:"created_at"`
	SettledAt          *time.Time       `json:"settled_at,omitempty"`
}

type memberResponse struct {
	BetID    int64            `json:"bet_id"`
	Group    models.Group     `json:"group"`
	Position int              `json:"position"`
	Address  string           `json:"address"`
	Wager    decimal.Decimal  `json:"wager"`
	Payout   *decimal.Decimal `json:"payout,omitempty"`
}

type betDetailResponse struct {
	betResponse
	Group1Members []memberResponse `json:"group1_members"`
	Group2Members []memberResponse `json:"group2_members"`
}

type poolsResponse struct {
	Group1 decimal.Decimal `json:"group1"`
	Group2 decimal.Decimal `json:"group2"`
	Total  decimal.Decimal `json:"total"`
}

type payoutResponse struct {
	Group    models.Group    `json:"group"`
	Position int             `json:"position"`
	Address  string          `json:"address"`
	Amount   decimal.Decimal `json:"amount"`
}

type settlementResponse struct {
	Bet          betResponse      `json:"bet"`
	WinningGroup *models.Group    `json:"winning_group"`
	Void         bool             `json:"void"`
	TotalPool    decimal.Decimal  `json:"total_pool"`
	TotalPaid    decimal.Decimal  `json:"total_paid"`
	Residual     decimal.Decimal  `json:"residual"`
	Payouts      []payoutResponse `json:"payouts"`
}

type accountResponse struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

type ledgerEntryResponse struct {
	ID            int64            `json:"id"`
	EntryType     models.EntryType `json:"entry_type"`
	BetID         *int64           `json:"bet_id,omitempty"`
	ChangeAmount  decimal.Decimal  `json:"change_amount"`
	BalanceBefore decimal.Decimal  `json:"balance_before"`
	BalanceAfter  decimal.Decimal  `json:"balance_after"`
	CreatedAt     time.Time        `json:"created_at"`
}

func newBetResponse(b *models.Bet) betResponse {
	return betResponse{
		ID:                 b.ID,
		Initiator:          b.Initiator,
		Subject:            b.Subject,
		Duration:           b.Duration,
		Direction:          b.Direction,
		Status:             b.Status,
		Threshold:          b.Threshold,
		ApprovedObservedAt: b.ApprovedObservedAt,
		Group1Pool:         b.Group1Pool,
		Group2Pool:         b.Group2Pool,
		WinningGroup:       b.WinningGroup,
		ObservedValue:      b.ObservedValue,
		Residual:           b.Residual,
		Void:               b.Void,
		CreatedAt:          b.CreatedAt,
		SettledAt:          b.SettledAt,
	}
}

func newMemberResponse(m *models.BetMember) memberResponse {
	return memberResponse{
		BetID:    m.BetID,
		Group:    m.Group,
		Position: m.Position,
		Address:  m.Address,
		Wager:    m.Wager,
		Payout:   m.Payout,
	}
}

func newMemberResponses(members []*models.BetMember) []memberResponse {
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, newMemberResponse(m))
	}
	return out
}

func newBetDetailResponse(d *models.BetDetail) betDetailResponse {
	return betDetailResponse{
		betResponse:   newBetResponse(d.Bet),
		Group1Members: newMemberResponses(d.Group1Members),
		Group2Members: newMemberResponses(d.Group2Members),
	}
}

func newSettlementResponse(r *models.SettlementResult) settlementResponse {
	payouts := make([]payoutResponse, 0, len(r.Payouts))
	for _, p := range r.Payouts {
		payouts = append(payouts, payoutResponse{
			Group:    p.Member.Group,
			Position: p.Member.Position,
			Address:  p.Member.Address,
			Amount:   p.Amount,
		})
	}

	return settlementResponse{
		Bet:          newBetResponse(r.Bet),
		WinningGroup: r.WinningGroup,
		Void:         r.Void,
		TotalPool:    r.TotalPool,
		TotalPaid:    r.TotalPaid,
		Residual:     r.Residual,
		Payouts:      payouts,
	}
}

func newLedgerEntryResponse(e *models.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:            e.ID,
		EntryType:     e.EntryType,
		BetID:         e.BetID,
		ChangeAmount:  e.ChangeAmount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		CreatedAt:     e.CreatedAt,
	}
}
