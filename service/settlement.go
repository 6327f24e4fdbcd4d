package service

import (
	"fmt"

	"wagerpool/models"

	"github.com/shopspring/decimal"
)

// DetermineWinningGroup applies the direction rule to an observed value.
// Ties at the threshold go to group 1 in both directions.
func DetermineWinningGroup(direction models.Direction, threshold, observed decimal.Decimal) models.Group {
	switch direction {
	case models.DirectionAbove:
		if observed.GreaterThanOrEqual(threshold) {
			return models.GroupOne
		}
	case models.DirectionBelow:
		if observed.LessThanOrEqual(threshold) {
			return models.GroupOne
		}
	}
	return models.GroupTwo
}

// CalculatePayout returns what a winning member is owed: its stake back plus its
// pro-rata share of the losing pool, rounded down to a whole base unit.
func CalculatePayout(wager, winningPool, losingPool decimal.Decimal) decimal.Decimal {
	if winningPool.IsZero() {
		return decimal.Zero
	}
	share, _ := losingPool.Mul(wager).QuoRem(winningPool, 0)
	return wager.Add(share)
}

// CalculateSettlement computes the outcome of a closed bet without touching any state.
// When the winning group is empty every member of both groups is refunded and
// the result is marked void.
func CalculateSettlement(detail *models.BetDetail, observed decimal.Decimal) (*models.SettlementResult, error) {
	if detail == nil || detail.Bet == nil {
		return nil, fmt.Errorf("bet detail is required")
	}
	bet := detail.Bet
	if bet.Threshold == nil {
		return nil, fmt.Errorf("bet %d has no threshold", bet.ID)
	}

	winner := DetermineWinningGroup(bet.Direction, *bet.Threshold, observed)
	winningPool := bet.Pool(winner)
	losingPool := bet.Pool(winner.Opposite())
	total := bet.TotalPool()

	result := &models.SettlementResult{
		Bet:         bet,
		WinningPool: winningPool,
		LosingPool:  losingPool,
		TotalPool:   total,
		TotalPaid:   decimal.Zero,
	}

	if winningPool.IsZero() {
		result.Void = true
		for _, g := range []models.Group{models.GroupOne, models.GroupTwo} {
			for _, m := range detail.Members(g) {
				result.Payouts = append(result.Payouts, models.SettlementPayout{Member: m, Amount: m.Wager})
				result.TotalPaid = result.TotalPaid.Add(m.Wager)
			}
		}
	} else {
		result.WinningGroup = &winner
		for _, m := range detail.Members(winner) {
			amount := CalculatePayout(m.Wager, winningPool, losingPool)
			result.Payouts = append(result.Payouts, models.SettlementPayout{Member: m, Amount: amount})
			result.TotalPaid = result.TotalPaid.Add(amount)
		}
	}

	result.Residual = total.Sub(result.TotalPaid)
	if result.Residual.IsNegative() {
		return nil, fmt.Errorf("settlement of bet %d pays %s out of a pool of %s", bet.ID, result.TotalPaid, total)
	}

	return result, nil
}
