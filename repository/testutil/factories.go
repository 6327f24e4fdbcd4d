package testutil

import (
	"time"

	"wagerpool/models"

	"github.com/shopspring/decimal"
)

// CreateTestBet creates an unsaved bet with the initiator's wager in group 1
func CreateTestBet(initiator string, direction models.Direction, wager int64) *models.Bet {
	return &models.Bet{
		Initiator:  initiator,
		Subject:    "ETH/USD",
		Duration:   3600,
		Direction:  direction,
		Status:     models.BetStatusCreated,
		Group1Pool: decimal.NewFromInt(wager),
		Group2Pool: decimal.Zero,
		CreatedAt:  time.Now(),
	}
}

// CreateTestMember creates an unsaved member entry
func CreateTestMember(betID int64, group models.Group, address string, wager int64) *models.BetMember {
	return &models.BetMember{
		BetID:   betID,
		Group:   group,
		Address: address,
		Wager:   decimal.NewFromInt(wager),
	}
}

// CreateTestTransfer creates a transfer of a whole amount
func CreateTestTransfer(address string, amount string, entryType models.EntryType) models.Transfer {
	return models.Transfer{
		Address:   address,
		Amount:    decimal.RequireFromString(amount),
		EntryType: entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
