package bot

import (
	"fmt"
	"strings"

	"wagerpool/events"
	"wagerpool/models"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
)

// Members listed per group before the embed field is truncated
const maxListedMembers = 10

func directionLabel(d models.Direction) string {
	switch d {
	case models.DirectionAbove:
		return "at or above"
	case models.DirectionBelow:
		return "at or below"
	}
	return "unknown"
}

func statusColor(status models.BetStatus) int {
	switch status {
	case models.BetStatusApproved:
		return ColorSuccess
	case models.BetStatusClosed:
		return ColorWarning
	case models.BetStatusSettled:
		return ColorDanger
	}
	return ColorPrimary
}

// buildEventEmbed returns the notification for an event, nil for events that aren't announced
func buildEventEmbed(event events.Event) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		return buildBetPlacedEmbed(e)
	case events.BettorAddedEvent:
		return buildBettorAddedEmbed(e)
	case events.BetStatusChangedEvent:
		return buildStatusChangedEmbed(e)
	case events.BetSettledEvent:
		return buildSettledEmbed(e)
	}
	return nil
}

func buildBetPlacedEmbed(e events.BetPlacedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🎲 Bet #%d opened", e.BetID),
		Description: fmt.Sprintf("**%s** stakes **%s** that **%s** lands %s the threshold.",
			ShortAddress(e.Initiator), FormatAmount(e.Wager), e.Subject, directionLabel(e.Direction)),
		Color: ColorPrimary,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Awaiting admin approval",
		},
	}
}

func buildBettorAddedEmbed(e events.BettorAddedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("➕ New bettor on #%d", e.BetID),
		Description: fmt.Sprintf("**%s** joined group %d with **%s**.",
			ShortAddress(e.Address), e.Group, FormatAmount(e.Wager)),
		Color: ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: fmt.Sprintf("Group %d pool", e.Group), Value: FormatAmount(e.PoolSize), Inline: true},
			{Name: "Position", Value: fmt.Sprintf("%d", e.Position), Inline: true},
		},
	}
}

func buildStatusChangedEmbed(e events.BetStatusChangedEvent) *discordgo.MessageEmbed {
	var description string
	switch e.NewStatus {
	case models.BetStatusApproved:
		description = "Approved. Bettors may now join either group."
	case models.BetStatusClosed:
		description = "Closed. No more bettors, awaiting settlement."
	case models.BetStatusSettled:
		description = "Settled."
	default:
		description = fmt.Sprintf("Moved from %s to %s.", e.OldStatus, e.NewStatus)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📋 Bet #%d %s", e.BetID, e.NewStatus),
		Description: description,
		Color:       statusColor(e.NewStatus),
	}
}

func buildSettledEmbed(e events.BetSettledEvent) *discordgo.MessageEmbed {
	outcome := "Void: the winning side was empty, every stake was refunded."
	if !e.Void && e.WinningGroup != nil {
		outcome = fmt.Sprintf("Group %d wins. %d winner(s) paid.", *e.WinningGroup, e.WinnerCount)
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Observed", Value: e.ObservedValue.String(), Inline: true},
		{Name: "Total pool", Value: FormatAmount(e.TotalPool), Inline: true},
		{Name: "Paid", Value: FormatAmount(e.TotalPaid), Inline: true},
	}
	if e.Residual.IsPositive() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Residual", Value: FormatAmount(e.Residual), Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏁 Bet #%d settled", e.BetID),
		Description: outcome,
		Color:       ColorSuccess,
		Fields:      fields,
	}
}

// buildBetDetailEmbed renders the full state of a bet for the /bet command
func buildBetDetailEmbed(detail *models.BetDetail) *discordgo.MessageEmbed {
	bet := detail.Bet

	threshold := "not set"
	if bet.Threshold != nil {
		threshold = bet.Threshold.String()
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Status", Value: string(bet.Status), Inline: true},
		{Name: "Threshold", Value: threshold, Inline: true},
		{Name: "Total pool", Value: FormatAmount(bet.TotalPool()), Inline: true},
		{
			Name:  fmt.Sprintf("Group 1 (%s)", FormatAmount(bet.Group1Pool)),
			Value: formatMembers(detail.Group1Members),
		},
		{
			Name:  fmt.Sprintf("Group 2 (%s)", FormatAmount(bet.Group2Pool)),
			Value: formatMembers(detail.Group2Members),
		},
	}

	if bet.IsSettled() {
		outcome := "void"
		if bet.WinningGroup != nil {
			outcome = fmt.Sprintf("group %d", *bet.WinningGroup)
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Outcome", Value: outcome, Inline: true})
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Bet #%d: %s", bet.ID, bet.Subject),
		Description: fmt.Sprintf("Group 1 wins if the observed value lands %s the threshold.",
			directionLabel(bet.Direction)),
		Color:  statusColor(bet.Status),
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Opened by %s", ShortAddress(bet.Initiator)),
		},
	}
}

func formatMembers(members []*models.BetMember) string {
	if len(members) == 0 {
		return "_no members_"
	}

	var sb strings.Builder
	for i, m := range members {
		if i == maxListedMembers {
			sb.WriteString(fmt.Sprintf("…and %d more", len(members)-maxListedMembers))
			break
		}
		line := fmt.Sprintf("%d. %s: %s", m.Position, ShortAddress(m.Address), FormatAmount(m.Wager))
		if m.Payout != nil {
			line += fmt.Sprintf(" → %s", FormatAmount(*m.Payout))
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
