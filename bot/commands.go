package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wagerpool/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "bet",
			Description: "Show a bet's status, pools and members",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "id",
					Description: "Bet ID",
					Required:    true,
				},
			},
		},
	}
	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}

// handleCommands routes slash command interactions
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "bet":
		b.handleBetCommand(s, i)
	}
}

func (b *Bot) handleBetCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		respondWithError(s, i, "Bet ID is required")
		return
	}
	betID := options[0].IntValue()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	detail, err := b.betService.GetBet(ctx, betID)
	if errors.Is(err, service.ErrNotFound) {
		respondWithError(s, i, fmt.Sprintf("Bet #%d does not exist", betID))
		return
	}
	if err != nil {
		log.WithFields(log.Fields{
			"betID": betID,
			"error": err,
		}).Error("Failed to load bet for /bet command")
		respondWithError(s, i, "Failed to load bet")
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{buildBetDetailEmbed(detail)},
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to respond to /bet command")
	}
}
