package bot

import (
	"context"
	"fmt"

	"wagerpool/events"
	"wagerpool/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token     string
	ChannelID string // Channel receiving bet notifications
}

// embedSender is the part of the Discord session used for notifications
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	config     Config
	session    *discordgo.Session
	sender     embedSender
	betService service.BetService
}

// New opens a Discord session, registers the /bet command and posts bet events
// to the configured channel
func New(config Config, betService service.BetService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:     config,
		session:    dg,
		sender:     dg,
		betService: betService,
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	bot.subscribe(eventBus)
	log.WithField("channelID", config.ChannelID).Info("Discord notifier enabled")

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// subscribe posts an embed for every bet lifecycle event
func (b *Bot) subscribe(eventBus *events.Bus) {
	for _, eventType := range []events.EventType{
		events.EventTypeBetPlaced,
		events.EventTypeBettorAdded,
		events.EventTypeBetStatusChanged,
		events.EventTypeBetSettled,
	} {
		eventBus.Subscribe(eventType, b.handleEvent)
	}
}

func (b *Bot) handleEvent(ctx context.Context, event events.Event) {
	embed := buildEventEmbed(event)
	if embed == nil {
		return
	}

	if _, err := b.sender.ChannelMessageSendEmbed(b.config.ChannelID, embed); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": b.config.ChannelID,
			"error":     err,
		}).Error("Failed to post bet notification")
	}
}
