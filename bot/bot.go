package bot

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"arenabot/events"
	"arenabot/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token             string
	AnnounceChannelID string
}

// Bot owns the Discord session and announces challenge lifecycle events.
// It is a pure consumer of the event bus: settlement never waits on it and
// a Discord outage cannot affect any transaction.
type Bot struct {
	config           Config
	session          *discordgo.Session
	userService      service.UserService
	challengeService service.ChallengeService
	eventBus         *events.Bus
}

func New(config Config, userService service.UserService, challengeService service.ChallengeService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		config:           config,
		session:          dg,
		userService:      userService,
		challengeService: challengeService,
		eventBus:         eventBus,
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	bot.subscribeAnnouncements()
	log.Info("Discord bot connected")

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}
