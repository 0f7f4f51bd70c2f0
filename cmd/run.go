package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"arenabot/bot"
	"arenabot/config"
	"arenabot/database"
	"arenabot/events"
	"arenabot/leaderboard"
	"arenabot/repository"
	"arenabot/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting arena...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	userService := service.NewUserService(uowFactory, cfg)
	challengeService := service.NewChallengeService(uowFactory, cfg)

	scoreSource := leaderboard.NewClient(cfg.LeaderboardAPIURL, cfg.LeaderboardAPIToken)
	resolver := service.NewScoreResolver(scoreSource)
	engine := service.NewPayoutEngine(cfg.HouseGuaranteePercent)

	scheduler := service.NewLifecycleScheduler(uowFactory, resolver, engine, cfg)
	stopScheduler := scheduler.Start(ctx)

	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:             cfg.DiscordToken,
		AnnounceChannelID: cfg.AnnounceChannelID,
	}, userService, challengeService, eventBus)
	if err != nil {
		stopScheduler()
		db.Close()
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	log.Infof("Arena is running in %s mode", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down...")
	stopScheduler()

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}
