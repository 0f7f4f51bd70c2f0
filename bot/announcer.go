package bot

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"arenabot/events"
	"arenabot/models"

	"github.com/bwmarrin/discordgo"
)

// subscribeAnnouncements wires challenge lifecycle events to the announce
// channel. Handlers run asynchronously on the bus so a failed send is only
// logged.
func (b *Bot) subscribeAnnouncements() {
	if b.config.AnnounceChannelID == "" {
		log.Warn("No announce channel configured, lifecycle announcements disabled")
		return
	}

	b.eventBus.Subscribe(events.EventTypeChallengeCreated, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ChallengeCreatedEvent); ok {
			b.announceCreated(e)
		}
	})
	b.eventBus.Subscribe(events.EventTypeChallengeAccepted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ChallengeAcceptedEvent); ok {
			b.announce(fmt.Sprintf("⚔️ <@%d> accepted **%s**! The challenge is on.", e.AcceptorID, e.Title))
		}
	})
	b.eventBus.Subscribe(events.EventTypeChallengeJoined, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ChallengeJoinedEvent); ok {
			msg := fmt.Sprintf("👥 <@%d> joined **%s** (%d participants)", e.JoinerID, e.Title, e.ParticipantCount)
			if e.Activated {
				msg += " and the challenge is now live!"
			}
			b.announce(msg)
		}
	})
	b.eventBus.Subscribe(events.EventTypeChallengeDeclined, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ChallengeDeclinedEvent); ok {
			if e.DeclinerID == 0 {
				b.announce(fmt.Sprintf("⌛ **%s** expired unaccepted. Wagers refunded.", e.Title))
			} else {
				b.announce(fmt.Sprintf("🚫 <@%d> declined **%s**. Wagers refunded.", e.DeclinerID, e.Title))
			}
		}
	})
	b.eventBus.Subscribe(events.EventTypeChallengeCancelled, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ChallengeCancelledEvent); ok {
			b.announce(fmt.Sprintf("🚫 **%s** was cancelled. Wagers refunded.", e.Title))
		}
	})
	b.eventBus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BetPlacedEvent); ok {
			b.announce(fmt.Sprintf("🎲 <@%d> put %d GP on <@%d>", e.BettorID, e.Amount, e.TargetID))
		}
	})
	b.eventBus.Subscribe(events.EventTypeChallengeCompleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ChallengeCompletedEvent); ok {
			b.announceCompleted(e)
		}
	})
}

func (b *Bot) announceCreated(e events.ChallengeCreatedEvent) {
	var description string
	if e.ChallengeType == models.ChallengeTypeDirect {
		description = fmt.Sprintf("<@%d> challenged <@%d> for **%d GP**", e.CreatorID, e.OpponentID, e.WagerAmount)
	} else {
		description = fmt.Sprintf("<@%d> opened a challenge for **%d GP** a head. Join up!", e.CreatorID, e.WagerAmount)
	}

	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: description,
		Color:       0x5865F2,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Challenge #%d", e.ChallengeID),
		},
	}
	if _, err := b.session.ChannelMessageSendEmbed(b.config.AnnounceChannelID, embed); err != nil {
		log.Errorf("Failed to announce challenge %d: %v", e.ChallengeID, err)
	}
}

func (b *Bot) announceCompleted(e events.ChallengeCompletedEvent) {
	var description string
	switch e.Outcome {
	case models.SettlementOutcomeWinner:
		description = fmt.Sprintf("🏆 <@%d> won **%s** and collects the %d GP pot!", e.WinnerID, e.Title, e.WagerPool)
	case models.SettlementOutcomeTie:
		description = fmt.Sprintf("🤝 **%s** ended in a tie. All wagers and bets refunded.", e.Title)
	default:
		description = fmt.Sprintf("😶 **%s** ended with no contest. All wagers and bets refunded.", e.Title)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Challenge settled",
		Description: description,
		Color:       0x57F287,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Challenge #%d", e.ChallengeID),
		},
	}
	if _, err := b.session.ChannelMessageSendEmbed(b.config.AnnounceChannelID, embed); err != nil {
		log.Errorf("Failed to announce settlement of challenge %d: %v", e.ChallengeID, err)
	}
}

func (b *Bot) announce(message string) {
	if _, err := b.session.ChannelMessageSend(b.config.AnnounceChannelID, message); err != nil {
		log.Errorf("Failed to send announcement: %v", err)
	}
}
