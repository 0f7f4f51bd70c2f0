package bot

import (
	"fmt"
	"strings"
	"time"

	"arenabot/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// FormatGP formats a GP amount with thousand separators
func FormatGP(amount int64) string {
	str := fmt.Sprintf("%d", amount)
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays
// in the user's local timezone. Format types: "t" = short time, "f" = short
// date/time, "R" = relative time.
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

func statusLabel(c *models.Challenge) string {
	switch c.Status {
	case models.ChallengeStatusPending:
		return "⏳ Awaiting acceptance"
	case models.ChallengeStatusOpen:
		return "🟢 Open for joiners"
	case models.ChallengeStatusActive:
		return "⚔️ In progress"
	case models.ChallengeStatusCompleted:
		return "🏁 Completed"
	case models.ChallengeStatusDeclined:
		return "🚫 Declined"
	case models.ChallengeStatusCancelled:
		return "🚫 Cancelled"
	}
	return string(c.Status)
}

func buildChallengeEmbed(detail *models.ChallengeDetail) *discordgo.MessageEmbed {
	c := detail.Challenge

	var participants strings.Builder
	for _, p := range detail.Participants {
		fmt.Fprintf(&participants, "<@%d>", p.DiscordID)
		if p.LastScore != nil {
			fmt.Fprintf(&participants, " - %.1f", *p.LastScore)
		}
		participants.WriteString("\n")
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Status", Value: statusLabel(c), Inline: true},
		{Name: "Wager", Value: FormatGP(c.WagerAmount) + " GP", Inline: true},
		{Name: "Pot", Value: FormatGP(detail.WagerPool()) + " GP", Inline: true},
		{Name: "Participants", Value: participants.String()},
	}

	if c.EndsAt != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Ends", Value: FormatDiscordTimestamp(*c.EndsAt, "f"), Inline: true,
		})
	}
	if len(detail.Bets) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Side bets", Value: fmt.Sprintf("%d bets, %s GP total", len(detail.Bets), FormatGP(detail.TotalBetAmount())), Inline: true,
		})
	}
	if c.WinnerDiscordID != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Winner", Value: fmt.Sprintf("<@%d>", *c.WinnerDiscordID), Inline: true,
		})
	}

	return &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Description,
		Color:       0x5865F2,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Challenge #%d · %s", c.ID, c.LeaderboardID),
		},
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
		},
	})
	if err != nil {
		log.Errorf("Error sending response: %v", err)
	}
}

func (b *Bot) respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "❌ " + message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}
