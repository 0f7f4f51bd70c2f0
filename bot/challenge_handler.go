package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"arenabot/models"
	"arenabot/service"

	"github.com/bwmarrin/discordgo"
)

// handleBalance handles the /balance slash command
func (b *Bot) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		log.Errorf("Error parsing Discord ID %s: %v", i.Member.User.ID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	user, err := b.userService.GetOrCreateUser(ctx, discordID, i.Member.User.Username)
	if err != nil {
		log.Errorf("Error getting user %d: %v", discordID, err)
		b.respondWithError(s, i, "Unable to retrieve balance. Please try again.")
		return
	}

	b.respond(s, i, fmt.Sprintf("Your current balance: **%s GP**", FormatGP(user.Balance)))
}

// handleChallengeCommand dispatches /challenge subcommands
func (b *Bot) handleChallengeCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		b.respondWithError(s, i, "Invalid command usage")
		return
	}

	switch options[0].Name {
	case "direct":
		b.handleChallengeCreate(s, i, models.ChallengeTypeDirect)
	case "open":
		b.handleChallengeCreate(s, i, models.ChallengeTypeOpen)
	case "accept":
		b.handleChallengeAction(s, i, b.challengeService.Accept)
	case "join":
		b.handleChallengeAction(s, i, b.challengeService.Join)
	case "decline":
		b.handleChallengeVoidAction(s, i, b.challengeService.Decline, "Challenge declined. Wagers refunded.")
	case "cancel":
		b.handleChallengeVoidAction(s, i, b.challengeService.Cancel, "Challenge cancelled. Wagers refunded.")
	case "list":
		b.handleChallengeList(s, i)
	case "view":
		b.handleChallengeView(s, i)
	default:
		b.respondWithError(s, i, "Unknown subcommand")
	}
}

func (b *Bot) handleChallengeCreate(s *discordgo.Session, i *discordgo.InteractionCreate, challengeType models.ChallengeType) {
	ctx := context.Background()

	creatorID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	// Registration happens lazily on first interaction
	if _, err := b.userService.GetOrCreateUser(ctx, creatorID, i.Member.User.Username); err != nil {
		log.Errorf("Error ensuring user %d: %v", creatorID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	params := service.CreateChallengeParams{
		Type:             challengeType,
		CreatorDiscordID: creatorID,
	}

	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case "opponent":
			opponent := opt.UserValue(s)
			if opponent == nil {
				b.respondWithError(s, i, "Invalid opponent")
				return
			}
			opponentID, err := strconv.ParseInt(opponent.ID, 10, 64)
			if err != nil {
				b.respondWithError(s, i, "Invalid opponent")
				return
			}
			// Make sure the opponent has an account to stake from
			if _, err := b.userService.GetOrCreateUser(ctx, opponentID, opponent.Username); err != nil {
				log.Errorf("Error ensuring opponent %d: %v", opponentID, err)
				b.respondWithError(s, i, "Unable to process request. Please try again.")
				return
			}
			params.OpponentDiscordID = opponentID
		case "wager":
			params.WagerAmount = opt.IntValue()
		case "leaderboard":
			params.LeaderboardID = opt.StringValue()
			params.GameID = opt.StringValue()
		case "title":
			params.Title = opt.StringValue()
		case "hours":
			params.DurationHours = int(opt.IntValue())
		case "lower_wins":
			params.InvertScores = opt.BoolValue()
		case "max_players":
			maxPlayers := int(opt.IntValue())
			params.MaxParticipants = &maxPlayers
		}
	}

	challenge, err := b.challengeService.Create(ctx, params)
	if err != nil {
		b.respondWithError(s, i, challengeErrorMessage(err))
		return
	}

	b.respond(s, i, fmt.Sprintf("Challenge **%s** created (#%d). Your %s GP wager is escrowed.",
		challenge.Title, challenge.ID, FormatGP(challenge.WagerAmount)))
}

func (b *Bot) handleChallengeAction(s *discordgo.Session, i *discordgo.InteractionCreate, action func(context.Context, int64, int64) (*models.Challenge, error)) {
	ctx := context.Background()

	userID, challengeID, ok := b.parseActorAndID(s, i)
	if !ok {
		return
	}

	if _, err := b.userService.GetOrCreateUser(ctx, userID, i.Member.User.Username); err != nil {
		log.Errorf("Error ensuring user %d: %v", userID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	challenge, err := action(ctx, challengeID, userID)
	if err != nil {
		b.respondWithError(s, i, challengeErrorMessage(err))
		return
	}

	if challenge.Status == models.ChallengeStatusActive {
		b.respond(s, i, fmt.Sprintf("You are in! **%s** is live and runs until %s.",
			challenge.Title, FormatDiscordTimestamp(*challenge.EndsAt, "f")))
	} else {
		b.respond(s, i, fmt.Sprintf("You are in! **%s** starts once enough players join.", challenge.Title))
	}
}

func (b *Bot) handleChallengeVoidAction(s *discordgo.Session, i *discordgo.InteractionCreate, action func(context.Context, int64, int64) error, success string) {
	ctx := context.Background()

	userID, challengeID, ok := b.parseActorAndID(s, i)
	if !ok {
		return
	}

	if err := action(ctx, challengeID, userID); err != nil {
		b.respondWithError(s, i, challengeErrorMessage(err))
		return
	}

	b.respond(s, i, success)
}

func (b *Bot) handleChallengeList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	challenges, err := b.challengeService.ListOpenChallenges(ctx, 10)
	if err != nil {
		log.Errorf("Error listing open challenges: %v", err)
		b.respondWithError(s, i, "Unable to list challenges. Please try again.")
		return
	}
	if len(challenges) == 0 {
		b.respond(s, i, "No open challenges right now. Start one with `/challenge open`.")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Open challenges**\n")
	for _, c := range challenges {
		fmt.Fprintf(&sb, "`#%d` **%s**: %s GP a head, closes %s\n",
			c.ID, c.Title, FormatGP(c.WagerAmount), FormatDiscordTimestamp(c.AcceptanceDeadline, "R"))
	}
	b.respond(s, i, sb.String())
}

func (b *Bot) handleChallengeView(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	_, challengeID, ok := b.parseActorAndID(s, i)
	if !ok {
		return
	}

	detail, err := b.challengeService.GetChallengeDetail(ctx, challengeID)
	if err != nil {
		b.respondWithError(s, i, challengeErrorMessage(err))
		return
	}

	embed := buildChallengeEmbed(detail)
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Errorf("Error sending challenge view: %v", err)
	}
}

// handleBetCommand handles the /bet slash command
func (b *Bot) handleBetCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	bettorID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var (
		challengeID int64
		targetID    int64
		amount      int64
	)
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "id":
			challengeID = opt.IntValue()
		case "on":
			target := opt.UserValue(s)
			if target == nil {
				b.respondWithError(s, i, "Invalid target")
				return
			}
			targetID, err = strconv.ParseInt(target.ID, 10, 64)
			if err != nil {
				b.respondWithError(s, i, "Invalid target")
				return
			}
		case "amount":
			amount = opt.IntValue()
		}
	}

	if _, err := b.userService.GetOrCreateUser(ctx, bettorID, i.Member.User.Username); err != nil {
		log.Errorf("Error ensuring user %d: %v", bettorID, err)
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	bet, err := b.challengeService.PlaceBet(ctx, challengeID, bettorID, targetID, amount)
	if err != nil {
		b.respondWithError(s, i, challengeErrorMessage(err))
		return
	}

	b.respond(s, i, fmt.Sprintf("Bet placed: **%s GP** on <@%d>. Good luck!", FormatGP(bet.Amount), bet.TargetDiscordID))
}

func (b *Bot) parseActorAndID(s *discordgo.Session, i *discordgo.InteractionCreate) (userID, challengeID int64, ok bool) {
	userID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return 0, 0, false
	}

	var opts []*discordgo.ApplicationCommandInteractionDataOption
	if sub := i.ApplicationCommandData().Options; len(sub) > 0 && sub[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		opts = sub[0].Options
	} else {
		opts = sub
	}
	for _, opt := range opts {
		if opt.Name == "id" {
			challengeID = opt.IntValue()
		}
	}
	if challengeID == 0 {
		b.respondWithError(s, i, "Please specify a challenge ID")
		return 0, 0, false
	}

	return userID, challengeID, true
}

// challengeErrorMessage maps service errors to user-facing text
func challengeErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		return "You don't have enough GP for that."
	case errors.Is(err, service.ErrInvalidWager):
		return "That wager amount is out of bounds."
	case errors.Is(err, service.ErrInvalidBet):
		return "That bet amount is out of bounds."
	case errors.Is(err, service.ErrInvalidDuration):
		return "That challenge duration is out of bounds."
	case errors.Is(err, service.ErrSelfChallenge):
		return "You can't challenge yourself."
	case errors.Is(err, service.ErrUnknownOpponent):
		return "That player doesn't have an account yet."
	case errors.Is(err, service.ErrNotFound):
		return "No such challenge."
	case errors.Is(err, service.ErrWrongParticipant):
		return "That challenge isn't yours to act on."
	case errors.Is(err, service.ErrAlreadyDecided):
		return "That challenge has already been decided."
	case errors.Is(err, service.ErrAlreadyJoined):
		return "You already joined that challenge."
	case errors.Is(err, service.ErrChallengeFull):
		return "That challenge is full."
	case errors.Is(err, service.ErrChallengeNotActive), errors.Is(err, service.ErrWrongStatus):
		return "That challenge isn't accepting this right now."
	case errors.Is(err, service.ErrBettingClosed):
		return "Betting has closed on that challenge."
	case errors.Is(err, service.ErrIsParticipant):
		return "Participants can't bet on their own challenge."
	case errors.Is(err, service.ErrDuplicateBet):
		return "You already have a bet on that challenge."
	case errors.Is(err, service.ErrInvalidTarget):
		return "That player isn't a participant."
	default:
		log.Errorf("Unexpected challenge error: %v", err)
		return "Something went wrong. Please try again."
	}
}
