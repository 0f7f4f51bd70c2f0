package service

import (
	"context"
	"fmt"

	"arenabot/events"
	"arenabot/models"
)

// Credit adds GP to an account and appends the corresponding ledger entry.
// This and Debit are the only paths by which a balance ever changes.
func Credit(ctx context.Context, uow UnitOfWork, discordID, amount int64, txType models.TransactionType, relatedID int64, relatedType models.RelatedType, metadata map[string]any) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return fmt.Errorf("failed to get user %d: %w", discordID, err)
	}
	if user == nil {
		return fmt.Errorf("user %d not found", discordID)
	}

	if err := uow.UserRepository().AddBalance(ctx, discordID, amount); err != nil {
		return fmt.Errorf("failed to add balance for user %d: %w", discordID, err)
	}

	entry := &models.LedgerEntry{
		DiscordID:       discordID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: txType,
		Metadata:        metadata,
		RelatedID:       &relatedID,
		RelatedType:     relatedTypePtr(relatedType),
	}
	return recordLedgerEntry(ctx, uow, entry)
}

// Debit removes GP from an account, failing with ErrInsufficientFunds when
// the balance cannot cover the amount, and appends the ledger entry. The
// balance check and the deduction are a single atomic statement in the
// repository, so concurrent debits cannot both pass the check.
func Debit(ctx context.Context, uow UnitOfWork, discordID, amount int64, txType models.TransactionType, relatedID int64, relatedType models.RelatedType, metadata map[string]any) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return fmt.Errorf("failed to get user %d: %w", discordID, err)
	}
	if user == nil {
		return fmt.Errorf("user %d not found", discordID)
	}
	if !user.CanAfford(amount) {
		return ErrInsufficientFunds
	}

	if err := uow.UserRepository().DeductBalance(ctx, discordID, amount); err != nil {
		return err
	}

	entry := &models.LedgerEntry{
		DiscordID:       discordID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: txType,
		Metadata:        metadata,
		RelatedID:       &relatedID,
		RelatedType:     relatedTypePtr(relatedType),
	}
	return recordLedgerEntry(ctx, uow, entry)
}

// recordLedgerEntry appends the entry and emits the balance change event,
// which is flushed only after the enclosing transaction commits.
func recordLedgerEntry(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          entry.DiscordID,
		OldBalance:      entry.BalanceBefore,
		NewBalance:      entry.BalanceAfter,
		TransactionType: entry.TransactionType,
		ChangeAmount:    entry.ChangeAmount,
	})

	return nil
}

func relatedTypePtr(rt models.RelatedType) *models.RelatedType {
	return &rt
}
