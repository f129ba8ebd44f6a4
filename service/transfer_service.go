package service

import (
	"context"
	"fmt"

	"chipbank/events"
	"chipbank/models"
)

const (
	transferMinAmount = 1
	transferMaxAmount = 100
)

type transferService struct {
	uowFactory UnitOfWorkFactory
}

// NewTransferService creates a new transfer service
func NewTransferService(uowFactory UnitOfWorkFactory) TransferService {
	return &transferService{
		uowFactory: uowFactory,
	}
}

// Transfer moves amount from sender to receiver. Both balance effects and the
// transfer record commit together or not at all. The two account rows are
// locked in ascending user ID order so opposing transfers cannot deadlock.
func (s *transferService) Transfer(ctx context.Context, senderID, receiverID int64, amount int64, note *string) (*models.TransferResult, error) {
	// Validation happens before any lock is taken
	if amount < transferMinAmount || amount > transferMaxAmount {
		return nil, ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, ErrSelfTransfer
	}

	var result *models.TransferResult

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		accounts, err := uow.AccountRepository().GetManyForUpdate(ctx, []int64{senderID, receiverID})
		if err != nil {
			return fmt.Errorf("failed to lock accounts: %w", err)
		}

		var sender, receiver *models.Account
		for _, account := range accounts {
			switch account.UserID {
			case senderID:
				sender = account
			case receiverID:
				receiver = account
			}
		}
		if sender == nil {
			return ErrSenderNotFound
		}
		if receiver == nil {
			return ErrReceiverNotFound
		}

		// Checked against the locked snapshot; the repository's SQL guard
		// would reject it as well
		if sender.Balance < amount {
			return ErrInsufficientBalance
		}

		newSenderBalance, err := uow.AccountRepository().Debit(ctx, senderID, amount)
		if err != nil {
			return fmt.Errorf("failed to debit sender: %w", err)
		}

		if _, err := uow.AccountRepository().Credit(ctx, receiverID, amount); err != nil {
			return fmt.Errorf("failed to credit receiver: %w", err)
		}

		transfer := &models.Transfer{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Amount:     amount,
			Note:       note,
		}
		if err := uow.TransferRepository().Create(ctx, transfer); err != nil {
			return fmt.Errorf("failed to record transfer: %w", err)
		}

		// Achievement recheck fires after commit and never rolls us back
		uow.EventBus().Publish(events.TransferCompletedEvent{
			TransferID: transfer.ID,
			SenderID:   senderID,
			ReceiverID: receiverID,
			Amount:     amount,
		})

		result = &models.TransferResult{
			Transfer:         transfer,
			NewSenderBalance: newSenderBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetHistory returns the most recent transfers involving the user
func (s *transferService) GetHistory(ctx context.Context, userID int64, limit int) ([]*models.Transfer, error) {
	if limit <= 0 {
		return nil, ErrInvalidAmount
	}

	var transfers []*models.Transfer

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		var err error
		transfers, err = uow.TransferRepository().GetByUser(ctx, userID, limit)
		if err != nil {
			return fmt.Errorf("failed to get transfers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transfers, nil
}
