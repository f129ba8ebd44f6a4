package service

import (
	"context"
	"fmt"
	"time"

	"chipbank/config"
	"chipbank/events"
	"chipbank/models"
)

const (
	// Chips credited for every whole week elapsed since the last accrual
	weeklyBonusAmount = 100
)

type accountService struct {
	uowFactory UnitOfWorkFactory
	boosts     BoostProvider
	config     *config.Config
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, boosts BoostProvider, cfg *config.Config) AccountService {
	return &accountService{
		uowFactory: uowFactory,
		boosts:     boosts,
		config:     cfg,
	}
}

// GetOrCreateAccount retrieves an existing account or provisions a new one
// with the configured starting balance
func (s *accountService) GetOrCreateAccount(ctx context.Context, userID int64) (*models.Account, error) {
	var account *models.Account

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		existing, err := uow.AccountRepository().GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check existing account: %w", err)
		}
		if existing != nil {
			account = existing
			return nil
		}

		created, err := uow.AccountRepository().Create(ctx, userID, s.config.StartingBalance)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		account = created

		uow.EventBus().Publish(events.AccountCreatedEvent{
			UserID:          userID,
			StartingBalance: s.config.StartingBalance,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetBalance returns the current balance, first crediting any whole weeks of
// passive bonus accrued since the last credit. The accrual advances the
// stored timestamp by exactly the weeks credited, so a multi-week absence is
// caught up in one read and the next week keeps its original phase.
func (s *accountService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	// Network lookup stays outside the transaction
	boost := currentBoostOrNeutral(ctx, s.boosts)

	var balance int64

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		account, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return ErrUserNotFound
		}

		now := time.Now().UTC()
		weeks := int64(now.Sub(account.LastWeeklyCreditAt) / (7 * 24 * time.Hour))
		if weeks < 1 {
			balance = account.Balance
			return nil
		}

		base := weeks * weeklyBonusAmount
		actual := applyBoost(base, boost)

		newBalance, err := uow.AccountRepository().Credit(ctx, userID, actual)
		if err != nil {
			return fmt.Errorf("failed to credit weekly bonus: %w", err)
		}

		account.LastWeeklyCreditAt = account.LastWeeklyCreditAt.Add(time.Duration(weeks) * 7 * 24 * time.Hour)
		if err := uow.AccountRepository().UpdateBonusState(ctx, account); err != nil {
			return fmt.Errorf("failed to advance weekly credit timestamp: %w", err)
		}

		if actual > base {
			uow.EventBus().Publish(events.BonusGrantedEvent{
				UserID:       userID,
				Kind:         events.BonusKindWeekly,
				BaseAmount:   base,
				ActualAmount: actual,
				EventID:      boost.EventID,
			})
		}

		balance = newBalance
		return nil
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}
