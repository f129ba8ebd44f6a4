package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"chipbank/events"
	"chipbank/models"

	log "github.com/sirupsen/logrus"
)

const (
	dailyBaseBonus      = 10
	dailyStreakStep     = 5
	dailyStreakBonusCap = 50
)

// Lucky-spin tiers: a single roll in [0,1) picks the band, then the reward is
// drawn uniformly inside it.
var spinTiers = []struct {
	cumulative float64
	lo, hi     int64
}{
	{0.40, 0, 10},
	{0.75, 11, 25},
	{0.95, 26, 50},
	{1.00, 51, 100},
}

type bonusService struct {
	uowFactory UnitOfWorkFactory
	boosts     BoostProvider
	rng        *rand.Rand
}

// NewBonusService creates a new bonus service
func NewBonusService(uowFactory UnitOfWorkFactory, boosts BoostProvider) BonusService {
	return &bonusService{
		uowFactory: uowFactory,
		boosts:     boosts,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// applyBoost applies the event multiplier and flat bonus to a base grant
func applyBoost(base int64, boost models.EventBoost) int64 {
	return int64(math.Floor(float64(base)*boost.Multiplier)) + boost.FlatBonus
}

// currentBoostOrNeutral reads the active boost before a grant. The grant must
// not fail because the event subsystem is down, so lookup errors degrade to
// the neutral boost.
func currentBoostOrNeutral(ctx context.Context, provider BoostProvider) models.EventBoost {
	boost, err := provider.CurrentBoost(ctx)
	if err != nil {
		log.WithError(err).Warn("Boost lookup failed, applying neutral boost")
		return models.NeutralBoost()
	}
	if boost.Multiplier < 1 {
		boost.Multiplier = 1
	}
	if boost.FlatBonus < 0 {
		boost.FlatBonus = 0
	}
	return boost
}

// ClaimDaily grants the daily streak bonus. Calling it again on the same UTC
// calendar day reports AlreadyClaimed with the balance untouched. A gap of
// exactly one day extends the streak; any other gap resets it to one.
func (s *bonusService) ClaimDaily(ctx context.Context, userID int64) (*models.DailyClaimResult, error) {
	boost := currentBoostOrNeutral(ctx, s.boosts)

	var result *models.DailyClaimResult

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		account, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return ErrUserNotFound
		}

		now := time.Now().UTC()

		if account.LastLoginDate != nil && daysBetween(*account.LastLoginDate, now) == 0 {
			result = &models.DailyClaimResult{
				AlreadyClaimed: true,
				Streak:         account.LoginStreak,
				NewBalance:     account.Balance,
				NextResetAt:    NextDailyReset(now),
			}
			return nil
		}

		streak := 1
		if account.LastLoginDate != nil && daysBetween(*account.LastLoginDate, now) == 1 {
			streak = account.LoginStreak + 1
		}

		base := int64(dailyBaseBonus + min(streak*dailyStreakStep, dailyStreakBonusCap))
		actual := applyBoost(base, boost)

		newBalance, err := uow.AccountRepository().Credit(ctx, userID, actual)
		if err != nil {
			return fmt.Errorf("failed to credit daily bonus: %w", err)
		}

		today := utcDate(now)
		account.LoginStreak = streak
		account.LastLoginDate = &today
		if err := uow.AccountRepository().UpdateBonusState(ctx, account); err != nil {
			return fmt.Errorf("failed to update streak state: %w", err)
		}

		if actual > base {
			uow.EventBus().Publish(events.BonusGrantedEvent{
				UserID:       userID,
				Kind:         events.BonusKindDaily,
				BaseAmount:   base,
				ActualAmount: actual,
				EventID:      boost.EventID,
			})
		}

		result = &models.DailyClaimResult{
			Claimed:     true,
			Streak:      streak,
			BaseAmount:  base,
			Amount:      actual,
			NewBalance:  newBalance,
			NextResetAt: NextDailyReset(now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// spinTier maps a roll in [0,1) to the inclusive reward band it falls in
func spinTier(roll float64) (lo, hi int64) {
	for _, tier := range spinTiers {
		if roll < tier.cumulative {
			return tier.lo, tier.hi
		}
	}
	last := spinTiers[len(spinTiers)-1]
	return last.lo, last.hi
}

// drawSpinBase rolls the tier and then a uniform reward inside it
func (s *bonusService) drawSpinBase() int64 {
	lo, hi := spinTier(s.rng.Float64())
	return lo + s.rng.Int63n(hi-lo+1)
}

// Spin grants the weighted lucky-spin reward, once per UTC calendar day. The
// roll happens before the transaction so a retried transaction keeps its
// original reward.
func (s *bonusService) Spin(ctx context.Context, userID int64) (*models.SpinResult, error) {
	boost := currentBoostOrNeutral(ctx, s.boosts)
	base := s.drawSpinBase()

	var result *models.SpinResult

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		account, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return ErrUserNotFound
		}

		now := time.Now().UTC()

		if account.LastSpinDate != nil && daysBetween(*account.LastSpinDate, now) == 0 {
			result = &models.SpinResult{
				AlreadySpun: true,
				NewBalance:  account.Balance,
				NextResetAt: NextDailyReset(now),
			}
			return nil
		}

		actual := applyBoost(base, boost)

		newBalance := account.Balance
		if actual > 0 {
			newBalance, err = uow.AccountRepository().Credit(ctx, userID, actual)
			if err != nil {
				return fmt.Errorf("failed to credit spin reward: %w", err)
			}
		}

		today := utcDate(now)
		account.LastSpinDate = &today
		if err := uow.AccountRepository().UpdateBonusState(ctx, account); err != nil {
			return fmt.Errorf("failed to update spin state: %w", err)
		}

		if actual > base {
			uow.EventBus().Publish(events.BonusGrantedEvent{
				UserID:       userID,
				Kind:         events.BonusKindSpin,
				BaseAmount:   base,
				ActualAmount: actual,
				EventID:      boost.EventID,
			})
		}

		result = &models.SpinResult{
			Spun:        true,
			BaseAmount:  base,
			Amount:      actual,
			NewBalance:  newBalance,
			NextResetAt: NextDailyReset(now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
