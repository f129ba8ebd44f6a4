package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"chipbank/events"
	"chipbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupBonusMocks() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockAccountRepository, *MockEventPublisher, *MockBoostProvider) {
	mockFactory := new(MockUnitOfWorkFactory)
	mockUoW := new(MockUnitOfWork)
	mockAccountRepo := new(MockAccountRepository)
	mockPublisher := new(MockEventPublisher)
	mockBoosts := new(MockBoostProvider)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, mockPublisher)
	mockFactory.On("Create").Return(mockUoW)

	return mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts
}

func newTestBonusService(factory UnitOfWorkFactory, boosts BoostProvider, seed int64) *bonusService {
	return &bonusService{
		uowFactory: factory,
		boosts:     boosts,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func utcDayPtr(t time.Time) *time.Time {
	day := utcDate(t)
	return &day
}

func TestApplyBoost(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		boost    models.EventBoost
		expected int64
	}{
		{"neutral", 35, models.NeutralBoost(), 35},
		{"multiplier", 35, models.EventBoost{Multiplier: 2}, 70},
		{"flat only", 35, models.EventBoost{Multiplier: 1, FlatBonus: 5}, 40},
		{"fractional floors", 15, models.EventBoost{Multiplier: 1.5}, 22},
		{"both", 10, models.EventBoost{Multiplier: 1.5, FlatBonus: 3}, 18},
		{"zero base", 0, models.EventBoost{Multiplier: 3, FlatBonus: 7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, applyBoost(tt.base, tt.boost))
		})
	}
}

func TestSpinTier(t *testing.T) {
	tests := []struct {
		roll   float64
		lo, hi int64
	}{
		{0.0, 0, 10},
		{0.39, 0, 10},
		{0.40, 11, 25},
		{0.74, 11, 25},
		{0.75, 26, 50},
		{0.94, 26, 50},
		{0.95, 51, 100},
		{0.99, 51, 100},
	}

	for _, tt := range tests {
		lo, hi := spinTier(tt.roll)
		assert.Equal(t, tt.lo, lo, "roll %v", tt.roll)
		assert.Equal(t, tt.hi, hi, "roll %v", tt.roll)
	}
}

func TestDrawSpinBase_Range(t *testing.T) {
	s := newTestBonusService(nil, nil, 1)

	for i := 0; i < 1000; i++ {
		base := s.drawSpinBase()
		assert.GreaterOrEqual(t, base, int64(0))
		assert.LessOrEqual(t, base, int64(100))
	}
}

func TestBonusService_ClaimDaily_FirstClaim(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	account := &models.Account{UserID: 1, Balance: 100}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	// streak 1: 10 base + 5 streak bonus
	mockAccountRepo.On("Credit", ctx, int64(1), int64(15)).Return(int64(115), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.MatchedBy(func(a *models.Account) bool {
		return a.LoginStreak == 1 && a.LastLoginDate != nil
	})).Return(nil)

	result, err := service.ClaimDaily(ctx, 1)

	assert.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.False(t, result.AlreadyClaimed)
	assert.Equal(t, 1, result.Streak)
	assert.Equal(t, int64(15), result.Amount)
	assert.Equal(t, int64(115), result.NewBalance)
	mockAccountRepo.AssertExpectations(t)
}

func TestBonusService_ClaimDaily_SameDayIdempotent(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	account := &models.Account{
		UserID:        1,
		Balance:       115,
		LoginStreak:   3,
		LastLoginDate: utcDayPtr(time.Now()),
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)

	result, err := service.ClaimDaily(ctx, 1)

	assert.NoError(t, err)
	assert.False(t, result.Claimed)
	assert.True(t, result.AlreadyClaimed)
	assert.Equal(t, 3, result.Streak)
	assert.Equal(t, int64(115), result.NewBalance)

	mockAccountRepo.AssertNotCalled(t, "Credit")
	mockAccountRepo.AssertNotCalled(t, "UpdateBonusState")
	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestBonusService_ClaimDaily_ConsecutiveDayExtendsStreak(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	account := &models.Account{
		UserID:        1,
		Balance:       200,
		LoginStreak:   4,
		LastLoginDate: utcDayPtr(time.Now().AddDate(0, 0, -1)),
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	// streak 5: 10 base + 25 streak bonus
	mockAccountRepo.On("Credit", ctx, int64(1), int64(35)).Return(int64(235), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.MatchedBy(func(a *models.Account) bool {
		return a.LoginStreak == 5
	})).Return(nil)

	result, err := service.ClaimDaily(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, 5, result.Streak)
	assert.Equal(t, int64(35), result.Amount)
}

func TestBonusService_ClaimDaily_GapResetsStreak(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	// Streak of 5, then two days without claiming
	account := &models.Account{
		UserID:        1,
		Balance:       200,
		LoginStreak:   5,
		LastLoginDate: utcDayPtr(time.Now().AddDate(0, 0, -2)),
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockAccountRepo.On("Credit", ctx, int64(1), int64(15)).Return(int64(215), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.MatchedBy(func(a *models.Account) bool {
		return a.LoginStreak == 1
	})).Return(nil)

	result, err := service.ClaimDaily(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Streak)
	assert.Equal(t, int64(15), result.Amount)
}

func TestBonusService_ClaimDaily_StreakBonusCaps(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	account := &models.Account{
		UserID:        1,
		Balance:       1000,
		LoginStreak:   25,
		LastLoginDate: utcDayPtr(time.Now().AddDate(0, 0, -1)),
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	// streak 26 would be 130 uncapped; the streak bonus stops at 50
	mockAccountRepo.On("Credit", ctx, int64(1), int64(60)).Return(int64(1060), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.Anything).Return(nil)

	result, err := service.ClaimDaily(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, 26, result.Streak)
	assert.Equal(t, int64(60), result.Amount)
}

func TestBonusService_ClaimDaily_BoostApplied(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	eventID := int64(42)
	account := &models.Account{UserID: 1, Balance: 100}

	mockBoosts.On("CurrentBoost", ctx).Return(models.EventBoost{Multiplier: 2, FlatBonus: 5, EventID: &eventID}, nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	// base 15 doubled plus 5 flat
	mockAccountRepo.On("Credit", ctx, int64(1), int64(35)).Return(int64(135), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.Anything).Return(nil)

	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.BonusGrantedEvent)
		return ok && ev.Kind == events.BonusKindDaily &&
			ev.BaseAmount == 15 && ev.ActualAmount == 35 &&
			ev.EventID != nil && *ev.EventID == 42
	})).Return()

	result, err := service.ClaimDaily(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(15), result.BaseAmount)
	assert.Equal(t, int64(35), result.Amount)
	mockPublisher.AssertExpectations(t)
}

func TestBonusService_ClaimDaily_BoostLookupFailureDegradesToNeutral(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	account := &models.Account{UserID: 1, Balance: 100}

	mockBoosts.On("CurrentBoost", ctx).Return(models.EventBoost{}, assert.AnError)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockAccountRepo.On("Credit", ctx, int64(1), int64(15)).Return(int64(115), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.Anything).Return(nil)

	result, err := service.ClaimDaily(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(15), result.Amount)
	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestBonusService_ClaimDaily_UnknownUser(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupBonusMocks()

	service := NewBonusService(mockFactory, mockBoosts)

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(99)).Return(nil, nil)

	result, err := service.ClaimDaily(ctx, 99)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, result)
}

func TestBonusService_Spin_FirstSpin(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupBonusMocks()

	service := newTestBonusService(mockFactory, mockBoosts, 7)

	account := &models.Account{UserID: 1, Balance: 100}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	// A zero-chip draw skips the credit entirely
	mockAccountRepo.On("Credit", ctx, int64(1), mock.AnythingOfType("int64")).Return(int64(150), nil).Maybe()
	mockAccountRepo.On("UpdateBonusState", ctx, mock.MatchedBy(func(a *models.Account) bool {
		return a.LastSpinDate != nil
	})).Return(nil)

	result, err := service.Spin(ctx, 1)

	assert.NoError(t, err)
	assert.True(t, result.Spun)
	assert.False(t, result.AlreadySpun)
	assert.GreaterOrEqual(t, result.BaseAmount, int64(0))
	assert.LessOrEqual(t, result.BaseAmount, int64(100))
	assert.Equal(t, result.BaseAmount, result.Amount)
	mockAccountRepo.AssertExpectations(t)
}

func TestBonusService_Spin_SameDayIdempotent(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupBonusMocks()

	service := newTestBonusService(mockFactory, mockBoosts, 7)

	account := &models.Account{
		UserID:       1,
		Balance:      150,
		LastSpinDate: utcDayPtr(time.Now()),
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)

	result, err := service.Spin(ctx, 1)

	assert.NoError(t, err)
	assert.False(t, result.Spun)
	assert.True(t, result.AlreadySpun)
	assert.Equal(t, int64(150), result.NewBalance)

	mockAccountRepo.AssertNotCalled(t, "Credit")
	mockAccountRepo.AssertNotCalled(t, "UpdateBonusState")
}
