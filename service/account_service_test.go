package service

import (
	"context"
	"testing"
	"time"

	"chipbank/config"
	"chipbank/events"
	"chipbank/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupAccountMocks() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockAccountRepository, *MockEventPublisher, *MockBoostProvider) {
	mockFactory := new(MockUnitOfWorkFactory)
	mockUoW := new(MockUnitOfWork)
	mockAccountRepo := new(MockAccountRepository)
	mockPublisher := new(MockEventPublisher)
	mockBoosts := new(MockBoostProvider)

	mockUoW.SetRepositories(mockAccountRepo, nil, nil, nil, mockPublisher)
	mockFactory.On("Create").Return(mockUoW)

	return mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts
}

func testConfig() *config.Config {
	return &config.Config{
		StartingBalance: 1000,
		EventMultiplier: 1.0,
		Environment:     "test",
	}
}

func TestAccountService_GetOrCreateAccount_Existing(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts := setupAccountMocks()

	service := NewAccountService(mockFactory, mockBoosts, testConfig())

	existing := &models.Account{UserID: 123, Balance: 500}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockAccountRepo.On("GetByUserID", ctx, int64(123)).Return(existing, nil)

	account, err := service.GetOrCreateAccount(ctx, 123)

	assert.NoError(t, err)
	assert.Equal(t, existing, account)

	mockAccountRepo.AssertNotCalled(t, "Create")
	mockPublisher.AssertNotCalled(t, "Publish")
}

func TestAccountService_GetOrCreateAccount_Provisions(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts := setupAccountMocks()

	service := NewAccountService(mockFactory, mockBoosts, testConfig())

	created := &models.Account{UserID: 123, Balance: 1000}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockAccountRepo.On("GetByUserID", ctx, int64(123)).Return(nil, nil)
	mockAccountRepo.On("Create", ctx, int64(123), int64(1000)).Return(created, nil)

	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.AccountCreatedEvent)
		return ok && ev.UserID == 123 && ev.StartingBalance == 1000
	})).Return()

	account, err := service.GetOrCreateAccount(ctx, 123)

	assert.NoError(t, err)
	assert.Equal(t, created, account)
	mockAccountRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestAccountService_GetBalance_NoAccrual(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupAccountMocks()

	service := NewAccountService(mockFactory, mockBoosts, testConfig())

	account := &models.Account{
		UserID:             1,
		Balance:            750,
		LastWeeklyCreditAt: time.Now().UTC().Add(-3 * 24 * time.Hour),
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)

	balance, err := service.GetBalance(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(750), balance)
	mockAccountRepo.AssertNotCalled(t, "Credit")
	mockAccountRepo.AssertNotCalled(t, "UpdateBonusState")
}

func TestAccountService_GetBalance_CreditsWholeWeeks(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupAccountMocks()

	service := NewAccountService(mockFactory, mockBoosts, testConfig())

	// Two and a half weeks since the last credit: two whole weeks accrue,
	// the half week keeps its phase
	lastCredit := time.Now().UTC().Add(-17*24*time.Hour - 12*time.Hour)
	account := &models.Account{
		UserID:             1,
		Balance:            500,
		LastWeeklyCreditAt: lastCredit,
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockAccountRepo.On("Credit", ctx, int64(1), int64(200)).Return(int64(700), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.MatchedBy(func(a *models.Account) bool {
		return a.LastWeeklyCreditAt.Equal(lastCredit.Add(14 * 24 * time.Hour))
	})).Return(nil)

	balance, err := service.GetBalance(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(700), balance)
	mockAccountRepo.AssertExpectations(t)
}

func TestAccountService_GetBalance_WeeklyBoostPublishesEvent(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, mockPublisher, mockBoosts := setupAccountMocks()

	service := NewAccountService(mockFactory, mockBoosts, testConfig())

	eventID := int64(7)
	account := &models.Account{
		UserID:             1,
		Balance:            500,
		LastWeeklyCreditAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
	}

	mockBoosts.On("CurrentBoost", ctx).Return(models.EventBoost{Multiplier: 1.5, EventID: &eventID}, nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)

	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(1)).Return(account, nil)
	mockAccountRepo.On("Credit", ctx, int64(1), int64(150)).Return(int64(650), nil)
	mockAccountRepo.On("UpdateBonusState", ctx, mock.Anything).Return(nil)

	mockPublisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		ev, ok := e.(events.BonusGrantedEvent)
		return ok && ev.Kind == events.BonusKindWeekly &&
			ev.BaseAmount == 100 && ev.ActualAmount == 150
	})).Return()

	balance, err := service.GetBalance(ctx, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(650), balance)
	mockPublisher.AssertExpectations(t)
}

func TestAccountService_GetBalance_UnknownUser(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockAccountRepo, _, mockBoosts := setupAccountMocks()

	service := NewAccountService(mockFactory, mockBoosts, testConfig())

	mockBoosts.On("CurrentBoost", ctx).Return(models.NeutralBoost(), nil)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAccountRepo.On("GetByUserIDForUpdate", ctx, int64(404)).Return(nil, nil)

	balance, err := service.GetBalance(ctx, 404)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, balance)
}
