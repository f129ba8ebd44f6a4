package service

import (
	"context"
	"time"

	"chipbank/events"
	"chipbank/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetManyForUpdate(ctx context.Context, userIDs []int64) ([]*models.Account, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, userID int64, startingBalance int64) (*models.Account, error) {
	args := m.Called(ctx, userID, startingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) UpdateBonusState(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockTransferRepository is a mock implementation of TransferRepository
type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func (m *MockTransferRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transfer, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transfer), args.Error(1)
}

// MockGameSessionRepository is a mock implementation of GameSessionRepository
type MockGameSessionRepository struct {
	mock.Mock
}

func (m *MockGameSessionRepository) Create(ctx context.Context, session *models.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockGameSessionRepository) GetByID(ctx context.Context, id int64) (*models.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetByJoinCode(ctx context.Context, joinCode string) (*models.GameSession, error) {
	args := m.Called(ctx, joinCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetByJoinCodeForUpdate(ctx context.Context, joinCode string) (*models.GameSession, error) {
	args := m.Called(ctx, joinCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) JoinCodeExists(ctx context.Context, joinCode string) (bool, error) {
	args := m.Called(ctx, joinCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockGameSessionRepository) MarkClosed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetByGameAndUser(ctx context.Context, gameSessionID, userID int64) (*models.Participant, error) {
	args := m.Called(ctx, gameSessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByGameAndUserForUpdate(ctx context.Context, gameSessionID, userID int64) (*models.Participant, error) {
	args := m.Called(ctx, gameSessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByGame(ctx context.Context, gameSessionID int64) ([]*models.Participant, error) {
	args := m.Called(ctx, gameSessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) GetByGameForUpdate(ctx context.Context, gameSessionID int64) ([]*models.Participant, error) {
	args := m.Called(ctx, gameSessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) AddBuyIn(ctx context.Context, participantID int64, amount int64) (int64, error) {
	args := m.Called(ctx, participantID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepository) SetLeaveRequested(ctx context.Context, participantID int64, at time.Time) error {
	args := m.Called(ctx, participantID, at)
	return args.Error(0)
}

func (m *MockParticipantRepository) Settle(ctx context.Context, participantID int64, cashOut, netResult int64, at time.Time) error {
	args := m.Called(ctx, participantID, cashOut, netResult, at)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockBoostProvider is a mock implementation of BoostProvider
type MockBoostProvider struct {
	mock.Mock
}

func (m *MockBoostProvider) CurrentBoost(ctx context.Context) (models.EventBoost, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.EventBoost), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected via SetRepositories rather than mocked getters so tests read less
// noisily.
type MockUnitOfWork struct {
	mock.Mock

	accountRepo     AccountRepository
	transferRepo    TransferRepository
	gameSessionRepo GameSessionRepository
	participantRepo ParticipantRepository
	eventBus        EventPublisher
}

// SetRepositories wires the repository mocks returned by the getters. Nil
// arguments are fine for repositories a test never touches.
func (m *MockUnitOfWork) SetRepositories(
	accounts AccountRepository,
	transfers TransferRepository,
	sessions GameSessionRepository,
	participants ParticipantRepository,
	bus EventPublisher,
) {
	m.accountRepo = accounts
	m.transferRepo = transfers
	m.gameSessionRepo = sessions
	m.participantRepo = participants
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TransferRepository() TransferRepository {
	return m.transferRepo
}

func (m *MockUnitOfWork) GameSessionRepository() GameSessionRepository {
	return m.gameSessionRepo
}

func (m *MockUnitOfWork) ParticipantRepository() ParticipantRepository {
	return m.participantRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
