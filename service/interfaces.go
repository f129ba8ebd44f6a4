package service

import (
	"context"
	"time"

	"chipbank/events"
	"chipbank/models"
)

// AccountRepository defines the interface for account data access.
// Credit, Debit and UpdateBonusState require the caller to already hold the
// account's row lock inside the active transaction; they are not
// independently safe.
type AccountRepository interface {
	// GetByUserID retrieves an account by user ID, or nil when none exists
	GetByUserID(ctx context.Context, userID int64) (*models.Account, error)

	// GetByUserIDForUpdate retrieves an account holding its exclusive row lock
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Account, error)

	// GetManyForUpdate locks multiple accounts in ascending user ID order
	GetManyForUpdate(ctx context.Context, userIDs []int64) ([]*models.Account, error)

	// Create creates a new account with the starting balance
	Create(ctx context.Context, userID int64, startingBalance int64) (*models.Account, error)

	// Credit increments the balance and returns the new balance
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)

	// Debit decrements the balance, failing with ErrInsufficientBalance when short
	Debit(ctx context.Context, userID int64, amount int64) (int64, error)

	// UpdateBonusState persists streak and grant-timestamp fields
	UpdateBonusState(ctx context.Context, account *models.Account) error
}

// TransferRepository defines the interface for transfer data access
type TransferRepository interface {
	// Create persists a transfer record in the current transaction
	Create(ctx context.Context, transfer *models.Transfer) error

	// GetByUser returns the most recent transfers a user sent or received
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transfer, error)
}

// GameSessionRepository defines the interface for game session data access
type GameSessionRepository interface {
	// Create persists a new open session
	Create(ctx context.Context, session *models.GameSession) error

	// GetByID retrieves a session by ID, or nil when none exists
	GetByID(ctx context.Context, id int64) (*models.GameSession, error)

	// GetByIDForUpdate retrieves a session holding its row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*models.GameSession, error)

	// GetByJoinCode retrieves a session by join code without locking it
	GetByJoinCode(ctx context.Context, joinCode string) (*models.GameSession, error)

	// GetByJoinCodeForUpdate retrieves an active session by join code holding its row lock
	GetByJoinCodeForUpdate(ctx context.Context, joinCode string) (*models.GameSession, error)

	// JoinCodeExists reports whether any session already uses the code
	JoinCodeExists(ctx context.Context, joinCode string) (bool, error)

	// MarkClosed flips an open session to closed, exactly once
	MarkClosed(ctx context.Context, id int64) error
}

// ParticipantRepository defines the interface for participant data access
type ParticipantRepository interface {
	// Create persists a new participant row
	Create(ctx context.Context, participant *models.Participant) error

	// GetByGameAndUser retrieves a participant row, or nil when the user never joined
	GetByGameAndUser(ctx context.Context, gameSessionID, userID int64) (*models.Participant, error)

	// GetByGameAndUserForUpdate retrieves a participant row holding its row lock
	GetByGameAndUserForUpdate(ctx context.Context, gameSessionID, userID int64) (*models.Participant, error)

	// GetByGame returns all participants of a session
	GetByGame(ctx context.Context, gameSessionID int64) ([]*models.Participant, error)

	// GetByGameForUpdate locks every participant row of a session in ID order
	GetByGameForUpdate(ctx context.Context, gameSessionID int64) ([]*models.Participant, error)

	// AddBuyIn increments a participant's cumulative buy-in
	AddBuyIn(ctx context.Context, participantID int64, amount int64) (int64, error)

	// SetLeaveRequested stamps the informational leave request
	SetLeaveRequested(ctx context.Context, participantID int64, at time.Time) error

	// Settle writes the final cash-out and net result, exactly once
	Settle(ctx context.Context, participantID int64, cashOut, netResult int64, at time.Time) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// BoostProvider is the read-only view of the promotional event subsystem.
// The lookup happens before the granting transaction begins.
type BoostProvider interface {
	// CurrentBoost returns the active multiplier, flat bonus and event ID
	CurrentBoost(ctx context.Context) (models.EventBoost, error)
}

// AccountService defines the interface for account operations
type AccountService interface {
	// GetOrCreateAccount retrieves an account or provisions it with the starting balance
	GetOrCreateAccount(ctx context.Context, userID int64) (*models.Account, error)

	// GetBalance returns the balance after applying any pending weekly accrual
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

// TransferService defines the interface for chip transfers
type TransferService interface {
	// Transfer moves amount from sender to receiver atomically
	Transfer(ctx context.Context, senderID, receiverID int64, amount int64, note *string) (*models.TransferResult, error)

	// GetHistory returns the most recent transfers involving the user
	GetHistory(ctx context.Context, userID int64, limit int) ([]*models.Transfer, error)
}

// BonusService defines the interface for the periodic bonus grants
type BonusService interface {
	// ClaimDaily grants the daily streak bonus, idempotent per UTC calendar day
	ClaimDaily(ctx context.Context, userID int64) (*models.DailyClaimResult, error)

	// Spin grants the weighted lucky-spin reward, once per UTC calendar day
	Spin(ctx context.Context, userID int64) (*models.SpinResult, error)
}

// GameService defines the interface for the game settlement engine
type GameService interface {
	// CreateGame opens a session with a fresh join code and the host auto-joined
	CreateGame(ctx context.Context, hostID int64, name, notes string) (*models.GameSession, error)

	// Join adds a user to an open session, debiting the buy-in
	Join(ctx context.Context, joinCode string, userID int64, buyIn int64) (*models.Participant, error)

	// Rebuy debits an additional buy-in for an active participant
	Rebuy(ctx context.Context, gameSessionID, userID int64, amount int64) (*models.Participant, error)

	// RequestLeave flags a participant as wanting to be cashed out
	RequestLeave(ctx context.Context, gameSessionID, userID int64) error

	// EarlyCashOut settles one participant against the available pot, host only
	EarlyCashOut(ctx context.Context, gameSessionID, hostID, participantUserID int64, cashOutAmount int64) (*models.CashOutResult, error)

	// Close settles all remaining participants and closes the session, host only
	Close(ctx context.Context, gameSessionID, hostID int64, results []CashOutRequest) (*models.GameSettlement, error)

	// GetGame returns a session with its participants
	GetGame(ctx context.Context, gameSessionID int64) (*models.GameSession, []*models.Participant, error)

	// GetGameByCode resolves a join code to its session and participants
	GetGameByCode(ctx context.Context, joinCode string) (*models.GameSession, []*models.Participant, error)
}

// CashOutRequest names a participant's final chip count at close
type CashOutRequest struct {
	UserID  int64
	CashOut int64
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new serializable transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransferRepository() TransferRepository
	GameSessionRepository() GameSessionRepository
	ParticipantRepository() ParticipantRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
