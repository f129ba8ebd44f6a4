package repository

import (
	"context"
	"fmt"

	"chipbank/database"
	"chipbank/models"

	"github.com/jackc/pgx/v5"
)

// GameSessionRepository implements the service.GameSessionRepository interface
type GameSessionRepository struct {
	q Queryable
}

// NewGameSessionRepository creates a new game session repository
func NewGameSessionRepository(db *database.DB) *GameSessionRepository {
	return &GameSessionRepository{q: db.Pool}
}

// newGameSessionRepositoryWithTx creates a new game session repository bound to a transaction
func newGameSessionRepositoryWithTx(tx Queryable) *GameSessionRepository {
	return &GameSessionRepository{q: tx}
}

const gameSessionColumns = `id, host_id, join_code, is_active, name, notes, date, created_at`

func scanGameSession(row pgx.Row) (*models.GameSession, error) {
	var session models.GameSession
	err := row.Scan(
		&session.ID,
		&session.HostID,
		&session.JoinCode,
		&session.IsActive,
		&session.Name,
		&session.Notes,
		&session.Date,
		&session.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Create persists a new open session and fills in its generated fields
func (r *GameSessionRepository) Create(ctx context.Context, session *models.GameSession) error {
	query := `
		INSERT INTO game_sessions (host_id, join_code, name, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, date, created_at
	`

	err := r.q.QueryRow(ctx, query,
		session.HostID,
		session.JoinCode,
		session.Name,
		session.Notes,
	).Scan(&session.ID, &session.IsActive, &session.Date, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game session for host %d: %w", session.HostID, err)
	}

	return nil
}

// GetByID retrieves a session by ID, or nil when none exists
func (r *GameSessionRepository) GetByID(ctx context.Context, id int64) (*models.GameSession, error) {
	query := `SELECT ` + gameSessionColumns + ` FROM game_sessions WHERE id = $1`

	session, err := scanGameSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get game session %d: %w", id, err)
	}
	return session, nil
}

// GetByIDForUpdate retrieves a session holding its row lock. Every settlement
// operation takes this lock before touching participants or accounts.
func (r *GameSessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.GameSession, error) {
	query := `SELECT ` + gameSessionColumns + ` FROM game_sessions WHERE id = $1 FOR UPDATE`

	session, err := scanGameSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock game session %d: %w", id, err)
	}
	return session, nil
}

// GetByJoinCode retrieves a session by join code without locking it. Used
// for discovery reads; mutating paths take GetByJoinCodeForUpdate instead.
func (r *GameSessionRepository) GetByJoinCode(ctx context.Context, joinCode string) (*models.GameSession, error) {
	query := `SELECT ` + gameSessionColumns + ` FROM game_sessions WHERE join_code = $1`

	session, err := scanGameSession(r.q.QueryRow(ctx, query, joinCode))
	if err != nil {
		return nil, fmt.Errorf("failed to get game session with code %s: %w", joinCode, err)
	}
	return session, nil
}

// GetByJoinCodeForUpdate retrieves a session by join code holding its row
// lock. Callers re-validate is_active under the lock.
func (r *GameSessionRepository) GetByJoinCodeForUpdate(ctx context.Context, joinCode string) (*models.GameSession, error) {
	query := `SELECT ` + gameSessionColumns + ` FROM game_sessions WHERE join_code = $1 FOR UPDATE`

	session, err := scanGameSession(r.q.QueryRow(ctx, query, joinCode))
	if err != nil {
		return nil, fmt.Errorf("failed to lock game session with code %s: %w", joinCode, err)
	}
	return session, nil
}

// JoinCodeExists reports whether any session already uses the code. The
// unique index on join_code is the authoritative guard; this check keeps the
// generator's retry loop cheap.
func (r *GameSessionRepository) JoinCodeExists(ctx context.Context, joinCode string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM game_sessions WHERE join_code = $1)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, joinCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check join code %s: %w", joinCode, err)
	}
	return exists, nil
}

// MarkClosed flips the session to closed. The is_active guard makes the
// open -> closed transition happen at most once.
func (r *GameSessionRepository) MarkClosed(ctx context.Context, id int64) error {
	query := `
		UPDATE game_sessions
		SET is_active = FALSE
		WHERE id = $1 AND is_active
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to close game session %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("game session %d is not open", id)
	}

	return nil
}
