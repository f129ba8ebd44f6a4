package repository

import (
	"context"
	"fmt"
	"time"

	"chipbank/database"
	"chipbank/models"

	"github.com/jackc/pgx/v5"
)

// ParticipantRepository implements the service.ParticipantRepository interface
type ParticipantRepository struct {
	q Queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

// newParticipantRepositoryWithTx creates a new participant repository bound to a transaction
func newParticipantRepositoryWithTx(tx Queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

const participantColumns = `
	id, user_id, game_session_id, buy_in, cash_out, net_result,
	cashed_out_at, leave_requested_at, created_at
`

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.GameSessionID,
		&p.BuyIn,
		&p.CashOut,
		&p.NetResult,
		&p.CashedOutAt,
		&p.LeaveRequestedAt,
		&p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) queryParticipants(ctx context.Context, query string, args ...any) ([]*models.Participant, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		var p models.Participant
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.GameSessionID,
			&p.BuyIn,
			&p.CashOut,
			&p.NetResult,
			&p.CashedOutAt,
			&p.LeaveRequestedAt,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// Create persists a new participant row
func (r *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (user_id, game_session_id, buy_in)
		VALUES ($1, $2, $3)
		RETURNING id, cash_out, net_result, created_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.UserID,
		participant.GameSessionID,
		participant.BuyIn,
	).Scan(&participant.ID, &participant.CashOut, &participant.NetResult, &participant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create participant for user %d in game %d: %w",
			participant.UserID, participant.GameSessionID, err)
	}

	return nil
}

// GetByGameAndUser retrieves a participant row, or nil when the user never joined
func (r *ParticipantRepository) GetByGameAndUser(ctx context.Context, gameSessionID, userID int64) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE game_session_id = $1 AND user_id = $2`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, gameSessionID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get participant for user %d in game %d: %w", userID, gameSessionID, err)
	}
	return p, nil
}

// GetByGameAndUserForUpdate retrieves a participant row holding its row lock
func (r *ParticipantRepository) GetByGameAndUserForUpdate(ctx context.Context, gameSessionID, userID int64) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE game_session_id = $1 AND user_id = $2 FOR UPDATE`

	p, err := scanParticipant(r.q.QueryRow(ctx, query, gameSessionID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock participant for user %d in game %d: %w", userID, gameSessionID, err)
	}
	return p, nil
}

// GetByGame returns all participants of a session
func (r *ParticipantRepository) GetByGame(ctx context.Context, gameSessionID int64) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE game_session_id = $1 ORDER BY id`

	participants, err := r.queryParticipants(ctx, query, gameSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants for game %d: %w", gameSessionID, err)
	}
	return participants, nil
}

// GetByGameForUpdate locks every participant row of a session in ID order.
// The pot computed from these rows is authoritative for the transaction.
func (r *ParticipantRepository) GetByGameForUpdate(ctx context.Context, gameSessionID int64) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE game_session_id = $1 ORDER BY id FOR UPDATE`

	participants, err := r.queryParticipants(ctx, query, gameSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock participants for game %d: %w", gameSessionID, err)
	}
	return participants, nil
}

// AddBuyIn increments a participant's cumulative buy-in.
// Precondition: the caller holds the participant's row lock.
func (r *ParticipantRepository) AddBuyIn(ctx context.Context, participantID int64, amount int64) (int64, error) {
	query := `
		UPDATE participants
		SET buy_in = buy_in + $1
		WHERE id = $2 AND cashed_out_at IS NULL
		RETURNING buy_in
	`

	var newBuyIn int64
	err := r.q.QueryRow(ctx, query, amount, participantID).Scan(&newBuyIn)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("participant %d not found or already cashed out", participantID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add buy-in for participant %d: %w", participantID, err)
	}

	return newBuyIn, nil
}

// SetLeaveRequested stamps the informational leave request
func (r *ParticipantRepository) SetLeaveRequested(ctx context.Context, participantID int64, at time.Time) error {
	query := `
		UPDATE participants
		SET leave_requested_at = $1
		WHERE id = $2 AND leave_requested_at IS NULL AND cashed_out_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, at, participantID)
	if err != nil {
		return fmt.Errorf("failed to set leave request for participant %d: %w", participantID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d cannot request leave", participantID)
	}

	return nil
}

// Settle writes a participant's final cash-out and net result. The
// cashed_out_at guard makes a settlement terminal.
func (r *ParticipantRepository) Settle(ctx context.Context, participantID int64, cashOut, netResult int64, at time.Time) error {
	query := `
		UPDATE participants
		SET cash_out = $1, net_result = $2, cashed_out_at = $3
		WHERE id = $4 AND cashed_out_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, cashOut, netResult, at, participantID)
	if err != nil {
		return fmt.Errorf("failed to settle participant %d: %w", participantID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d already settled", participantID)
	}

	return nil
}
