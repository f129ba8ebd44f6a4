package repository

import (
	"context"
	"fmt"

	"chipbank/database"
	"chipbank/models"
)

// TransferRepository implements the service.TransferRepository interface
type TransferRepository struct {
	q Queryable
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *database.DB) *TransferRepository {
	return &TransferRepository{q: db.Pool}
}

// newTransferRepositoryWithTx creates a new transfer repository bound to a transaction
func newTransferRepositoryWithTx(tx Queryable) *TransferRepository {
	return &TransferRepository{q: tx}
}

// Create persists a transfer record. Always called in the same transaction
// as the debit and credit it describes.
func (r *TransferRepository) Create(ctx context.Context, transfer *models.Transfer) error {
	query := `
		INSERT INTO transfers (sender_id, receiver_id, amount, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		transfer.SenderID,
		transfer.ReceiverID,
		transfer.Amount,
		transfer.Note,
	).Scan(&transfer.ID, &transfer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transfer from %d to %d: %w", transfer.SenderID, transfer.ReceiverID, err)
	}

	return nil
}

// GetByUser returns the most recent transfers a user sent or received
func (r *TransferRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transfer, error) {
	query := `
		SELECT id, sender_id, receiver_id, amount, note, created_at
		FROM transfers
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers for user %d: %w", userID, err)
	}
	defer rows.Close()

	var transfers []*models.Transfer
	for rows.Next() {
		var transfer models.Transfer
		err := rows.Scan(
			&transfer.ID,
			&transfer.SenderID,
			&transfer.ReceiverID,
			&transfer.Amount,
			&transfer.Note,
			&transfer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, &transfer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transfers: %w", err)
	}

	return transfers, nil
}
