package repository

import (
	"context"
	"fmt"

	"chipbank/database"
	"chipbank/models"
	"chipbank/service"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository bound to a transaction
func newAccountRepositoryWithTx(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `
	user_id, balance, login_streak, last_weekly_credit_at,
	last_login_date, last_spin_date, created_at, updated_at
`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.UserID,
		&account.Balance,
		&account.LoginStreak,
		&account.LastWeeklyCreditAt,
		&account.LastLoginDate,
		&account.LastSpinDate,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUserID retrieves an account by user ID, or nil when none exists
func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	return account, nil
}

// GetByUserIDForUpdate retrieves an account holding its exclusive row lock
// for the rest of the transaction
func (r *AccountRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", userID, err)
	}
	return account, nil
}

// GetManyForUpdate locks multiple accounts in ascending user ID order. The
// fixed order is what makes opposing transfers deadlock-free.
func (r *AccountRepository) GetManyForUpdate(ctx context.Context, userIDs []int64) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = ANY($1)
		ORDER BY user_id
		FOR UPDATE
	`

	rows, err := r.q.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts %v: %w", userIDs, err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.UserID,
			&account.Balance,
			&account.LoginStreak,
			&account.LastWeeklyCreditAt,
			&account.LastLoginDate,
			&account.LastSpinDate,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Create creates a new account with the starting balance
func (r *AccountRepository) Create(ctx context.Context, userID int64, startingBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (user_id, balance)
		VALUES ($1, $2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, userID, startingBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", userID, err)
	}
	return account, nil
}

// Credit increments an account's balance and returns the new balance.
// Precondition: the caller holds the account's row lock in this transaction.
func (r *AccountRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, service.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit account %d: %w", userID, err)
	}

	return newBalance, nil
}

// Debit decrements an account's balance and returns the new balance. The SQL
// guard rejects the update when the balance is short, so the balance can
// never go negative even if a caller skipped its own check.
// Precondition: the caller holds the account's row lock in this transaction.
func (r *AccountRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		// Distinguish a missing account from a short balance
		account, getErr := r.GetByUserID(ctx, userID)
		if getErr != nil {
			return 0, fmt.Errorf("failed to check account %d: %w", userID, getErr)
		}
		if account == nil {
			return 0, service.ErrUserNotFound
		}
		return 0, service.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit account %d: %w", userID, err)
	}

	return newBalance, nil
}

// UpdateBonusState persists the bonus bookkeeping fields after a grant.
// Precondition: the caller holds the account's row lock in this transaction.
func (r *AccountRepository) UpdateBonusState(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET login_streak = $1,
		    last_weekly_credit_at = $2,
		    last_login_date = $3,
		    last_spin_date = $4,
		    updated_at = NOW()
		WHERE user_id = $5
	`

	result, err := r.q.Exec(ctx, query,
		account.LoginStreak,
		account.LastWeeklyCreditAt,
		account.LastLoginDate,
		account.LastSpinDate,
		account.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bonus state for account %d: %w", account.UserID, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}
