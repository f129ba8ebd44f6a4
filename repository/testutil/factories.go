package testutil

import (
	"context"
	"testing"
	"time"

	"chipbank/models"

	"github.com/stretchr/testify/require"
)

// AccountCreator matches the repository method used to seed accounts
type AccountCreator interface {
	Create(ctx context.Context, userID int64, startingBalance int64) (*models.Account, error)
}

// SeedAccount provisions an account through the repository under test
func SeedAccount(t *testing.T, repo AccountCreator, userID int64, balance int64) *models.Account {
	t.Helper()
	account, err := repo.Create(context.Background(), userID, balance)
	require.NoError(t, err)
	require.NotNil(t, account)
	return account
}

// CreateTestSession builds an open session with default values
func CreateTestSession(hostID int64, joinCode string) *models.GameSession {
	return &models.GameSession{
		HostID:   hostID,
		JoinCode: joinCode,
		Name:     "Friday night",
		Notes:    "test game",
	}
}

// CreateTestParticipant builds an unsettled participant row
func CreateTestParticipant(userID, gameSessionID int64, buyIn int64) *models.Participant {
	return &models.Participant{
		UserID:        userID,
		GameSessionID: gameSessionID,
		BuyIn:         buyIn,
	}
}

// CreateTestTransfer builds a transfer between two seeded accounts
func CreateTestTransfer(senderID, receiverID int64, amount int64) *models.Transfer {
	return &models.Transfer{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
	}
}

// DaysAgo returns the UTC calendar day the given number of days in the past
func DaysAgo(days int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, -days)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}
