package service

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRandomJoinCode(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		code := randomJoinCode(r)

		assert.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, joinCodeAlphabet, string(c))
		}
		// Ambiguous symbols never appear
		assert.False(t, strings.ContainsAny(code, "0OI"), "code %q contains an ambiguous symbol", code)

		seen[code] = true
	}

	// 500 draws from a 33^6 space should essentially never collide
	assert.Greater(t, len(seen), 495)
}

func TestGenerateUniqueJoinCode_RetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	r := rand.New(rand.NewSource(1))

	mockSessionRepo := new(MockGameSessionRepository)
	mockSessionRepo.On("JoinCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	mockSessionRepo.On("JoinCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()

	code, err := generateUniqueJoinCode(ctx, mockSessionRepo, r)

	require.NoError(t, err)
	assert.Len(t, code, 6)
	mockSessionRepo.AssertNumberOfCalls(t, "JoinCodeExists", 2)
}

func TestGenerateUniqueJoinCode_Exhaustion(t *testing.T) {
	ctx := context.Background()
	r := rand.New(rand.NewSource(1))

	mockSessionRepo := new(MockGameSessionRepository)
	mockSessionRepo.On("JoinCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil)

	code, err := generateUniqueJoinCode(ctx, mockSessionRepo, r)

	assert.Error(t, err)
	assert.Empty(t, code)
	mockSessionRepo.AssertNumberOfCalls(t, "JoinCodeExists", joinCodeMaxAttempts)
}
