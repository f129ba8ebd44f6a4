package service

import (
	"context"
	"fmt"
	"math/rand"
)

const (
	joinCodeLength = 6

	// 33 symbols; 0, O and I are excluded so codes survive being read aloud
	// or scribbled on a napkin
	joinCodeAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	joinCodeMaxAttempts = 10
)

// randomJoinCode draws a code from the ambiguity-free alphabet
func randomJoinCode(r *rand.Rand) string {
	code := make([]byte, joinCodeLength)
	for i := range code {
		code[i] = joinCodeAlphabet[r.Intn(len(joinCodeAlphabet))]
	}
	return string(code)
}

// generateUniqueJoinCode draws codes until one is unused. With 33^6 possible
// codes, exhausting the attempts means the sessions table is pathologically
// full; that is an operational fault, not a user error, so it is not coded.
func generateUniqueJoinCode(ctx context.Context, sessions GameSessionRepository, r *rand.Rand) (string, error) {
	for attempt := 0; attempt < joinCodeMaxAttempts; attempt++ {
		code := randomJoinCode(r)

		exists, err := sessions.JoinCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check join code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique join code after %d attempts", joinCodeMaxAttempts)
}
