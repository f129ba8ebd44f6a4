package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"chipbank/events"
	"chipbank/models"
)

// gameService owns the pot of a session from buy-in to settlement. Every
// operation locks rows in the same order -- session, then participants, then
// accounts -- so concurrent settlement operations cannot deadlock, and all
// pot arithmetic happens against the locked rows.
type gameService struct {
	uowFactory UnitOfWorkFactory
	rng        *rand.Rand
}

// NewGameService creates a new game settlement service
func NewGameService(uowFactory UnitOfWorkFactory) GameService {
	return &gameService{
		uowFactory: uowFactory,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// availablePot returns total buy-ins minus what early cash-outs already took
func availablePot(participants []*models.Participant) int64 {
	var pot int64
	for _, p := range participants {
		pot += p.BuyIn
		if p.IsCashedOut() {
			pot -= p.CashOut
		}
	}
	return pot
}

// CreateGame opens a session with a fresh join code and auto-joins the host
// at a zero buy-in
func (s *gameService) CreateGame(ctx context.Context, hostID int64, name, notes string) (*models.GameSession, error) {
	var session *models.GameSession

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		host, err := uow.AccountRepository().GetByUserID(ctx, hostID)
		if err != nil {
			return fmt.Errorf("failed to get host account: %w", err)
		}
		if host == nil {
			return ErrUserNotFound
		}

		joinCode, err := generateUniqueJoinCode(ctx, uow.GameSessionRepository(), s.rng)
		if err != nil {
			return err
		}

		session = &models.GameSession{
			HostID:   hostID,
			JoinCode: joinCode,
			Name:     name,
			Notes:    notes,
		}
		if err := uow.GameSessionRepository().Create(ctx, session); err != nil {
			return fmt.Errorf("failed to create game session: %w", err)
		}

		hostParticipant := &models.Participant{
			UserID:        hostID,
			GameSessionID: session.ID,
			BuyIn:         0,
		}
		if err := uow.ParticipantRepository().Create(ctx, hostParticipant); err != nil {
			return fmt.Errorf("failed to add host participant: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Join adds a user to an open session, debiting the buy-in in the same
// transaction that creates the participant row
func (s *gameService) Join(ctx context.Context, joinCode string, userID int64, buyIn int64) (*models.Participant, error) {
	if buyIn < 0 {
		return nil, ErrInvalidAmount
	}

	var participant *models.Participant

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		session, err := uow.GameSessionRepository().GetByJoinCodeForUpdate(ctx, joinCode)
		if err != nil {
			return fmt.Errorf("failed to lock game session: %w", err)
		}
		if session == nil {
			return ErrGameNotFound
		}
		if !session.IsActive {
			return ErrGameInactive
		}

		existing, err := uow.ParticipantRepository().GetByGameAndUser(ctx, session.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to check existing participant: %w", err)
		}
		if existing != nil {
			return ErrAlreadyJoined
		}

		account, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return ErrUserNotFound
		}

		if buyIn > 0 {
			if account.Balance < buyIn {
				return ErrInsufficientBalance
			}
			if _, err := uow.AccountRepository().Debit(ctx, userID, buyIn); err != nil {
				return fmt.Errorf("failed to debit buy-in: %w", err)
			}
		}

		participant = &models.Participant{
			UserID:        userID,
			GameSessionID: session.ID,
			BuyIn:         buyIn,
		}
		if err := uow.ParticipantRepository().Create(ctx, participant); err != nil {
			return fmt.Errorf("failed to create participant: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return participant, nil
}

// Rebuy debits an additional buy-in for a participant who has not cashed out
func (s *gameService) Rebuy(ctx context.Context, gameSessionID, userID int64, amount int64) (*models.Participant, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var participant *models.Participant

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		session, err := uow.GameSessionRepository().GetByIDForUpdate(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to lock game session: %w", err)
		}
		if session == nil {
			return ErrGameNotFound
		}
		if !session.IsActive {
			return ErrGameInactive
		}

		participant, err = uow.ParticipantRepository().GetByGameAndUserForUpdate(ctx, gameSessionID, userID)
		if err != nil {
			return fmt.Errorf("failed to lock participant: %w", err)
		}
		if participant == nil {
			return ErrNotParticipant
		}
		if participant.IsCashedOut() {
			return ErrAlreadyCashedOut
		}

		account, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return ErrUserNotFound
		}
		if account.Balance < amount {
			return ErrInsufficientBalance
		}

		if _, err := uow.AccountRepository().Debit(ctx, userID, amount); err != nil {
			return fmt.Errorf("failed to debit rebuy: %w", err)
		}

		newBuyIn, err := uow.ParticipantRepository().AddBuyIn(ctx, participant.ID, amount)
		if err != nil {
			return fmt.Errorf("failed to add buy-in: %w", err)
		}
		participant.BuyIn = newBuyIn

		return nil
	})
	if err != nil {
		return nil, err
	}

	return participant, nil
}

// RequestLeave flags a participant as wanting to be cashed out by the host.
// Purely informational: no chips move until the host acts on it.
func (s *gameService) RequestLeave(ctx context.Context, gameSessionID, userID int64) error {
	return runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		session, err := uow.GameSessionRepository().GetByIDForUpdate(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to lock game session: %w", err)
		}
		if session == nil {
			return ErrGameNotFound
		}
		if !session.IsActive {
			return ErrGameInactive
		}
		if session.HostID == userID {
			return ErrHostCannotLeave
		}

		participant, err := uow.ParticipantRepository().GetByGameAndUserForUpdate(ctx, gameSessionID, userID)
		if err != nil {
			return fmt.Errorf("failed to lock participant: %w", err)
		}
		if participant == nil {
			return ErrNotParticipant
		}
		if participant.IsCashedOut() {
			return ErrAlreadyCashedOut
		}
		if participant.HasRequestedLeave() {
			return ErrLeaveAlreadyRequested
		}

		if err := uow.ParticipantRepository().SetLeaveRequested(ctx, participant.ID, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to set leave request: %w", err)
		}

		return nil
	})
}

// EarlyCashOut settles one participant before the session closes. The
// available pot is recomputed from the locked participant rows, so no
// concurrent rebuy or cash-out can be missed, and the payout can never
// exceed what the pot still holds.
func (s *gameService) EarlyCashOut(ctx context.Context, gameSessionID, hostID, participantUserID int64, cashOutAmount int64) (*models.CashOutResult, error) {
	if cashOutAmount < 0 {
		return nil, ErrInvalidAmount
	}

	var result *models.CashOutResult

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		session, err := uow.GameSessionRepository().GetByIDForUpdate(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to lock game session: %w", err)
		}
		if session == nil {
			return ErrGameNotFound
		}
		if !session.IsActive {
			return ErrGameAlreadyClosed
		}
		if session.HostID != hostID {
			return ErrNotHost
		}

		participants, err := uow.ParticipantRepository().GetByGameForUpdate(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to lock participants: %w", err)
		}

		var target *models.Participant
		for _, p := range participants {
			if p.UserID == participantUserID {
				target = p
				break
			}
		}
		if target == nil {
			return ErrNotParticipant
		}
		if target.IsCashedOut() {
			return ErrAlreadyCashedOut
		}

		if cashOutAmount > availablePot(participants) {
			return ErrExceedsPot
		}

		account, err := uow.AccountRepository().GetByUserIDForUpdate(ctx, participantUserID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return ErrUserNotFound
		}

		newBalance := account.Balance
		if cashOutAmount > 0 {
			newBalance, err = uow.AccountRepository().Credit(ctx, participantUserID, cashOutAmount)
			if err != nil {
				return fmt.Errorf("failed to credit cash-out: %w", err)
			}
		}

		now := time.Now().UTC()
		netResult := cashOutAmount - target.BuyIn
		if err := uow.ParticipantRepository().Settle(ctx, target.ID, cashOutAmount, netResult, now); err != nil {
			return fmt.Errorf("failed to settle participant: %w", err)
		}

		target.CashOut = cashOutAmount
		target.NetResult = netResult
		target.CashedOutAt = &now

		result = &models.CashOutResult{
			Participant: target,
			NewBalance:  newBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Close settles every remaining active participant and closes the session.
// The submitted cash-outs must sum to the remaining pot exactly -- this is
// the conservation check that keeps the chip supply from changing anywhere
// except the bonus minting points. Active participants missing from results
// are settled at zero.
func (s *gameService) Close(ctx context.Context, gameSessionID, hostID int64, results []CashOutRequest) (*models.GameSettlement, error) {
	requested := make(map[int64]int64, len(results))
	for _, r := range results {
		if r.CashOut < 0 {
			return nil, ErrInvalidAmount
		}
		requested[r.UserID] = r.CashOut
	}

	var settlement *models.GameSettlement

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		session, err := uow.GameSessionRepository().GetByIDForUpdate(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to lock game session: %w", err)
		}
		if session == nil {
			return ErrGameNotFound
		}
		if !session.IsActive {
			return ErrGameAlreadyClosed
		}
		if session.HostID != hostID {
			return ErrNotHost
		}

		participants, err := uow.ParticipantRepository().GetByGameForUpdate(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to lock participants: %w", err)
		}

		remainingPot := availablePot(participants)

		// Only cash-outs for still-active participants count toward the pot
		var requestedTotal int64
		for _, p := range participants {
			if p.IsCashedOut() {
				continue
			}
			requestedTotal += requested[p.UserID]
		}
		if requestedTotal != remainingPot {
			return ErrCashoutMismatch
		}

		// Credited accounts lock in ascending user ID order, the same rule
		// transfers follow, so a close racing a transfer cannot deadlock.
		var creditUserIDs []int64
		for _, p := range participants {
			if p.IsCashedOut() || requested[p.UserID] == 0 {
				continue
			}
			creditUserIDs = append(creditUserIDs, p.UserID)
		}
		if len(creditUserIDs) > 0 {
			accounts, err := uow.AccountRepository().GetManyForUpdate(ctx, creditUserIDs)
			if err != nil {
				return fmt.Errorf("failed to lock accounts: %w", err)
			}
			if len(accounts) != len(creditUserIDs) {
				return ErrUserNotFound
			}
		}

		now := time.Now().UTC()
		userIDs := make([]int64, 0, len(participants))
		var totalPot int64

		for _, p := range participants {
			userIDs = append(userIDs, p.UserID)
			totalPot += p.BuyIn

			if p.IsCashedOut() {
				continue
			}

			amount := requested[p.UserID]

			if amount > 0 {
				if _, err := uow.AccountRepository().Credit(ctx, p.UserID, amount); err != nil {
					return fmt.Errorf("failed to credit final cash-out: %w", err)
				}
			}

			netResult := amount - p.BuyIn
			if err := uow.ParticipantRepository().Settle(ctx, p.ID, amount, netResult, now); err != nil {
				return fmt.Errorf("failed to settle participant: %w", err)
			}

			p.CashOut = amount
			p.NetResult = netResult
			p.CashedOutAt = &now
		}

		if err := uow.GameSessionRepository().MarkClosed(ctx, gameSessionID); err != nil {
			return fmt.Errorf("failed to close game session: %w", err)
		}
		session.IsActive = false

		uow.EventBus().Publish(events.GameClosedEvent{
			GameSessionID: gameSessionID,
			HostID:        hostID,
			UserIDs:       userIDs,
			TotalPot:      totalPot,
		})

		settlement = &models.GameSettlement{
			Session:      session,
			Participants: participants,
			TotalPot:     totalPot,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return settlement, nil
}

// GetGame returns a session and its participants
func (s *gameService) GetGame(ctx context.Context, gameSessionID int64) (*models.GameSession, []*models.Participant, error) {
	var session *models.GameSession
	var participants []*models.Participant

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		var err error
		session, err = uow.GameSessionRepository().GetByID(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to get game session: %w", err)
		}
		if session == nil {
			return ErrGameNotFound
		}

		participants, err = uow.ParticipantRepository().GetByGame(ctx, gameSessionID)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return session, participants, nil
}

// GetGameByCode resolves a join code to its session and participants. Closed
// sessions still resolve so their final settlement stays visible.
func (s *gameService) GetGameByCode(ctx context.Context, joinCode string) (*models.GameSession, []*models.Participant, error) {
	var session *models.GameSession
	var participants []*models.Participant

	err := runInTx(ctx, s.uowFactory, func(uow UnitOfWork) error {
		var err error
		session, err = uow.GameSessionRepository().GetByJoinCode(ctx, joinCode)
		if err != nil {
			return fmt.Errorf("failed to get game session: %w", err)
		}
		if session == nil {
			return ErrGameNotFound
		}

		participants, err = uow.ParticipantRepository().GetByGame(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to get participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return session, participants, nil
}
