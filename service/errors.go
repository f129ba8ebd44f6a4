package service

// Error is a domain error carrying the stable code the API layer maps onto
// its error envelope. Sentinels below are compared with errors.Is.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// Account store
	ErrUserNotFound        = &Error{Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrInsufficientBalance = &Error{Code: "INSUFFICIENT_BALANCE", Message: "insufficient balance"}

	// Transfer engine
	ErrInvalidAmount    = &Error{Code: "INVALID_AMOUNT", Message: "amount is outside the allowed range"}
	ErrSelfTransfer     = &Error{Code: "SELF_TRANSFER", Message: "cannot transfer chips to yourself"}
	ErrSenderNotFound   = &Error{Code: "SENDER_NOT_FOUND", Message: "sender account not found"}
	ErrReceiverNotFound = &Error{Code: "RECEIVER_NOT_FOUND", Message: "receiver account not found"}

	// Game settlement engine
	ErrGameNotFound          = &Error{Code: "GAME_NOT_FOUND", Message: "game session not found"}
	ErrGameInactive          = &Error{Code: "GAME_INACTIVE", Message: "game session is not active"}
	ErrGameAlreadyClosed     = &Error{Code: "GAME_ALREADY_CLOSED", Message: "game session is already closed"}
	ErrAlreadyJoined         = &Error{Code: "ALREADY_JOINED", Message: "user already joined this game"}
	ErrNotParticipant        = &Error{Code: "NOT_PARTICIPANT", Message: "user is not a participant of this game"}
	ErrAlreadyCashedOut      = &Error{Code: "ALREADY_CASHED_OUT", Message: "participant already cashed out"}
	ErrNotHost               = &Error{Code: "NOT_HOST", Message: "only the host may perform this action"}
	ErrHostCannotLeave       = &Error{Code: "HOST_CANNOT_LEAVE", Message: "the host cannot leave their own game"}
	ErrLeaveAlreadyRequested = &Error{Code: "LEAVE_ALREADY_REQUESTED", Message: "leave was already requested"}
	ErrExceedsPot            = &Error{Code: "EXCEEDS_POT", Message: "cash-out exceeds the available pot"}
	ErrCashoutMismatch       = &Error{Code: "CASHOUT_MISMATCH", Message: "cash-outs must equal the remaining pot exactly"}

	// Transient: serializable transactions lost their race too many times.
	// Distinct from every validation and invariant failure so callers can
	// retry the whole request.
	ErrTxConflict = &Error{Code: "TX_CONFLICT", Message: "storage conflict, please retry"}
)
