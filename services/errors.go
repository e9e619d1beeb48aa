package services

import "errors"

var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrForbidden            = errors.New("operation not permitted for this role")

	ErrBracketExists       = errors.New("bracket already generated for this tournament")
	ErrBracketNotFound     = errors.New("no bracket exists for this tournament")
	ErrBracketInPlay       = errors.New("bracket has recorded results and the tournament is not finished")
	ErrNotEnoughEntrants   = errors.New("at least two participants are required")
	ErrStageNotCompletable = errors.New("stage cannot be completed yet")
	ErrTournamentCompleted = errors.New("tournament is already completed")

	ErrMatchNotEditable = errors.New("match is not in an editable state")
	ErrMatchNotReady    = errors.New("match does not have both participants yet")
	ErrInvalidScore     = errors.New("score is invalid for this match")

	ErrTableBusy     = errors.New("table is not available")
	ErrTableNotOpen  = errors.New("table is closed")
	ErrMatchHasTable = errors.New("match already has a table assigned")
)
