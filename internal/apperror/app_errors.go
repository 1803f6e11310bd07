package apperror

import "errors"

var (
	ErrNoLegalActions = errors.New("no legal actions available")
	ErrInvalidAction  = errors.New("invalid action")
	ErrModelNotFound  = errors.New("model not found")
	ErrCorruptModel   = errors.New("model is corrupt")
	ErrInvalidConfig  = errors.New("invalid config")
	ErrUnknownStorage = errors.New("unknown storage driver")
)
