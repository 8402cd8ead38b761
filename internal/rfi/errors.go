package rfi

import "errors"

var (
	// ErrInvalidTransition indicates a status change not allowed by the workflow
	ErrInvalidTransition = errors.New("invalid rfi status transition")
	// ErrClosed indicates a mutation of a closed RFI
	ErrClosed = errors.New("rfi is closed")
	// ErrInvalidInput indicates a missing or malformed field
	ErrInvalidInput = errors.New("invalid rfi input")
)
