package caserecord

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid case status transition")
	ErrUnknownStatus     = errors.New("unknown case status")
)
