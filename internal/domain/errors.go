package domain

import "errors"

var (
	// ErrUnparseable is returned when raw metrics text cannot be turned into records.
	ErrUnparseable = errors.New("metrics table is unparseable")

	// ErrInsufficientHistory is returned when too few records exist for a baseline.
	ErrInsufficientHistory = errors.New("not enough history to compute a baseline")

	// ErrCommandNotFound is returned when the terminus CLI cannot be resolved.
	ErrCommandNotFound = errors.New("terminus command not found")

	// ErrInvalidWebhook is returned when the Slack webhook URL is missing or malformed.
	ErrInvalidWebhook = errors.New("slack webhook URL is not set or invalid")
)
