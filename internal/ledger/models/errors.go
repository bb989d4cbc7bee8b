package models

import "errors"

// Ledger error taxonomy. Services wrap these in coded domain errors, so
// callers can match either with errors.Is or by code.
var (
	ErrInvalidAmount  = errors.New("amount must be positive with at most two decimal places")
	ErrPartyNotFound  = errors.New("party not found")
	ErrDuplicateProof = errors.New("proof already recorded")
	ErrUnknownKind    = errors.New("unknown transfer kind")
)
