package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "aidledger/pkg/domain-errors"
)

// maxIDLength bounds input before it reaches uuid.Parse. The longest
// accepted form is the 45-char "urn:uuid:" prefix.
const maxIDLength = 45

// PartyID identifies a registered donor, NGO, or recipient.
// The role is not encoded in the ID; stores resolve it.
type PartyID uuid.UUID

// NewPartyID returns a fresh random PartyID.
func NewPartyID() PartyID { return PartyID(uuid.New()) }

func (id PartyID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id PartyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParsePartyID validates s at a trust boundary.
// Empty, malformed, and nil UUIDs are rejected with CodeInvalidInput.
func ParsePartyID(s string) (PartyID, error) {
	u, err := parseUUID(s, "party_id")
	if err != nil {
		return PartyID{}, err
	}
	return PartyID(u), nil
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is malformed")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, field+" is malformed")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
