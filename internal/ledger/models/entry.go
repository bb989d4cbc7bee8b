package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "aidledger/pkg/domain"
)

// Kind tags a ledger entry as one of the two transfer variants. All
// role-dependent behaviour hangs off Kind so the recording algorithm stays
// single-sourced.
type Kind string

const (
	KindDonation     Kind = "donation"
	KindDistribution Kind = "distribution"
)

// ParseKind validates a wire value.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	return k == KindDonation || k == KindDistribution
}

func (k Kind) String() string { return string(k) }

// SourceRole is the role the paying party must have.
func (k Kind) SourceRole() Role {
	if k == KindDistribution {
		return RoleNGO
	}
	return RoleDonor
}

// DestRole is the role the receiving party must have.
func (k Kind) DestRole() Role {
	if k == KindDistribution {
		return RoleRecipient
	}
	return RoleNGO
}

// SourceField is the running total incremented on the source party.
func (k Kind) SourceField() TotalField {
	if k == KindDistribution {
		return FieldTotalDistributed
	}
	return FieldTotalDonated
}

// DestField is the running total incremented on the destination party.
// Recipients carry no total, so distributions return ok=false.
func (k Kind) DestField() (TotalField, bool) {
	if k == KindDistribution {
		return "", false
	}
	return FieldTotalReceived, true
}

// Status is the confirmation state of an entry. Only confirmed entries are
// written today; pending and failed are reserved for asynchronous confirmation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Entry is one completed transfer, keyed by the audit log's proof.
// Entries are immutable after insertion.
type Entry struct {
	Proof      string
	Kind       Kind
	SourceID   id.PartyID
	DestID     id.PartyID
	Amount     decimal.Decimal
	Status     Status
	RecordedAt time.Time
}

// EntryFilter narrows ListEntries. A zero Kind lists both variants.
type EntryFilter struct {
	Kind  Kind
	Limit int
}

// DefaultListLimit and MaxListLimit bound ListEntries page sizes.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Normalize clamps Limit into (0, MaxListLimit].
func (f EntryFilter) Normalize() EntryFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}
