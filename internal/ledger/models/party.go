package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "aidledger/pkg/domain"
)

// Role distinguishes the three kinds of registered party.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleNGO       Role = "ngo"
	RoleRecipient Role = "recipient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleDonor, RoleNGO, RoleRecipient:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Party is a registered actor. Running totals are owned by the registry row
// but only ever mutated inside a ledger transaction.
//
// Invariants:
//   - WalletID is unique across all roles
//   - totals are non-negative and never decrease
//   - TotalDonated is only meaningful for donors; TotalReceived and
//     TotalDistributed only for NGOs; recipients carry no total
type Party struct {
	ID          id.PartyID
	Role        Role
	Name        string
	WalletID    string
	Email       string // donors
	Region      string // NGOs
	Description string // NGOs
	Location    string // recipients

	TotalDonated     decimal.Decimal
	TotalReceived    decimal.Decimal
	TotalDistributed decimal.Decimal

	CreatedAt time.Time
}

// PartyCounts are live registry counts per role.
type PartyCounts struct {
	Donors     int64
	NGOs       int64
	Recipients int64
}

// TotalField names the running total a transfer increments on a party.
type TotalField string

const (
	FieldTotalDonated     TotalField = "total_donated"
	FieldTotalReceived    TotalField = "total_received"
	FieldTotalDistributed TotalField = "total_distributed"
)

// Apply adds amount to the named total on p.
func (p *Party) Apply(field TotalField, amount decimal.Decimal) {
	switch field {
	case FieldTotalDonated:
		p.TotalDonated = p.TotalDonated.Add(amount)
	case FieldTotalReceived:
		p.TotalReceived = p.TotalReceived.Add(amount)
	case FieldTotalDistributed:
		p.TotalDistributed = p.TotalDistributed.Add(amount)
	}
}
