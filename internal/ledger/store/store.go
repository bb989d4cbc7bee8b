// Package store persists parties, ledger entries and the aggregate snapshot.
// Stores are pure I/O: validation, role checks and audit submission belong to
// the service layer.
package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"aidledger/internal/ledger/models"
	id "aidledger/pkg/domain"
	"aidledger/pkg/platform/sentinel"
)

var (
	ErrNotFound    = sentinel.ErrNotFound
	ErrWalletTaken = fmt.Errorf("wallet already registered: %w", sentinel.ErrConflict)
	ErrEmailTaken  = fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
)

// Tx is the set of writes allowed inside RunInTx. Either all of them become
// visible together or none do.
type Tx interface {
	// InsertEntry adds an entry keyed by its proof. A proof that already
	// exists yields models.ErrDuplicateProof.
	InsertEntry(ctx context.Context, entry *models.Entry) error
	// AddToPartyTotal increments one running total of a party. The increment
	// is applied relative to the current stored value.
	AddToPartyTotal(ctx context.Context, partyID id.PartyID, field models.TotalField, amount decimal.Decimal) error
	// AddToSnapshot increments the aggregate sum for kind, creating the
	// snapshot at zero if it does not exist yet.
	AddToSnapshot(ctx context.Context, kind models.Kind, amount decimal.Decimal) error
}
