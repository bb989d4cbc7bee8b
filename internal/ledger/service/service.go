// Package service implements the ledger core: recording transfers against the
// audit log and projecting aggregate statistics.
//
// Recording is a two-step protocol. The audit submission happens first and
// outside any local transaction; only after a proof is issued is one short
// local transaction opened that inserts the entry and applies every dependent
// increment. A failure in the first step leaves no local trace. A failure in
// the second step leaves a proof that exists only in the audit log; it is
// logged at error level with the proof so it can be reconciled by hand.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"aidledger/internal/auditlog"
	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/store"
	id "aidledger/pkg/domain"
)

var tracer = otel.Tracer("aidledger/ledger")

// PartyReader resolves parties and counts them per role.
type PartyReader interface {
	FindParty(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	CountByRole(ctx context.Context) (models.PartyCounts, error)
}

// LedgerStore owns entries and the aggregate snapshot.
type LedgerStore interface {
	RunInTx(ctx context.Context, fn func(tx store.Tx) error) error
	FindEntry(ctx context.Context, proof string) (*models.Entry, error)
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]*models.Entry, error)
	LoadOrInitSnapshot(ctx context.Context) (models.Totals, error)
}

// AuditClient submits events to the consensus log.
type AuditClient interface {
	Submit(ctx context.Context, event auditlog.Event) (string, error)
}

// ProofVerifier reads a logged record back by proof.
type ProofVerifier interface {
	Verify(ctx context.Context, proof string) (*auditlog.Record, error)
}

const (
	defaultSubmitTimeout = 10 * time.Second
	defaultCommitTimeout = 5 * time.Second
)
