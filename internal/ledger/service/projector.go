package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aidledger/internal/auditlog"
	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/store"
	dErrors "aidledger/pkg/domain-errors"
)

// Projector serves read paths: the statistics snapshot, entry listing and
// proof verification. Sums come from the incrementally maintained snapshot;
// counts are read live from the party registry on every call.
type Projector struct {
	parties  PartyReader
	ledger   LedgerStore
	verifier ProofVerifier
	logger   *slog.Logger
	now      func() time.Time
}

type ProjectorOption func(*Projector)

// WithVerifier enables VerifyEntry.
func WithVerifier(v ProofVerifier) ProjectorOption {
	return func(p *Projector) {
		p.verifier = v
	}
}

func WithProjectorLogger(logger *slog.Logger) ProjectorOption {
	return func(p *Projector) {
		p.logger = logger
	}
}

func WithProjectorClock(now func() time.Time) ProjectorOption {
	return func(p *Projector) {
		p.now = now
	}
}

func NewProjector(parties PartyReader, ledger LedgerStore, opts ...ProjectorOption) (*Projector, error) {
	if parties == nil {
		return nil, fmt.Errorf("party store is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	p := &Projector{parties: parties, ledger: ledger, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Snapshot returns the aggregate view, creating the stored sums at zero on
// first access.
func (p *Projector) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "ledger.Snapshot")
	defer span.End()

	totals, err := p.ledger.LoadOrInitSnapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshot")
	}
	counts, err := p.parties.CountByRole(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count parties")
	}
	return &models.Snapshot{
		TotalDonations:     totals.Donations,
		TotalDistributions: totals.Distributions,
		TotalDonors:        counts.Donors,
		TotalNGOs:          counts.NGOs,
		TotalRecipients:    counts.Recipients,
		AsOf:               p.now().UTC(),
	}, nil
}

// ListEntries returns entries newest first, optionally narrowed to one kind.
func (p *Projector) ListEntries(ctx context.Context, filter models.EntryFilter) ([]*models.Entry, error) {
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, dErrors.Wrap(models.ErrUnknownKind, dErrors.CodeValidation, "kind must be donation or distribution")
	}
	entries, err := p.ledger.ListEntries(ctx, filter.Normalize())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries")
	}
	return entries, nil
}

// GetEntry loads one entry by proof.
func (p *Projector) GetEntry(ctx context.Context, proof string) (*models.Entry, error) {
	proof = strings.TrimSpace(proof)
	if proof == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "proof is required")
	}
	e, err := p.ledger.FindEntry(ctx, proof)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entry")
	}
	return e, nil
}

// Verification pairs a proof's local entry with the audit log's record of
// it. Either side may be missing: Entry is nil for a proof the audit log
// accepted but the ledger never committed, Record is nil for a local entry
// the log does not hold.
type Verification struct {
	Proof  string
	Entry  *models.Entry
	Record *auditlog.Record
	// Matches is true when both sides exist and the logged kind and amount
	// agree with the entry.
	Matches bool
}

// VerifyEntry reads proof back from the audit log and compares the logged
// event against the local entry, if there is one. A proof unknown to both
// sides is NotFound.
func (p *Projector) VerifyEntry(ctx context.Context, proof string) (*Verification, error) {
	if p.verifier == nil {
		return nil, dErrors.New(dErrors.CodeAuditMisconfigured, "proof verification is not configured")
	}
	proof = strings.TrimSpace(proof)
	if proof == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "proof is required")
	}
	entry, err := p.ledger.FindEntry(ctx, proof)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entry")
		}
		entry = nil
	}

	ctx, span := tracer.Start(ctx, "auditlog.Verify")
	defer span.End()

	rec, err := p.verifier.Verify(ctx, proof)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, auditlog.ErrProofNotFound) {
			return nil, err
		}
		if entry == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "proof not found in ledger or audit log")
		}
		p.logger.WarnContext(ctx, "ledger entry proof missing from audit log", "proof", proof)
		return &Verification{Proof: proof, Entry: entry}, nil
	}

	if entry == nil {
		p.logger.WarnContext(ctx, "audit log proof has no ledger entry",
			"proof", proof,
			"logged_kind", rec.Event.Kind,
			"logged_amount", rec.Event.Amount.String(),
		)
		return &Verification{Proof: proof, Record: rec}, nil
	}

	matches := rec.Event.Kind == entry.Kind && rec.Event.Amount.Equal(entry.Amount)
	if !matches {
		p.logger.WarnContext(ctx, "ledger entry disagrees with audit log",
			"proof", proof,
			"entry_kind", entry.Kind,
			"logged_kind", rec.Event.Kind,
			"entry_amount", entry.Amount.String(),
			"logged_amount", rec.Event.Amount.String(),
		)
	}
	return &Verification{Proof: proof, Entry: entry, Record: rec, Matches: matches}, nil
}
