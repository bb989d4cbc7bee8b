package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"aidledger/internal/auditlog"
	"aidledger/internal/ledger/metrics"
	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/store"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/requestcontext"
)

// TransferRequest describes one donation or distribution.
type TransferRequest struct {
	Kind     models.Kind
	SourceID id.PartyID
	DestID   id.PartyID
	Amount   decimal.Decimal
}

// Recorder records transfers. It holds no mutable state of its own; all
// shared state lives behind the injected stores.
type Recorder struct {
	parties       PartyReader
	ledger        LedgerStore
	audit         AuditClient
	logger        *slog.Logger
	metrics       *metrics.Metrics
	submitTimeout time.Duration
	commitTimeout time.Duration
	now           func() time.Time
}

type RecorderOption func(*Recorder)

func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithSubmitTimeout bounds each audit submission.
func WithSubmitTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.submitTimeout = d
		}
	}
}

// WithCommitTimeout bounds the local transaction that follows a successful
// submission. The commit does not inherit the caller's cancellation.
func WithCommitTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.commitTimeout = d
		}
	}
}

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder constructs a Recorder.
func NewRecorder(parties PartyReader, ledger LedgerStore, audit AuditClient, opts ...RecorderOption) (*Recorder, error) {
	if parties == nil {
		return nil, fmt.Errorf("party store is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit client is required")
	}
	r := &Recorder{
		parties:       parties,
		ledger:        ledger,
		audit:         audit,
		logger:        slog.Default(),
		submitTimeout: defaultSubmitTimeout,
		commitTimeout: defaultCommitTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RecordDonation records a donor to NGO transfer.
func (r *Recorder) RecordDonation(ctx context.Context, donorID, ngoID id.PartyID, amount decimal.Decimal) (*models.Entry, error) {
	return r.RecordTransfer(ctx, TransferRequest{Kind: models.KindDonation, SourceID: donorID, DestID: ngoID, Amount: amount})
}

// RecordDistribution records an NGO to recipient transfer.
func (r *Recorder) RecordDistribution(ctx context.Context, ngoID, recipientID id.PartyID, amount decimal.Decimal) (*models.Entry, error) {
	return r.RecordTransfer(ctx, TransferRequest{Kind: models.KindDistribution, SourceID: ngoID, DestID: recipientID, Amount: amount})
}

// RecordTransfer submits the transfer to the audit log and, once a proof is
// issued, persists the entry and its increments atomically.
func (r *Recorder) RecordTransfer(ctx context.Context, req TransferRequest) (*models.Entry, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ledger.RecordTransfer", trace.WithAttributes(
		attribute.String("ledger.kind", string(req.Kind)),
		attribute.String("ledger.source_id", req.SourceID.String()),
		attribute.String("ledger.dest_id", req.DestID.String()),
	))
	defer span.End()

	entry, err := r.record(ctx, req)
	if r.metrics != nil {
		r.metrics.ObserveRecord(start)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		r.incrementFailure(req.Kind, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("ledger.proof", entry.Proof))
	r.incrementRecorded(entry)
	return entry, nil
}

func (r *Recorder) record(ctx context.Context, req TransferRequest) (*models.Entry, error) {
	if !req.Kind.IsValid() {
		return nil, dErrors.Wrap(models.ErrUnknownKind, dErrors.CodeValidation, "kind must be donation or distribution")
	}
	if err := models.ValidateAmount(req.Amount); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid amount")
	}

	source, err := r.resolve(ctx, req.SourceID, req.Kind.SourceRole())
	if err != nil {
		return nil, err
	}
	dest, err := r.resolve(ctx, req.DestID, req.Kind.DestRole())
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	proof, err := r.submit(ctx, auditlog.Event{
		Kind:      req.Kind,
		Source:    auditlog.PartyRef{Name: source.Name, WalletID: source.WalletID},
		Dest:      auditlog.PartyRef{Name: dest.Name, WalletID: dest.WalletID},
		Amount:    req.Amount,
		Timestamp: now,
	})
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		Proof:      proof,
		Kind:       req.Kind,
		SourceID:   source.ID,
		DestID:     dest.ID,
		Amount:     req.Amount,
		Status:     models.StatusConfirmed,
		RecordedAt: now,
	}
	if err := r.commit(ctx, entry); err != nil {
		return nil, r.orphaned(ctx, entry, err)
	}

	r.logger.InfoContext(ctx, "transfer recorded",
		"proof", entry.Proof,
		"kind", entry.Kind,
		"source_id", entry.SourceID.String(),
		"dest_id", entry.DestID.String(),
		"amount", entry.Amount.StringFixed(models.AmountScale),
		"request_id", requestcontext.RequestID(ctx),
	)
	return entry, nil
}

// resolve loads a party and checks it plays role. A party with the wrong
// role is reported as not found for that role.
func (r *Recorder) resolve(ctx context.Context, partyID id.PartyID, role models.Role) (*models.Party, error) {
	p, err := r.parties.FindParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.Wrap(models.ErrPartyNotFound, dErrors.CodeNotFound, role.String()+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+role.String())
	}
	if p.Role != role {
		return nil, dErrors.Wrap(models.ErrPartyNotFound, dErrors.CodeNotFound, role.String()+" not found")
	}
	return p, nil
}

func (r *Recorder) submit(ctx context.Context, event auditlog.Event) (string, error) {
	ctx, span := tracer.Start(ctx, "auditlog.Submit")
	defer span.End()

	submitCtx, cancel := context.WithTimeout(ctx, r.submitTimeout)
	defer cancel()

	start := time.Now()
	proof, err := r.audit.Submit(submitCtx, event)
	if r.metrics != nil {
		r.metrics.ObserveAuditSubmit(start)
	}
	if err != nil {
		span.RecordError(err)
		if !isAuditError(err) && errors.Is(err, context.DeadlineExceeded) {
			return "", auditlog.Unavailable(err, "audit submit timed out")
		}
		return "", err
	}
	if proof == "" {
		return "", auditlog.Unavailable(nil, "audit log returned an empty proof")
	}
	return proof, nil
}

func isAuditError(err error) bool {
	return errors.Is(err, auditlog.ErrUnavailable) ||
		errors.Is(err, auditlog.ErrRejected) ||
		errors.Is(err, auditlog.ErrMisconfigured)
}

// commit applies the entry and its increments in one transaction. Updates
// run source, then destination, then snapshot so concurrent transactions
// take row locks in the same order.
func (r *Recorder) commit(ctx context.Context, entry *models.Entry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.commitTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "ledger.Commit")
	defer span.End()

	return r.ledger.RunInTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.AddToPartyTotal(ctx, entry.SourceID, entry.Kind.SourceField(), entry.Amount); err != nil {
			return err
		}
		if field, ok := entry.Kind.DestField(); ok {
			if err := tx.AddToPartyTotal(ctx, entry.DestID, field, entry.Amount); err != nil {
				return err
			}
		}
		return tx.AddToSnapshot(ctx, entry.Kind, entry.Amount)
	})
}

// orphaned reports a local failure after the audit log accepted the event.
// The proof is otherwise unrecoverable, so it is logged at error level.
func (r *Recorder) orphaned(ctx context.Context, entry *models.Entry, err error) error {
	r.logger.ErrorContext(ctx, "CRITICAL: audit proof issued but ledger entry not persisted",
		"proof", entry.Proof,
		"kind", entry.Kind,
		"source_id", entry.SourceID.String(),
		"dest_id", entry.DestID.String(),
		"amount", entry.Amount.StringFixed(models.AmountScale),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	if r.metrics != nil {
		r.metrics.IncrementOrphanedProof()
	}
	if errors.Is(err, models.ErrDuplicateProof) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "proof already recorded")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist ledger entry")
}

func (r *Recorder) incrementRecorded(entry *models.Entry) {
	if r.metrics != nil {
		r.metrics.IncrementRecorded(string(entry.Kind), entry.Amount.InexactFloat64())
	}
}

func (r *Recorder) incrementFailure(kind models.Kind, err error) {
	if r.metrics != nil {
		r.metrics.IncrementFailure(string(kind), string(dErrors.CodeOf(err)))
	}
}
