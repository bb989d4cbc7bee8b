// Package auditlog is the boundary to the external consensus-logging service.
//
// Every transfer is submitted as a structured Event to a single, previously
// provisioned topic. A successful submission yields an opaque proof string
// that the ledger uses as the entry's identity. Callers must not interpret
// the proof; only the adapter that issued it can parse it back (Verify).
package auditlog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aidledger/internal/ledger/models"
	dErrors "aidledger/pkg/domain-errors"
)

// Error taxonomy. Adapters return these wrapped in coded domain errors.
var (
	// ErrUnavailable is transient (network, timeout, open circuit). The caller
	// may retry the whole operation.
	ErrUnavailable = errors.New("audit log unavailable")
	// ErrRejected is permanent: the service refused the payload.
	ErrRejected = errors.New("audit log rejected event")
	// ErrMisconfigured means no destination topic is configured or provisioned.
	ErrMisconfigured = errors.New("audit log misconfigured")
	// ErrProofNotFound is returned by Verify for proofs the log does not hold.
	ErrProofNotFound = errors.New("proof not found in audit log")
)

// Client submits transfer events and returns the issued proof.
type Client interface {
	Submit(ctx context.Context, event Event) (proof string, err error)
}

// Verifier resolves a proof back to the logged record.
type Verifier interface {
	Verify(ctx context.Context, proof string) (*Record, error)
}

// PartyRef names one side of a transfer in the audit payload.
type PartyRef struct {
	Name     string `json:"name"`
	WalletID string `json:"wallet_id"`
}

// Event is the self-describing document written to the audit topic.
type Event struct {
	Kind      models.Kind     `json:"type"`
	Source    PartyRef        `json:"source"`
	Dest      PartyRef        `json:"dest"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// Validate checks the payload is well-formed. Adapters call it before any
// network I/O and report failures as ErrRejected.
func (e Event) Validate() error {
	switch {
	case !e.Kind.IsValid():
		return Rejected(nil, "event type must be donation or distribution")
	case strings.TrimSpace(e.Source.Name) == "":
		return Rejected(nil, "event source name is required")
	case strings.TrimSpace(e.Dest.Name) == "":
		return Rejected(nil, "event dest name is required")
	case !e.Amount.IsPositive():
		return Rejected(nil, "event amount must be positive")
	case e.Timestamp.IsZero():
		return Rejected(nil, "event timestamp is required")
	}
	return nil
}

// Record is a logged event as read back from the audit service.
type Record struct {
	Proof    string    `json:"proof"`
	Event    Event     `json:"event"`
	LoggedAt time.Time `json:"logged_at"`
}

// Unavailable wraps cause as a transient audit failure.
func Unavailable(cause error, msg string) error {
	return coded(ErrUnavailable, cause, dErrors.CodeAuditUnavailable, msg)
}

// Rejected wraps cause as a permanent payload rejection.
func Rejected(cause error, msg string) error {
	return coded(ErrRejected, cause, dErrors.CodeAuditRejected, msg)
}

// Misconfigured reports a missing or unprovisioned topic.
func Misconfigured(cause error, msg string) error {
	return coded(ErrMisconfigured, cause, dErrors.CodeAuditMisconfigured, msg)
}

// ProofNotFound reports an unknown proof on Verify.
func ProofNotFound(proof string) error {
	return dErrors.Wrap(ErrProofNotFound, dErrors.CodeNotFound, "proof "+proof)
}

func coded(kind, cause error, code dErrors.Code, msg string) error {
	err := kind
	if cause != nil {
		err = errors.Join(kind, cause)
	}
	return dErrors.Wrap(err, code, msg)
}
