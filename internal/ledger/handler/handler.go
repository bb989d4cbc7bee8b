package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/service"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/requestcontext"
)

// Recorder records transfers.
type Recorder interface {
	RecordTransfer(ctx context.Context, req service.TransferRequest) (*models.Entry, error)
}

// Reader serves the ledger's read paths.
type Reader interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]*models.Entry, error)
	GetEntry(ctx context.Context, proof string) (*models.Entry, error)
	VerifyEntry(ctx context.Context, proof string) (*service.Verification, error)
}

// Handler exposes the ledger over HTTP.
type Handler struct {
	recorder Recorder
	reader   Reader
	logger   *slog.Logger
	writeMW  []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithWriteMiddleware wraps only the transfer routes, which each cost one
// audit log submission.
func WithWriteMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.writeMW = append(h.writeMW, mw...)
	}
}

func New(recorder Recorder, reader Reader, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{recorder: recorder, reader: reader, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	w := r.With(h.writeMW...)
	w.Post("/v1/donations", h.handleRecordDonation)
	w.Post("/v1/distributions", h.handleRecordDistribution)
	r.Get("/v1/entries", h.handleListEntries)
	r.Get("/v1/entries/{proof}", h.handleGetEntry)
	r.Get("/v1/verify/{proof}", h.handleVerify)
	r.Get("/v1/stats", h.handleSnapshot)
}

func (h *Handler) handleRecordDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[donationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.record(w, r, req.transfer)
}

func (h *Handler) handleRecordDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[distributionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	h.record(w, r, req.transfer)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request, req service.TransferRequest) {
	ctx := r.Context()
	entry, err := h.recorder.RecordTransfer(ctx, req)
	if err != nil {
		h.logFailure(ctx, "failed to record "+string(req.Kind), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := models.EntryFilter{Kind: models.Kind(q.Get("kind"))}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		filter.Limit = n
	}

	entries, err := h.reader.ListEntries(ctx, filter)
	if err != nil {
		h.logFailure(ctx, "failed to list entries", err)
		httputil.WriteError(w, err)
		return
	}
	resp := entryListResponse{Entries: make([]entryResponse, 0, len(entries)), Count: len(entries)}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, err := h.reader.GetEntry(ctx, chi.URLParam(r, "proof"))
	if err != nil {
		h.logFailure(ctx, "failed to get entry", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.reader.VerifyEntry(ctx, chi.URLParam(r, "proof"))
	if err != nil {
		h.logFailure(ctx, "failed to verify proof", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := h.reader.Snapshot(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to load snapshot", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSnapshotResponse(snap))
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	attrs := []any{"request_id", requestcontext.RequestID(ctx), "error", err}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}
