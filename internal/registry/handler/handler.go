package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"aidledger/internal/ledger/models"
	"aidledger/internal/registry/service"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/requestcontext"
)

// Service is the registry surface the handler needs.
type Service interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.Party, error)
	Get(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	List(ctx context.Context, role models.Role, limit int) ([]*models.Party, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/donors", h.handleRegister(models.RoleDonor))
	r.Get("/v1/donors", h.handleList(models.RoleDonor))
	r.Post("/v1/ngos", h.handleRegister(models.RoleNGO))
	r.Get("/v1/ngos", h.handleList(models.RoleNGO))
	r.Post("/v1/recipients", h.handleRegister(models.RoleRecipient))
	r.Get("/v1/recipients", h.handleList(models.RoleRecipient))
	r.Get("/v1/parties/{id}", h.handleGet)
}

type registerRequest struct {
	Name        string `json:"name"`
	WalletID    string `json:"wallet_id"`
	Email       string `json:"email,omitempty"`
	Region      string `json:"region,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Validate only checks the fields every role shares; role rules live in the service.
func (r *registerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(r.WalletID) == "" {
		return dErrors.New(dErrors.CodeValidation, "wallet_id is required")
	}
	return nil
}

type partyResponse struct {
	ID               string    `json:"id"`
	Role             string    `json:"role"`
	Name             string    `json:"name"`
	WalletID         string    `json:"wallet_id"`
	Email            string    `json:"email,omitempty"`
	Region           string    `json:"region,omitempty"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	TotalDonated     string    `json:"total_donated,omitempty"`
	TotalReceived    string    `json:"total_received,omitempty"`
	TotalDistributed string    `json:"total_distributed,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func toPartyResponse(p *models.Party) partyResponse {
	resp := partyResponse{
		ID:          p.ID.String(),
		Role:        p.Role.String(),
		Name:        p.Name,
		WalletID:    p.WalletID,
		Email:       p.Email,
		Region:      p.Region,
		Description: p.Description,
		Location:    p.Location,
		CreatedAt:   p.CreatedAt,
	}
	switch p.Role {
	case models.RoleDonor:
		resp.TotalDonated = p.TotalDonated.StringFixed(models.AmountScale)
	case models.RoleNGO:
		resp.TotalReceived = p.TotalReceived.StringFixed(models.AmountScale)
		resp.TotalDistributed = p.TotalDistributed.StringFixed(models.AmountScale)
	}
	return resp
}

type partyListResponse struct {
	Parties []partyResponse `json:"parties"`
	Count   int             `json:"count"`
}

func (h *Handler) handleRegister(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)
		req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}

		party, err := h.service.Register(ctx, service.RegisterRequest{
			Role:        role,
			Name:        req.Name,
			WalletID:    req.WalletID,
			Email:       req.Email,
			Region:      req.Region,
			Description: req.Description,
			Location:    req.Location,
		})
		if err != nil {
			h.logger.WarnContext(ctx, "failed to register party",
				"request_id", requestID,
				"role", role,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, toPartyResponse(party))
	}
}

func (h *Handler) handleList(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = n
		}

		parties, err := h.service.List(ctx, role, limit)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to list parties",
				"request_id", requestcontext.RequestID(ctx),
				"role", role,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		resp := partyListResponse{Parties: make([]partyResponse, 0, len(parties)), Count: len(parties)}
		for _, p := range parties {
			resp.Parties = append(resp.Parties, toPartyResponse(p))
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partyID, err := id.ParsePartyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "id must be a party id"))
		return
	}
	party, err := h.service.Get(ctx, partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPartyResponse(party))
}
