// Package service registers donors, NGOs and recipients. Running totals start
// at zero and are only ever changed by the ledger recorder.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/store"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
	"aidledger/pkg/email"
	"aidledger/pkg/requestcontext"
)

const (
	maxNameLen     = 200
	maxWalletLen   = 50
	maxRegionLen   = 100
	maxLocationLen = 200
	maxDescLen     = 2000

	defaultListLimit = 100
	maxListLimit     = 1000
)

type PartyStore interface {
	CreateParty(ctx context.Context, party *models.Party) error
	FindParty(ctx context.Context, partyID id.PartyID) (*models.Party, error)
	ListParties(ctx context.Context, role models.Role, limit int) ([]*models.Party, error)
}

// RegisterRequest carries the attributes of a new party. Which optional
// fields are required depends on Role.
type RegisterRequest struct {
	Role        models.Role
	Name        string
	WalletID    string
	Email       string
	Region      string
	Description string
	Location    string
}

// Normalize trims every field.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.WalletID = strings.TrimSpace(r.WalletID)
	r.Email = strings.TrimSpace(r.Email)
	r.Region = strings.TrimSpace(r.Region)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
}

// Validate checks lengths and role-specific required fields.
func (r *RegisterRequest) Validate() error {
	if !r.Role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be donor, ngo or recipient")
	}
	if err := requireLen("name", r.Name, maxNameLen); err != nil {
		return err
	}
	if err := requireLen("wallet_id", r.WalletID, maxWalletLen); err != nil {
		return err
	}
	switch r.Role {
	case models.RoleDonor:
		normalized, err := email.Normalize(r.Email)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "donor email is invalid")
		}
		r.Email = normalized
	case models.RoleNGO:
		if err := requireLen("region", r.Region, maxRegionLen); err != nil {
			return err
		}
		if utf8.RuneCountInString(r.Description) > maxDescLen {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("description must be at most %d characters", maxDescLen))
		}
	case models.RoleRecipient:
		if err := requireLen("location", r.Location, maxLocationLen); err != nil {
			return err
		}
	}
	return nil
}

func requireLen(field, v string, max int) error {
	n := utf8.RuneCountInString(v)
	if n == 0 {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if n > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// Service orchestrates party registration and lookup.
type Service struct {
	parties PartyStore
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service.
func New(parties PartyStore, opts ...Option) (*Service, error) {
	if parties == nil {
		return nil, fmt.Errorf("party store is required")
	}
	s := &Service{parties: parties, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a party with zero totals.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Party, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &models.Party{
		ID:               id.NewPartyID(),
		Role:             req.Role,
		Name:             req.Name,
		WalletID:         req.WalletID,
		TotalDonated:     decimal.Zero,
		TotalReceived:    decimal.Zero,
		TotalDistributed: decimal.Zero,
		CreatedAt:        requestcontext.Now(ctx).Truncate(time.Microsecond),
	}
	switch req.Role {
	case models.RoleDonor:
		p.Email = req.Email
	case models.RoleNGO:
		p.Region = req.Region
		p.Description = req.Description
	case models.RoleRecipient:
		p.Location = req.Location
	}

	if err := s.parties.CreateParty(ctx, p); err != nil {
		switch {
		case errors.Is(err, store.ErrWalletTaken):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "wallet_id is already registered")
		case errors.Is(err, store.ErrEmailTaken):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register party")
	}

	s.logger.InfoContext(ctx, "party registered",
		"party_id", p.ID.String(),
		"role", p.Role,
		"request_id", requestcontext.RequestID(ctx),
	)
	return p, nil
}

// Get returns one party by id regardless of role.
func (s *Service) Get(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	p, err := s.parties.FindParty(ctx, partyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.Wrap(models.ErrPartyNotFound, dErrors.CodeNotFound, "party not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
	}
	return p, nil
}

// List returns parties of one role in registration order.
func (s *Service) List(ctx context.Context, role models.Role, limit int) ([]*models.Party, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be donor, ngo or recipient")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	parties, err := s.parties.ListParties(ctx, role, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list parties")
	}
	return parties, nil
}
