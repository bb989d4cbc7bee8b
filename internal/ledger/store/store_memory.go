package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"aidledger/internal/ledger/models"
	id "aidledger/pkg/domain"
)

// InMemory keeps all ledger state behind one lock. RunInTx holds the write
// lock for the whole callback and applies staged writes only on success.
type InMemory struct {
	mu sync.RWMutex

	parties     map[id.PartyID]*models.Party
	partyOrder  []id.PartyID
	wallets     map[string]id.PartyID
	donorEmails map[string]id.PartyID

	entries    map[string]*models.Entry
	entryOrder []string

	snapshot *models.Totals
}

func NewInMemory() *InMemory {
	return &InMemory{
		parties:     make(map[id.PartyID]*models.Party),
		wallets:     make(map[string]id.PartyID),
		donorEmails: make(map[string]id.PartyID),
		entries:     make(map[string]*models.Entry),
	}
}

func (s *InMemory) CreateParty(_ context.Context, party *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[party.WalletID]; ok {
		return ErrWalletTaken
	}
	email := strings.ToLower(party.Email)
	if party.Role == models.RoleDonor && email != "" {
		if _, ok := s.donorEmails[email]; ok {
			return ErrEmailTaken
		}
		s.donorEmails[email] = party.ID
	}

	cp := *party
	s.parties[party.ID] = &cp
	s.partyOrder = append(s.partyOrder, party.ID)
	s.wallets[party.WalletID] = party.ID
	return nil
}

func (s *InMemory) FindParty(_ context.Context, partyID id.PartyID) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parties[partyID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListParties returns parties of role in registration order. limit <= 0
// means no limit.
func (s *InMemory) ListParties(_ context.Context, role models.Role, limit int) ([]*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Party, 0)
	for _, pid := range s.partyOrder {
		p := s.parties[pid]
		if p.Role != role {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) CountByRole(_ context.Context) (models.PartyCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c models.PartyCounts
	for _, p := range s.parties {
		switch p.Role {
		case models.RoleDonor:
			c.Donors++
		case models.RoleNGO:
			c.NGOs++
		case models.RoleRecipient:
			c.Recipients++
		}
	}
	return c, nil
}

func (s *InMemory) FindEntry(_ context.Context, proof string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[proof]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ListEntries returns entries newest first.
func (s *InMemory) ListEntries(_ context.Context, filter models.EntryFilter) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Entry, 0, len(s.entryOrder))
	for _, proof := range s.entryOrder {
		e := s.entries[proof]
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// LoadOrInitSnapshot returns the aggregate sums, creating them at zero on
// first access.
func (s *InMemory) LoadOrInitSnapshot(_ context.Context) (models.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		s.snapshot = &models.Totals{Donations: decimal.Zero, Distributions: decimal.Zero}
	}
	return *s.snapshot, nil
}

func (s *InMemory) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: make(map[string]struct{})}
	if err := fn(tx); err != nil {
		return err
	}
	for _, op := range tx.ops {
		op()
	}
	return nil
}

type memTx struct {
	store  *InMemory
	ops    []func()
	staged map[string]struct{}
}

func (t *memTx) InsertEntry(_ context.Context, entry *models.Entry) error {
	if _, ok := t.store.entries[entry.Proof]; ok {
		return models.ErrDuplicateProof
	}
	if _, ok := t.staged[entry.Proof]; ok {
		return models.ErrDuplicateProof
	}
	t.staged[entry.Proof] = struct{}{}

	cp := *entry
	if cp.RecordedAt.IsZero() {
		cp.RecordedAt = time.Now().UTC()
	}
	t.ops = append(t.ops, func() {
		t.store.entries[cp.Proof] = &cp
		t.store.entryOrder = append(t.store.entryOrder, cp.Proof)
	})
	return nil
}

func (t *memTx) AddToPartyTotal(_ context.Context, partyID id.PartyID, field models.TotalField, amount decimal.Decimal) error {
	p, ok := t.store.parties[partyID]
	if !ok {
		return ErrNotFound
	}
	t.ops = append(t.ops, func() {
		p.Apply(field, amount)
	})
	return nil
}

func (t *memTx) AddToSnapshot(_ context.Context, kind models.Kind, amount decimal.Decimal) error {
	t.ops = append(t.ops, func() {
		if t.store.snapshot == nil {
			t.store.snapshot = &models.Totals{Donations: decimal.Zero, Distributions: decimal.Zero}
		}
		*t.store.snapshot = t.store.snapshot.Add(kind, amount)
	})
	return nil
}
