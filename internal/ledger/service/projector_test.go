package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aidledger/internal/auditlog"
	"aidledger/internal/auditlog/memory"
	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/service/mocks"
	"aidledger/internal/ledger/store"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

type ProjectorSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemory
	audit     *memory.Log
	recorder  *Recorder
	projector *Projector
	asOf      time.Time

	donor     *models.Party
	ngo       *models.Party
	recipient *models.Party
}

func TestProjectorSuite(t *testing.T) {
	suite.Run(t, new(ProjectorSuite))
}

func (s *ProjectorSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.audit = memory.New("aid-audit")
	s.asOf = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.recorder, err = NewRecorder(s.store, s.store, s.audit, WithLogger(logger))
	s.Require().NoError(err)
	s.projector, err = NewProjector(s.store, s.store,
		WithVerifier(s.audit),
		WithProjectorLogger(logger),
		WithProjectorClock(func() time.Time { return s.asOf }),
	)
	s.Require().NoError(err)

	s.donor = s.addParty(models.RoleDonor, "Alice", "0.0.1")
	s.ngo = s.addParty(models.RoleNGO, "Relief", "0.0.2")
	s.recipient = s.addParty(models.RoleRecipient, "Bob", "0.0.3")
}

func (s *ProjectorSuite) addParty(role models.Role, name, wallet string) *models.Party {
	p := &models.Party{ID: id.NewPartyID(), Role: role, Name: name, WalletID: wallet, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.store.CreateParty(s.ctx, p))
	return p
}

func (s *ProjectorSuite) TestSnapshotFirstAccess() {
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := s.projector.Snapshot(s.ctx)
			s.NoError(err)
			s.True(snap.TotalDonations.IsZero())
			s.True(snap.TotalDistributions.IsZero())
		}()
	}
	wg.Wait()

	snap, err := s.projector.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), snap.TotalDonors)
	s.Equal(int64(1), snap.TotalNGOs)
	s.Equal(int64(1), snap.TotalRecipients)
	s.Equal(s.asOf, snap.AsOf)
}

func (s *ProjectorSuite) TestSnapshotReflectsRecordsAndLiveCounts() {
	_, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("1000.00"))
	s.Require().NoError(err)
	_, err = s.recorder.RecordDistribution(s.ctx, s.ngo.ID, s.recipient.ID, dec("200.00"))
	s.Require().NoError(err)
	s.addParty(models.RoleDonor, "Carol", "0.0.4")

	snap, err := s.projector.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.True(snap.TotalDonations.Equal(dec("1000.00")))
	s.True(snap.TotalDistributions.Equal(dec("200.00")))
	s.Equal(int64(2), snap.TotalDonors)
}

func (s *ProjectorSuite) TestListEntries() {
	_, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("1.00"))
	s.Require().NoError(err)
	_, err = s.recorder.RecordDistribution(s.ctx, s.ngo.ID, s.recipient.ID, dec("1.00"))
	s.Require().NoError(err)

	all, err := s.projector.ListEntries(s.ctx, models.EntryFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	dist, err := s.projector.ListEntries(s.ctx, models.EntryFilter{Kind: models.KindDistribution})
	s.Require().NoError(err)
	s.Require().Len(dist, 1)
	s.Equal(s.recipient.ID, dist[0].DestID)

	_, err = s.projector.ListEntries(s.ctx, models.EntryFilter{Kind: "refund"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ProjectorSuite) TestGetEntry() {
	entry, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("3.00"))
	s.Require().NoError(err)

	got, err := s.projector.GetEntry(s.ctx, entry.Proof)
	s.Require().NoError(err)
	s.Equal(entry.Proof, got.Proof)

	_, err = s.projector.GetEntry(s.ctx, "unknown")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.projector.GetEntry(s.ctx, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ProjectorSuite) TestVerifyEntry() {
	entry, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("42.00"))
	s.Require().NoError(err)

	s.Run("logged record matches", func() {
		v, err := s.projector.VerifyEntry(s.ctx, entry.Proof)
		s.Require().NoError(err)
		s.True(v.Matches)
		s.Equal(entry.Proof, v.Proof)
		s.Equal("Alice", v.Record.Event.Source.Name)
	})

	s.Run("proof missing from audit log", func() {
		other, err := NewProjector(s.store, s.store, WithVerifier(memory.New("aid-audit")))
		s.Require().NoError(err)
		v, err := other.VerifyEntry(s.ctx, entry.Proof)
		s.Require().NoError(err)
		s.False(v.Matches)
		s.Nil(v.Record)
	})

	s.Run("proof logged but never committed locally", func() {
		proof, err := s.audit.Submit(s.ctx, auditlog.Event{
			Kind:      models.KindDistribution,
			Source:    auditlog.PartyRef{Name: "Relief", WalletID: "0.0.2"},
			Dest:      auditlog.PartyRef{Name: "Bob", WalletID: "0.0.3"},
			Amount:    dec("7.25"),
			Timestamp: s.asOf,
		})
		s.Require().NoError(err)

		v, err := s.projector.VerifyEntry(s.ctx, proof)
		s.Require().NoError(err)
		s.Equal(proof, v.Proof)
		s.Nil(v.Entry)
		s.Require().NotNil(v.Record)
		s.Equal(models.KindDistribution, v.Record.Event.Kind)
		s.True(dec("7.25").Equal(v.Record.Event.Amount))
		s.False(v.Matches)
	})

	s.Run("proof unknown to ledger and log", func() {
		_, err := s.projector.VerifyEntry(s.ctx, "0.0.1001@1.000000001")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank proof", func() {
		_, err := s.projector.VerifyEntry(s.ctx, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("verification not configured", func() {
		other, err := NewProjector(s.store, s.store)
		s.Require().NoError(err)
		_, err = other.VerifyEntry(s.ctx, entry.Proof)
		s.True(dErrors.HasCode(err, dErrors.CodeAuditMisconfigured))
	})
}

func TestVerifyEntryDetectsMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	parties := mocks.NewMockPartyReader(ctrl)
	ledger := mocks.NewMockLedgerStore(ctrl)
	verifier := mocks.NewMockProofVerifier(ctrl)

	entry := &models.Entry{Proof: "p1", Kind: models.KindDonation, Amount: dec("10.00")}
	ledger.EXPECT().FindEntry(gomock.Any(), "p1").Return(entry, nil)
	verifier.EXPECT().Verify(gomock.Any(), "p1").Return(&auditlog.Record{
		Proof: "p1",
		Event: auditlog.Event{Kind: models.KindDonation, Amount: dec("11.00")},
	}, nil)

	p, err := NewProjector(parties, ledger, WithVerifier(verifier), WithProjectorLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	v, err := p.VerifyEntry(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Matches {
		t.Fatal("expected mismatch between entry and logged amount")
	}
}

func TestVerifyEntryPropagatesUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerStore(ctrl)
	verifier := mocks.NewMockProofVerifier(ctrl)

	ledger.EXPECT().FindEntry(gomock.Any(), "p1").Return(&models.Entry{Proof: "p1"}, nil)
	verifier.EXPECT().Verify(gomock.Any(), "p1").Return(nil, auditlog.Unavailable(errors.New("dial"), "down"))

	p, _ := NewProjector(mocks.NewMockPartyReader(ctrl), ledger, WithVerifier(verifier))
	_, err := p.VerifyEntry(context.Background(), "p1")
	if !errors.Is(err, auditlog.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
