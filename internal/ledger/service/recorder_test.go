package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"aidledger/internal/auditlog"
	"aidledger/internal/auditlog/memory"
	"aidledger/internal/ledger/metrics"
	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/store"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

// RecorderSuite drives the recorder against the in-memory store and audit log
// so every assertion observes real committed state.
type RecorderSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.InMemory
	audit    *memory.Log
	logs     *bytes.Buffer
	metrics  *metrics.Metrics
	recorder *Recorder

	donor     *models.Party
	ngo       *models.Party
	recipient *models.Party
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.audit = memory.New("aid-audit")
	s.logs = &bytes.Buffer{}
	s.metrics = metrics.New(prometheus.NewRegistry())

	var err error
	s.recorder, err = NewRecorder(s.store, s.store, s.audit,
		WithLogger(slog.New(slog.NewJSONHandler(s.logs, nil))),
		WithMetrics(s.metrics),
		WithSubmitTimeout(200*time.Millisecond),
	)
	s.Require().NoError(err)

	s.donor = s.addParty(models.RoleDonor, "Alice", "0.0.1")
	s.ngo = s.addParty(models.RoleNGO, "Relief", "0.0.2")
	s.recipient = s.addParty(models.RoleRecipient, "Bob", "0.0.3")
}

func (s *RecorderSuite) addParty(role models.Role, name, wallet string) *models.Party {
	p := &models.Party{ID: id.NewPartyID(), Role: role, Name: name, WalletID: wallet, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.store.CreateParty(s.ctx, p))
	return p
}

func (s *RecorderSuite) party(pid id.PartyID) *models.Party {
	p, err := s.store.FindParty(s.ctx, pid)
	s.Require().NoError(err)
	return p
}

func (s *RecorderSuite) totals() models.Totals {
	t, err := s.store.LoadOrInitSnapshot(s.ctx)
	s.Require().NoError(err)
	return t
}

func (s *RecorderSuite) entries(kind models.Kind) []*models.Entry {
	e, err := s.store.ListEntries(s.ctx, models.EntryFilter{Kind: kind})
	s.Require().NoError(err)
	return e
}

// sumOf recomputes a kind's total from the entry history.
func (s *RecorderSuite) sumOf(kind models.Kind) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range s.entries(kind) {
		if e.Status == models.StatusConfirmed {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *RecorderSuite) TestDonationEndToEnd() {
	s.audit.QueueProofs("p1")

	entry, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("1000.00"))
	s.Require().NoError(err)

	s.Equal("p1", entry.Proof)
	s.Equal(models.KindDonation, entry.Kind)
	s.Equal(models.StatusConfirmed, entry.Status)
	s.True(entry.Amount.Equal(dec("1000.00")))

	stored := s.entries("")
	s.Require().Len(stored, 1)
	s.Equal("p1", stored[0].Proof)

	s.True(s.party(s.donor.ID).TotalDonated.Equal(dec("1000.00")))
	s.True(s.party(s.ngo.ID).TotalReceived.Equal(dec("1000.00")))
	s.True(s.totals().Donations.Equal(dec("1000.00")))

	records := s.audit.Records()
	s.Require().Len(records, 1)
	s.Equal("Alice", records[0].Event.Source.Name)
	s.Equal("Relief", records[0].Event.Dest.Name)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.TransfersRecorded.WithLabelValues("donation")))
}

func (s *RecorderSuite) TestDistributionIncrementsNGOOnly() {
	_, err := s.recorder.RecordDistribution(s.ctx, s.ngo.ID, s.recipient.ID, dec("40.50"))
	s.Require().NoError(err)

	ngo := s.party(s.ngo.ID)
	s.True(ngo.TotalDistributed.Equal(dec("40.50")))
	s.True(ngo.TotalReceived.IsZero())

	rec := s.party(s.recipient.ID)
	s.True(rec.TotalReceived.IsZero())
	s.True(rec.TotalDistributed.IsZero())

	t := s.totals()
	s.True(t.Distributions.Equal(dec("40.50")))
	s.True(t.Donations.IsZero())
}

func (s *RecorderSuite) TestSnapshotMatchesEntryHistory() {
	amounts := []string{"10.00", "0.01", "999.99", "250.50"}
	for _, a := range amounts {
		before := s.totals().Donations
		_, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec(a))
		s.Require().NoError(err)
		s.True(s.totals().Donations.Equal(before.Add(dec(a))))
	}
	_, err := s.recorder.RecordDistribution(s.ctx, s.ngo.ID, s.recipient.ID, dec("5.25"))
	s.Require().NoError(err)

	s.True(s.totals().Donations.Equal(s.sumOf(models.KindDonation)))
	s.True(s.totals().Distributions.Equal(s.sumOf(models.KindDistribution)))
	s.True(s.party(s.donor.ID).TotalDonated.Equal(dec("1260.50")))
}

func (s *RecorderSuite) TestRoleAndExistenceChecks() {
	cases := []struct {
		name   string
		kind   models.Kind
		source id.PartyID
		dest   id.PartyID
	}{
		{"unknown donor", models.KindDonation, id.NewPartyID(), s.ngo.ID},
		{"unknown ngo", models.KindDonation, s.donor.ID, id.NewPartyID()},
		{"donor cannot distribute", models.KindDistribution, s.donor.ID, s.recipient.ID},
		{"recipient cannot receive donation", models.KindDonation, s.donor.ID, s.recipient.ID},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.recorder.RecordTransfer(s.ctx, TransferRequest{Kind: tc.kind, SourceID: tc.source, DestID: tc.dest, Amount: dec("1.00")})
			s.ErrorIs(err, models.ErrPartyNotFound)
			s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		})
	}
	s.Zero(s.audit.Submits())
	s.Empty(s.entries(""))
}

func (s *RecorderSuite) TestAuditFailureLeavesNoLocalState() {
	for _, auditErr := range []error{
		auditlog.Unavailable(nil, "broker down"),
		auditlog.Rejected(nil, "too large"),
		auditlog.Misconfigured(nil, "no topic"),
	} {
		s.audit.FailNext(auditErr)
		_, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("10.00"))
		s.Require().Error(err)
		s.Equal(auditErr, err, "audit errors are returned verbatim")
	}

	s.Empty(s.entries(""))
	s.True(s.party(s.donor.ID).TotalDonated.IsZero())
	s.True(s.party(s.ngo.ID).TotalReceived.IsZero())
	s.True(s.totals().Donations.IsZero())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.TransferFailures.WithLabelValues("donation", "audit_unavailable")))
}

func (s *RecorderSuite) TestAuditTimeoutIsUnavailable() {
	slow := memory.New("aid-audit", memory.WithDelay(time.Second))
	r, err := NewRecorder(s.store, s.store, slow,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSubmitTimeout(20*time.Millisecond),
	)
	s.Require().NoError(err)

	_, err = r.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("10.00"))
	s.ErrorIs(err, auditlog.ErrUnavailable)
	s.True(dErrors.HasCode(err, dErrors.CodeAuditUnavailable))
	s.Empty(s.entries(""))
	s.True(s.totals().Donations.IsZero())
}

func (s *RecorderSuite) TestDuplicateProofIsConflictAndLogged() {
	s.audit.QueueProofs("dup", "dup")

	_, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("100.00"))
	s.Require().NoError(err)

	_, err = s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("50.00"))
	s.ErrorIs(err, models.ErrDuplicateProof)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Len(s.entries(""), 1)
	s.True(s.party(s.donor.ID).TotalDonated.Equal(dec("100.00")))
	s.True(s.totals().Donations.Equal(dec("100.00")))

	s.Contains(s.logs.String(), `"level":"ERROR"`)
	s.Contains(s.logs.String(), "CRITICAL")
	s.Contains(s.logs.String(), `"proof":"dup"`)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.OrphanedProofs))
}

func (s *RecorderSuite) TestConcurrentDonationsToOneNGO() {
	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec("1.00"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	s.True(s.party(s.ngo.ID).TotalReceived.Equal(dec("100.00")))
	s.True(s.party(s.donor.ID).TotalDonated.Equal(dec("100.00")))
	s.True(s.totals().Donations.Equal(dec("100.00")))
	s.Len(s.entries(models.KindDonation), n)
}

func (s *RecorderSuite) TestConcurrentDonationsToDifferentNGOs() {
	other := s.addParty(models.RoleNGO, "Water", "0.0.9")

	var wg sync.WaitGroup
	for _, tc := range []struct {
		ngo    id.PartyID
		amount string
	}{{s.ngo.ID, "500.00"}, {other.ID, "300.00"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, tc.ngo, dec(tc.amount))
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.True(s.party(s.donor.ID).TotalDonated.Equal(dec("800.00")))
	s.True(s.party(s.ngo.ID).TotalReceived.Equal(dec("500.00")))
	s.True(s.party(other.ID).TotalReceived.Equal(dec("300.00")))
	s.True(s.totals().Donations.Equal(dec("800.00")))
}

func (s *RecorderSuite) TestProofsAreUniqueAcrossKinds() {
	seen := map[string]bool{}
	for i := range 5 {
		e1, err := s.recorder.RecordDonation(s.ctx, s.donor.ID, s.ngo.ID, dec(fmt.Sprintf("%d.00", i+1)))
		s.Require().NoError(err)
		e2, err := s.recorder.RecordDistribution(s.ctx, s.ngo.ID, s.recipient.ID, dec("1.00"))
		s.Require().NoError(err)
		s.False(seen[e1.Proof])
		s.False(seen[e2.Proof])
		seen[e1.Proof], seen[e2.Proof] = true, true
	}
}
