package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aidledger/internal/platform/config"
	"aidledger/pkg/testutil"
)

type AppSuite struct {
	suite.Suite
	app     *App
	handler http.Handler
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	cfg := &config.Config{
		Audit: config.Audit{
			Topic:            "aid-ledger",
			SubmitTimeout:    time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  time.Second,
		},
	}
	a, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.app = a
	s.handler = a.Handler()
}

func (s *AppSuite) TearDownTest() {
	s.app.Close()
}

type partyCreated struct {
	ID string `json:"id"`
}

func (s *AppSuite) register(path string, body map[string]string) string {
	rr := testutil.DoRequest(s.handler, testutil.NewJSONRequest(s.T(), http.MethodPost, path, body))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[partyCreated](s.T(), rr).ID
}

func (s *AppSuite) body(rr *httptest.ResponseRecorder) map[string]any {
	return testutil.JSONBody(s.T(), rr)
}

func (s *AppSuite) TestDonationThenDistributionOverHTTP() {
	donor := s.register("/v1/donors", map[string]string{
		"name": "Alice Johnson", "wallet_id": "0.0.1234567", "email": "alice@example.com",
	})
	ngo := s.register("/v1/ngos", map[string]string{
		"name": "Global Relief Foundation", "wallet_id": "0.0.2234567", "region": "Global",
	})
	recipient := s.register("/v1/recipients", map[string]string{
		"name": "Maria Rodriguez", "wallet_id": "0.0.3234567", "location": "Mexico City, Mexico",
	})

	rr := testutil.DoRequest(s.handler, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/donations", map[string]string{
		"donor_id": donor, "ngo_id": ngo, "amount": "1000.00",
	}))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	proof := testutil.UnmarshalResponse[struct {
		Proof string `json:"proof"`
	}](s.T(), rr).Proof
	s.NotEmpty(proof)

	rr = testutil.DoRequest(s.handler, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/distributions", map[string]string{
		"ngo_id": ngo, "recipient_id": recipient, "amount": "300",
	}))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	rr = testutil.DoRequest(s.handler, testutil.NewRequest(s.T(), http.MethodGet, "/v1/stats"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertAmount(s.T(), s.body(rr), "total_donations", "1000")
	testutil.AssertAmount(s.T(), s.body(rr), "total_distributions", "300")
	s.EqualValues(1, s.body(rr)["total_recipients"])

	rr = testutil.DoRequest(s.handler, testutil.NewRequest(s.T(), http.MethodGet, "/v1/parties/"+ngo))
	testutil.AssertAmount(s.T(), s.body(rr), "total_received", "1000")
	testutil.AssertAmount(s.T(), s.body(rr), "total_distributed", "300")

	rr = testutil.DoRequest(s.handler, testutil.NewRequest(s.T(), http.MethodGet, "/v1/verify/"+proof))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal(true, s.body(rr)["logged"])
	s.Equal(true, s.body(rr)["matches"])

	rr = testutil.DoRequest(s.handler, testutil.NewRequest(s.T(), http.MethodGet, "/v1/entries?kind=donation"))
	s.EqualValues(1, s.body(rr)["count"])
}

func (s *AppSuite) TestUnknownPartyLeavesNoTrace() {
	ngo := s.register("/v1/ngos", map[string]string{
		"name": "Local Community Aid", "wallet_id": "0.0.2234568", "region": "North America",
	})

	rr := testutil.DoRequest(s.handler, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/donations", map[string]string{
		"donor_id": "8d0c6f0e-5b1a-4d7e-9a43-0f3e2b1c9d77", "ngo_id": ngo, "amount": "10",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(s.handler, testutil.NewRequest(s.T(), http.MethodGet, "/v1/entries"))
	s.EqualValues(0, s.body(rr)["count"])
}

func (s *AppSuite) TestHealthzInMemoryMode() {
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *AppSuite) TestOpsHandlerServesHealthAndMetrics() {
	ops := s.app.OpsHandler()

	rr := testutil.DoRequest(ops, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)

	rr = testutil.DoRequest(ops, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "go_goroutines")

	rr = testutil.DoRequest(ops, testutil.NewRequest(s.T(), http.MethodGet, "/v1/stats"))
	s.Equal(http.StatusNotFound, rr.Code)
}

func TestTransfersAreRateLimited(t *testing.T) {
	cfg := &config.Config{
		Audit: config.Audit{
			Topic:            "aid-ledger",
			SubmitTimeout:    time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  time.Second,
		},
		RateLimit: config.RateLimit{Writes: 1, Window: time.Minute},
	}
	a, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	h := a.Handler()

	donation := map[string]string{
		"donor_id": "8d0c6f0e-5b1a-4d7e-9a43-0f3e2b1c9d77",
		"ngo_id":   "1b6f1c1e-2f0a-4b8e-8f53-6a0d3c9e2f11",
		"amount":   "10",
	}
	first := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/v1/donations", donation))
	testutil.AssertStatus(t, first, http.StatusNotFound)

	second := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/v1/donations", donation))
	testutil.AssertStatus(t, second, http.StatusTooManyRequests)

	reads := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/v1/entries"))
	testutil.AssertStatusOK(t, reads)
}
