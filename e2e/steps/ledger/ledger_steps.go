package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Save(key, value string)
	Saved(key string) (string, error)
}

// RegisterSteps registers registry and ledger step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	ctx.Step(`^a donor "([^"]*)" is registered$`, steps.registerDonor)
	ctx.Step(`^an NGO "([^"]*)" is registered$`, steps.registerNGO)
	ctx.Step(`^a recipient "([^"]*)" is registered$`, steps.registerRecipient)
	ctx.Step(`^I register a donor "([^"]*)" with the same wallet as "([^"]*)"$`, steps.registerDuplicateWallet)

	ctx.Step(`^I note the current stats$`, steps.noteStats)
	ctx.Step(`^I record a donation of "([^"]*)" from "([^"]*)" to "([^"]*)"$`, steps.recordDonation)
	ctx.Step(`^I record a distribution of "([^"]*)" from "([^"]*)" to "([^"]*)"$`, steps.recordDistribution)
	ctx.Step(`^I save the proof as "([^"]*)"$`, steps.saveProof)
	ctx.Step(`^I verify the proof "([^"]*)"$`, steps.verifyProof)
	ctx.Step(`^I fetch the entry for proof "([^"]*)"$`, steps.fetchEntry)
	ctx.Step(`^I fetch the party "([^"]*)"$`, steps.fetchParty)

	ctx.Step(`^"([^"]*)" should have grown by "([^"]*)"$`, steps.statShouldHaveGrownBy)
	ctx.Step(`^the response amount field "([^"]*)" should be "([^"]*)"$`, steps.amountFieldShouldBe)
}

type ledgerSteps struct {
	tc    TestContext
	stats map[string]decimal.Decimal
}

var walletSeq atomic.Int64

// uniqueWallet keeps scenarios independent of whatever an earlier run left
// in the database.
func uniqueWallet() string {
	return fmt.Sprintf("0.0.%d%d", time.Now().UnixNano()%1_000_000_000, walletSeq.Add(1))
}

func (s *ledgerSteps) register(path, name string, body map[string]string) error {
	wallet := uniqueWallet()
	body["name"] = name
	body["wallet_id"] = wallet
	if err := s.tc.POST(path, body); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("register %s: status %d: %s", name, status, s.tc.GetLastResponseBody())
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("party:"+name, fmt.Sprint(id))
	s.tc.Save("wallet:"+name, wallet)
	return nil
}

func (s *ledgerSteps) registerDonor(ctx context.Context, name string) error {
	local := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	email := local + "+" + strconv.FormatInt(walletSeq.Add(1), 10) + strconv.FormatInt(time.Now().UnixNano(), 36) + "@example.org"
	return s.register("/v1/donors", name, map[string]string{"email": email})
}

func (s *ledgerSteps) registerNGO(ctx context.Context, name string) error {
	return s.register("/v1/ngos", name, map[string]string{"region": "Global", "description": "e2e"})
}

func (s *ledgerSteps) registerRecipient(ctx context.Context, name string) error {
	return s.register("/v1/recipients", name, map[string]string{"location": "Camp 1"})
}

func (s *ledgerSteps) registerDuplicateWallet(ctx context.Context, name, existing string) error {
	wallet, err := s.tc.Saved("wallet:" + existing)
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/donors", map[string]string{
		"name":      name,
		"wallet_id": wallet,
		"email":     "dup+" + strconv.FormatInt(time.Now().UnixNano(), 36) + "@example.org",
	})
}

func (s *ledgerSteps) partyID(name string) (string, error) {
	return s.tc.Saved("party:" + name)
}

func (s *ledgerSteps) readStats() (map[string]decimal.Decimal, error) {
	if err := s.tc.GET("/v1/stats"); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, field := range []string{"total_donations", "total_distributions"} {
		v, err := s.tc.GetResponseField(field)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(fmt.Sprint(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out[field] = d
	}
	return out, nil
}

func (s *ledgerSteps) noteStats(ctx context.Context) error {
	stats, err := s.readStats()
	if err != nil {
		return err
	}
	s.stats = stats
	return nil
}

func (s *ledgerSteps) recordDonation(ctx context.Context, amount, donor, ngo string) error {
	donorID, err := s.partyID(donor)
	if err != nil {
		return err
	}
	ngoID, err := s.partyID(ngo)
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/donations", map[string]string{
		"donor_id": donorID,
		"ngo_id":   ngoID,
		"amount":   amount,
	})
}

func (s *ledgerSteps) recordDistribution(ctx context.Context, amount, ngo, recipient string) error {
	ngoID, err := s.partyID(ngo)
	if err != nil {
		return err
	}
	recipientID, err := s.partyID(recipient)
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/distributions", map[string]string{
		"ngo_id":       ngoID,
		"recipient_id": recipientID,
		"amount":       amount,
	})
}

func (s *ledgerSteps) saveProof(ctx context.Context, key string) error {
	proof, err := s.tc.GetResponseField("proof")
	if err != nil {
		return err
	}
	s.tc.Save("proof:"+key, fmt.Sprint(proof))
	return nil
}

func (s *ledgerSteps) verifyProof(ctx context.Context, key string) error {
	proof, err := s.tc.Saved("proof:" + key)
	if err != nil {
		return err
	}
	return s.tc.GET("/v1/verify/" + proof)
}

func (s *ledgerSteps) fetchEntry(ctx context.Context, key string) error {
	proof, err := s.tc.Saved("proof:" + key)
	if err != nil {
		return err
	}
	return s.tc.GET("/v1/entries/" + proof)
}

func (s *ledgerSteps) fetchParty(ctx context.Context, name string) error {
	partyID, err := s.partyID(name)
	if err != nil {
		return err
	}
	return s.tc.GET("/v1/parties/" + partyID)
}

func (s *ledgerSteps) statShouldHaveGrownBy(ctx context.Context, field, delta string) error {
	if s.stats == nil {
		return fmt.Errorf("no stats noted before the transfer")
	}
	want, err := decimal.NewFromString(delta)
	if err != nil {
		return err
	}
	now, err := s.readStats()
	if err != nil {
		return err
	}
	if got := now[field].Sub(s.stats[field]); !got.Equal(want) {
		return fmt.Errorf("%s grew by %s, expected %s", field, got.StringFixed(2), want.StringFixed(2))
	}
	return nil
}

func (s *ledgerSteps) amountFieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("field %q: expected %s, got %s", field, want, got)
	}
	return nil
}
