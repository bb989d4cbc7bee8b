// Command seed registers sample parties and initializes the snapshot. With
// -demo it also records one donation and one distribution through the
// recorder, so the audit log receives real submissions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"

	"aidledger/internal/app"
	"aidledger/internal/ledger/models"
	"aidledger/internal/platform/config"
	"aidledger/internal/platform/logger"
	registryservice "aidledger/internal/registry/service"
	dErrors "aidledger/pkg/domain-errors"
)

const seedLockKey = "aidledger:seed"

var samples = []registryservice.RegisterRequest{
	{Role: models.RoleDonor, Name: "Alice Johnson", Email: "alice@example.com", WalletID: "0.0.1234567"},
	{Role: models.RoleDonor, Name: "Bob Smith", Email: "bob@example.com", WalletID: "0.0.1234568"},
	{Role: models.RoleDonor, Name: "Carol Davis", Email: "carol@example.com", WalletID: "0.0.1234569"},
	{Role: models.RoleNGO, Name: "Global Relief Foundation", Region: "Global", WalletID: "0.0.2234567", Description: "International humanitarian organization"},
	{Role: models.RoleNGO, Name: "Local Community Aid", Region: "North America", WalletID: "0.0.2234568", Description: "Community-focused aid organization"},
	{Role: models.RoleNGO, Name: "Emergency Response Team", Region: "Africa", WalletID: "0.0.2234569", Description: "Rapid response humanitarian aid"},
	{Role: models.RoleRecipient, Name: "Maria Rodriguez", Location: "Mexico City, Mexico", WalletID: "0.0.3234567"},
	{Role: models.RoleRecipient, Name: "Ahmed Hassan", Location: "Cairo, Egypt", WalletID: "0.0.3234568"},
	{Role: models.RoleRecipient, Name: "Sarah Kim", Location: "Seoul, South Korea", WalletID: "0.0.3234569"},
}

func main() {
	demo := flag.Bool("demo", false, "record a sample donation and distribution")
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	if err := run(*demo, *timeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(demo bool, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	// Concurrent seed runs against a shared store would race on the demo
	// transfers; serialize them when Redis is available.
	if rdb := a.Redis(); rdb != nil {
		lock, err := redislock.New(rdb.Client).Obtain(ctx, seedLockKey, timeout, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			log.Warn("another seed run holds the lock, skipping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("obtain seed lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				log.Warn("release seed lock", "error", err)
			}
		}()
	}

	byWallet, err := seedParties(ctx, a, log)
	if err != nil {
		return err
	}
	snap, err := a.Reader.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initialize snapshot: %w", err)
	}
	log.Info("snapshot initialized",
		"donors", snap.TotalDonors,
		"ngos", snap.TotalNGOs,
		"recipients", snap.TotalRecipients,
	)

	if !demo {
		return nil
	}
	return runDemo(ctx, a, log, byWallet)
}

// seedParties registers every sample party that is not already present and
// returns all of them keyed by wallet id.
func seedParties(ctx context.Context, a *app.App, log *slog.Logger) (map[string]*models.Party, error) {
	byWallet := make(map[string]*models.Party, len(samples))
	for _, req := range samples {
		p, err := a.Registry.Register(ctx, req)
		switch {
		case err == nil:
			log.Info("party created", "role", p.Role, "name", p.Name)
			byWallet[p.WalletID] = p
		case dErrors.HasCode(err, dErrors.CodeConflict):
			log.Debug("party already present", "wallet_id", req.WalletID)
		default:
			return nil, fmt.Errorf("register %s: %w", req.Name, err)
		}
	}

	for _, role := range []models.Role{models.RoleDonor, models.RoleNGO, models.RoleRecipient} {
		parties, err := a.Registry.List(ctx, role, 1000)
		if err != nil {
			return nil, err
		}
		for _, p := range parties {
			byWallet[p.WalletID] = p
		}
	}
	return byWallet, nil
}

func runDemo(ctx context.Context, a *app.App, log *slog.Logger, byWallet map[string]*models.Party) error {
	donor, ngo, recipient := byWallet["0.0.1234567"], byWallet["0.0.2234567"], byWallet["0.0.3234567"]
	if donor == nil || ngo == nil || recipient == nil {
		return fmt.Errorf("demo parties missing")
	}

	donation, err := a.Recorder.RecordDonation(ctx, donor.ID, ngo.ID, decimal.RequireFromString("1000.00"))
	if err != nil {
		return fmt.Errorf("record donation: %w", err)
	}
	log.Info("donation recorded", "proof", donation.Proof, "amount", donation.Amount.StringFixed(2))

	distribution, err := a.Recorder.RecordDistribution(ctx, ngo.ID, recipient.ID, decimal.RequireFromString("300.00"))
	if err != nil {
		return fmt.Errorf("record distribution: %w", err)
	}
	log.Info("distribution recorded", "proof", distribution.Proof, "amount", distribution.Amount.StringFixed(2))

	snap, err := a.Reader.Snapshot(ctx)
	if err != nil {
		return err
	}
	log.Info("demo complete",
		"total_donations", snap.TotalDonations.StringFixed(2),
		"total_distributions", snap.TotalDistributions.StringFixed(2),
	)
	return nil
}
