package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals are the incrementally maintained sums on the snapshot row.
type Totals struct {
	Donations     decimal.Decimal
	Distributions decimal.Decimal
}

// Add returns t with amount added to the sum for kind.
func (t Totals) Add(kind Kind, amount decimal.Decimal) Totals {
	switch kind {
	case KindDonation:
		t.Donations = t.Donations.Add(amount)
	case KindDistribution:
		t.Distributions = t.Distributions.Add(amount)
	}
	return t
}

// Snapshot is the public statistics view: stored sums plus live counts.
type Snapshot struct {
	TotalDonations     decimal.Decimal
	TotalDistributions decimal.Decimal
	TotalDonors        int64
	TotalNGOs          int64
	TotalRecipients    int64
	AsOf               time.Time
}
