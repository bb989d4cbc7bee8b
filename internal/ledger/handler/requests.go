package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"aidledger/internal/ledger/models"
	"aidledger/internal/ledger/service"
	id "aidledger/pkg/domain"
	dErrors "aidledger/pkg/domain-errors"
)

type donationRequest struct {
	DonorID string          `json:"donor_id"`
	NGOID   string          `json:"ngo_id"`
	Amount  decimal.Decimal `json:"amount"`

	transfer service.TransferRequest
}

func (r *donationRequest) Validate() error {
	t, err := parseTransfer(models.KindDonation, r.DonorID, "donor_id", r.NGOID, "ngo_id", r.Amount)
	if err != nil {
		return err
	}
	r.transfer = t
	return nil
}

type distributionRequest struct {
	NGOID       string          `json:"ngo_id"`
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`

	transfer service.TransferRequest
}

func (r *distributionRequest) Validate() error {
	t, err := parseTransfer(models.KindDistribution, r.NGOID, "ngo_id", r.RecipientID, "recipient_id", r.Amount)
	if err != nil {
		return err
	}
	r.transfer = t
	return nil
}

func parseTransfer(kind models.Kind, source, sourceField, dest, destField string, amount decimal.Decimal) (service.TransferRequest, error) {
	sourceID, err := id.ParsePartyID(source)
	if err != nil {
		return service.TransferRequest{}, dErrors.Wrap(err, dErrors.CodeValidation, sourceField+" must be a party id")
	}
	destID, err := id.ParsePartyID(dest)
	if err != nil {
		return service.TransferRequest{}, dErrors.Wrap(err, dErrors.CodeValidation, destField+" must be a party id")
	}
	return service.TransferRequest{Kind: kind, SourceID: sourceID, DestID: destID, Amount: amount}, nil
}

type entryResponse struct {
	Proof      string    `json:"proof"`
	Kind       string    `json:"kind"`
	SourceID   string    `json:"source_id"`
	DestID     string    `json:"dest_id"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toEntryResponse(e *models.Entry) entryResponse {
	return entryResponse{
		Proof:      e.Proof,
		Kind:       string(e.Kind),
		SourceID:   e.SourceID.String(),
		DestID:     e.DestID.String(),
		Amount:     e.Amount.StringFixed(models.AmountScale),
		Status:     string(e.Status),
		RecordedAt: e.RecordedAt,
	}
}

type entryListResponse struct {
	Entries []entryResponse `json:"entries"`
	Count   int             `json:"count"`
}

type snapshotResponse struct {
	TotalDonations     string    `json:"total_donations"`
	TotalDistributions string    `json:"total_distributions"`
	TotalDonors        int64     `json:"total_donors"`
	TotalNGOs          int64     `json:"total_ngos"`
	TotalRecipients    int64     `json:"total_recipients"`
	AsOf               time.Time `json:"as_of"`
}

func toSnapshotResponse(s *models.Snapshot) snapshotResponse {
	return snapshotResponse{
		TotalDonations:     s.TotalDonations.StringFixed(models.AmountScale),
		TotalDistributions: s.TotalDistributions.StringFixed(models.AmountScale),
		TotalDonors:        s.TotalDonors,
		TotalNGOs:          s.TotalNGOs,
		TotalRecipients:    s.TotalRecipients,
		AsOf:               s.AsOf,
	}
}

type loggedEventResponse struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Dest      string    `json:"dest"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	LoggedAt  time.Time `json:"logged_at"`
}

type verificationResponse struct {
	Proof   string               `json:"proof"`
	Logged  bool                 `json:"logged"`
	Matches bool                 `json:"matches"`
	Entry   *entryResponse       `json:"entry,omitempty"`
	Record  *loggedEventResponse `json:"record,omitempty"`
}

func toVerificationResponse(v *service.Verification) verificationResponse {
	resp := verificationResponse{
		Proof:   v.Proof,
		Logged:  v.Record != nil,
		Matches: v.Matches,
	}
	if v.Entry != nil {
		entry := toEntryResponse(v.Entry)
		resp.Entry = &entry
	}
	if v.Record != nil {
		resp.Record = &loggedEventResponse{
			Type:      string(v.Record.Event.Kind),
			Source:    v.Record.Event.Source.Name,
			Dest:      v.Record.Event.Dest.Name,
			Amount:    v.Record.Event.Amount.StringFixed(models.AmountScale),
			Timestamp: v.Record.Event.Timestamp,
			LoggedAt:  v.Record.LoggedAt,
		}
	}
	return resp
}
