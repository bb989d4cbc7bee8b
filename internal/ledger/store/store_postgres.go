package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"aidledger/internal/ledger/models"
	id "aidledger/pkg/domain"
	txcontext "aidledger/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// PostgresStore persists ledger state in PostgreSQL. Running totals are
// updated with relative increments so concurrent transfers never overwrite
// each other.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateParty(ctx context.Context, party *models.Party) error {
	query := `
		INSERT INTO parties (id, role, name, wallet_id, email, region, description, location, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(party.ID),
		string(party.Role),
		party.Name,
		party.WalletID,
		party.Email,
		party.Region,
		party.Description,
		party.Location,
		party.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == "idx_parties_donor_email" {
				return ErrEmailTaken
			}
			return ErrWalletTaken
		}
		return fmt.Errorf("create party: %w", err)
	}
	return nil
}

const partyColumns = `id, role, name, wallet_id, COALESCE(email, ''), COALESCE(region, ''),
	COALESCE(description, ''), COALESCE(location, ''),
	total_donated, total_received, total_distributed, created_at`

func (s *PostgresStore) FindParty(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE id = $1`
	p, err := scanParty(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(partyID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find party: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListParties(ctx context.Context, role models.Role, limit int) ([]*models.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE role = $1 ORDER BY created_at, id`
	args := []any{string(role)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parties: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByRole(ctx context.Context) (models.PartyCounts, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT role, COUNT(*) FROM parties GROUP BY role`)
	if err != nil {
		return models.PartyCounts{}, fmt.Errorf("count parties: %w", err)
	}
	defer rows.Close()

	var c models.PartyCounts
	for rows.Next() {
		var (
			role string
			n    int64
		)
		if err := rows.Scan(&role, &n); err != nil {
			return models.PartyCounts{}, fmt.Errorf("scan party count: %w", err)
		}
		switch models.Role(role) {
		case models.RoleDonor:
			c.Donors = n
		case models.RoleNGO:
			c.NGOs = n
		case models.RoleRecipient:
			c.Recipients = n
		}
	}
	if err := rows.Err(); err != nil {
		return models.PartyCounts{}, fmt.Errorf("iterate party counts: %w", err)
	}
	return c, nil
}

const entryColumns = `proof, kind, source_id, dest_id, amount, status, recorded_at`

func (s *PostgresStore) FindEntry(ctx context.Context, proof string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE proof = $1`
	e, err := scanEntry(s.execer(ctx).QueryRowContext(ctx, query, proof))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return e, nil
}

// ListEntries returns entries newest first.
func (s *PostgresStore) ListEntries(ctx context.Context, filter models.EntryFilter) ([]*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE ($1 = '' OR kind = $1)
		ORDER BY recorded_at DESC, proof
	`
	args := []any{string(filter.Kind)}
	if filter.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, filter.Limit)
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// LoadOrInitSnapshot returns the aggregate sums. The row is created with an
// idempotent insert, so concurrent first readers converge on one row.
func (s *PostgresStore) LoadOrInitSnapshot(ctx context.Context) (models.Totals, error) {
	exec := s.execer(ctx)
	if _, err := exec.ExecContext(ctx,
		`INSERT INTO ledger_snapshot (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
	); err != nil {
		return models.Totals{}, fmt.Errorf("init snapshot: %w", err)
	}

	var t models.Totals
	err := exec.QueryRowContext(ctx,
		`SELECT total_donations, total_distributions FROM ledger_snapshot WHERE id = 1`,
	).Scan(&t.Donations, &t.Distributions)
	if err != nil {
		return models.Totals{}, fmt.Errorf("load snapshot: %w", err)
	}
	return t, nil
}

// RunInTx runs fn inside a single database transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	return txcontext.Run(ctx, s.db, nil, func(txCtx context.Context) error {
		sqlTx, _ := txcontext.From(txCtx)
		return fn(&pgTx{tx: sqlTx})
	})
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) InsertEntry(ctx context.Context, e *models.Entry) error {
	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (proof) DO NOTHING
	`
	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	res, err := t.tx.ExecContext(ctx, query,
		e.Proof,
		string(e.Kind),
		uuid.UUID(e.SourceID),
		uuid.UUID(e.DestID),
		e.Amount,
		string(e.Status),
		recordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert entry rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrDuplicateProof
	}
	return nil
}

func (t *pgTx) AddToPartyTotal(ctx context.Context, partyID id.PartyID, field models.TotalField, amount decimal.Decimal) error {
	var column string
	switch field {
	case models.FieldTotalDonated:
		column = "total_donated"
	case models.FieldTotalReceived:
		column = "total_received"
	case models.FieldTotalDistributed:
		column = "total_distributed"
	default:
		return fmt.Errorf("unknown total field %q", field)
	}

	query := `UPDATE parties SET ` + column + ` = ` + column + ` + $1 WHERE id = $2`
	res, err := t.tx.ExecContext(ctx, query, amount, uuid.UUID(partyID))
	if err != nil {
		return fmt.Errorf("increment %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment %s rows affected: %w", column, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) AddToSnapshot(ctx context.Context, kind models.Kind, amount decimal.Decimal) error {
	delta := models.Totals{Donations: decimal.Zero, Distributions: decimal.Zero}.Add(kind, amount)
	query := `
		INSERT INTO ledger_snapshot (id, total_donations, total_distributions, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			total_donations = ledger_snapshot.total_donations + EXCLUDED.total_donations,
			total_distributions = ledger_snapshot.total_distributions + EXCLUDED.total_distributions,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := t.tx.ExecContext(ctx, query, delta.Donations, delta.Distributions); err != nil {
		return fmt.Errorf("increment snapshot: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParty(row rowScanner) (*models.Party, error) {
	var (
		p    models.Party
		pid  uuid.UUID
		role string
	)
	err := row.Scan(&pid, &role, &p.Name, &p.WalletID, &p.Email, &p.Region,
		&p.Description, &p.Location,
		&p.TotalDonated, &p.TotalReceived, &p.TotalDistributed, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = id.PartyID(pid)
	p.Role = models.Role(role)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e            models.Entry
		source, dest uuid.UUID
		kind, status string
	)
	if err := row.Scan(&e.Proof, &kind, &source, &dest, &e.Amount, &status, &e.RecordedAt); err != nil {
		return nil, err
	}
	e.Kind = models.Kind(kind)
	e.Status = models.Status(status)
	e.SourceID = id.PartyID(source)
	e.DestID = id.PartyID(dest)
	e.RecordedAt = e.RecordedAt.UTC()
	return &e, nil
}
