package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"redforge/models"
)

// PostgresStore keeps records in the customers table. Insertion order is
// the BIGSERIAL id.
type PostgresStore struct {
	log *zap.Logger
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(log *zap.Logger, db *sql.DB) *PostgresStore {
	return &PostgresStore{log: log, db: db, now: time.Now}
}

func (s *PostgresStore) Append(ctx context.Context, record models.CustomerRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (email, tier, status, source, stripe_customer_id, stripe_subscription_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, record.Email, record.Tier, record.Status, record.Source,
		record.StripeCustomerID, record.StripeSubscriptionID, record.CreatedAt)
	return Error.Wrap(err)
}

func (s *PostgresStore) List(ctx context.Context) ReadResult {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, tier, status, source, stripe_customer_id, stripe_subscription_id, created_at
		FROM customers
		ORDER BY id ASC
	`)
	if err != nil {
		return ReadResult{Records: []models.CustomerRecord{}, Status: ReadFailed, Err: Error.Wrap(err)}
	}
	defer rows.Close()

	res := scanRecords(rows)
	if res.Status == ReadCorrupt {
		s.log.Warn("unreadable customer row", zap.Error(res.Err))
	}
	return res
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ReadResult {
	records := []models.CustomerRecord{}
	for rows.Next() {
		var r models.CustomerRecord
		if err := rows.Scan(&r.Email, &r.Tier, &r.Status, &r.Source,
			&r.StripeCustomerID, &r.StripeSubscriptionID, &r.CreatedAt); err != nil {
			return ReadResult{Records: []models.CustomerRecord{}, Status: ReadCorrupt, Err: Error.Wrap(err)}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return ReadResult{Records: []models.CustomerRecord{}, Status: ReadFailed, Err: Error.Wrap(err)}
	}

	if len(records) == 0 {
		return ReadResult{Records: records, Status: ReadMissing}
	}
	return ReadResult{Records: records, Status: ReadOK}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
