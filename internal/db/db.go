package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Outcome is one delivery result, logged fire-and-forget. The core owns no
// business data; this table is a one-way notification to the back office.
type Outcome struct {
	MessageID string
	JobID     string
	Recipient string
	Subject   string
	Status    string
	Error     string
}

type Store struct {
	Pool *pgxpool.Pool
}

func New(conn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), conn)
	if err != nil {
		return nil, err
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) RecordOutcome(ctx context.Context, o Outcome) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO delivery_outcomes
		 (message_id, job_id, recipient, subject, status, error_msg, recorded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		o.MessageID,
		o.JobID,
		o.Recipient,
		o.Subject,
		o.Status,
		o.Error,
	)

	return err
}
