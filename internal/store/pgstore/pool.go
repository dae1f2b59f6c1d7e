// Package pgstore is the Postgres-backed implementation of the store
// interfaces, built directly on jackc/pgx/v5: raw SQL, explicit Scan
// calls, no ORM.
package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps the shared connection pool every repository in this package
// is constructed from.
type Pool struct {
	DB *pgxpool.Pool
}

// Open connects to Postgres using dsn and returns a ready Pool.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Pool{DB: pool}, nil
}

func (p *Pool) Close() {
	p.DB.Close()
}
