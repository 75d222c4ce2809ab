package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/cashflow-forecaster/internal/config"
)

type Storage struct {
	DB     *sql.DB
	reader *Reader
}

func NewStorage(env *config.Config) (*Storage, error) {
	db, err := sql.Open("postgres", env.ConnString())
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	return &Storage{
		DB:     db,
		reader: NewReader(bob.NewDB(db)),
	}, nil
}

// NewStorageWithReader is used where the ledger comes from somewhere other than Postgres.
func NewStorageWithReader(reader *Reader) *Storage {
	return &Storage{reader: reader}
}

func (s *Storage) Read() *Reader {
	return s.reader
}

func (s *Storage) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.PingContext(ctx)
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
