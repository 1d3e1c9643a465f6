package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ngoctd/storefront/internal/model"
)

var _ model.StateStore = (*StateRepository)(nil)

// StateRepository keeps one row per state name in the client_state table.
// Useful when the storefront client runs on a shared terminal and state
// must survive the machine, not just the process.
type StateRepository struct {
	db *Connection
}

func NewStateRepository(db *Connection) *StateRepository {
	return &StateRepository{
		db: db,
	}
}

func (r *StateRepository) Load(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	query := `SELECT data FROM client_state WHERE name = $1`

	err := r.db.QueryRow(ctx, query, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load state %s: %w", name, err)
	}

	return data, nil
}

func (r *StateRepository) Save(ctx context.Context, name string, data []byte) error {
	query := `INSERT INTO client_state (name, data, updated_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query, name, data, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save state %s: %w", name, err)
	}

	return nil
}
