package postgres

import (
	"context"
	"log/slog"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

type PgProxyNumberRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewPgProxyNumberRepository(db DBPool, logger *slog.Logger) *PgProxyNumberRepository {
	return &PgProxyNumberRepository{db: db, logger: logger}
}

func (r *PgProxyNumberRepository) List(ctx context.Context) ([]*domain.ProxyNumber, error) {
	query := `
		SELECT id, number, created_at
		FROM proxy_numbers
		ORDER BY number ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing proxy numbers", "error", err)
		return nil, err
	}
	defer rows.Close()

	var numbers []*domain.ProxyNumber
	for rows.Next() {
		pn := &domain.ProxyNumber{}
		if err := rows.Scan(&pn.ID, &pn.Number, &pn.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning proxy number row", "error", err)
			return nil, err
		}
		numbers = append(numbers, pn)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating proxy number rows", "error", err)
		return nil, err
	}
	return numbers, nil
}
