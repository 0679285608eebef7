package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

type PgPartyRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewPgPartyRepository(db DBPool, logger *slog.Logger) *PgPartyRepository {
	return &PgPartyRepository{db: db, logger: logger}
}

func (r *PgPartyRepository) FindByID(ctx context.Context, id uuid.UUID, role domain.PartyRole) (*domain.Party, error) {
	query := `
		SELECT id, role, name, number, created_at
		FROM parties
		WHERE id = $1 AND role = $2
	`
	p := &domain.Party{}
	err := r.db.QueryRow(ctx, query, id, role).Scan(&p.ID, &p.Role, &p.Name, &p.Number, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Party not found", "party_id", id, "role", role)
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error finding party by ID", "error", err, "party_id", id)
		return nil, err
	}
	return p, nil
}

func (r *PgPartyRepository) List(ctx context.Context, role domain.PartyRole) ([]*domain.Party, error) {
	query := `
		SELECT id, role, name, number, created_at
		FROM parties
		WHERE role = $1
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing parties", "error", err, "role", role)
		return nil, err
	}
	defer rows.Close()

	var parties []*domain.Party
	for rows.Next() {
		p := &domain.Party{}
		if err := rows.Scan(&p.ID, &p.Role, &p.Name, &p.Number, &p.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning party row", "error", err, "role", role)
			return nil, err
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating party rows", "error", err, "role", role)
		return nil, err
	}
	return parties, nil
}
