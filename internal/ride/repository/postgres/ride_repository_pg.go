package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ridebird/rideproxy/internal/ride/domain"
)

// pgSerializationFailure is the SQLSTATE raised when a serializable
// transaction loses a race and must be retried.
const pgSerializationFailure = "40001"

type PgRideRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewPgRideRepository(db DBPool, logger *slog.Logger) *PgRideRepository {
	return &PgRideRepository{db: db, logger: logger}
}

// ListEligibleProxyNumbers returns pool numbers with no existing ride that
// touches either party on either side, least recently assigned first so
// allocation spreads load across the pool.
func (r *PgRideRepository) ListEligibleProxyNumbers(ctx context.Context, customerID, driverID uuid.UUID) ([]*domain.ProxyNumber, error) {
	query := `
		SELECT p.id, p.number, p.created_at
		FROM proxy_numbers p
		WHERE NOT EXISTS (
			SELECT 1 FROM rides r
			WHERE r.proxy_number_id = p.id
			  AND (r.customer_id = $1 OR r.driver_id = $1 OR r.customer_id = $2 OR r.driver_id = $2)
		)
		ORDER BY (SELECT MAX(r.created_at) FROM rides r WHERE r.proxy_number_id = p.id) ASC NULLS FIRST, p.number ASC
	`
	rows, err := r.db.Query(ctx, query, customerID, driverID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing eligible proxy numbers", "error", err, "customer_id", customerID, "driver_id", driverID)
		return nil, err
	}
	defer rows.Close()

	var numbers []*domain.ProxyNumber
	for rows.Next() {
		pn := &domain.ProxyNumber{}
		if err := rows.Scan(&pn.ID, &pn.Number, &pn.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning eligible proxy number row", "error", err)
			return nil, err
		}
		numbers = append(numbers, pn)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating eligible proxy number rows", "error", err)
		return nil, err
	}
	return numbers, nil
}

// CreateRide re-checks eligibility of the chosen proxy number and inserts the
// ride inside one serializable transaction, so two racing allocations can
// never bind the same number to rides that share a party. A lost race
// surfaces as domain.ErrConflict with nothing written.
func (r *PgRideRepository) CreateRide(ctx context.Context, ride *domain.Ride) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		r.logger.ErrorContext(ctx, "Error beginning ride transaction", "error", err, "ride_id", ride.ID)
		return err
	}
	defer tx.Rollback(ctx)

	checkQuery := `
		SELECT NOT EXISTS (
			SELECT 1 FROM rides r
			WHERE r.proxy_number_id = $1
			  AND (r.customer_id = $2 OR r.driver_id = $2 OR r.customer_id = $3 OR r.driver_id = $3)
		)
	`
	var eligible bool
	if err := tx.QueryRow(ctx, checkQuery, ride.ProxyNumberID, ride.CustomerID, ride.DriverID).Scan(&eligible); err != nil {
		r.logger.ErrorContext(ctx, "Error re-checking proxy number eligibility", "error", err, "ride_id", ride.ID)
		return translateSerialization(err)
	}
	if !eligible {
		r.logger.WarnContext(ctx, "Proxy number no longer eligible at insert time", "ride_id", ride.ID, "proxy_number_id", ride.ProxyNumberID)
		return domain.ErrConflict
	}

	insertQuery := `
		INSERT INTO rides (id, customer_id, driver_id, proxy_number_id, start_location, destination, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.Exec(ctx, insertQuery,
		ride.ID, ride.CustomerID, ride.DriverID, ride.ProxyNumberID,
		ride.Start, ride.Destination, ride.ScheduledAt, ride.CreatedAt,
	); err != nil {
		r.logger.ErrorContext(ctx, "Error inserting ride", "error", err, "ride_id", ride.ID)
		return translateSerialization(err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Error committing ride transaction", "error", err, "ride_id", ride.ID)
		return translateSerialization(err)
	}

	r.logger.InfoContext(ctx, "Ride created", "ride_id", ride.ID, "proxy_number_id", ride.ProxyNumberID)
	return nil
}

// FindRouteByProxyAndPartyNumber returns the most recently created ride on the
// proxy number where the originating number is one of the two parties. Newest
// first favors the active conversation when the append-only history holds
// several matches.
func (r *PgRideRepository) FindRouteByProxyAndPartyNumber(ctx context.Context, proxyNumber, partyNumber string) (*domain.RideRoute, error) {
	query := `
		SELECT r.id, c.number, d.number, p.number, r.created_at
		FROM rides r
		JOIN parties c ON c.id = r.customer_id
		JOIN parties d ON d.id = r.driver_id
		JOIN proxy_numbers p ON p.id = r.proxy_number_id
		WHERE p.number = $1 AND (c.number = $2 OR d.number = $2)
		ORDER BY r.created_at DESC
		LIMIT 1
	`
	route := &domain.RideRoute{}
	err := r.db.QueryRow(ctx, query, proxyNumber, partyNumber).Scan(
		&route.RideID, &route.CustomerNumber, &route.DriverNumber, &route.ProxyNumber, &route.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "No ride matches proxy number and originator", "proxy_number", proxyNumber)
			return nil, domain.ErrUnknownRoute
		}
		r.logger.ErrorContext(ctx, "Error finding ride route", "error", err, "proxy_number", proxyNumber)
		return nil, err
	}
	return route, nil
}

func (r *PgRideRepository) List(ctx context.Context) ([]*domain.RideSummary, error) {
	query := `
		SELECT r.id, c.name, d.name, r.start_location, r.destination, r.scheduled_at, p.number, r.created_at
		FROM rides r
		JOIN parties c ON c.id = r.customer_id
		JOIN parties d ON d.id = r.driver_id
		JOIN proxy_numbers p ON p.id = r.proxy_number_id
		ORDER BY r.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing rides", "error", err)
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.RideSummary
	for rows.Next() {
		rs := &domain.RideSummary{}
		if err := rows.Scan(&rs.ID, &rs.CustomerName, &rs.DriverName, &rs.Start, &rs.Destination, &rs.ScheduledAt, &rs.ProxyNumber, &rs.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Error scanning ride summary row", "error", err)
			return nil, err
		}
		rides = append(rides, rs)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating ride summary rows", "error", err)
		return nil, err
	}
	return rides, nil
}

func translateSerialization(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure {
		return domain.ErrConflict
	}
	return err
}
