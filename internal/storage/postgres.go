package storage

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/instaaid/ride-tracker/internal/models"
)

// PostgresJournal stores transitions in a ride_status_events table.
type PostgresJournal struct {
	db *sql.DB
}

func NewPostgresJournal(dsn string) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresJournal{db: db}, nil
}

func (p *PostgresJournal) Record(ctx context.Context, e models.StatusEvent) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO ride_status_events(ride_id, from_status, to_status, driver_id, observed_at) VALUES($1,$2,$3,$4,$5)`,
		e.RideID, string(e.From), string(e.To), e.DriverID, e.ObservedAt)
	return err
}

func (p *PostgresJournal) History(ctx context.Context, rideID string) ([]models.StatusEvent, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT ride_id, from_status, to_status, driver_id, observed_at FROM ride_status_events WHERE ride_id=$1 ORDER BY observed_at`, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StatusEvent
	for rows.Next() {
		var e models.StatusEvent
		var from, to string
		if err := rows.Scan(&e.RideID, &from, &to, &e.DriverID, &e.ObservedAt); err != nil {
			return nil, err
		}
		e.From = models.RideStatus(from)
		e.To = models.RideStatus(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *PostgresJournal) Close() error { return p.db.Close() }
