package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xob0t/eventdp/pkg/event"
)

//go:embed schema.sql
var schema string

// NewPool opens and pings a connection pool.
func NewPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresRepository stores events in PostgreSQL. Placeholders live in
// JSONB columns.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the schema if missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const eventColumns = `id, title, event_date, description, flyer_url, organizer_id,
	image_placeholders, text_placeholders, created_at`

func scanEvent(row pgx.Row) (*event.Event, error) {
	var e event.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Date, &e.Description, &e.FlyerURL, &e.OrganizerID,
		&e.ImagePlaceholders, &e.TextPlaceholders, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]event.Event, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, e *event.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.ImagePlaceholders == nil {
		e.ImagePlaceholders = []event.ImagePlaceholder{}
	}
	if e.TextPlaceholders == nil {
		e.TextPlaceholders = []event.TextPlaceholder{}
	}

	query := `INSERT INTO events (` + eventColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.Title, e.Date, e.Description, e.FlyerURL, e.OrganizerID,
		e.ImagePlaceholders, e.TextPlaceholders, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	logger().Info("event created", "id", e.ID, "organizer", e.OrganizerID)
	return nil
}

func (r *PostgresRepository) SetFlyerURL(ctx context.Context, id, url string) error {
	tag, err := r.db.Exec(ctx, `UPDATE events SET flyer_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("update flyer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresRepository) Close() {
	r.db.Close()
}
