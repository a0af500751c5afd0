package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

const observationColumns = `unique_id, location, recorded_time, price, count, quality, created_at`

type ObservationRepo struct {
	pool *pgxpool.Pool
}

func NewObservationRepo(pool *pgxpool.Pool) *ObservationRepo {
	return &ObservationRepo{pool: pool}
}

// Range returns observations for an item with recorded_time in [from, to),
// oldest first. An empty location means every city.
func (r *ObservationRepo) Range(ctx context.Context, uniqueID string, from, to time.Time, location string) ([]models.Observation, error) {
	q := `SELECT ` + observationColumns + ` FROM item_n_location
		 WHERE unique_id = $1 AND recorded_time >= $2 AND recorded_time < $3`
	args := []any{uniqueID, from, to}
	if location != "" {
		q += ` AND location = $4`
		args = append(args, location)
	}
	q += ` ORDER BY recorded_time ASC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()
	return collectObservations(rows)
}

// Latest returns up to limit observations for an item, newest first.
func (r *ObservationRepo) Latest(ctx context.Context, uniqueID, location string, limit int) ([]models.Observation, error) {
	q := `SELECT ` + observationColumns + ` FROM item_n_location WHERE unique_id = $1`
	args := []any{uniqueID}
	if location != "" {
		q += ` AND location = $2`
		args = append(args, location)
	}
	q += fmt.Sprintf(` ORDER BY recorded_time DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()
	return collectObservations(rows)
}

// RecordBatch bulk-inserts observations with COPY.
func (r *ObservationRepo) RecordBatch(ctx context.Context, obs []models.Observation) (int64, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"item_n_location"},
		[]string{"unique_id", "location", "recorded_time", "price", "count", "quality"},
		pgx.CopyFromSlice(len(obs), func(i int) ([]any, error) {
			o := obs[i]
			var loc any
			if o.Location.Valid {
				loc = o.Location.String
			}
			return []any{o.UniqueID, loc, o.RecordedTime, o.Price, o.Count, o.Quality}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy observations: %w", err)
	}
	return n, nil
}

// --- scan helpers ---

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectObservations(rows rowsIter) ([]models.Observation, error) {
	out := []models.Observation{}
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.UniqueID, &o.Location, &o.RecordedTime, &o.Price, &o.Count, &o.Quality, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.RecordedTime = o.RecordedTime.UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}
