package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

type TrackingRepo struct {
	pool *pgxpool.Pool
}

func NewTrackingRepo(pool *pgxpool.Pool) *TrackingRepo {
	return &TrackingRepo{pool: pool}
}

func (r *TrackingRepo) Requests(ctx context.Context, userID string) ([]models.TrackingRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, unique_id, enchantment, created_at
		 FROM tracking_requests WHERE user_id = $1 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracking requests: %w", err)
	}
	defer rows.Close()

	out := []models.TrackingRequest{}
	for rows.Next() {
		var t models.TrackingRequest
		if err := rows.Scan(&t.ID, &t.UserID, &t.UniqueID, &t.Enchantment, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TrackedItems returns the items on a user's watch-list, matched on both
// unique_id and enchantment.
func (r *TrackingRepo) TrackedItems(ctx context.Context, userID string) ([]models.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT i.unique_id, i.item_name, i.item_description, i.enchantment, i.tier
		 FROM tracking_requests t
		 JOIN item i ON i.unique_id = t.unique_id AND i.enchantment = t.enchantment
		 WHERE t.user_id = $1
		 ORDER BY i.item_name ASC, i.unique_id ASC, i.enchantment ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracked items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// TrackedUniqueIDs lists every item any user is watching.
func (r *TrackingRepo) TrackedUniqueIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT unique_id FROM tracking_requests ORDER BY unique_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracked ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
