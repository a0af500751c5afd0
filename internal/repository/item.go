package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

const itemColumns = `unique_id, item_name, item_description, enchantment, tier`

type ItemRepo struct {
	pool *pgxpool.Pool
}

func NewItemRepo(pool *pgxpool.Pool) *ItemRepo {
	return &ItemRepo{pool: pool}
}

// Search matches term case-insensitively against name and description.
func (r *ItemRepo) Search(ctx context.Context, term string, offset, limit int) ([]models.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM item
		 WHERE item_name ILIKE $1 OR item_description ILIKE $1
		 ORDER BY item_name ASC, unique_id ASC, enchantment ASC
		 OFFSET $2 LIMIT $3`,
		"%"+escapeLike(term)+"%", offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// Name returns the display name of an item. found is false when no row
// exists, which is not an error.
func (r *ItemRepo) Name(ctx context.Context, uniqueID string) (name string, found bool, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT item_name FROM item WHERE unique_id = $1 ORDER BY enchantment ASC LIMIT 1`,
		uniqueID,
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("item name: %w", err)
	}
	return name, true, nil
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func collectItems(rows rowsIter) ([]models.Item, error) {
	out := []models.Item{}
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.UniqueID, &it.ItemName, &it.ItemDescription, &it.Enchantment, &it.Tier); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
