package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres reads centers and tests from the diagnostic_centers and
// diagnostic_tests tables. Upsert is its only write path.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func scanCenter(row pgx.Row) (*Center, error) {
	var c Center
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanTest(row pgx.Row) (*Test, error) {
	var t Test
	var price string
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &price, &t.DurationMinutes, &t.CenterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price of test %s: %w", t.ID, err)
	}
	return &t, nil
}

const testColumns = `id, name, description, category, price::text, duration_minutes, center_id`

func (p *Postgres) GetCenter(ctx context.Context, id string) (*Center, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, name, address, phone, email, description
		FROM diagnostic_centers
		WHERE id = $1
	`, id)
	return scanCenter(row)
}

func (p *Postgres) GetTest(ctx context.Context, id string) (*Test, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+testColumns+`
		FROM diagnostic_tests
		WHERE id = $1
	`, id)
	return scanTest(row)
}

func (p *Postgres) ListTestsForCenter(ctx context.Context, centerID string) ([]Test, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+testColumns+`
		FROM diagnostic_tests
		WHERE center_id = $1
		ORDER BY position, id
	`, centerID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var out []Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (p *Postgres) ListCenters(ctx context.Context) ([]Center, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, address, phone, email, description
		FROM diagnostic_centers
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	defer rows.Close()

	var out []Center
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Upsert writes centers and tests in one transaction, keeping slice order as
// the listing position.
func (p *Postgres) Upsert(ctx context.Context, centers []Center, tests []Test) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, c := range centers {
		_, err := tx.Exec(ctx, `
			INSERT INTO diagnostic_centers (id, name, address, phone, email, description, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone,
			    email = EXCLUDED.email, description = EXCLUDED.description, position = EXCLUDED.position
		`, c.ID, c.Name, c.Address, c.Phone, c.Email, c.Description, i)
		if err != nil {
			return fmt.Errorf("upsert center %s: %w", c.ID, err)
		}
	}

	for i, t := range tests {
		_, err := tx.Exec(ctx, `
			INSERT INTO diagnostic_tests (id, name, description, category, price, duration_minutes, center_id, position)
			VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, description = EXCLUDED.description, category = EXCLUDED.category,
			    price = EXCLUDED.price, duration_minutes = EXCLUDED.duration_minutes,
			    center_id = EXCLUDED.center_id, position = EXCLUDED.position
		`, t.ID, t.Name, t.Description, t.Category, t.Price.String(), t.DurationMinutes, t.CenterID, i)
		if err != nil {
			return fmt.Errorf("upsert test %s: %w", t.ID, err)
		}
	}

	return tx.Commit(ctx)
}
