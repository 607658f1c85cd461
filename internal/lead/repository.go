package lead

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores the optional contact details left in the wizard.
type Repository interface {
	SaveEmail(ctx context.Context, email, firstName string) error
}

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// SaveEmail is idempotent per address.
func (r *postgresRepo) SaveEmail(ctx context.Context, email, firstName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	var name *string
	if firstName = strings.TrimSpace(firstName); firstName != "" {
		name = &firstName
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customer_emails (email, first_name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING`, email, name)
	if err != nil {
		return fmt.Errorf("save email: %w", err)
	}
	return nil
}
