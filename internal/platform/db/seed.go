package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"timeoff/internal/domain/auth"
	"timeoff/internal/platform/config"
)

// Seed provisions the initial admin account and the settings row.
// It is idempotent: existing rows are left untouched, so it is safe to
// run on every startup.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := seedSettings(ctx, pool, cfg); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if err := seedAdmin(ctx, pool, cfg); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func seedSettings(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO settings (id, exclude_weekends, excluded_days, default_vacation_balance)
		VALUES (1, TRUE, '{0,6}', $1)
		ON CONFLICT (id) DO NOTHING`,
		cfg.DefaultVacationBalance,
	)
	return err
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" || cfg.SeedAdminPassword == "" {
		slog.Info("admin seed skipped, no credentials configured")
		return nil
	}

	var exists bool
	if err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = $1)`, email,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, full_name, role, vacation_balance)
		VALUES ($1, $2, $3, $4, $5)`,
		email, hash, "Administrator", auth.RoleAdmin, cfg.DefaultVacationBalance,
	)
	if err != nil {
		return err
	}
	slog.Info("admin account seeded", "email", email)
	return nil
}
