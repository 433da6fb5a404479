package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"timeoff/internal/platform/querier"
)

var (
	ErrInsufficientBalance = errors.New("insufficient vacation balance")
	ErrUserNotFound        = errors.New("user not found")
)

// Ledger applies day deductions and admin overrides to user balances.
// Mutating operations take an open transaction so the balance change
// commits or rolls back together with the status transition that caused
// it. Deductions happen only on approval; rejection and cancellation
// never touched the balance, so there is no reversal path.
type Ledger struct {
	DB querier.Querier
}

func NewLedger(db querier.Querier) *Ledger {
	return &Ledger{DB: db}
}

// Deduct subtracts days from the user's balance inside tx. The guard on
// the current committed value runs in the same statement, so a concurrent
// approval for the same user cannot drive the balance negative.
func (l *Ledger) Deduct(ctx context.Context, tx pgx.Tx, userID string, days int) error {
	if days < 0 {
		return fmt.Errorf("deduct days must not be negative, got %d", days)
	}
	tag, err := tx.Exec(ctx, `
    UPDATE users
    SET vacation_balance = vacation_balance - $2, updated_at = now()
    WHERE id = $1 AND vacation_balance >= $2
  `, userID, days)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current int
	if err := tx.QueryRow(ctx, "SELECT vacation_balance FROM users WHERE id = $1", userID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientBalance, current, days)
}

func (l *Ledger) SetBalance(ctx context.Context, tx pgx.Tx, userID string, value int) error {
	if value < 0 {
		return fmt.Errorf("balance must not be negative, got %d", value)
	}
	tag, err := tx.Exec(ctx, `
    UPDATE users
    SET vacation_balance = $2, updated_at = now()
    WHERE id = $1
  `, userID, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetAll sets every user's balance to value and reports how many rows
// changed.
func (l *Ledger) ResetAll(ctx context.Context, tx pgx.Tx, value int) (int, error) {
	if value < 0 {
		return 0, fmt.Errorf("balance must not be negative, got %d", value)
	}
	tag, err := tx.Exec(ctx, "UPDATE users SET vacation_balance = $1, updated_at = now()", value)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	var current int
	if err := l.DB.QueryRow(ctx, "SELECT vacation_balance FROM users WHERE id = $1", userID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return current, nil
}

func (l *Ledger) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return l.DB.Begin(ctx)
}
