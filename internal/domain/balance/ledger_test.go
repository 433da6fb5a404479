package balance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool, balance int) string {
	t.Helper()
	email := fmt.Sprintf("ledger-%d@test.local", time.Now().UnixNano())
	var id string
	err := pool.QueryRow(context.Background(), `
    INSERT INTO users (email, password_hash, full_name, role, vacation_balance)
    VALUES ($1, 'x', 'Ledger Test', 'employee', $2)
    RETURNING id
  `, email, balance).Scan(&id)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", id)
	})
	return id
}

func TestDeduct(t *testing.T) {
	pool := testPool(t)
	ledger := NewLedger(pool)
	ctx := context.Background()

	userID := createTestUser(t, pool, 10)

	tx, err := ledger.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ledger.Deduct(ctx, tx, userID, 4); err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := ledger.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 6 {
		t.Errorf("balance = %d, want 6", got)
	}
}

func TestDeductInsufficient(t *testing.T) {
	pool := testPool(t)
	ledger := NewLedger(pool)
	ctx := context.Background()

	userID := createTestUser(t, pool, 3)

	tx, err := ledger.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	err = ledger.Deduct(ctx, tx, userID, 5)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestDeductRollback(t *testing.T) {
	pool := testPool(t)
	ledger := NewLedger(pool)
	ctx := context.Background()

	userID := createTestUser(t, pool, 10)

	tx, err := ledger.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ledger.Deduct(ctx, tx, userID, 4); err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	got, err := ledger.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 10 {
		t.Errorf("balance = %d, rolled back deduction must not stick", got)
	}
}

func TestDeductUnknownUser(t *testing.T) {
	pool := testPool(t)
	ledger := NewLedger(pool)
	ctx := context.Background()

	tx, err := ledger.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	err = ledger.Deduct(ctx, tx, "00000000-0000-0000-0000-000000000000", 1)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSetBalanceAndResetAll(t *testing.T) {
	pool := testPool(t)
	ledger := NewLedger(pool)
	ctx := context.Background()

	userID := createTestUser(t, pool, 0)

	tx, err := ledger.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ledger.SetBalance(ctx, tx, userID, 25); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if err := ledger.SetBalance(ctx, tx, userID, -1); err == nil {
		t.Error("negative balance must be rejected")
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := ledger.Balance(ctx, userID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got != 25 {
		t.Errorf("balance = %d, want 25", got)
	}

	tx, err = ledger.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	affected, err := ledger.ResetAll(ctx, tx, 28)
	if err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	if affected < 1 {
		t.Errorf("affected = %d, want at least 1", affected)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
}
