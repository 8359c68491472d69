package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceAllocator issues gap-free document numbers per company and kind.
type SequenceAllocator interface {
	// AllocateNumberTx increments the (company, kind) counter inside the caller's
	// transaction and returns the new value and the formatted number. The
	// counter row stays locked until the caller commits or rolls back, so a
	// failed document insert never consumes a number.
	AllocateNumberTx(ctx context.Context, tx pgx.Tx, companyID int, kind DocumentKind) (int64, string, error)
	// AllocateNumber runs AllocateNumberTx in its own transaction.
	AllocateNumber(ctx context.Context, companyID int, kind DocumentKind) (int64, string, error)
}

type sequenceAllocator struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewSequenceAllocator returns an allocator backed by the company_counters table.
func NewSequenceAllocator(pool *pgxpool.Pool, now func() time.Time) SequenceAllocator {
	if now == nil {
		now = time.Now
	}
	return &sequenceAllocator{pool: pool, now: now}
}

// FormatDocumentNumber renders "{PREFIX}-{yyyy}-{counter:04d}", e.g. AN-2024-0001.
func FormatDocumentNumber(kind DocumentKind, year int, counter int64) string {
	return fmt.Sprintf("%s-%04d-%04d", kind.Prefix(), year, counter)
}

func (s *sequenceAllocator) AllocateNumber(ctx context.Context, companyID int, kind DocumentKind) (int64, string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	value, number, err := s.AllocateNumberTx(ctx, tx, companyID, kind)
	if err != nil {
		return 0, "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, "", fmt.Errorf("failed to commit number allocation: %w", err)
	}
	return value, number, nil
}

func (s *sequenceAllocator) AllocateNumberTx(ctx context.Context, tx pgx.Tx, companyID int, kind DocumentKind) (int64, string, error) {
	if !kind.Valid() {
		return 0, "", newValidationError("kind", fmt.Sprintf("unknown document kind %q", kind))
	}

	var exists bool
	err := tx.QueryRow(ctx, "SELECT true FROM companies WHERE id = $1", companyID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", &NotFoundError{Entity: "company", ID: companyID}
		}
		return 0, "", fmt.Errorf("failed to resolve company %d: %w", companyID, err)
	}

	// One row per (company, kind): the upsert's row lock serializes allocations
	// of the same kind and leaves the other three counters free.
	var value int64
	err = tx.QueryRow(ctx, `
		INSERT INTO company_counters (company_id, kind, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, kind)
		DO UPDATE SET value = company_counters.value + 1
		RETURNING value
	`, companyID, string(kind)).Scan(&value)
	if err != nil {
		return 0, "", fmt.Errorf("failed to increment %s counter: %w", kind, err)
	}

	return value, FormatDocumentNumber(kind, s.now().Year(), value), nil
}
