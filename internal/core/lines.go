package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// insertLinesTx writes lines for (kind, documentID) in position order.
func insertLinesTx(ctx context.Context, tx pgx.Tx, kind DocumentKind, documentID int, lines []LineItem) error {
	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO line_items (document_kind, document_id, position, description, quantity, unit,
			                        unit_price, discount_percent, vat_category, line_total, vat_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, string(kind), documentID, l.Position, l.Description, l.Quantity, l.Unit,
			l.UnitPrice, l.DiscountPercent, string(l.VATCategory), l.LineTotal, l.VATAmount)
		if err != nil {
			return fmt.Errorf("failed to insert %s line %d: %w", entityName(kind), l.Position, err)
		}
	}
	return nil
}

func fetchLines(ctx context.Context, q pgxQuerier, kind DocumentKind, documentID int) ([]LineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT position, description, quantity, unit, unit_price, discount_percent,
		       vat_category, line_total, vat_amount
		FROM line_items
		WHERE document_kind = $1 AND document_id = $2
		ORDER BY position
	`, string(kind), documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s lines: %w", entityName(kind), err)
	}
	defer rows.Close()

	lines := []LineItem{}
	for rows.Next() {
		var l LineItem
		var category string
		if err := rows.Scan(&l.Position, &l.Description, &l.Quantity, &l.Unit, &l.UnitPrice,
			&l.DiscountPercent, &category, &l.LineTotal, &l.VATAmount); err != nil {
			return nil, fmt.Errorf("failed to scan %s line: %w", entityName(kind), err)
		}
		l.VATCategory = VATCategory(category)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
