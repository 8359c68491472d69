package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyService manages the companies that own documents and counters.
type CompanyService interface {
	CreateCompany(ctx context.Context, name, currency string) (*Company, error)
	GetCompany(ctx context.Context, companyID int) (*Company, error)
}

type companyService struct {
	pool *pgxpool.Pool
}

func NewCompanyService(pool *pgxpool.Pool) CompanyService {
	return &companyService{pool: pool}
}

func (s *companyService) CreateCompany(ctx context.Context, name, currency string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO companies (name, currency) VALUES ($1, $2) RETURNING id
	`, name, currency).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Entity: "company", Key: name}
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return s.GetCompany(ctx, id)
}

// DefaultCurrency is used when a company is created without one.
const DefaultCurrency = "CHF"

// normalizeCurrency upper-cases code and checks it is three ASCII letters.
// An empty code means DefaultCurrency.
func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	if len(code) != 3 {
		return "", newValidationError("currency", "must be a three-letter ISO 4217 code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", newValidationError("currency", "must be a three-letter ISO 4217 code")
		}
	}
	return code, nil
}

// GetCompany returns the company with its four counters. Counters that have
// never been incremented read as zero.
func (s *companyService) GetCompany(ctx context.Context, companyID int) (*Company, error) {
	var c Company
	err := s.pool.QueryRow(ctx, `
		SELECT c.id, c.name, c.currency, c.created_at,
		       COALESCE(MAX(cc.value) FILTER (WHERE cc.kind = 'QUOTE'), 0),
		       COALESCE(MAX(cc.value) FILTER (WHERE cc.kind = 'ORDER'), 0),
		       COALESCE(MAX(cc.value) FILTER (WHERE cc.kind = 'INVOICE'), 0),
		       COALESCE(MAX(cc.value) FILTER (WHERE cc.kind = 'CREDIT_NOTE'), 0)
		FROM companies c
		LEFT JOIN company_counters cc ON cc.company_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`, companyID).Scan(&c.ID, &c.Name, &c.Currency, &c.CreatedAt,
		&c.QuoteCounter, &c.OrderCounter, &c.InvoiceCounter, &c.CreditNoteCounter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "company", ID: companyID}
		}
		return nil, fmt.Errorf("failed to fetch company %d: %w", companyID, err)
	}
	return &c, nil
}
