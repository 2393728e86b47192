package editor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/model"
)

// HeaderEdit carries the header fields to change
type HeaderEdit struct {
	Number          *string          `json:"number,omitempty"`
	IssueDate       *string          `json:"issue_date,omitempty"`
	DueDate         *string          `json:"due_date,omitempty"`
	InvoiceTypeCode *string          `json:"invoice_type_code,omitempty"`
	Currency        *string          `json:"currency,omitempty"`
	TaxCurrency     *string          `json:"tax_currency,omitempty"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate,omitempty"`
	Note            *string          `json:"note,omitempty"`
}

// UpdateHeader applies edit. Header fields never affect totals.
func (s *Session) UpdateHeader(edit HeaderEdit) {
	h := &s.inv.Header
	if edit.Number != nil {
		h.Number = strings.TrimSpace(*edit.Number)
	}
	if edit.IssueDate != nil {
		h.IssueDate = strings.TrimSpace(*edit.IssueDate)
	}
	if edit.DueDate != nil {
		h.DueDate = strings.TrimSpace(*edit.DueDate)
	}
	if edit.InvoiceTypeCode != nil {
		h.InvoiceTypeCode = strings.TrimSpace(*edit.InvoiceTypeCode)
	}
	if edit.Currency != nil {
		h.Currency = strings.ToUpper(strings.TrimSpace(*edit.Currency))
	}
	if edit.TaxCurrency != nil {
		h.TaxCurrency = strings.ToUpper(strings.TrimSpace(*edit.TaxCurrency))
	}
	if edit.ExchangeRate != nil {
		h.ExchangeRate = *edit.ExchangeRate
	}
	if edit.Note != nil {
		h.Note = *edit.Note
	}
}

// Role selects one of the two parties
type Role string

const (
	RoleSupplier Role = "supplier"
	RoleCustomer Role = "customer"
)

// SetParty replaces a party. A supplier change re-applies the VAT registration
// policy and recomputes when it moved any line or charge.
func (s *Session) SetParty(role Role, p model.Party) error {
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))
	if p.Country == "" {
		p.Country = model.DefaultCountry
	}

	switch role {
	case RoleSupplier:
		before := s.inv.Supplier.VATID
		s.inv.Supplier = p
		if s.policy.Apply(s.inv) {
			s.logger.Info().
				Str("from", before).
				Str("to", p.VATID).
				Msg("supplier VAT registration changed")
			s.dispatch(changeLine)
		}
		return nil
	case RoleCustomer:
		s.inv.Customer = p
		return nil
	default:
		return fmt.Errorf("unknown party role %q", role)
	}
}

// EditTotal overwrites one displayed total. The value is exported verbatim
// until the next recompute.
func (s *Session) EditTotal(field model.TotalField, value decimal.Decimal) error {
	if err := s.displayed.Set(field, value); err != nil {
		return err
	}
	s.edited = true
	return nil
}
