package editor

import (
	"github.com/rezonia/efactura-editor/internal/catalog"
	"github.com/rezonia/efactura-editor/internal/model"
	"github.com/rezonia/efactura-editor/internal/totals"
	"github.com/rezonia/efactura-editor/internal/vatpolicy"
)

// change classifies what triggered a recompute
type change int

const (
	// changeLine is a value edit on a line or charge
	changeLine change = iota + 1
	// changeStructure adds or removes a line or charge
	changeStructure
	changeStorno
	// changeVATRow is a direct edit of the breakdown; other rows are left alone
	changeVATRow
	changeRefresh
)

func (c change) String() string {
	switch c {
	case changeLine:
		return "line"
	case changeStructure:
		return "structure"
	case changeStorno:
		return "storno"
	case changeVATRow:
		return "vat_row"
	case changeRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// dispatch is the only place totals are recomputed.
//
// Structural changes and storno clear every manual override. Value edits keep
// them unless the session is configured otherwise. A VAT row edit refreshes
// the VAT sum and the grand total only.
func (s *Session) dispatch(c change) {
	switch c {
	case changeStructure, changeStorno:
		s.overrides.ClearAll()
	case changeLine:
		if s.clearOnLineEdit {
			s.overrides.ClearAll()
		}
	}

	if c == changeVATRow {
		s.displayed = totals.ApplyVAT(s.displayed, s.inv.VATRows)
	} else {
		s.policy.Apply(s.inv)
		res := s.engine.Compute(s.inv.Lines, s.inv.Charges, s.inv.VATRows, s.overrides)
		s.inv.VATRows = res.Rows
		s.displayed = res.Totals
	}
	s.enforceNotRegisteredExemption()
	s.edited = true

	s.logger.Debug().
		Stringer("change", c).
		Int("vat_rows", len(s.inv.VATRows)).
		Int("overrides", s.overrides.Len()).
		Str("total", s.displayed.Total.String()).
		Msg("totals recomputed")
}

// enforceNotRegisteredExemption pins the primary VAT row to the fixed
// not-registered exemption pair while the supplier is not registered
func (s *Session) enforceNotRegisteredExemption() {
	if vatpolicy.IsRegistered(s.inv.Supplier.VATID) || len(s.inv.VATRows) == 0 {
		return
	}
	fixed, _ := catalog.FixedExemption(model.VATNotRegistered)
	row := s.inv.VATRows[0]
	row.ExemptionCode, row.ExemptionReason = fixed.Code, fixed.Label
}

// RefreshTotals recomputes everything from lines and charges, keeping manual rows
func (s *Session) RefreshTotals() {
	s.dispatch(changeRefresh)
}

// HandleStorno negates every quantity, discount, charge and VAT row, then
// recomputes the displayed totals from the negated lines. The stored original
// totals are negated as well. Applying it twice restores the document exactly.
func (s *Session) HandleStorno() {
	for _, l := range s.inv.Lines {
		l.Quantity = l.Quantity.Neg()
		l.Discount = l.Discount.Neg()
	}
	for _, c := range s.inv.Charges {
		c.Amount = c.Amount.Neg()
		c.BaseAmount = c.BaseAmount.Neg()
	}
	for _, r := range s.inv.VATRows {
		r.Base = r.Base.Neg()
		r.Amount = r.Amount.Neg()
	}
	if s.original != nil {
		o := s.original.Negate()
		s.original = &o
	}

	s.dispatch(changeStorno)
	s.logger.Info().Str("number", s.inv.Header.Number).Msg("storno applied")
}
