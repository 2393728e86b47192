package editor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/catalog"
	money "github.com/rezonia/efactura-editor/internal/decimal"
	"github.com/rezonia/efactura-editor/internal/model"
	"github.com/rezonia/efactura-editor/internal/totals"
)

// VATRowEdit carries the fields of a VAT row to change
type VATRowEdit struct {
	Base            *decimal.Decimal `json:"base,omitempty"`
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	Type            *model.VATType   `json:"type,omitempty"`
	ExemptionCode   *string          `json:"exemption_code,omitempty"`
	ExemptionReason *string          `json:"exemption_reason,omitempty"`
}

func (s *Session) vatRow(id string) (*model.VATRow, error) {
	i := s.inv.FindVATRow(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	return s.inv.VATRows[i], nil
}

// UpdateVATRow edits a breakdown row by hand. A new base, rate or category
// recalculates the row's own amount and freezes the row against later
// recomputes; the frozen row keeps standing for the lines that fed it.
// Exemption edits alone do not freeze it.
func (s *Session) UpdateVATRow(id string, edit VATRowEdit) error {
	row, err := s.vatRow(id)
	if err != nil {
		return err
	}
	if edit.Type != nil && !edit.Type.Valid() {
		return model.NewValidationError("vat_rows.type", *edit.Type, "oneof", "unknown VAT category")
	}

	origin := row.Key()
	key := origin
	if edit.Rate != nil {
		key.Rate = *edit.Rate
	}
	if edit.Type != nil {
		key.Type = *edit.Type
	}
	if !key.Equal(origin) && s.hasVATRow(key, id) {
		return fmt.Errorf("%w: %s %s%%", ErrDuplicateVATRow, key.Type, key.Rate)
	}

	if edit.ExemptionCode != nil {
		row.ExemptionCode = *edit.ExemptionCode
		if edit.ExemptionReason == nil {
			if label, ok := s.catalogs.Exemptions.Label(row.ExemptionCode); ok {
				row.ExemptionReason = label
			}
		}
	}
	if edit.ExemptionReason != nil {
		row.ExemptionReason = *edit.ExemptionReason
	}

	if edit.Base == nil && edit.Rate == nil && edit.Type == nil {
		return nil
	}
	if edit.Base != nil {
		row.Base = money.Round2(*edit.Base)
	}
	if edit.Rate != nil {
		row.Rate = *edit.Rate
	}
	if edit.Type != nil {
		row.Type = *edit.Type
		if !row.Type.RequiresExemption() {
			row.ExemptionCode, row.ExemptionReason = "", ""
		} else if fixed, ok := catalog.FixedExemption(row.Type); ok {
			row.ExemptionCode, row.ExemptionReason = fixed.Code, fixed.Label
		}
	}
	row.Amount = totals.RowVAT(row)

	s.overrides.MarkManual(id, origin)
	s.dispatch(changeVATRow)
	return nil
}

// UpdateVATRowFromAmount sets the tax amount of a row by hand and freezes it.
// Rows outside the Standard category always carry a zero amount.
func (s *Session) UpdateVATRowFromAmount(id string, amount decimal.Decimal) error {
	row, err := s.vatRow(id)
	if err != nil {
		return err
	}
	if row.Type.IsStandard() {
		row.Amount = money.Round2(amount)
	} else {
		row.Amount = decimal.Zero
	}

	s.overrides.MarkManual(id, row.Key())
	s.dispatch(changeVATRow)
	return nil
}

// RemoveVATRow deletes a breakdown row. A row still fed by lines reappears on
// the next full recompute.
func (s *Session) RemoveVATRow(id string) error {
	i := s.inv.FindVATRow(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	s.inv.VATRows = append(s.inv.VATRows[:i], s.inv.VATRows[i+1:]...)
	s.overrides.Forget(id)
	s.dispatch(changeVATRow)
	return nil
}

// AddVATRate appends an empty breakdown row for (rate, type) and returns its id
func (s *Session) AddVATRate(rate decimal.Decimal, vatType model.VATType) (string, error) {
	if !vatType.Valid() {
		return "", model.NewValidationError("vat_rows.type", vatType, "oneof", "unknown VAT category")
	}
	if s.hasVATRow(model.VATKey{Rate: rate, Type: vatType}, "") {
		return "", ErrDuplicateVATRow
	}

	row := &model.VATRow{
		ID:     s.engine.NewRowID(),
		Rate:   rate,
		Type:   vatType,
		Base:   decimal.Zero,
		Amount: decimal.Zero,
	}
	if fixed, ok := catalog.FixedExemption(vatType); ok {
		row.ExemptionCode, row.ExemptionReason = fixed.Code, fixed.Label
	}
	s.inv.VATRows = append(s.inv.VATRows, row)
	s.dispatch(changeVATRow)
	return row.ID, nil
}

// hasVATRow reports whether a row other than except already uses key
func (s *Session) hasVATRow(key model.VATKey, except string) bool {
	for _, r := range s.inv.VATRows {
		if r.ID != except && r.Key().Equal(key) {
			return true
		}
	}
	return false
}
