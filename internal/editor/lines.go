package editor

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/catalog"
	"github.com/rezonia/efactura-editor/internal/model"
)

// DefaultUnitCode is the unit of a freshly added line
const DefaultUnitCode = "H87"

// LineEdit carries the fields of a line to change; nil fields are left alone
type LineEdit struct {
	Name               *string                     `json:"name,omitempty"`
	Description        *string                     `json:"description,omitempty"`
	Quantity           *decimal.Decimal            `json:"quantity,omitempty"`
	UnitCode           *string                     `json:"unit_code,omitempty"`
	UnitPrice          *decimal.Decimal            `json:"unit_price,omitempty"`
	VATType            *model.VATType              `json:"vat_type,omitempty"`
	VATRate            *decimal.Decimal            `json:"vat_rate,omitempty"`
	Discount           *decimal.Decimal            `json:"discount,omitempty"`
	DiscountReasonCode *string                     `json:"discount_reason_code,omitempty"`
	Identifications    *[]model.ItemIdentification `json:"identifications,omitempty"`
}

// ChargeEdit carries the fields of an allowance/charge to change
type ChargeEdit struct {
	IsCharge   *bool            `json:"is_charge,omitempty"`
	ReasonCode *string          `json:"reason_code,omitempty"`
	Reason     *string          `json:"reason,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	BaseAmount *decimal.Decimal `json:"base_amount,omitempty"`
	VATType    *model.VATType   `json:"vat_type,omitempty"`
	VATRate    *decimal.Decimal `json:"vat_rate,omitempty"`
}

// AddLineItem appends a line with the registration defaults and returns its index
func (s *Session) AddLineItem() int {
	d := s.policy.Defaults(s.inv.Supplier.VATID)
	s.inv.Lines = append(s.inv.Lines, &model.LineItem{
		Quantity:  decimal.NewFromInt(1),
		UnitCode:  DefaultUnitCode,
		UnitPrice: decimal.Zero,
		VATType:   d.Type,
		VATRate:   d.Rate,
		VATLocked: d.Locked,
		Discount:  decimal.Zero,
	})
	s.dispatch(changeStructure)
	return len(s.inv.Lines) - 1
}

// RemoveLineItem deletes a line; later lines shift down one position
func (s *Session) RemoveLineItem(index int) error {
	if index < 0 || index >= len(s.inv.Lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, index)
	}
	s.inv.Lines = append(s.inv.Lines[:index], s.inv.Lines[index+1:]...)
	s.dispatch(changeStructure)
	return nil
}

// UpdateLineItem applies edit to the line at index. Only edits touching
// amounts or the VAT category recompute totals.
func (s *Session) UpdateLineItem(index int, edit LineEdit) error {
	if index < 0 || index >= len(s.inv.Lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, index)
	}
	l := s.inv.Lines[index]
	if l.VATLocked && (edit.VATType != nil || edit.VATRate != nil) {
		return ErrVATLocked
	}
	if edit.VATType != nil && !edit.VATType.Valid() {
		return model.NewValidationError(fmt.Sprintf("lines[%d].vat_type", index), *edit.VATType, "oneof", "unknown VAT category")
	}

	if edit.Name != nil {
		l.Name = *edit.Name
	}
	if edit.Description != nil {
		l.Description = *edit.Description
	}
	if edit.UnitCode != nil {
		l.UnitCode = *edit.UnitCode
	}
	if edit.DiscountReasonCode != nil {
		l.DiscountReasonCode = *edit.DiscountReasonCode
	}
	if edit.Identifications != nil {
		l.Identifications = append([]model.ItemIdentification(nil), (*edit.Identifications)...)
	}

	recompute := false
	if edit.Quantity != nil {
		l.Quantity, recompute = *edit.Quantity, true
	}
	if edit.UnitPrice != nil {
		l.UnitPrice, recompute = *edit.UnitPrice, true
	}
	if edit.Discount != nil {
		l.Discount, recompute = *edit.Discount, true
	}
	if edit.VATType != nil {
		l.VATType, recompute = *edit.VATType, true
	}
	if edit.VATRate != nil {
		l.VATRate, recompute = *edit.VATRate, true
	}
	// The reason code is only meaningful next to a discount
	if l.Discount.IsZero() {
		l.DiscountReasonCode = ""
	}

	if recompute {
		s.dispatch(changeLine)
	}
	return nil
}

// AddAllowanceCharge appends a document-level allowance or charge and returns its index
func (s *Session) AddAllowanceCharge(isCharge bool) int {
	d := s.policy.Defaults(s.inv.Supplier.VATID)
	s.inv.Charges = append(s.inv.Charges, &model.AllowanceCharge{
		IsCharge:   isCharge,
		Amount:     decimal.Zero,
		BaseAmount: decimal.Zero,
		VATType:    d.Type,
		VATRate:    d.Rate,
		VATLocked:  d.Locked,
	})
	s.dispatch(changeStructure)
	return len(s.inv.Charges) - 1
}

// RemoveAllowanceCharge deletes an allowance/charge
func (s *Session) RemoveAllowanceCharge(index int) error {
	if index < 0 || index >= len(s.inv.Charges) {
		return fmt.Errorf("%w: %d", ErrChargeIndex, index)
	}
	s.inv.Charges = append(s.inv.Charges[:index], s.inv.Charges[index+1:]...)
	s.dispatch(changeStructure)
	return nil
}

// UpdateAllowanceCharge applies edit to the entry at index
func (s *Session) UpdateAllowanceCharge(index int, edit ChargeEdit) error {
	if index < 0 || index >= len(s.inv.Charges) {
		return fmt.Errorf("%w: %d", ErrChargeIndex, index)
	}
	c := s.inv.Charges[index]
	if c.VATLocked && (edit.VATType != nil || edit.VATRate != nil) {
		return ErrVATLocked
	}
	if edit.VATType != nil && !edit.VATType.Valid() {
		return model.NewValidationError(fmt.Sprintf("charges[%d].vat_type", index), *edit.VATType, "oneof", "unknown VAT category")
	}

	if edit.Reason != nil {
		c.Reason = *edit.Reason
	}
	if edit.ReasonCode != nil {
		c.ReasonCode = *edit.ReasonCode
	}
	if edit.BaseAmount != nil {
		c.BaseAmount = *edit.BaseAmount
	}

	recompute := false
	if edit.IsCharge != nil && *edit.IsCharge != c.IsCharge {
		c.IsCharge, recompute = *edit.IsCharge, true
		// Charge and allowance reasons come from different code lists
		if _, ok := catalog.Lookup(reasonTable(c.IsCharge), c.ReasonCode); !ok {
			c.ReasonCode = ""
		}
	}
	if edit.Amount != nil {
		c.Amount, recompute = *edit.Amount, true
	}
	if edit.VATType != nil {
		c.VATType, recompute = *edit.VATType, true
	}
	if edit.VATRate != nil {
		c.VATRate, recompute = *edit.VATRate, true
	}

	if recompute {
		s.dispatch(changeLine)
	}
	return nil
}

func reasonTable(isCharge bool) []catalog.Entry {
	return lo.Ternary(isCharge, catalog.ChargeReasons, catalog.AllowanceReasons)
}
