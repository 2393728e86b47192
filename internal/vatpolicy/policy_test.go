package vatpolicy_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rezonia/efactura-editor/internal/model"
	"github.com/rezonia/efactura-editor/internal/totals"
	"github.com/rezonia/efactura-editor/internal/vatpolicy"
)

func TestIsRegistered(t *testing.T) {
	tests := []struct {
		vatID    string
		expected bool
	}{
		{"RO12345678", true},
		{"ro12345678", true},
		{"  RO 123 456 78 ", true},
		{"12345678", false},
		{"DE811907980", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.vatID, func(t *testing.T) {
			assert.Equal(t, tt.expected, vatpolicy.IsRegistered(tt.vatID))
		})
	}
}

func newInvoice(vatID string) *model.Invoice {
	inv := model.NewInvoice()
	inv.Supplier.VATID = vatID
	inv.Lines = []*model.LineItem{
		{Name: "A", UnitCode: "H87", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(150), VATType: model.VATStandard, VATRate: decimal.NewFromInt(19)},
		{Name: "B", UnitCode: "H87", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(700), VATType: model.VATExempt, VATRate: decimal.Zero},
	}
	inv.Charges = []*model.AllowanceCharge{
		{IsCharge: true, Amount: decimal.NewFromInt(20), VATType: model.VATStandard, VATRate: decimal.NewFromInt(9)},
	}
	return inv
}

func TestApply_NotRegisteredForcesO(t *testing.T) {
	inv := newInvoice("12345678")
	policy := vatpolicy.New()

	assert.True(t, policy.Apply(inv))

	for _, l := range inv.Lines {
		assert.Equal(t, model.VATNotRegistered, l.VATType)
		assert.True(t, l.VATRate.IsZero())
		assert.True(t, l.VATLocked)
	}
	assert.Equal(t, model.VATNotRegistered, inv.Charges[0].VATType)
	assert.True(t, inv.Charges[0].VATLocked)

	res := totals.NewEngine().Compute(inv.Lines, inv.Charges, nil, totals.NewOverrideTracker())
	assert.True(t, res.Totals.VAT.IsZero())
	assert.True(t, res.Totals.Total.Equal(decimal.NewFromInt(1020)))

	// Second call with the same status changes nothing
	assert.False(t, policy.Apply(inv))
}

func TestApply_LocksLinesAddedLater(t *testing.T) {
	inv := newInvoice("12345678")
	policy := vatpolicy.New()
	policy.Apply(inv)

	inv.Lines = append(inv.Lines, &model.LineItem{Name: "C", VATType: model.VATStandard, VATRate: decimal.NewFromInt(19)})

	assert.True(t, policy.Apply(inv))
	assert.Equal(t, model.VATNotRegistered, inv.Lines[2].VATType)
}

func TestApply_RegistrationChangeResetsToStandard(t *testing.T) {
	inv := newInvoice("12345678")
	policy := vatpolicy.New()
	policy.Apply(inv)

	inv.Supplier.VATID = "RO12345678"
	assert.True(t, policy.Apply(inv))

	for _, l := range inv.Lines {
		assert.Equal(t, model.VATStandard, l.VATType)
		assert.True(t, l.VATRate.Equal(decimal.NewFromInt(19)))
		assert.False(t, l.VATLocked)
	}
	assert.Equal(t, model.VATStandard, inv.Charges[0].VATType)
}

func TestApply_RegisteredDoesNotResetOnEveryCall(t *testing.T) {
	inv := newInvoice("RO12345678")
	policy := vatpolicy.New()

	// First application on a registered supplier leaves user choices alone
	assert.False(t, policy.Apply(inv))
	assert.Equal(t, model.VATExempt, inv.Lines[1].VATType)

	inv.Lines[0].VATType = model.VATNotRegistered
	assert.False(t, policy.Apply(inv))
	assert.Equal(t, model.VATNotRegistered, inv.Lines[0].VATType)
}

func TestDefaults(t *testing.T) {
	policy := vatpolicy.New(vatpolicy.WithStandardRate(decimal.NewFromInt(21)))

	reg := policy.Defaults("RO1")
	assert.Equal(t, model.VATStandard, reg.Type)
	assert.True(t, reg.Rate.Equal(decimal.NewFromInt(21)))
	assert.False(t, reg.Locked)

	unreg := policy.Defaults("1")
	assert.Equal(t, model.VATNotRegistered, unreg.Type)
	assert.True(t, unreg.Rate.IsZero())
	assert.True(t, unreg.Locked)
}

func TestReset(t *testing.T) {
	inv := newInvoice("12345678")
	policy := vatpolicy.New()
	policy.Apply(inv)

	policy.Reset()
	inv.Lines[0].VATType = model.VATStandard
	inv.Lines[0].VATLocked = false
	assert.True(t, policy.Apply(inv))
	assert.Equal(t, model.VATNotRegistered, inv.Lines[0].VATType)
}
