package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VATType is the UNCL5305 tax category code used by CIUS-RO
type VATType string

const (
	VATStandard       VATType = "S"
	VATReverseCharge  VATType = "AE"
	VATNotRegistered  VATType = "O"
	VATZeroRate       VATType = "Z"
	VATExempt         VATType = "E"
	VATIntraCommunity VATType = "K"
)

// VATTypes lists every accepted category in display order
var VATTypes = []VATType{
	VATStandard,
	VATReverseCharge,
	VATNotRegistered,
	VATZeroRate,
	VATExempt,
	VATIntraCommunity,
}

// DefaultVATRate is the Romanian standard rate
var DefaultVATRate = decimal.NewFromInt(19)

// ParseVATType normalizes a category code. Unknown codes report false.
func ParseVATType(s string) (VATType, bool) {
	t := VATType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid reports whether t is a known category
func (t VATType) Valid() bool {
	for _, v := range VATTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsStandard reports whether the category produces tax
func (t VATType) IsStandard() bool {
	return t == VATStandard
}

// RequiresExemption reports whether an exemption code/reason must accompany the category
func (t VATType) RequiresExemption() bool {
	switch t {
	case VATExempt, VATReverseCharge, VATNotRegistered, VATIntraCommunity:
		return true
	default:
		return false
	}
}

func (t VATType) String() string {
	return string(t)
}

// VATKey identifies one VAT breakdown bucket
type VATKey struct {
	Rate decimal.Decimal `json:"rate"`
	Type VATType         `json:"type"`
}

// Equal compares rates numerically, so "19" and "19.00" collapse into one bucket
func (k VATKey) Equal(other VATKey) bool {
	return k.Type == other.Type && k.Rate.Equal(other.Rate)
}

// VATRow is one entry of the VAT breakdown
type VATRow struct {
	ID              string          `json:"id"`
	Rate            decimal.Decimal `json:"rate"`
	Type            VATType         `json:"type"`
	Base            decimal.Decimal `json:"base"`
	Amount          decimal.Decimal `json:"amount"`
	ExemptionCode   string          `json:"exemption_code,omitempty"`
	ExemptionReason string          `json:"exemption_reason,omitempty"`
}

// Key returns the (rate, type) bucket identity
func (r *VATRow) Key() VATKey {
	return VATKey{Rate: r.Rate, Type: r.Type}
}
