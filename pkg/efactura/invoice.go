// Package efactura provides a public API for reading, recomputing and writing
// Romanian e-Factura (UBL 2.1 / CIUS-RO) invoices.
//
// Example usage:
//
//	proc := efactura.NewDefaultProcessor()
//	report, err := proc.Check(ctx, reader)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Computed.Total)
package efactura

import (
	"github.com/rezonia/efactura-editor/internal/editor"
	"github.com/rezonia/efactura-editor/internal/model"
)

// Re-export core types for public API
type (
	Invoice         = model.Invoice
	Header          = model.Header
	Party           = model.Party
	LineItem        = model.LineItem
	AllowanceCharge = model.AllowanceCharge
	VATRow          = model.VATRow
	VATType         = model.VATType
	Totals          = model.Totals
	TotalField      = model.TotalField
)

// Re-export VAT categories
const (
	VATStandard       = model.VATStandard
	VATReverseCharge  = model.VATReverseCharge
	VATNotRegistered  = model.VATNotRegistered
	VATZeroRate       = model.VATZeroRate
	VATExempt         = model.VATExempt
	VATIntraCommunity = model.VATIntraCommunity
)

// Re-export editing types
type (
	Session    = editor.Session
	State      = editor.State
	Action     = editor.Action
	LineEdit   = editor.LineEdit
	ChargeEdit = editor.ChargeEdit
	VATRowEdit = editor.VATRowEdit
	HeaderEdit = editor.HeaderEdit
)

// Re-export error types
type (
	ParseError       = model.ParseError
	ValidationError  = model.ValidationError
	ValidationErrors = model.ValidationErrors
	MappingError     = model.MappingError
)
