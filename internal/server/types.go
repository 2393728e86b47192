package server

import (
	"github.com/rezonia/efactura-editor/internal/catalog"
	"github.com/rezonia/efactura-editor/internal/editor"
	"github.com/rezonia/efactura-editor/internal/model"
	"github.com/rezonia/efactura-editor/internal/numfmt"
)

// StateResponse is the response for every invoice endpoint
type StateResponse struct {
	State   editor.State   `json:"state"`
	Display DisplayTotals  `json:"display"`
	Drift   *DisplayTotals `json:"drift,omitempty"`
}

// DisplayTotals are the totals formatted for the configured locale
type DisplayTotals struct {
	Subtotal   string `json:"subtotal"`
	Allowances string `json:"allowances"`
	Charges    string `json:"charges"`
	NetAmount  string `json:"net_amount"`
	VAT        string `json:"vat"`
	Total      string `json:"total"`
}

func formatTotals(f *numfmt.Formatter, t model.Totals) DisplayTotals {
	return DisplayTotals{
		Subtotal:   f.FormatCurrency(t.Subtotal),
		Allowances: f.FormatCurrency(t.Allowances),
		Charges:    f.FormatCurrency(t.Charges),
		NetAmount:  f.FormatCurrency(t.NetAmount),
		VAT:        f.FormatCurrency(t.VAT),
		Total:      f.FormatCurrency(t.Total),
	}
}

// ApplyRequest carries a state and the actions to run against it
type ApplyRequest struct {
	State   editor.State    `json:"state"`
	Actions []editor.Action `json:"actions"`
}

// CatalogsResponse lists every code table a form needs
type CatalogsResponse struct {
	Units            []catalog.Entry `json:"units"`
	Exemptions       []catalog.Entry `json:"exemptions"`
	VATTypes         []catalog.Entry `json:"vat_types"`
	ChargeReasons    []catalog.Entry `json:"charge_reasons"`
	AllowanceReasons []catalog.Entry `json:"allowance_reasons"`
	Countries        []catalog.Entry `json:"countries"`
	Counties         []catalog.Entry `json:"counties"`
	BucharestSectors []catalog.Entry `json:"bucharest_sectors"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error  string                   `json:"error"`
	Fields []*model.ValidationError `json:"fields,omitempty"`
}
