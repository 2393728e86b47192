package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	money "github.com/rezonia/efactura-editor/internal/decimal"
)

// Date layouts used by the form and by UBL
const (
	DisplayDateLayout = "02.01.2006"
	ISODateLayout     = "2006-01-02"
)

// Header defaults
const (
	DefaultCurrency        = "RON"
	DefaultCountry         = "RO"
	DefaultInvoiceTypeCode = "380"
	DefaultCustomizationID = "urn:cen.eu:en16931:2017#compliant#urn:efactura.mfinante.ro:CIUS-RO:1.0.1"
	MaxNoteLength          = 900
	NoteChunkLength        = 300
)

// Header holds document-level fields. Dates use the DD.MM.YYYY display layout.
type Header struct {
	Number          string          `json:"number" validate:"required"`
	IssueDate       string          `json:"issue_date" validate:"required"`
	DueDate         string          `json:"due_date,omitempty"`
	InvoiceTypeCode string          `json:"invoice_type_code,omitempty"`
	CustomizationID string          `json:"customization_id,omitempty"`
	Currency        string          `json:"currency" validate:"required,len=3,uppercase"`
	TaxCurrency     string          `json:"tax_currency,omitempty" validate:"omitempty,len=3,uppercase"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	Note            string          `json:"note,omitempty" validate:"max=900"`
}

// NeedsExchangeRate reports whether a distinct tax currency is set
func (h *Header) NeedsExchangeRate() bool {
	return h.TaxCurrency != "" && h.TaxCurrency != h.Currency
}

// Party is the supplier or the customer
type Party struct {
	Name      string `json:"name" validate:"required"`
	VATID     string `json:"vat_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	County    string `json:"county,omitempty" validate:"required_if=Country RO"`
	Country   string `json:"country" validate:"required,len=2"`
	Phone     string `json:"phone,omitempty"`
	Contact   string `json:"contact,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// VATPrefix returns the 2-letter country prefix of the VAT identifier, or ""
func (p *Party) VATPrefix() string {
	id := strings.ToUpper(strings.TrimSpace(p.VATID))
	if len(id) < 3 {
		return ""
	}
	r := []rune(id)
	if unicode.IsLetter(r[0]) && unicode.IsLetter(r[1]) && r[0] < unicode.MaxASCII && r[1] < unicode.MaxASCII {
		return string(r[:2])
	}
	return ""
}

// HasVATPrefix reports whether the VAT identifier carries a country prefix
func (p *Party) HasVATPrefix() bool {
	return p.VATPrefix() != ""
}

// IdentificationKind tells which UBL element an item identification maps to
type IdentificationKind string

const (
	IDSeller         IdentificationKind = "seller"
	IDBuyer          IdentificationKind = "buyer"
	IDStandard       IdentificationKind = "standard"
	IDClassification IdentificationKind = "classification"
)

// ItemIdentification is one identifier attached to a line item
type ItemIdentification struct {
	Kind     IdentificationKind `json:"kind"`
	Value    string             `json:"value"`
	SchemeID string             `json:"scheme_id,omitempty"`
}

// LineItem is one invoice line. Its position in Invoice.Lines is its identity.
type LineItem struct {
	Name               string               `json:"name" validate:"required"`
	Description        string               `json:"description,omitempty"`
	Quantity           decimal.Decimal      `json:"quantity"`
	UnitCode           string               `json:"unit_code" validate:"required"`
	UnitPrice          decimal.Decimal      `json:"unit_price"`
	VATType            VATType              `json:"vat_type" validate:"required"`
	VATRate            decimal.Decimal      `json:"vat_rate"`
	Discount           decimal.Decimal      `json:"discount"`
	DiscountReasonCode string               `json:"discount_reason_code,omitempty"`
	Identifications    []ItemIdentification `json:"identifications,omitempty"`
	VATLocked          bool                 `json:"vat_locked,omitempty"`
}

// GrossAmount is quantity * unit price
func (l *LineItem) GrossAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// NetAmount is quantity * unit price - discount, unrounded
func (l *LineItem) NetAmount() decimal.Decimal {
	return money.LineAmount(l.Quantity, l.UnitPrice, l.Discount)
}

// Key returns the VAT bucket the line contributes to
func (l *LineItem) Key() VATKey {
	return VATKey{Rate: l.VATRate, Type: l.VATType}
}

// AllowanceCharge is a document-level allowance (IsCharge=false) or charge
type AllowanceCharge struct {
	IsCharge   bool            `json:"is_charge"`
	ReasonCode string          `json:"reason_code,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	VATType    VATType         `json:"vat_type" validate:"required"`
	VATRate    decimal.Decimal `json:"vat_rate"`
	VATLocked  bool            `json:"vat_locked,omitempty"`
}

// SignedAmount is +amount for charges and -amount for allowances
func (a *AllowanceCharge) SignedAmount() decimal.Decimal {
	if a.IsCharge {
		return a.Amount
	}
	return a.Amount.Neg()
}

// Key returns the VAT bucket the entry contributes to
func (a *AllowanceCharge) Key() VATKey {
	return VATKey{Rate: a.VATRate, Type: a.VATType}
}

// Totals are the document monetary totals
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Allowances decimal.Decimal `json:"allowances"`
	Charges    decimal.Decimal `json:"charges"`
	NetAmount  decimal.Decimal `json:"net_amount"`
	VAT        decimal.Decimal `json:"vat"`
	Total      decimal.Decimal `json:"total"`
}

// Negate flips the sign of every amount
func (t Totals) Negate() Totals {
	return Totals{
		Subtotal:   t.Subtotal.Neg(),
		Allowances: t.Allowances.Neg(),
		Charges:    t.Charges.Neg(),
		NetAmount:  t.NetAmount.Neg(),
		VAT:        t.VAT.Neg(),
		Total:      t.Total.Neg(),
	}
}

// TotalField names one editable field of Totals
type TotalField string

const (
	TotalSubtotal   TotalField = "subtotal"
	TotalAllowances TotalField = "allowances"
	TotalCharges    TotalField = "charges"
	TotalNetAmount  TotalField = "net_amount"
	TotalVAT        TotalField = "vat"
	TotalTotal      TotalField = "total"
)

// Set assigns value to the named field
func (t *Totals) Set(field TotalField, value decimal.Decimal) error {
	switch field {
	case TotalSubtotal:
		t.Subtotal = value
	case TotalAllowances:
		t.Allowances = value
	case TotalCharges:
		t.Charges = value
	case TotalNetAmount:
		t.NetAmount = value
	case TotalVAT:
		t.VAT = value
	case TotalTotal:
		t.Total = value
	default:
		return fmt.Errorf("unknown total field %q", field)
	}
	return nil
}

// Invoice is the in-memory document
type Invoice struct {
	Header   Header             `json:"header"`
	Supplier Party              `json:"supplier"`
	Customer Party              `json:"customer"`
	Lines    []*LineItem        `json:"lines" validate:"min=1,dive"`
	Charges  []*AllowanceCharge `json:"charges" validate:"dive"`
	VATRows  []*VATRow          `json:"vat_rows"`
}

// NewInvoice returns an empty template with Romanian defaults
func NewInvoice() *Invoice {
	return &Invoice{
		Header: Header{
			InvoiceTypeCode: DefaultInvoiceTypeCode,
			CustomizationID: DefaultCustomizationID,
			Currency:        DefaultCurrency,
		},
		Supplier: Party{Country: DefaultCountry},
		Customer: Party{Country: DefaultCountry},
	}
}

// UsesVATType reports whether any line uses t
func (inv *Invoice) UsesVATType(t VATType) bool {
	for _, l := range inv.Lines {
		if l.VATType == t {
			return true
		}
	}
	return false
}

// FindVATRow returns the index of the row with the given id, or -1
func (inv *Invoice) FindVATRow(id string) int {
	for i, r := range inv.VATRows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy
func (inv *Invoice) Clone() *Invoice {
	out := &Invoice{
		Header:   inv.Header,
		Supplier: inv.Supplier,
		Customer: inv.Customer,
		Lines:    make([]*LineItem, 0, len(inv.Lines)),
		Charges:  make([]*AllowanceCharge, 0, len(inv.Charges)),
		VATRows:  make([]*VATRow, 0, len(inv.VATRows)),
	}
	for _, l := range inv.Lines {
		c := *l
		c.Identifications = append([]ItemIdentification(nil), l.Identifications...)
		out.Lines = append(out.Lines, &c)
	}
	for _, a := range inv.Charges {
		c := *a
		out.Charges = append(out.Charges, &c)
	}
	for _, r := range inv.VATRows {
		c := *r
		out.VATRows = append(out.VATRows, &c)
	}
	return out
}

// ToDisplayDate converts YYYY-MM-DD to DD.MM.YYYY
func ToDisplayDate(iso string) (string, error) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return "", nil
	}
	t, err := time.Parse(ISODateLayout, iso)
	if err != nil {
		return "", err
	}
	return t.Format(DisplayDateLayout), nil
}

// ToISODate converts DD.MM.YYYY (or an already ISO value) to YYYY-MM-DD
func ToISODate(display string) (string, error) {
	display = strings.TrimSpace(display)
	if display == "" {
		return "", nil
	}
	if t, err := time.Parse(DisplayDateLayout, display); err == nil {
		return t.Format(ISODateLayout), nil
	}
	t, err := time.Parse(ISODateLayout, display)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", display)
	}
	return t.Format(ISODateLayout), nil
}
