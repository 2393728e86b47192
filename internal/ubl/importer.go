package ubl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/catalog"
	money "github.com/rezonia/efactura-editor/internal/decimal"
	"github.com/rezonia/efactura-editor/internal/model"
)

// ImportResult is a parsed document plus the figures it was issued with
type ImportResult struct {
	Invoice  *model.Invoice
	Original model.Totals
	Warnings []*model.MappingError
}

// WarningMessages flattens the warnings for API and CLI output
func (r *ImportResult) WarningMessages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Error())
	}
	return out
}

// Importer reads UBL invoices. Codes it discovers are merged into the shared catalogs.
type Importer struct {
	catalogs *catalog.Catalogs
	newID    func() string
	logger   zerolog.Logger
}

// ImporterOption configures an Importer
type ImporterOption func(*Importer)

// WithImportLogger sets the logger
func WithImportLogger(logger zerolog.Logger) ImporterOption {
	return func(im *Importer) {
		im.logger = logger
	}
}

// WithRowIDs sets the VAT row id source
func WithRowIDs(fn func() string) ImporterOption {
	return func(im *Importer) {
		im.newID = fn
	}
}

// NewImporter creates an importer bound to catalogs
func NewImporter(catalogs *catalog.Catalogs, opts ...ImporterOption) *Importer {
	im := &Importer{
		catalogs: catalogs,
		newID:    uuid.NewString,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import reads and maps a document
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError("xml", "failed to read input", err)
	}
	return im.ImportBytes(ctx, data)
}

// ImportBytes maps a UBL document. Malformed XML or a non-Invoice root is a
// ParseError; missing or unreadable elements only produce warnings.
func (im *Importer) ImportBytes(ctx context.Context, data []byte) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, model.NewParseError("xml", "document is not well-formed", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, model.NewParseError("xml", "document has no root element", nil)
	}
	if root.Tag != "Invoice" {
		return nil, model.NewParseError("Invoice", fmt.Sprintf("unexpected root element %q", root.Tag), nil)
	}

	m := &mapper{im: im, result: &ImportResult{Invoice: model.NewInvoice()}}
	m.header(root)
	m.result.Invoice.Supplier = m.party(root, "AccountingSupplierParty")
	m.result.Invoice.Customer = m.party(root, "AccountingCustomerParty")
	m.lines(root)
	m.charges(root)
	m.taxTotals(root)
	m.monetaryTotals(root)
	m.exemptions(root)

	im.logger.Info().
		Str("number", m.result.Invoice.Header.Number).
		Int("lines", len(m.result.Invoice.Lines)).
		Int("charges", len(m.result.Invoice.Charges)).
		Int("vat_rows", len(m.result.Invoice.VATRows)).
		Int("warnings", len(m.result.Warnings)).
		Msg("invoice imported")

	return m.result, nil
}

// mapper carries the state of one import
type mapper struct {
	im        *Importer
	result    *ImportResult
	primaryTT *etree.Element
}

func (m *mapper) warn(path, message string) {
	m.result.Warnings = append(m.result.Warnings, model.NewMappingError(path, message))
	m.im.logger.Warn().Str("path", path).Msg(message)
}

func (m *mapper) amount(path, s string) decimal.Decimal {
	if s == "" {
		return money.Zero
	}
	d, err := money.FromString(s)
	if err != nil {
		m.warn(path, fmt.Sprintf("invalid number %q", s))
		return money.Zero
	}
	return d
}

func (m *mapper) date(path, s string) string {
	display, err := model.ToDisplayDate(s)
	if err != nil {
		m.warn(path, fmt.Sprintf("invalid date %q", s))
		return s
	}
	return display
}

func (m *mapper) header(root *etree.Element) {
	h := &m.result.Invoice.Header

	h.Number = text(root, "ID")
	if h.Number == "" {
		m.warn("Invoice/cbc:ID", "invoice number missing")
	}
	if v := text(root, "CustomizationID"); v != "" {
		h.CustomizationID = v
	}
	if v := text(root, "InvoiceTypeCode"); v != "" {
		h.InvoiceTypeCode = v
	}

	var notes []string
	for _, n := range children(root, "Note") {
		notes = append(notes, n.Text())
	}
	h.Note = strings.Join(notes, "\n")

	if v := text(root, "IssueDate"); v != "" {
		h.IssueDate = m.date("Invoice/cbc:IssueDate", v)
	} else {
		m.warn("Invoice/cbc:IssueDate", "issue date missing")
	}
	if v := text(root, "DueDate"); v != "" {
		h.DueDate = m.date("Invoice/cbc:DueDate", v)
	} else if v := text(root, "PaymentMeans", "PaymentDueDate"); v != "" {
		h.DueDate = m.date("Invoice/cac:PaymentMeans/cbc:PaymentDueDate", v)
	}

	if v := text(root, "DocumentCurrencyCode"); v != "" {
		h.Currency = strings.ToUpper(v)
	}
	h.TaxCurrency = strings.ToUpper(text(root, "TaxCurrencyCode"))
}

func (m *mapper) party(root *etree.Element, wrapper string) model.Party {
	p := model.Party{Country: model.DefaultCountry}
	path := "Invoice/cac:" + wrapper

	party := find(root, wrapper, "Party")
	if party == nil {
		m.warn(path, "party missing")
		return p
	}

	p.Name = text(party, "PartyLegalEntity", "RegistrationName")
	if p.Name == "" {
		p.Name = text(party, "PartyName", "Name")
	}

	legalID := text(party, "PartyLegalEntity", "CompanyID")
	if taxScheme := child(party, "PartyTaxScheme"); taxScheme != nil {
		p.VATID = text(taxScheme, "CompanyID")
		p.CompanyID = legalID
	} else {
		// Without a tax scheme the legal entity id carries the VAT field
		p.VATID = legalID
		p.CompanyID = text(party, "PartyIdentification", "ID")
	}

	addr := child(party, "PostalAddress")
	if addr == nil {
		m.warn(path+"/cac:Party/cac:PostalAddress", "postal address missing")
	}
	p.Street = text(addr, "StreetName")
	p.City = text(addr, "CityName")
	p.County = text(addr, "CountrySubentity")
	if v := text(addr, "Country", "IdentificationCode"); v != "" {
		p.Country = strings.ToUpper(v)
	}

	p.Contact = text(party, "Contact", "Name")
	p.Phone = text(party, "Contact", "Telephone")
	p.Email = text(party, "Contact", "ElectronicMail")
	return p
}

// taxCategory reads ID and Percent, defaulting to S / 19
func (m *mapper) taxCategory(path string, cat *etree.Element) (model.VATType, decimal.Decimal) {
	vatType := model.VATStandard
	if id := text(cat, "ID"); id != "" {
		t, ok := model.ParseVATType(id)
		if ok {
			vatType = t
		} else {
			m.warn(path+"/cbc:ID", fmt.Sprintf("unknown VAT category %q, using S", id))
		}
	}
	rate := model.DefaultVATRate
	if pct := text(cat, "Percent"); pct != "" {
		rate = m.amount(path+"/cbc:Percent", pct)
	} else if cat != nil && !vatType.IsStandard() {
		rate = money.Zero
	}
	return vatType, rate
}

func (m *mapper) lines(root *etree.Element) {
	inv := m.result.Invoice
	for i, el := range children(root, "InvoiceLine") {
		path := fmt.Sprintf("Invoice/cac:InvoiceLine[%d]", i+1)
		line := &model.LineItem{Discount: money.Zero}

		qty := child(el, "InvoicedQuantity")
		if qty == nil {
			m.warn(path+"/cbc:InvoicedQuantity", "quantity missing")
		}
		line.Quantity = m.amount(path+"/cbc:InvoicedQuantity", text(qty))
		line.UnitCode = attr(qty, "unitCode")
		if line.UnitCode != "" {
			m.im.catalogs.Units.AddIfAbsent(line.UnitCode, "")
		}

		line.UnitPrice = m.amount(path+"/cac:Price/cbc:PriceAmount", text(el, "Price", "PriceAmount"))
		if bq := text(el, "Price", "BaseQuantity"); bq != "" {
			base := m.amount(path+"/cac:Price/cbc:BaseQuantity", bq)
			if !base.IsZero() && !base.Equal(decimal.NewFromInt(1)) {
				line.UnitPrice = line.UnitPrice.Div(base)
			}
		}

		item := child(el, "Item")
		if item == nil {
			m.warn(path+"/cac:Item", "item missing")
		}
		line.Name = text(item, "Name")
		line.Description = text(item, "Description")
		line.VATType, line.VATRate = m.taxCategory(path+"/cac:Item/cac:ClassifiedTaxCategory", child(item, "ClassifiedTaxCategory"))
		line.Identifications = identifications(item)

		for _, ac := range children(el, "AllowanceCharge") {
			amt := m.amount(path+"/cac:AllowanceCharge/cbc:Amount", text(ac, "Amount"))
			if strings.EqualFold(text(ac, "ChargeIndicator"), "true") {
				line.Discount = line.Discount.Sub(amt)
				continue
			}
			line.Discount = line.Discount.Add(amt)
			if code := text(ac, "AllowanceChargeReasonCode"); code != "" {
				line.DiscountReasonCode = code
			}
		}

		if v := text(el, "LineExtensionAmount"); v != "" {
			declared := m.amount(path+"/cbc:LineExtensionAmount", v)
			if !declared.Equal(money.Round2(line.NetAmount())) {
				m.warn(path+"/cbc:LineExtensionAmount", fmt.Sprintf("declared %s differs from quantity x price - discount", declared))
			}
		}

		inv.Lines = append(inv.Lines, line)
	}
	if len(inv.Lines) == 0 {
		m.warn("Invoice/cac:InvoiceLine", "document has no lines")
	}
}

func identifications(item *etree.Element) []model.ItemIdentification {
	var ids []model.ItemIdentification
	if v := text(item, "BuyersItemIdentification", "ID"); v != "" {
		ids = append(ids, model.ItemIdentification{Kind: model.IDBuyer, Value: v})
	}
	if v := text(item, "SellersItemIdentification", "ID"); v != "" {
		ids = append(ids, model.ItemIdentification{Kind: model.IDSeller, Value: v})
	}
	if el := find(item, "StandardItemIdentification", "ID"); el != nil {
		ids = append(ids, model.ItemIdentification{Kind: model.IDStandard, Value: strings.TrimSpace(el.Text()), SchemeID: attr(el, "schemeID")})
	}
	for _, cc := range children(item, "CommodityClassification") {
		code := child(cc, "ItemClassificationCode")
		if code == nil {
			continue
		}
		ids = append(ids, model.ItemIdentification{Kind: model.IDClassification, Value: strings.TrimSpace(code.Text()), SchemeID: attr(code, "listID")})
	}
	return ids
}

// charges reads document-level entries only: direct children of the root.
// Entries sharing (reason code, amount) are collapsed.
func (m *mapper) charges(root *etree.Element) {
	seen := make(map[string]bool)
	for i, el := range children(root, "AllowanceCharge") {
		path := fmt.Sprintf("Invoice/cac:AllowanceCharge[%d]", i+1)
		ac := &model.AllowanceCharge{
			IsCharge:   strings.EqualFold(text(el, "ChargeIndicator"), "true"),
			ReasonCode: text(el, "AllowanceChargeReasonCode"),
			Reason:     text(el, "AllowanceChargeReason"),
			Amount:     m.amount(path+"/cbc:Amount", text(el, "Amount")),
			BaseAmount: m.amount(path+"/cbc:BaseAmount", text(el, "BaseAmount")),
		}
		ac.VATType, ac.VATRate = m.taxCategory(path+"/cac:TaxCategory", child(el, "TaxCategory"))

		key := ac.ReasonCode + "|" + ac.Amount.String()
		if seen[key] {
			m.im.logger.Debug().Str("path", path).Str("key", key).Msg("duplicate allowance/charge skipped")
			continue
		}
		seen[key] = true
		m.result.Invoice.Charges = append(m.result.Invoice.Charges, ac)
	}
}

// taxTotals takes VAT rows from the document-currency TaxTotal and derives
// the exchange rate from a second TaxTotal in the tax currency
func (m *mapper) taxTotals(root *etree.Element) {
	inv := m.result.Invoice
	totals := children(root, "TaxTotal")
	if len(totals) == 0 {
		m.warn("Invoice/cac:TaxTotal", "tax total missing")
		return
	}

	var primary, secondary *etree.Element
	for _, tt := range totals {
		cur := strings.ToUpper(attr(child(tt, "TaxAmount"), "currencyID"))
		switch {
		case primary == nil && (cur == "" || cur == inv.Header.Currency):
			primary = tt
		case secondary == nil && inv.Header.TaxCurrency != "" && cur == inv.Header.TaxCurrency:
			secondary = tt
		}
	}
	if primary == nil {
		primary = totals[0]
	}
	m.primaryTT = primary

	for i, sub := range children(primary, "TaxSubtotal") {
		path := fmt.Sprintf("Invoice/cac:TaxTotal/cac:TaxSubtotal[%d]", i+1)
		cat := child(sub, "TaxCategory")
		vatType, rate := m.taxCategory(path+"/cac:TaxCategory", cat)
		inv.VATRows = append(inv.VATRows, &model.VATRow{
			ID:              m.im.newID(),
			Rate:            rate,
			Type:            vatType,
			Base:            m.amount(path+"/cbc:TaxableAmount", text(sub, "TaxableAmount")),
			Amount:          m.amount(path+"/cbc:TaxAmount", text(sub, "TaxAmount")),
			ExemptionCode:   text(cat, "TaxExemptionReasonCode"),
			ExemptionReason: text(cat, "TaxExemptionReason"),
		})
	}

	if inv.Header.NeedsExchangeRate() {
		if secondary == nil {
			m.warn("Invoice/cac:TaxTotal", "no tax total in tax currency, exchange rate must be entered")
			return
		}
		primaryVAT := m.amount("Invoice/cac:TaxTotal/cbc:TaxAmount", text(primary, "TaxAmount"))
		secondaryVAT := m.amount("Invoice/cac:TaxTotal/cbc:TaxAmount", text(secondary, "TaxAmount"))
		if !primaryVAT.IsZero() {
			inv.Header.ExchangeRate = secondaryVAT.Div(primaryVAT).Round(4)
		}
	}
}

func (m *mapper) monetaryTotals(root *etree.Element) {
	o := &m.result.Original
	const base = "Invoice/cac:LegalMonetaryTotal/cbc:"

	lmt := child(root, "LegalMonetaryTotal")
	if lmt == nil {
		m.warn("Invoice/cac:LegalMonetaryTotal", "monetary total missing")
	}
	o.Subtotal = m.amount(base+"LineExtensionAmount", text(lmt, "LineExtensionAmount"))
	o.Allowances = m.amount(base+"AllowanceTotalAmount", text(lmt, "AllowanceTotalAmount"))
	o.Charges = m.amount(base+"ChargeTotalAmount", text(lmt, "ChargeTotalAmount"))
	o.NetAmount = m.amount(base+"TaxExclusiveAmount", text(lmt, "TaxExclusiveAmount"))
	o.Total = m.amount(base+"TaxInclusiveAmount", text(lmt, "TaxInclusiveAmount"))
	o.VAT = m.amount("Invoice/cac:TaxTotal/cbc:TaxAmount", text(m.primaryTT, "TaxAmount"))
}

// exemptions merges every (E, code, reason) found in tax categories into the catalog
func (m *mapper) exemptions(root *etree.Element) {
	walk(root, func(e *etree.Element) {
		if e.Tag != "TaxCategory" && e.Tag != "ClassifiedTaxCategory" {
			return
		}
		if t, _ := model.ParseVATType(text(e, "ID")); t != model.VATExempt {
			return
		}
		code := text(e, "TaxExemptionReasonCode")
		if code == "" {
			return
		}
		if m.im.catalogs.Exemptions.AddIfAbsent(code, text(e, "TaxExemptionReason")) {
			m.im.logger.Debug().Str("code", code).Msg("exemption code added to catalog")
		}
	})
}
