package ubl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	money "github.com/rezonia/efactura-editor/internal/decimal"
	"github.com/rezonia/efactura-editor/internal/model"
)

// Exporter writes UBL invoices
type Exporter struct {
	logger zerolog.Logger
}

// ExporterOption configures an Exporter
type ExporterOption func(*Exporter)

// WithExportLogger sets the logger
func WithExportLogger(logger zerolog.Logger) ExporterOption {
	return func(ex *Exporter) {
		ex.logger = logger
	}
}

// NewExporter creates an exporter
func NewExporter(opts ...ExporterOption) *Exporter {
	ex := &Exporter{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// Filename returns the download name for an invoice number
func Filename(number string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(number))
	return "factura_" + clean + ".xml"
}

// Export serializes inv. Monetary totals come from displayed, never recomputed,
// so hand-edited figures are written verbatim. inv must already be validated.
func (ex *Exporter) Export(inv *model.Invoice, displayed model.Totals) ([]byte, error) {
	w := &writer{inv: inv, currency: inv.Header.Currency}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NamespaceInvoice)
	root.CreateAttr("xmlns:cac", NamespaceCAC)
	root.CreateAttr("xmlns:cbc", NamespaceCBC)

	if err := w.header(root); err != nil {
		return nil, err
	}
	w.party(root.CreateElement("cac:AccountingSupplierParty"), &inv.Supplier)
	w.party(root.CreateElement("cac:AccountingCustomerParty"), &inv.Customer)
	for _, ac := range inv.Charges {
		w.allowanceCharge(root, ac)
	}
	w.taxTotal(root, displayed.VAT)
	w.monetaryTotal(root, displayed)
	for i, l := range inv.Lines {
		w.line(root, i, l)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize invoice: %w", err)
	}

	ex.logger.Info().
		Str("number", inv.Header.Number).
		Int("lines", len(inv.Lines)).
		Int("bytes", len(out)).
		Msg("invoice exported")
	return out, nil
}

type writer struct {
	inv      *model.Invoice
	currency string
}

func cbc(parent *etree.Element, tag, value string) *etree.Element {
	e := parent.CreateElement("cbc:" + tag)
	e.SetText(value)
	return e
}

func cbcOptional(parent *etree.Element, tag, value string) {
	if value != "" {
		cbc(parent, tag, value)
	}
}

func (w *writer) amount(parent *etree.Element, tag string, d decimal.Decimal) {
	w.amountIn(parent, tag, d, w.currency)
}

func (w *writer) amountIn(parent *etree.Element, tag string, d decimal.Decimal, currency string) {
	e := cbc(parent, tag, money.Format2(d))
	e.CreateAttr("currencyID", currency)
}

func noteChunks(note string) []string {
	if note == "" {
		return nil
	}
	return lo.Map(lo.Chunk([]rune(note), model.NoteChunkLength), func(c []rune, _ int) string {
		return string(c)
	})
}

func (w *writer) header(root *etree.Element) error {
	h := &w.inv.Header

	issue, err := model.ToISODate(h.IssueDate)
	if err != nil {
		return model.NewValidationError("header.issue_date", h.IssueDate, "date", "invalid issue date")
	}
	due, err := model.ToISODate(h.DueDate)
	if err != nil {
		return model.NewValidationError("header.due_date", h.DueDate, "date", "invalid due date")
	}

	cbc(root, "CustomizationID", lo.Ternary(h.CustomizationID != "", h.CustomizationID, model.DefaultCustomizationID))
	cbc(root, "ID", h.Number)
	for _, chunk := range noteChunks(h.Note) {
		cbc(root, "Note", chunk)
	}
	cbc(root, "IssueDate", issue)
	cbcOptional(root, "DueDate", due)
	cbc(root, "InvoiceTypeCode", lo.Ternary(h.InvoiceTypeCode != "", h.InvoiceTypeCode, model.DefaultInvoiceTypeCode))
	cbc(root, "DocumentCurrencyCode", h.Currency)
	if h.NeedsExchangeRate() {
		cbc(root, "TaxCurrencyCode", h.TaxCurrency)
	}
	return nil
}

func (w *writer) party(wrapper *etree.Element, p *model.Party) {
	party := wrapper.CreateElement("cac:Party")
	hasPrefix := p.HasVATPrefix()

	if !hasPrefix && p.CompanyID != "" {
		cbc(party.CreateElement("cac:PartyIdentification"), "ID", p.CompanyID)
	}

	addr := party.CreateElement("cac:PostalAddress")
	cbcOptional(addr, "StreetName", p.Street)
	cbcOptional(addr, "CityName", p.City)
	cbcOptional(addr, "CountrySubentity", p.County)
	cbc(addr.CreateElement("cac:Country"), "IdentificationCode", lo.Ternary(p.Country != "", p.Country, model.DefaultCountry))

	if hasPrefix {
		pts := party.CreateElement("cac:PartyTaxScheme")
		cbc(pts, "CompanyID", strings.TrimSpace(p.VATID))
		// A non-VAT-registered counterpart is signalled by the absent scheme id
		if !w.inv.UsesVATType(model.VATNotRegistered) {
			cbc(pts.CreateElement("cac:TaxScheme"), "ID", "VAT")
		}
	}

	legal := party.CreateElement("cac:PartyLegalEntity")
	cbc(legal, "RegistrationName", p.Name)
	cbcOptional(legal, "CompanyID", lo.Ternary(hasPrefix, p.CompanyID, strings.TrimSpace(p.VATID)))

	if p.Contact != "" || p.Phone != "" || p.Email != "" {
		contact := party.CreateElement("cac:Contact")
		cbcOptional(contact, "Name", p.Contact)
		cbcOptional(contact, "Telephone", p.Phone)
		cbcOptional(contact, "ElectronicMail", p.Email)
	}
}

func percent(t model.VATType, rate decimal.Decimal) (string, bool) {
	switch t {
	case model.VATNotRegistered:
		return "", false
	case model.VATReverseCharge:
		return "0.00", true
	default:
		return money.Format2(rate), true
	}
}

func taxCategory(parent *etree.Element, tag string, t model.VATType, rate decimal.Decimal) *etree.Element {
	cat := parent.CreateElement("cac:" + tag)
	cbc(cat, "ID", string(t))
	if pct, ok := percent(t, rate); ok {
		cbc(cat, "Percent", pct)
	}
	return cat
}

func taxScheme(cat *etree.Element) {
	cbc(cat.CreateElement("cac:TaxScheme"), "ID", "VAT")
}

func (w *writer) allowanceCharge(root *etree.Element, ac *model.AllowanceCharge) {
	el := root.CreateElement("cac:AllowanceCharge")
	cbc(el, "ChargeIndicator", strconv.FormatBool(ac.IsCharge))
	cbcOptional(el, "AllowanceChargeReasonCode", ac.ReasonCode)
	cbcOptional(el, "AllowanceChargeReason", ac.Reason)
	if !ac.BaseAmount.IsZero() {
		cbc(el, "MultiplierFactorNumeric", money.Format2(money.MultiplierFactor(ac.Amount, ac.BaseAmount)))
	}
	w.amount(el, "Amount", ac.Amount)
	if !ac.BaseAmount.IsZero() {
		w.amount(el, "BaseAmount", ac.BaseAmount)
	}
	taxScheme(taxCategory(el, "TaxCategory", ac.VATType, ac.VATRate))
}

func (w *writer) taxTotal(root *etree.Element, vat decimal.Decimal) {
	tt := root.CreateElement("cac:TaxTotal")
	w.amount(tt, "TaxAmount", vat)

	for _, row := range w.inv.VATRows {
		sub := tt.CreateElement("cac:TaxSubtotal")
		w.amount(sub, "TaxableAmount", row.Base)
		w.amount(sub, "TaxAmount", row.Amount)
		cat := taxCategory(sub, "TaxCategory", row.Type, row.Rate)
		if row.Type.RequiresExemption() {
			cbcOptional(cat, "TaxExemptionReasonCode", row.ExemptionCode)
			cbcOptional(cat, "TaxExemptionReason", row.ExemptionReason)
		}
		taxScheme(cat)
	}

	h := &w.inv.Header
	if h.NeedsExchangeRate() {
		second := root.CreateElement("cac:TaxTotal")
		w.amountIn(second, "TaxAmount", money.Mul(vat, h.ExchangeRate), h.TaxCurrency)
	}
}

func (w *writer) monetaryTotal(root *etree.Element, t model.Totals) {
	lmt := root.CreateElement("cac:LegalMonetaryTotal")
	w.amount(lmt, "LineExtensionAmount", t.Subtotal)
	w.amount(lmt, "TaxExclusiveAmount", t.NetAmount)
	w.amount(lmt, "TaxInclusiveAmount", t.Total)
	if !t.Allowances.IsZero() {
		w.amount(lmt, "AllowanceTotalAmount", t.Allowances)
	}
	if !t.Charges.IsZero() {
		w.amount(lmt, "ChargeTotalAmount", t.Charges)
	}
	w.amount(lmt, "PayableAmount", t.Total)
}

func (w *writer) line(root *etree.Element, index int, l *model.LineItem) {
	el := root.CreateElement("cac:InvoiceLine")
	cbc(el, "ID", strconv.Itoa(index+1))
	qty := cbc(el, "InvoicedQuantity", money.FormatQty(l.Quantity))
	qty.CreateAttr("unitCode", l.UnitCode)
	w.amount(el, "LineExtensionAmount", money.Round2(l.NetAmount()))

	if !l.Discount.IsZero() {
		gross := money.Round2(l.GrossAmount())
		ac := el.CreateElement("cac:AllowanceCharge")
		cbc(ac, "ChargeIndicator", "false")
		cbcOptional(ac, "AllowanceChargeReasonCode", l.DiscountReasonCode)
		cbc(ac, "MultiplierFactorNumeric", money.Format2(money.MultiplierFactor(l.Discount, gross)))
		w.amount(ac, "Amount", l.Discount)
		w.amount(ac, "BaseAmount", gross)
	}

	item := el.CreateElement("cac:Item")
	cbcOptional(item, "Description", l.Description)
	cbc(item, "Name", l.Name)
	w.identifications(item, l.Identifications)
	taxScheme(taxCategory(item, "ClassifiedTaxCategory", l.VATType, l.VATRate))

	price := el.CreateElement("cac:Price")
	e := cbc(price, "PriceAmount", money.FormatPrice(l.UnitPrice))
	e.CreateAttr("currencyID", w.currency)
}

func (w *writer) identifications(item *etree.Element, ids []model.ItemIdentification) {
	byKind := lo.GroupBy(ids, func(id model.ItemIdentification) model.IdentificationKind { return id.Kind })

	if v, ok := lo.First(byKind[model.IDBuyer]); ok {
		cbc(item.CreateElement("cac:BuyersItemIdentification"), "ID", v.Value)
	}
	if v, ok := lo.First(byKind[model.IDSeller]); ok {
		cbc(item.CreateElement("cac:SellersItemIdentification"), "ID", v.Value)
	}
	if v, ok := lo.First(byKind[model.IDStandard]); ok {
		e := cbc(item.CreateElement("cac:StandardItemIdentification"), "ID", v.Value)
		if v.SchemeID != "" {
			e.CreateAttr("schemeID", v.SchemeID)
		}
	}
	for _, v := range byKind[model.IDClassification] {
		e := cbc(item.CreateElement("cac:CommodityClassification"), "ItemClassificationCode", v.Value)
		if v.SchemeID != "" {
			e.CreateAttr("listID", v.SchemeID)
		}
	}
}
