package editor

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rezonia/efactura-editor/internal/catalog"
	"github.com/rezonia/efactura-editor/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every field needed for export and reports all failures at
// once, ordered as the form shows them
func (s *Session) Validate() error {
	errs := ValidateInvoice(s.inv)
	if len(errs) == 0 {
		return nil
	}
	s.logger.Debug().Int("fields", len(errs)).Str("first", errs.First().Field).Msg("validation failed")
	return errs
}

// ValidateInvoice runs struct tag rules and the document rules that tags cannot express
func ValidateInvoice(inv *model.Invoice) model.ValidationErrors {
	var out model.ValidationErrors

	if err := validate.Struct(inv); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return model.ValidationErrors{model.NewValidationError("invoice", nil, "struct", err.Error())}
		}
		for _, fe := range fieldErrs {
			out = append(out, model.NewValidationError(fieldPath(fe.Namespace()), fe.Value(), fe.Tag(), tagMessage(fe)))
		}
	}

	out = append(out, documentRules(inv)...)
	sort.SliceStable(out, func(i, j int) bool {
		return sectionOrder(out[i].Field) < sectionOrder(out[j].Field)
	})
	return out
}

// fieldPath drops the root type name: "Invoice.lines[0].name" becomes "lines[0].name"
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var sections = []string{"header", "supplier", "customer", "lines", "charges", "vat_rows"}

func sectionOrder(field string) int {
	for i, s := range sections {
		if strings.HasPrefix(field, s) {
			return i
		}
	}
	return len(sections)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for Romanian addresses"
	case "len":
		return fmt.Sprintf("must have exactly %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		if fe.Field() == "lines" {
			return "at least one line item is required"
		}
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "email":
		return "must be a valid email address"
	case "uppercase":
		return "must be uppercase"
	default:
		return "is invalid"
	}
}

func documentRules(inv *model.Invoice) model.ValidationErrors {
	var out model.ValidationErrors
	add := func(field string, value interface{}, rule, message string) {
		out = append(out, model.NewValidationError(field, value, rule, message))
	}

	h := inv.Header
	if h.IssueDate != "" {
		if _, err := model.ToISODate(h.IssueDate); err != nil {
			add("header.issue_date", h.IssueDate, "date", "must be a valid DD.MM.YYYY date")
		}
	}
	if _, err := model.ToISODate(h.DueDate); err != nil {
		add("header.due_date", h.DueDate, "date", "must be a valid DD.MM.YYYY date")
	}
	if h.NeedsExchangeRate() && !h.ExchangeRate.IsPositive() {
		add("header.exchange_rate", h.ExchangeRate.String(), "required_with_tax_currency",
			fmt.Sprintf("an exchange rate is required when the tax currency %s differs from %s", h.TaxCurrency, h.Currency))
	}

	partyRules(add, "supplier", inv.Supplier)
	partyRules(add, "customer", inv.Customer)

	for i, l := range inv.Lines {
		if l != nil && l.VATType != "" && !l.VATType.Valid() {
			add(fmt.Sprintf("lines[%d].vat_type", i), l.VATType, "oneof", "unknown VAT category")
		}
	}
	for i, c := range inv.Charges {
		if c != nil && c.VATType != "" && !c.VATType.Valid() {
			add(fmt.Sprintf("charges[%d].vat_type", i), c.VATType, "oneof", "unknown VAT category")
		}
	}
	for i, r := range inv.VATRows {
		if r == nil || !r.Type.RequiresExemption() {
			continue
		}
		if strings.TrimSpace(r.ExemptionCode) == "" {
			add(fmt.Sprintf("vat_rows[%d].exemption_code", i), nil, "required", fmt.Sprintf("category %s requires an exemption code", r.Type))
		}
		if strings.TrimSpace(r.ExemptionReason) == "" {
			add(fmt.Sprintf("vat_rows[%d].exemption_reason", i), nil, "required", fmt.Sprintf("category %s requires an exemption reason", r.Type))
		}
	}
	return out
}

func partyRules(add func(string, interface{}, string, string), prefix string, p model.Party) {
	if p.Country != model.DefaultCountry || p.County == "" {
		return
	}
	if _, ok := catalog.Lookup(catalog.Counties, p.County); !ok {
		add(prefix+".county", p.County, "oneof", "unknown Romanian county code")
		return
	}
	if p.County == catalog.BucharestCounty {
		if _, ok := catalog.Lookup(catalog.BucharestSectors, strings.ToUpper(p.City)); !ok {
			add(prefix+".city", p.City, "sector", "Bucharest addresses use a sector code SECTOR1..SECTOR6")
		}
	}
}
