package editor_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/efactura-editor/internal/catalog"
	money "github.com/rezonia/efactura-editor/internal/decimal"
	"github.com/rezonia/efactura-editor/internal/editor"
	"github.com/rezonia/efactura-editor/internal/model"
	"github.com/rezonia/efactura-editor/internal/ubl"
)

func readTestFile(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func assertDec(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, actual.Equal(d(expected)), append([]interface{}{"expected %s, got %s", expected, actual}, msgAndArgs...)...)
}

func newSession(opts ...editor.Option) *editor.Session {
	n := 0
	ids := editor.WithRowIDs(func() string {
		n++
		return fmt.Sprintf("row-%d", n)
	})
	return editor.NewSession(append([]editor.Option{ids}, opts...)...)
}

func supplier(vatID string) model.Party {
	return model.Party{
		Name: "Furnizor SRL", VATID: vatID, CompanyID: "J12/1/2020",
		Street: "Str. Lungă 1", City: "Cluj-Napoca", County: "RO-CJ", Country: "RO",
	}
}

func registeredSession(t *testing.T, opts ...editor.Option) *editor.Session {
	t.Helper()
	s := newSession(opts...)
	require.NoError(t, s.SetParty(editor.RoleSupplier, supplier("RO123456")))
	return s
}

func addLine(t *testing.T, s *editor.Session, qty, price string, vatType model.VATType, rate string) int {
	t.Helper()
	i := s.AddLineItem()
	require.NoError(t, s.UpdateLineItem(i, editor.LineEdit{
		Name:      ptr(fmt.Sprintf("Produs %d", i+1)),
		Quantity:  ptr(d(qty)),
		UnitPrice: ptr(d(price)),
		VATType:   ptr(vatType),
		VATRate:   ptr(d(rate)),
	}))
	return i
}

func rowFor(t *testing.T, s *editor.Session, rate string, vatType model.VATType) *model.VATRow {
	t.Helper()
	key := model.VATKey{Rate: d(rate), Type: vatType}
	for _, r := range s.Invoice().VATRows {
		if r.Key().Equal(key) {
			return r
		}
	}
	require.Failf(t, "row not found", "no VAT row for %s/%s", rate, vatType)
	return nil
}

func loadFixture(t *testing.T, s *editor.Session) {
	t.Helper()
	require.NoError(t, s.LoadXML(context.Background(), readTestFile(t, "factura_ro.xml")))
}

func TestNewSession_Template(t *testing.T) {
	s := newSession()
	inv := s.Invoice()

	assert.Equal(t, "RON", inv.Header.Currency)
	assert.Equal(t, "380", inv.Header.InvoiceTypeCode)
	assert.Equal(t, "RO", inv.Supplier.Country)
	assert.Equal(t, "RO", inv.Customer.Country)
	assert.Empty(t, inv.Lines)
	assert.Equal(t, "0.00", money.Format2(s.Totals().Total))
	assert.False(t, s.Edited())

	_, ok := s.Original()
	assert.False(t, ok)
}

func TestScenario_MixedVATTypes(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATStandard, "19")
	addLine(t, s, "1", "200", model.VATReverseCharge, "19")
	addLine(t, s, "1", "300", model.VATExempt, "0")

	tot := s.Totals()
	assertDec(t, "600", tot.Subtotal)
	assertDec(t, "19", tot.VAT)
	assertDec(t, "619", tot.Total)

	// The reverse-charge row keeps its stored rate but carries no tax
	ae := rowFor(t, s, "19", model.VATReverseCharge)
	assertDec(t, "200", ae.Base)
	assertDec(t, "0", ae.Amount)
	assert.Equal(t, "VATEX-EU-AE", ae.ExemptionCode)
}

func TestScenario_ChargeRaisesVATBase(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "1000", model.VATStandard, "19")
	i := s.AddAllowanceCharge(true)
	require.NoError(t, s.UpdateAllowanceCharge(i, editor.ChargeEdit{Amount: ptr(d("50")), ReasonCode: ptr("FC")}))

	tot := s.Totals()
	assert.InDelta(t, 199.50, tot.VAT.InexactFloat64(), 0.01)
	assertDec(t, "50", tot.Charges)
	assertDec(t, "1050", tot.NetAmount)
	assertDec(t, "1249.5", tot.Total)
	require.Len(t, s.Invoice().VATRows, 1)
}

func TestScenario_NotRegisteredSupplier(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "2", "100", model.VATStandard, "19")
	addLine(t, s, "1", "50", model.VATStandard, "9")
	i := s.AddAllowanceCharge(false)
	require.NoError(t, s.UpdateAllowanceCharge(i, editor.ChargeEdit{Amount: ptr(d("10"))}))

	require.NoError(t, s.SetParty(editor.RoleSupplier, supplier("12345678")))

	for _, l := range s.Invoice().Lines {
		assert.Equal(t, model.VATNotRegistered, l.VATType)
		assert.True(t, l.VATRate.IsZero())
		assert.True(t, l.VATLocked)
	}
	c := s.Invoice().Charges[0]
	assert.Equal(t, model.VATNotRegistered, c.VATType)
	assert.True(t, c.VATLocked)

	tot := s.Totals()
	assertDec(t, "0", tot.VAT)
	assertDec(t, "240", tot.Total)

	rows := s.Invoice().VATRows
	require.Len(t, rows, 1)
	assert.Equal(t, "VATEX-EU-O", rows[0].ExemptionCode)
	assert.Equal(t, "Neînregistrat în scopuri de TVA", rows[0].ExemptionReason)

	err := s.UpdateLineItem(0, editor.LineEdit{VATType: ptr(model.VATStandard)})
	assert.ErrorIs(t, err, editor.ErrVATLocked)
	err = s.UpdateAllowanceCharge(0, editor.ChargeEdit{VATRate: ptr(d("19"))})
	assert.ErrorIs(t, err, editor.ErrVATLocked)

	added := s.AddLineItem()
	assert.Equal(t, model.VATNotRegistered, s.Invoice().Lines[added].VATType)
	assert.True(t, s.Invoice().Lines[added].VATLocked)
}

func TestScenario_SupplierBecomesRegistered(t *testing.T) {
	s := newSession()
	require.NoError(t, s.SetParty(editor.RoleSupplier, supplier("12345678")))
	i := s.AddLineItem()
	require.NoError(t, s.UpdateLineItem(i, editor.LineEdit{UnitPrice: ptr(d("100"))}))
	assertDec(t, "0", s.Totals().VAT)

	// Whitespace and case do not matter for the prefix
	require.NoError(t, s.SetParty(editor.RoleSupplier, supplier(" ro 12345678")))

	l := s.Invoice().Lines[0]
	assert.Equal(t, model.VATStandard, l.VATType)
	assertDec(t, "19", l.VATRate)
	assert.False(t, l.VATLocked)
	assertDec(t, "19", s.Totals().VAT)

	// A registered line changed by the user survives further supplier edits
	require.NoError(t, s.UpdateLineItem(0, editor.LineEdit{VATRate: ptr(d("9"))}))
	p := supplier("RO12345678")
	p.Name = "Alt Nume SRL"
	require.NoError(t, s.SetParty(editor.RoleSupplier, p))
	assertDec(t, "9", s.Invoice().Lines[0].VATRate)
}

func TestScenario_ZeroValueInvoice(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "0", "0", model.VATStandard, "19")

	tot := s.Totals()
	assert.Equal(t, "0.00", money.Format2(tot.Subtotal))
	assert.Equal(t, "0.00", money.Format2(tot.VAT))
	assert.Equal(t, "0.00", money.Format2(tot.Total))
}

func TestTotals_NetIdentityWithNegativeQuantities(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "-3", "33.33", model.VATStandard, "19")
	addLine(t, s, "2.5", "10.01", model.VATStandard, "9")
	i := s.AddAllowanceCharge(false)
	require.NoError(t, s.UpdateAllowanceCharge(i, editor.ChargeEdit{Amount: ptr(d("1.11"))}))
	i = s.AddAllowanceCharge(true)
	require.NoError(t, s.UpdateAllowanceCharge(i, editor.ChargeEdit{Amount: ptr(d("2.22")), VATRate: ptr(d("9"))}))

	tot := s.Totals()
	assert.True(t, tot.NetAmount.Equal(tot.Subtotal.Sub(tot.Allowances).Add(tot.Charges)))
	assert.True(t, tot.Total.Equal(tot.NetAmount.Add(tot.VAT)))

	sum := decimal.Zero
	for _, r := range s.Invoice().VATRows {
		if r.Type == model.VATStandard {
			sum = sum.Add(r.Amount)
		}
	}
	assert.True(t, tot.VAT.Equal(sum))
}

func TestOverrides_FreezeSurvivesUnrelatedEdits(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATStandard, "19")
	second := addLine(t, s, "1", "50", model.VATStandard, "9")

	id19 := rowFor(t, s, "19", model.VATStandard).ID
	require.NoError(t, s.UpdateVATRowFromAmount(id19, d("20")))
	assert.True(t, s.IsManual(id19))
	assertDec(t, "24.5", s.Totals().VAT)
	assertDec(t, "174.5", s.Totals().Total)

	require.NoError(t, s.UpdateLineItem(second, editor.LineEdit{Quantity: ptr(d("2"))}))
	row19 := rowFor(t, s, "19", model.VATStandard)
	assertDec(t, "20", row19.Amount, "manual amount frozen")
	assertDec(t, "100", row19.Base, "manual base frozen")
	assertDec(t, "9", rowFor(t, s, "9", model.VATStandard).Amount)
	assertDec(t, "29", s.Totals().VAT)

	s.RefreshTotals()
	assertDec(t, "20", rowFor(t, s, "19", model.VATStandard).Amount)

	// Structural change clears every override
	s.AddLineItem()
	assert.Empty(t, s.Overrides())
	row19 = rowFor(t, s, "19", model.VATStandard)
	assert.Equal(t, id19, row19.ID, "row identity is stable across recomputes")
	assertDec(t, "19", row19.Amount)
}

func TestOverrides_ClearOnLineEditOption(t *testing.T) {
	s := registeredSession(t, editor.WithClearOverridesOnLineEdit(true))
	addLine(t, s, "1", "100", model.VATStandard, "19")
	second := addLine(t, s, "1", "50", model.VATStandard, "9")

	id19 := rowFor(t, s, "19", model.VATStandard).ID
	require.NoError(t, s.UpdateVATRowFromAmount(id19, d("20")))
	require.NoError(t, s.UpdateLineItem(second, editor.LineEdit{Quantity: ptr(d("2"))}))

	assert.False(t, s.IsManual(id19))
	assertDec(t, "19", rowFor(t, s, "19", model.VATStandard).Amount)
}

func TestUpdateVATRow_BaseRecalculatesOwnAmount(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATStandard, "19")
	addLine(t, s, "1", "100", model.VATStandard, "9")

	id := rowFor(t, s, "19", model.VATStandard).ID
	require.NoError(t, s.UpdateVATRow(id, editor.VATRowEdit{Base: ptr(d("200"))}))

	row := rowFor(t, s, "19", model.VATStandard)
	assertDec(t, "200", row.Base)
	assertDec(t, "38", row.Amount)
	assert.True(t, s.IsManual(id))
	assertDec(t, "9", rowFor(t, s, "9", model.VATStandard).Amount, "other rows are not recomputed")
	assertDec(t, "47", s.Totals().VAT)
	assertDec(t, "247", s.Totals().Total)
}

func TestUpdateVATRow_RateEditKeepsFeedingLines(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATStandard, "19")
	second := addLine(t, s, "1", "50", model.VATStandard, "9")

	id := rowFor(t, s, "19", model.VATStandard).ID
	require.NoError(t, s.UpdateVATRow(id, editor.VATRowEdit{Rate: ptr(d("21"))}))
	assertDec(t, "21", rowFor(t, s, "21", model.VATStandard).Amount)
	assertDec(t, "25.5", s.Totals().VAT)

	require.NoError(t, s.UpdateLineItem(second, editor.LineEdit{UnitPrice: ptr(d("60"))}))

	rows := s.Invoice().VATRows
	require.Len(t, rows, 2, "the line at the old rate must not spawn a second row")
	row := rowFor(t, s, "21", model.VATStandard)
	assert.Equal(t, id, row.ID)
	assertDec(t, "100", row.Base)
	assertDec(t, "21", row.Amount)
	assertDec(t, "5.4", rowFor(t, s, "9", model.VATStandard).Amount)
	assertDec(t, "160", s.Totals().NetAmount)
	assertDec(t, "26.4", s.Totals().VAT)
	assertDec(t, "186.4", s.Totals().Total)

	s.RefreshTotals()
	assert.Len(t, s.Invoice().VATRows, 2)
	assertDec(t, "26.4", s.Totals().VAT)

	// The frozen bucket survives a state round trip
	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	var st editor.State
	require.NoError(t, json.Unmarshal(data, &st))

	restored := newSession()
	require.NoError(t, restored.Restore(st))
	require.NoError(t, restored.UpdateLineItem(second, editor.LineEdit{Quantity: ptr(d("2"))}))
	assert.Len(t, restored.Invoice().VATRows, 2)
	assertDec(t, "31.8", restored.Totals().VAT)
}

func TestUpdateVATRow_RejectsKeyOfAnotherRow(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATStandard, "19")
	addLine(t, s, "1", "50", model.VATStandard, "9")
	addLine(t, s, "1", "20", model.VATZeroRate, "0")

	id9 := rowFor(t, s, "9", model.VATStandard).ID
	tests := []struct {
		name string
		edit editor.VATRowEdit
	}{
		{"rate", editor.VATRowEdit{Rate: ptr(d("19.00"))}},
		{"rate and type", editor.VATRowEdit{Rate: ptr(d("0")), Type: ptr(model.VATZeroRate)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateVATRow(id9, tt.edit)
			assert.ErrorIs(t, err, editor.ErrDuplicateVATRow)

			row := rowFor(t, s, "9", model.VATStandard)
			assert.Equal(t, id9, row.ID)
			assert.False(t, s.IsManual(id9))
		})
	}

	s.RefreshTotals()
	assert.Len(t, s.Invoice().VATRows, 3)
	assertDec(t, "23.5", s.Totals().VAT)

	// Setting a row to its own key is not a collision
	require.NoError(t, s.UpdateVATRow(id9, editor.VATRowEdit{Rate: ptr(d("9.00"))}))
	assert.True(t, s.IsManual(id9))
}

func TestUpdateVATRow_ExemptionOnly(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATExempt, "0")

	id := rowFor(t, s, "0", model.VATExempt).ID
	require.NoError(t, s.UpdateVATRow(id, editor.VATRowEdit{ExemptionCode: ptr("VATEX-EU-143")}))

	row := rowFor(t, s, "0", model.VATExempt)
	assert.Equal(t, "VATEX-EU-143", row.ExemptionCode)
	assert.Contains(t, row.ExemptionReason, "art. 143")
	assert.False(t, s.IsManual(id))
}

func TestUpdateVATRowFromAmount_NonStandardStaysZero(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATZeroRate, "0")

	id := rowFor(t, s, "0", model.VATZeroRate).ID
	require.NoError(t, s.UpdateVATRowFromAmount(id, d("5")))
	assertDec(t, "0", rowFor(t, s, "0", model.VATZeroRate).Amount)
	assertDec(t, "0", s.Totals().VAT)
}

func TestVATRowOperations(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATStandard, "19")

	_, err := s.AddVATRate(d("19.00"), model.VATStandard)
	assert.ErrorIs(t, err, editor.ErrDuplicateVATRow)

	_, err = s.AddVATRate(d("5"), model.VATType("X"))
	assert.Error(t, err)

	id, err := s.AddVATRate(d("5"), model.VATStandard)
	require.NoError(t, err)
	require.Len(t, s.Invoice().VATRows, 2)

	// An untouched added row without contributors disappears on recompute
	s.RefreshTotals()
	assert.Equal(t, -1, s.Invoice().FindVATRow(id))

	id, err = s.AddVATRate(d("5"), model.VATStandard)
	require.NoError(t, err)
	require.NoError(t, s.UpdateVATRowFromAmount(id, d("1.50")))
	s.RefreshTotals()
	assert.GreaterOrEqual(t, s.Invoice().FindVATRow(id), 0, "manual rows are kept")
	assertDec(t, "20.5", s.Totals().VAT)

	require.NoError(t, s.RemoveVATRow(id))
	assert.False(t, s.IsManual(id))
	assertDec(t, "19", s.Totals().VAT)

	assert.ErrorIs(t, s.RemoveVATRow("missing"), editor.ErrRowNotFound)
	assert.ErrorIs(t, s.UpdateVATRowFromAmount("missing", d("1")), editor.ErrRowNotFound)
	assert.ErrorIs(t, s.UpdateVATRow("missing", editor.VATRowEdit{}), editor.ErrRowNotFound)
}

func TestAddVATRate_FixedExemption(t *testing.T) {
	s := registeredSession(t)
	id, err := s.AddVATRate(d("0"), model.VATIntraCommunity)
	require.NoError(t, err)

	row := s.Invoice().VATRows[s.Invoice().FindVATRow(id)]
	assert.Equal(t, "VATEX-EU-IC", row.ExemptionCode)
}

func TestLineOperations(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "10", model.VATStandard, "19")
	addLine(t, s, "1", "20", model.VATStandard, "19")
	addLine(t, s, "1", "30", model.VATStandard, "19")

	require.NoError(t, s.RemoveLineItem(1))
	lines := s.Invoice().Lines
	require.Len(t, lines, 2)
	assertDec(t, "30", lines[1].UnitPrice, "later lines shift down")
	assertDec(t, "40", s.Totals().Subtotal)

	assert.ErrorIs(t, s.RemoveLineItem(5), editor.ErrLineIndex)
	assert.ErrorIs(t, s.RemoveLineItem(-1), editor.ErrLineIndex)
	assert.ErrorIs(t, s.UpdateLineItem(2, editor.LineEdit{}), editor.ErrLineIndex)
	assert.ErrorIs(t, s.RemoveAllowanceCharge(0), editor.ErrChargeIndex)
	assert.ErrorIs(t, s.UpdateAllowanceCharge(0, editor.ChargeEdit{}), editor.ErrChargeIndex)
}

func TestUpdateLineItem_Discount(t *testing.T) {
	s := registeredSession(t)
	i := addLine(t, s, "10", "100", model.VATStandard, "19")

	require.NoError(t, s.UpdateLineItem(i, editor.LineEdit{Discount: ptr(d("50")), DiscountReasonCode: ptr("95")}))
	assertDec(t, "950", s.Totals().Subtotal)
	assert.Equal(t, "95", s.Invoice().Lines[i].DiscountReasonCode)

	require.NoError(t, s.UpdateLineItem(i, editor.LineEdit{Discount: ptr(d("0"))}))
	assert.Empty(t, s.Invoice().Lines[i].DiscountReasonCode, "reason code needs a discount")
	assertDec(t, "1000", s.Totals().Subtotal)
}

func TestUpdateLineItem_NameDoesNotRecompute(t *testing.T) {
	s := newSession()
	loadFixture(t, s)

	require.NoError(t, s.UpdateLineItem(0, editor.LineEdit{Name: ptr("Licență nouă")}))
	assert.False(t, s.Edited())
	assert.Equal(t, "Licență nouă", s.Invoice().Lines[0].Name)
}

func TestUpdateAllowanceCharge_SwitchKindClearsForeignReason(t *testing.T) {
	s := registeredSession(t)
	addLine(t, s, "1", "100", model.VATStandard, "19")
	i := s.AddAllowanceCharge(false)
	require.NoError(t, s.UpdateAllowanceCharge(i, editor.ChargeEdit{Amount: ptr(d("10")), ReasonCode: ptr("95")}))
	assertDec(t, "90", s.Totals().NetAmount)

	require.NoError(t, s.UpdateAllowanceCharge(i, editor.ChargeEdit{IsCharge: ptr(true)}))
	assert.Empty(t, s.Invoice().Charges[i].ReasonCode)
	assertDec(t, "110", s.Totals().NetAmount)

	require.NoError(t, s.RemoveAllowanceCharge(i))
	assertDec(t, "100", s.Totals().NetAmount)
}

func TestLoadXML_DisplaysOriginalTotals(t *testing.T) {
	s := newSession()
	loadFixture(t, s)

	original, ok := s.Original()
	require.True(t, ok)
	assert.Equal(t, original, s.Totals())
	assert.False(t, s.Edited())
	assert.Equal(t, "FCT-2024-0042", s.Invoice().Header.Number)
	require.Len(t, s.Invoice().VATRows, 3)
	assert.Empty(t, s.Warnings())
}

func TestLoadXML_NotRegisteredSupplierRecomputes(t *testing.T) {
	content := strings.Replace(string(readTestFile(t, "factura_ro.xml")),
		"<cbc:CompanyID>RO12345678</cbc:CompanyID>", "<cbc:CompanyID>DE12345678</cbc:CompanyID>", 1)

	s := newSession()
	require.NoError(t, s.LoadXML(context.Background(), []byte(content)))

	for _, l := range s.Invoice().Lines {
		assert.Equal(t, model.VATNotRegistered, l.VATType)
		assert.True(t, l.VATLocked)
	}
	require.Len(t, s.Invoice().VATRows, 1)
	row := s.Invoice().VATRows[0]
	assert.Equal(t, model.VATNotRegistered, row.Type)
	assert.Equal(t, "VATEX-EU-O", row.ExemptionCode)
	assertDec(t, "0", s.Totals().VAT)
	assertDec(t, "1326", s.Totals().Total)
	assert.True(t, s.Edited())

	original, ok := s.Original()
	require.True(t, ok)
	assertDec(t, "185.84", original.VAT, "the stored totals are still reported")

	out, _, err := s.SaveXML()
	require.NoError(t, err)
	xml := string(out)
	assert.NotContains(t, xml, "<cbc:ID>S</cbc:ID>")
	assert.NotContains(t, xml, "<cbc:ID>E</cbc:ID>")
	assert.Contains(t, xml, "<cbc:ID>O</cbc:ID>")
	assert.Contains(t, xml, `<cbc:TaxAmount currencyID="RON">0.00</cbc:TaxAmount>`)
	assert.Contains(t, xml, `<cbc:PayableAmount currencyID="RON">1326.00</cbc:PayableAmount>`)
}

func TestLoadXML_ParseErrorKeepsDocument(t *testing.T) {
	s := newSession()
	loadFixture(t, s)

	err := s.LoadXML(context.Background(), []byte("<Invoice><ID>broken"))
	var parseErr *model.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "FCT-2024-0042", s.Invoice().Header.Number)
}

func TestLoadXML_ClearsOverrides(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	id := s.Invoice().VATRows[0].ID
	require.NoError(t, s.UpdateVATRowFromAmount(id, d("100")))
	require.NotEmpty(t, s.Overrides())

	loadFixture(t, s)
	assert.Empty(t, s.Overrides())
}

func TestLoadXML_CatalogsAreShared(t *testing.T) {
	c := catalog.New()
	loadFixture(t, newSession(editor.WithCatalogs(c)))

	other := newSession(editor.WithCatalogs(c))
	assert.True(t, other.Catalogs().Units.Has("E48"))
	assert.True(t, other.Catalogs().Exemptions.Has("VATEX-EU-G"))
}

func TestSaveXML_RoundTripTotals(t *testing.T) {
	s := newSession()
	loadFixture(t, s)

	out, name, err := s.SaveXML()
	require.NoError(t, err)
	assert.Equal(t, "factura_FCT-2024-0042.xml", name)

	res, err := ubl.NewImporter(catalog.New()).ImportBytes(context.Background(), out)
	require.NoError(t, err)
	original, _ := s.Original()
	for _, pair := range [][2]decimal.Decimal{
		{original.Subtotal, res.Original.Subtotal},
		{original.Allowances, res.Original.Allowances},
		{original.Charges, res.Original.Charges},
		{original.NetAmount, res.Original.NetAmount},
		{original.VAT, res.Original.VAT},
		{original.Total, res.Original.Total},
	} {
		assert.True(t, pair[0].Equal(pair[1]), "expected %s, got %s", pair[0], pair[1])
	}
}

func TestSaveXML_EditedTotalExportedVerbatim(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	require.NoError(t, s.EditTotal(model.TotalVAT, d("185.85")))
	assert.True(t, s.Edited())

	out, _, err := s.SaveXML()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<cbc:TaxAmount currencyID="RON">185.85</cbc:TaxAmount>`)

	assert.Error(t, s.EditTotal(model.TotalField("rounding"), d("1")))
}

func TestSaveXML_ValidationFailure(t *testing.T) {
	s := newSession()

	out, name, err := s.SaveXML()
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Empty(t, name)

	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "header.number", verrs.First().Field)

	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.Contains(t, fields, "header.issue_date")
	assert.Contains(t, fields, "supplier.name")
	assert.Contains(t, fields, "customer.street")
	assert.Contains(t, fields, "lines")
}

func TestValidate_DocumentRules(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	require.NoError(t, s.Validate())

	s.UpdateHeader(editor.HeaderEdit{
		DueDate:     ptr("31.02.2024"),
		Currency:    ptr("eur"),
		TaxCurrency: ptr("ron"),
	})
	cust := s.Invoice().Customer
	cust.City = "București"
	require.NoError(t, s.SetParty(editor.RoleCustomer, cust))
	s.Invoice().VATRows[2].ExemptionReason = ""

	err := s.Validate()
	var verrs model.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	byField := make(map[string]string)
	for _, v := range verrs {
		byField[v.Field] = v.Rule
	}
	assert.Equal(t, "date", byField["header.due_date"])
	assert.Equal(t, "required_with_tax_currency", byField["header.exchange_rate"])
	assert.Equal(t, "sector", byField["customer.city"])
	assert.Equal(t, "required", byField["vat_rows[2].exemption_reason"])
	assert.Equal(t, "header.due_date", verrs.First().Field)

	s.UpdateHeader(editor.HeaderEdit{ExchangeRate: ptr(d("0.2010"))})
	err = s.Validate()
	require.ErrorAs(t, err, &verrs)
	for _, v := range verrs {
		assert.NotEqual(t, "header.exchange_rate", v.Field)
	}
}

func TestValidate_PartyRules(t *testing.T) {
	s := newSession()
	loadFixture(t, s)

	p := s.Invoice().Supplier
	p.County = ""
	p.Email = "not-an-email"
	require.NoError(t, s.SetParty(editor.RoleSupplier, p))

	var verrs model.ValidationErrors
	require.ErrorAs(t, s.Validate(), &verrs)

	byField := make(map[string]string)
	for _, v := range verrs {
		byField[v.Field] = v.Rule
	}
	assert.Equal(t, "required_if", byField["supplier.county"])
	assert.Equal(t, "email", byField["supplier.email"])

	// Foreign addresses need no county
	p.Country = "de"
	p.Email = ""
	require.NoError(t, s.SetParty(editor.RoleSupplier, p))
	assert.NoError(t, s.Validate())
	assert.Equal(t, "DE", s.Invoice().Supplier.Country)

	assert.Error(t, s.SetParty(editor.Role("broker"), p))
}

func TestHandleStorno_TwiceIsExact(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	before := s.Snapshot()

	s.HandleStorno()
	inv := s.Invoice()
	assertDec(t, "-10", inv.Lines[0].Quantity)
	assertDec(t, "-50", inv.Lines[0].Discount)
	assertDec(t, "-40", inv.Charges[0].Amount)
	assertDec(t, "-25", inv.Charges[1].Amount)
	assertDec(t, "-935", inv.VATRows[0].Base)
	assertDec(t, "-177.65", inv.VATRows[0].Amount)
	assertDec(t, "-1511.84", s.Totals().Total)
	assertDec(t, "-185.84", s.Totals().VAT)
	original, _ := s.Original()
	assertDec(t, "-1511.84", original.Total)
	assert.Equal(t, "VATEX-EU-G", inv.VATRows[2].ExemptionCode)

	s.HandleStorno()
	after := s.Snapshot()
	for i, l := range before.Invoice.Lines {
		assert.True(t, l.Quantity.Equal(after.Invoice.Lines[i].Quantity))
		assert.True(t, l.Discount.Equal(after.Invoice.Lines[i].Discount))
	}
	for i, c := range before.Invoice.Charges {
		assert.True(t, c.Amount.Equal(after.Invoice.Charges[i].Amount))
	}
	require.Len(t, after.Invoice.VATRows, len(before.Invoice.VATRows))
	for i, r := range before.Invoice.VATRows {
		assert.Equal(t, r.ID, after.Invoice.VATRows[i].ID)
		assert.True(t, r.Base.Equal(after.Invoice.VATRows[i].Base))
		assert.True(t, r.Amount.Equal(after.Invoice.VATRows[i].Amount))
	}
	assert.True(t, before.Totals.Total.Equal(after.Totals.Total))
	assert.True(t, before.Totals.VAT.Equal(after.Totals.VAT))
}

func TestHandleStorno_RecomputesDriftedStoredTotals(t *testing.T) {
	content := strings.Replace(string(readTestFile(t, "factura_ro.xml")),
		`<cbc:TaxInclusiveAmount currencyID="RON">1511.84</cbc:TaxInclusiveAmount>`,
		`<cbc:TaxInclusiveAmount currencyID="RON">1500.00</cbc:TaxInclusiveAmount>`, 1)

	s := newSession()
	require.NoError(t, s.LoadXML(context.Background(), []byte(content)))
	assertDec(t, "1500", s.Totals().Total)

	s.HandleStorno()
	assertDec(t, "-1511.84", s.Totals().Total)
	original, _ := s.Original()
	assertDec(t, "-1500", original.Total)

	s.HandleStorno()
	assertDec(t, "1511.84", s.Totals().Total)
	original, _ = s.Original()
	assertDec(t, "1500", original.Total)
}

func TestHandleStorno_ClearsOverrides(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	require.NoError(t, s.UpdateVATRowFromAmount(s.Invoice().VATRows[0].ID, d("1")))

	s.HandleStorno()
	assert.Empty(t, s.Overrides())
}

func TestSnapshotRestore_JSON(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	id := s.Invoice().VATRows[1].ID
	require.NoError(t, s.UpdateVATRowFromAmount(id, d("8.20")))

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	var st editor.State
	require.NoError(t, json.Unmarshal(data, &st))

	restored := newSession()
	require.NoError(t, restored.Restore(st))
	assert.True(t, restored.IsManual(id))
	assert.True(t, restored.Totals().VAT.Equal(s.Totals().VAT))
	assert.Equal(t, s.Invoice().Header.Number, restored.Invoice().Header.Number)
	assert.Equal(t, s.Invoice().Header.Note, restored.Invoice().Header.Note)
	require.Len(t, restored.Invoice().Lines, 3)

	// Restored state is a copy
	restored.Invoice().Lines[0].Name = "changed"
	assert.NotEqual(t, "changed", s.Invoice().Lines[0].Name)

	assert.ErrorIs(t, restored.Restore(editor.State{}), editor.ErrEmptyState)
}

func TestRestore_DropsUnknownOverridesAndNilEntries(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	st := s.Snapshot()
	st.Overrides = []string{"ghost", st.Invoice.VATRows[0].ID}
	st.Invoice.Lines = append(st.Invoice.Lines, nil)

	restored := newSession()
	require.NoError(t, restored.Restore(st))
	assert.Equal(t, []string{st.Invoice.VATRows[0].ID}, restored.Overrides())
	assert.Len(t, restored.Invoice().Lines, 3)
}

func TestApplyAll(t *testing.T) {
	s := newSession()
	actions := []editor.Action{
		{Op: editor.ActionSetParty, Role: editor.RoleSupplier, Party: ptr(supplier("RO99"))},
		{Op: editor.ActionAddLine},
		{Op: editor.ActionUpdateLine, Index: 0, Line: &editor.LineEdit{Quantity: ptr(d("2")), UnitPrice: ptr(d("50"))}},
		{Op: editor.ActionAddCharge, Charge: true},
		{Op: editor.ActionUpdateCharge, Index: 0, Entry: &editor.ChargeEdit{Amount: ptr(d("10"))}},
		{Op: editor.ActionUpdateHeader, Header: &editor.HeaderEdit{Number: ptr(" A-1 ")}},
		{Op: editor.ActionRefresh},
	}
	require.NoError(t, s.ApplyAll(actions))

	assert.Equal(t, "A-1", s.Invoice().Header.Number)
	assertDec(t, "110", s.Totals().NetAmount)
	assertDec(t, "20.9", s.Totals().VAT)

	id := s.Invoice().VATRows[0].ID
	require.NoError(t, s.Apply(editor.Action{Op: editor.ActionUpdateVATAmount, RowID: id, Value: d("21")}))
	require.NoError(t, s.Apply(editor.Action{Op: editor.ActionEditTotal, Field: model.TotalTotal, Value: d("131.50")}))
	assertDec(t, "131.5", s.Totals().Total)

	require.NoError(t, s.Apply(editor.Action{Op: editor.ActionStorno}))
	assertDec(t, "-110", s.Totals().NetAmount)

	err := s.ApplyAll([]editor.Action{{Op: editor.ActionRemoveLine, Index: 7}})
	assert.ErrorIs(t, err, editor.ErrLineIndex)
	assert.ErrorIs(t, s.Apply(editor.Action{Op: "explode"}), editor.ErrUnknownAction)
	assert.Error(t, s.Apply(editor.Action{Op: editor.ActionUpdateLine}))
}

func TestNewDocument_ResetsButKeepsCatalogs(t *testing.T) {
	s := newSession()
	loadFixture(t, s)
	s.NewDocument()

	assert.Empty(t, s.Invoice().Lines)
	assert.Empty(t, s.Invoice().Header.Number)
	_, ok := s.Original()
	assert.False(t, ok)
	assert.True(t, s.Catalogs().Units.Has("E48"))
}

func TestNewSession_DefaultCurrencyAndRate(t *testing.T) {
	s := newSession(editor.WithDefaultCurrency("EUR"), editor.WithStandardRate(d("21")))
	require.NoError(t, s.SetParty(editor.RoleSupplier, supplier("RO1")))
	i := s.AddLineItem()

	assert.Equal(t, "EUR", s.Invoice().Header.Currency)
	assertDec(t, "21", s.Invoice().Lines[i].VATRate)
	assert.Equal(t, editor.DefaultUnitCode, s.Invoice().Lines[i].UnitCode)
}
