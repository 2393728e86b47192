// Package totals derives line amounts, the VAT breakdown and document totals.
package totals

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/catalog"
	money "github.com/rezonia/efactura-editor/internal/decimal"
	"github.com/rezonia/efactura-editor/internal/model"
)

// IDGenerator returns a fresh VAT row identity
type IDGenerator func() string

// Engine computes totals. It holds no document state.
type Engine struct {
	newID IDGenerator
}

// Option configures an Engine
type Option func(*Engine)

// WithIDGenerator overrides the row id source
func WithIDGenerator(fn IDGenerator) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewEngine creates an engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRowID returns a fresh row identity
func (e *Engine) NewRowID() string {
	return e.newID()
}

// Result is the output of one full recompute
type Result struct {
	Totals model.Totals
	Rows   []*model.VATRow
}

type bucket struct {
	key  model.VATKey
	base decimal.Decimal
}

// Compute runs the full breakdown.
//
// Buckets appear in first-contribution order: lines first, then allowances and
// charges. A row of prev with the same key keeps its id and exemption pair.
// Rows marked in overrides are copied unchanged in place of the bucket they
// were frozen for; manual rows that no longer receive contributions are kept
// after the computed rows.
func (e *Engine) Compute(lines []*model.LineItem, charges []*model.AllowanceCharge, prev []*model.VATRow, overrides *OverrideTracker) Result {
	var (
		rawSubtotal   = money.Zero
		rawAllowances = money.Zero
		rawCharges    = money.Zero
		buckets       []*bucket
	)

	add := func(key model.VATKey, amount decimal.Decimal) {
		for _, b := range buckets {
			if b.key.Equal(key) {
				b.base = b.base.Add(amount)
				return
			}
		}
		buckets = append(buckets, &bucket{key: key, base: amount})
	}

	for _, l := range lines {
		amount := l.NetAmount()
		rawSubtotal = rawSubtotal.Add(amount)
		add(l.Key(), amount)
	}
	for _, c := range charges {
		if c.IsCharge {
			rawCharges = rawCharges.Add(c.Amount)
		} else {
			rawAllowances = rawAllowances.Add(c.Amount)
		}
		add(c.Key(), c.SignedAmount())
	}

	used := make([]bool, len(prev))
	// A frozen row keeps absorbing the bucket it was frozen for, and any
	// bucket that now shares its edited key.
	frozenFor := func(key model.VATKey) int {
		for i, r := range prev {
			if origin, ok := overrides.Origin(r.ID); ok && (origin.Equal(key) || r.Key().Equal(key)) {
				return i
			}
		}
		return -1
	}
	match := func(key model.VATKey) *model.VATRow {
		for i, r := range prev {
			if !used[i] && !overrides.IsManual(r.ID) && r.Key().Equal(key) {
				used[i] = true
				return r
			}
		}
		return nil
	}

	rows := make([]*model.VATRow, 0, len(buckets))
	for _, b := range buckets {
		if i := frozenFor(b.key); i >= 0 {
			if !used[i] {
				used[i] = true
				frozen := *prev[i]
				rows = append(rows, &frozen)
			}
			continue
		}
		rows = append(rows, e.computeRow(b, match(b.key)))
	}
	for i, r := range prev {
		if !used[i] && overrides.IsManual(r.ID) {
			frozen := *r
			rows = append(rows, &frozen)
		}
	}

	t := model.Totals{
		Subtotal:   money.Round2(rawSubtotal),
		Allowances: money.Round2(rawAllowances),
		Charges:    money.Round2(rawCharges),
	}
	t.NetAmount = t.Subtotal.Sub(t.Allowances).Add(t.Charges)

	return Result{Totals: ApplyVAT(t, rows), Rows: rows}
}

func (e *Engine) computeRow(b *bucket, old *model.VATRow) *model.VATRow {
	row := &model.VATRow{
		Rate:   b.key.Rate,
		Type:   b.key.Type,
		Base:   money.Round2(b.base),
		Amount: money.Zero,
	}
	if old != nil {
		row.ID = old.ID
		row.ExemptionCode = old.ExemptionCode
		row.ExemptionReason = old.ExemptionReason
	} else {
		row.ID = e.newID()
	}

	if row.Type.IsStandard() {
		row.Amount = RowVAT(row)
	}
	if !row.Type.RequiresExemption() {
		row.ExemptionCode, row.ExemptionReason = "", ""
	} else if row.ExemptionCode == "" {
		if fixed, ok := catalog.FixedExemption(row.Type); ok {
			row.ExemptionCode, row.ExemptionReason = fixed.Code, fixed.Label
		}
	}
	return row
}

// RowVAT is the tax of one row: base * rate / 100 for Standard, zero otherwise
func RowVAT(row *model.VATRow) decimal.Decimal {
	if !row.Type.IsStandard() {
		return money.Zero
	}
	return money.CalculateVAT(row.Base, row.Rate)
}

// SumStandardVAT adds the amounts of Standard rows only
func SumStandardVAT(rows []*model.VATRow) decimal.Decimal {
	return money.Sum(lo.FilterMap(rows, func(r *model.VATRow, _ int) (decimal.Decimal, bool) {
		return r.Amount, r.Type.IsStandard()
	}))
}

// ApplyVAT refreshes VAT and Total of t from rows, leaving the net figures untouched
func ApplyVAT(t model.Totals, rows []*model.VATRow) model.Totals {
	t.VAT = SumStandardVAT(rows)
	t.Total = t.NetAmount.Add(t.VAT)
	return t
}
