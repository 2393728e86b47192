// Package vatpolicy derives VAT defaults from the supplier's registration status.
package vatpolicy

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/model"
)

// RegisteredPrefix marks a supplier registered for VAT in Romania
const RegisteredPrefix = "RO"

// IsRegistered reports whether the supplier VAT identifier starts with RO
func IsRegistered(vatID string) bool {
	id := strings.ToUpper(strings.Join(strings.Fields(vatID), ""))
	return strings.HasPrefix(id, RegisteredPrefix)
}

// Defaults is the VAT category a new line or charge starts with
type Defaults struct {
	Type   model.VATType
	Rate   decimal.Decimal
	Locked bool
}

// Policy applies registration rules document-wide. It remembers the last
// status it applied so that registered documents are only reset on a change.
type Policy struct {
	standardRate decimal.Decimal
	applied      bool
	registered   bool
	logger       zerolog.Logger
}

// Option configures a Policy
type Option func(*Policy)

// WithStandardRate sets the rate restored when a supplier becomes registered
func WithStandardRate(rate decimal.Decimal) Option {
	return func(p *Policy) {
		p.standardRate = rate
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Policy) {
		p.logger = logger
	}
}

// New creates a policy that has not yet seen any supplier
func New(opts ...Option) *Policy {
	p := &Policy{
		standardRate: model.DefaultVATRate,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reset forgets the last applied status, used when a new document is loaded
func (p *Policy) Reset() {
	p.applied = false
	p.registered = false
}

// Defaults returns the starting VAT category for a new line or charge
func (p *Policy) Defaults(supplierVATID string) Defaults {
	if !IsRegistered(supplierVATID) {
		return Defaults{Type: model.VATNotRegistered, Rate: decimal.Zero, Locked: true}
	}
	return Defaults{Type: model.VATStandard, Rate: p.standardRate}
}

// Apply enforces the policy on every line and charge of inv.
// Non-registered suppliers force category O at rate 0 and lock the fields.
// A registered supplier unlocks previously forced entries and resets them to
// the standard rate, but only when the status differs from the last call.
// Reports whether any line or charge changed.
func (p *Policy) Apply(inv *model.Invoice) bool {
	registered := IsRegistered(inv.Supplier.VATID)
	if p.applied && p.registered == registered {
		if registered {
			return false
		}
		// Lines added since the last call still need locking
		return p.lock(inv)
	}

	p.applied = true
	p.registered = registered
	p.logger.Debug().
		Bool("registered", registered).
		Str("supplier_vat_id", inv.Supplier.VATID).
		Msg("applying VAT registration policy")

	if registered {
		return p.unlock(inv)
	}
	return p.lock(inv)
}

func (p *Policy) lock(inv *model.Invoice) bool {
	changed := false
	for _, l := range inv.Lines {
		if l.VATType != model.VATNotRegistered || !l.VATRate.IsZero() || !l.VATLocked {
			l.VATType, l.VATRate, l.VATLocked = model.VATNotRegistered, decimal.Zero, true
			changed = true
		}
	}
	for _, c := range inv.Charges {
		if c.VATType != model.VATNotRegistered || !c.VATRate.IsZero() || !c.VATLocked {
			c.VATType, c.VATRate, c.VATLocked = model.VATNotRegistered, decimal.Zero, true
			changed = true
		}
	}
	return changed
}

func (p *Policy) unlock(inv *model.Invoice) bool {
	changed := false
	for _, l := range inv.Lines {
		if l.VATLocked {
			l.VATLocked = false
			if l.VATType == model.VATNotRegistered {
				l.VATType, l.VATRate = model.VATStandard, p.standardRate
			}
			changed = true
		}
	}
	for _, c := range inv.Charges {
		if c.VATLocked {
			c.VATLocked = false
			if c.VATType == model.VATNotRegistered {
				c.VATType, c.VATRate = model.VATStandard, p.standardRate
			}
			changed = true
		}
	}
	return changed
}
