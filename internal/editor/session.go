// Package editor holds the invoice being edited and routes every change
// through one recompute dispatcher.
package editor

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/catalog"
	"github.com/rezonia/efactura-editor/internal/model"
	"github.com/rezonia/efactura-editor/internal/totals"
	"github.com/rezonia/efactura-editor/internal/ubl"
	"github.com/rezonia/efactura-editor/internal/vatpolicy"
)

// Session is the single source of truth for one invoice. It is not safe for
// concurrent use; catalogs may be shared between sessions.
type Session struct {
	inv       *model.Invoice
	displayed model.Totals
	original  *model.Totals
	edited    bool
	warnings  []string

	overrides *totals.OverrideTracker
	engine    *totals.Engine
	policy    *vatpolicy.Policy
	catalogs  *catalog.Catalogs
	importer  *ubl.Importer
	exporter  *ubl.Exporter
	logger    zerolog.Logger

	standardRate    decimal.Decimal
	currency        string
	clearOnLineEdit bool
	rowIDs          totals.IDGenerator
}

// Option configures a Session
type Option func(*Session)

// WithCatalogs shares registries between sessions
func WithCatalogs(c *catalog.Catalogs) Option {
	return func(s *Session) {
		s.catalogs = c
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStandardRate sets the rate new lines start with
func WithStandardRate(rate decimal.Decimal) Option {
	return func(s *Session) {
		s.standardRate = rate
	}
}

// WithDefaultCurrency sets the currency of an empty template
func WithDefaultCurrency(currency string) Option {
	return func(s *Session) {
		s.currency = currency
	}
}

// WithClearOverridesOnLineEdit drops every manual VAT row on any line or
// charge value edit, not only on structural changes
func WithClearOverridesOnLineEdit(enabled bool) Option {
	return func(s *Session) {
		s.clearOnLineEdit = enabled
	}
}

// WithRowIDs overrides the VAT row id source
func WithRowIDs(fn totals.IDGenerator) Option {
	return func(s *Session) {
		s.rowIDs = fn
	}
}

// NewSession returns a session holding an empty Romanian template
func NewSession(opts ...Option) *Session {
	s := &Session{
		logger:       zerolog.Nop(),
		standardRate: model.DefaultVATRate,
		currency:     model.DefaultCurrency,
		overrides:    totals.NewOverrideTracker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalogs == nil {
		s.catalogs = catalog.New()
	}

	var engineOpts []totals.Option
	importerOpts := []ubl.ImporterOption{ubl.WithImportLogger(s.logger)}
	if s.rowIDs != nil {
		engineOpts = append(engineOpts, totals.WithIDGenerator(s.rowIDs))
		importerOpts = append(importerOpts, ubl.WithRowIDs(s.rowIDs))
	}
	s.engine = totals.NewEngine(engineOpts...)
	s.policy = vatpolicy.New(vatpolicy.WithStandardRate(s.standardRate), vatpolicy.WithLogger(s.logger))
	s.importer = ubl.NewImporter(s.catalogs, importerOpts...)
	s.exporter = ubl.NewExporter(ubl.WithExportLogger(s.logger))

	s.reset()
	return s
}

func (s *Session) reset() {
	s.inv = model.NewInvoice()
	s.inv.Header.Currency = s.currency
	s.displayed = emptyTotals()
	s.original = nil
	s.edited = false
	s.warnings = nil
	s.overrides.ClearAll()
	s.policy.Reset()
}

func emptyTotals() model.Totals {
	return model.Totals{
		Subtotal:   decimal.Zero,
		Allowances: decimal.Zero,
		Charges:    decimal.Zero,
		NetAmount:  decimal.Zero,
		VAT:        decimal.Zero,
		Total:      decimal.Zero,
	}
}

// NewDocument discards the current invoice and starts an empty template
func (s *Session) NewDocument() {
	s.reset()
	s.logger.Debug().Msg("new invoice template")
}

// Invoice returns the live document. Callers must mutate it only through Session methods.
func (s *Session) Invoice() *model.Invoice {
	return s.inv
}

// Totals returns the displayed totals
func (s *Session) Totals() model.Totals {
	return s.displayed
}

// Original returns the totals read from the last imported file
func (s *Session) Original() (model.Totals, bool) {
	if s.original == nil {
		return model.Totals{}, false
	}
	return *s.original, true
}

// Edited reports whether totals were recomputed since the last load
func (s *Session) Edited() bool {
	return s.edited
}

// Warnings returns the soft mapping failures of the last import
func (s *Session) Warnings() []string {
	return s.warnings
}

// Overrides returns the ids of manually edited VAT rows
func (s *Session) Overrides() []string {
	return s.overrides.IDs()
}

// IsManual reports whether the VAT row was edited by hand
func (s *Session) IsManual(rowID string) bool {
	return s.overrides.IsManual(rowID)
}

// Catalogs returns the registries used by the session
func (s *Session) Catalogs() *catalog.Catalogs {
	return s.catalogs
}

// LoadXML replaces the document with the content of a UBL file. On a parse
// failure the previous document is kept.
func (s *Session) LoadXML(ctx context.Context, content []byte) error {
	res, err := s.importer.ImportBytes(ctx, content)
	if err != nil {
		var parseErr *model.ParseError
		if errors.As(err, &parseErr) {
			s.logger.Warn().Err(err).Msg("invoice load rejected")
		}
		return err
	}

	s.inv = res.Invoice
	original := res.Original
	s.original = &original
	s.displayed = original
	s.edited = false
	s.warnings = res.WarningMessages()
	s.overrides.ClearAll()
	s.policy.Reset()
	if s.policy.Apply(s.inv) {
		// The supplier is not registered: the forced O lines drive the breakdown
		s.dispatch(changeLine)
	}

	s.logger.Info().
		Str("number", s.inv.Header.Number).
		Int("lines", len(s.inv.Lines)).
		Int("warnings", len(s.warnings)).
		Msg("invoice loaded")
	return nil
}

// SaveXML validates the document and serializes it with the displayed totals.
// Nothing is produced when validation fails.
func (s *Session) SaveXML() ([]byte, string, error) {
	if err := s.Validate(); err != nil {
		return nil, "", err
	}
	out, err := s.exporter.Export(s.inv, s.displayed)
	if err != nil {
		return nil, "", err
	}
	name := ubl.Filename(s.inv.Header.Number)
	s.logger.Info().Str("file", name).Msg("invoice saved")
	return out, name, nil
}

// State is a serializable copy of a session
type State struct {
	Invoice   *model.Invoice `json:"invoice"`
	Totals    model.Totals   `json:"totals"`
	Original  *model.Totals  `json:"original,omitempty"`
	Overrides []string       `json:"overrides,omitempty"`

	// Bucket each manual row was frozen for, by row id
	OverrideKeys map[string]model.VATKey `json:"override_keys,omitempty"`

	Edited   bool     `json:"edited"`
	Warnings []string `json:"warnings,omitempty"`
}

// Snapshot copies the session state
func (s *Session) Snapshot() State {
	st := State{
		Invoice:   s.inv.Clone(),
		Totals:    s.displayed,
		Overrides:    s.overrides.IDs(),
		OverrideKeys: s.overrides.Origins(),
		Edited:       s.edited,
		Warnings:     append([]string(nil), s.warnings...),
	}
	if s.original != nil {
		o := *s.original
		st.Original = &o
	}
	return st
}

// Restore replaces the session state with st. The registration policy is
// re-evaluated against the restored supplier.
func (s *Session) Restore(st State) error {
	if st.Invoice == nil {
		return ErrEmptyState
	}
	src := *st.Invoice
	src.Lines = compact(src.Lines)
	src.Charges = compact(src.Charges)
	src.VATRows = compact(src.VATRows)

	s.inv = src.Clone()
	s.displayed = st.Totals
	s.original = nil
	if st.Original != nil {
		o := *st.Original
		s.original = &o
	}
	s.edited = st.Edited
	s.warnings = append([]string(nil), st.Warnings...)

	s.overrides.ClearAll()
	for _, id := range st.Overrides {
		i := s.inv.FindVATRow(id)
		if i < 0 {
			continue
		}
		origin, ok := st.OverrideKeys[id]
		if !ok {
			origin = s.inv.VATRows[i].Key()
		}
		s.overrides.MarkManual(id, origin)
	}

	s.policy.Reset()
	if s.policy.Apply(s.inv) {
		s.dispatch(changeLine)
	}
	return nil
}

func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
