package efactura

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rezonia/efactura-editor/internal/catalog"
	money "github.com/rezonia/efactura-editor/internal/decimal"
	"github.com/rezonia/efactura-editor/internal/editor"
	"github.com/rezonia/efactura-editor/internal/model"
)

// Options configures a Processor
type Options struct {
	DefaultCurrency          string          // Currency of an empty template (default: RON)
	StandardRate             decimal.Decimal // Rate new lines start with (default: 19)
	ClearOverridesOnLineEdit bool            // Drop manual VAT rows on any line edit
	Logger                   zerolog.Logger
}

// DefaultOptions returns default processor options
func DefaultOptions() Options {
	return Options{
		DefaultCurrency: model.DefaultCurrency,
		StandardRate:    model.DefaultVATRate,
		Logger:          zerolog.Nop(),
	}
}

// Report is the outcome of checking one invoice
type Report struct {
	Invoice  *Invoice         `json:"invoice"`
	Original Totals           `json:"original"`
	Computed Totals           `json:"computed"`
	Balanced bool             `json:"balanced"`
	Valid    bool             `json:"valid"`
	Errors   ValidationErrors `json:"errors,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Processor opens sessions that share one set of code catalogs. It is safe
// for concurrent use; the sessions it returns are not.
type Processor struct {
	options  Options
	catalogs *catalog.Catalogs
}

// NewProcessor creates a new processor with the given options
func NewProcessor(opts Options) *Processor {
	return &Processor{
		options:  opts,
		catalogs: catalog.New(),
	}
}

// NewDefaultProcessor creates a processor with default options
func NewDefaultProcessor() *Processor {
	return NewProcessor(DefaultOptions())
}

// NewSession returns an empty invoice template
func (p *Processor) NewSession() *Session {
	opts := []editor.Option{
		editor.WithCatalogs(p.catalogs),
		editor.WithLogger(p.options.Logger),
		editor.WithClearOverridesOnLineEdit(p.options.ClearOverridesOnLineEdit),
	}
	if p.options.DefaultCurrency != "" {
		opts = append(opts, editor.WithDefaultCurrency(p.options.DefaultCurrency))
	}
	if money.IsPositive(p.options.StandardRate) {
		opts = append(opts, editor.WithStandardRate(p.options.StandardRate))
	}
	return editor.NewSession(opts...)
}

// Load reads a UBL document into a new session
func (p *Processor) Load(ctx context.Context, r io.Reader) (*Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError("input", "failed to read input", err)
	}

	session := p.NewSession()
	if err := session.LoadXML(ctx, data); err != nil {
		return nil, err
	}
	return session, nil
}

// Check validates a document and recomputes its totals
func (p *Processor) Check(ctx context.Context, r io.Reader) (*Report, error) {
	session, err := p.Load(ctx, r)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Valid:    true,
		Warnings: session.Warnings(),
	}
	if err := session.Validate(); err != nil {
		var verrs model.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		report.Valid = false
		report.Errors = verrs
	}

	report.Original, _ = session.Original()
	session.RefreshTotals()
	report.Computed = session.Totals()
	report.Invoice = session.Invoice()
	report.Balanced = report.Original.Total.Equal(report.Computed.Total) &&
		report.Original.VAT.Equal(report.Computed.VAT) &&
		report.Original.NetAmount.Equal(report.Computed.NetAmount)
	return report, nil
}

// Storno loads a document and returns its sign-flipped serialization
func (p *Processor) Storno(ctx context.Context, r io.Reader) ([]byte, string, error) {
	session, err := p.Load(ctx, r)
	if err != nil {
		return nil, "", err
	}
	session.HandleStorno()
	return session.SaveXML()
}

// CheckBatch checks multiple inputs concurrently
func (p *Processor) CheckBatch(ctx context.Context, inputs []io.Reader) ([]*Report, error) {
	results := make([]*Report, len(inputs))
	errCh := make(chan error, len(inputs))

	for i, input := range inputs {
		go func(idx int, r io.Reader) {
			report, err := p.Check(ctx, r)
			if err != nil {
				errCh <- err
				return
			}
			results[idx] = report
			errCh <- nil
		}(i, input)
	}

	// Wait for all goroutines
	var firstErr error
	for range inputs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}
