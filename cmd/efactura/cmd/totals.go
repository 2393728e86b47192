package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rezonia/efactura-editor/internal/editor"
	"github.com/rezonia/efactura-editor/internal/model"
)

var totalsCmd = &cobra.Command{
	Use:   "totals <file>",
	Short: "Compare stored totals with a fresh computation",
	Long: `Recompute the VAT breakdown and monetary totals of an invoice from its
lines and document level allowances and charges, then report every
difference against the amounts stored in the file.

Examples:
  efactura totals factura.xml
  efactura totals factura.xml -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runTotals,
}

func init() {
	rootCmd.AddCommand(totalsCmd)
}

// TotalsDiff is one compared monetary total
type TotalsDiff struct {
	Field    model.TotalField `json:"field"`
	Original decimal.Decimal  `json:"original"`
	Computed decimal.Decimal  `json:"computed"`
	Drift    decimal.Decimal  `json:"drift"`
}

// TotalsReport is the output of the totals command
type TotalsReport struct {
	File    string          `json:"file"`
	Number  string          `json:"number"`
	Totals  []TotalsDiff    `json:"totals"`
	VATRows []*model.VATRow `json:"vat_rows"`
}

// compareTotals recomputes the session and pairs every total with its stored value
func compareTotals(session *editor.Session) []TotalsDiff {
	original, _ := session.Original()
	session.RefreshTotals()
	computed := session.Totals()

	pairs := []struct {
		field    model.TotalField
		original decimal.Decimal
		computed decimal.Decimal
	}{
		{model.TotalSubtotal, original.Subtotal, computed.Subtotal},
		{model.TotalAllowances, original.Allowances, computed.Allowances},
		{model.TotalCharges, original.Charges, computed.Charges},
		{model.TotalNetAmount, original.NetAmount, computed.NetAmount},
		{model.TotalVAT, original.VAT, computed.VAT},
		{model.TotalTotal, original.Total, computed.Total},
	}

	out := make([]TotalsDiff, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, TotalsDiff{
			Field:    p.field,
			Original: p.original,
			Computed: p.computed,
			Drift:    p.computed.Sub(p.original),
		})
	}
	return out
}

func runTotals(cmd *cobra.Command, args []string) error {
	session, err := loadFile(args[0])
	if err != nil {
		return err
	}

	report := TotalsReport{
		File:   args[0],
		Number: session.Invoice().Header.Number,
		Totals: compareTotals(session),
	}
	report.VATRows = session.Invoice().VATRows

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	f := newFormatter()
	fmt.Printf("Invoice %s (%s)\n\n", report.Number, report.File)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "TOTAL\tSTORED\tCOMPUTED\tDRIFT\t")
	for _, d := range report.Totals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", d.Field,
			f.FormatCurrency(d.Original), f.FormatCurrency(d.Computed), f.FormatCurrency(d.Drift))
	}
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "CATEGORY\tRATE\tBASE\tVAT\t")
	for _, r := range report.VATRows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", r.Type, f.FormatNumber(r.Rate),
			f.FormatCurrency(r.Base), f.FormatCurrency(r.Amount))
	}
	w.Flush()

	return nil
}
