package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	roundtripOutput string
	stornoOutput    string
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <file>",
	Short: "Load an invoice and write it back",
	Long: `Load an invoice and serialize it again without edits. The stored totals
are written verbatim, so the output differs from the input only in layout
and in elements the editor does not model.

Examples:
  efactura roundtrip factura.xml
  efactura roundtrip factura.xml -o copie.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runRoundtrip,
}

var stornoCmd = &cobra.Command{
	Use:   "storno <file>",
	Short: "Write the storno (sign-flipped) copy of an invoice",
	Long: `Negate every quantity, allowance, charge and VAT amount of an invoice and
recompute its totals. Running storno on a storno gives back the original
amounts.

Examples:
  efactura storno factura.xml
  efactura storno factura.xml -o storno.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runStorno,
}

func init() {
	rootCmd.AddCommand(roundtripCmd)
	rootCmd.AddCommand(stornoCmd)

	roundtripCmd.Flags().StringVarP(&roundtripOutput, "output", "o", "", "Output file (default factura_<number>.xml next to the input)")
	stornoCmd.Flags().StringVarP(&stornoOutput, "output", "o", "", "Output file (default factura_<number>.xml next to the input)")
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	session, err := loadFile(args[0])
	if err != nil {
		return err
	}
	for _, w := range session.Warnings() {
		printVerbose("warning: %s\n", w)
	}

	data, name, err := session.SaveXML()
	if err != nil {
		return err
	}
	path, err := writeOutput(args[0], roundtripOutput, name, data)
	if err != nil {
		return err
	}
	fmt.Printf("Written %s\n", path)
	return nil
}

func runStorno(cmd *cobra.Command, args []string) error {
	session, err := loadFile(args[0])
	if err != nil {
		return err
	}

	session.HandleStorno()
	printVerbose("storno total %s\n", session.Totals().Total.StringFixed(2))

	data, name, err := session.SaveXML()
	if err != nil {
		return err
	}
	path, err := writeOutput(args[0], stornoOutput, name, data)
	if err != nil {
		return err
	}
	fmt.Printf("Written %s\n", path)
	return nil
}
