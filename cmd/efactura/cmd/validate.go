package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/efactura-editor/internal/model"
)

var strictValidation bool

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice files",
	Long: `Validate one or more e-Factura files before upload.

Checks performed:
  - The document is a well-formed UBL Invoice
  - Required header, party and line fields are present
  - Dates, county codes and Bucharest sectors are valid
  - Exempt VAT categories carry an exemption code and reason
  - Stored totals match a fresh computation (warning, error with --strict)

Examples:
  efactura validate factura.xml
  efactura validate facturi/ --strict -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat totals drift as an error")
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(file)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	// Output results
	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID\n", r.File)
			} else {
				fmt.Printf("✗ %s: INVALID\n", r.File)
				for _, e := range r.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(filePath string) *ValidationResult {
	result := &ValidationResult{
		File:     filePath,
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	session, err := loadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Warnings = append(result.Warnings, session.Warnings()...)

	if err := session.Validate(); err != nil {
		result.Valid = false
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", v.Field, v.Message))
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	for _, d := range compareTotals(session) {
		if d.Drift.IsZero() {
			continue
		}
		msg := fmt.Sprintf("%s: stored %s, computed %s", d.Field, d.Original.StringFixed(2), d.Computed.StringFixed(2))
		if strictValidation {
			result.Valid = false
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}

	return result
}
