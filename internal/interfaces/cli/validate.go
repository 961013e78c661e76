package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motifchem/geomval/internal/application/validation"
)

// newValidateCmd creates the validate command: score one conformer read from
// a JSON input file.
func newValidateCmd(deps *Dependencies, opts *RootOptions) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Score a 3D conformer against its bonded topology",
		Long:  "Evaluate the weighted geometry loss for one conformer.  The input file\ncarries atom positions, bonds, angles, rings, chiral centers, and van der\nWaals radii as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readConformerInput(inputPath)
			if err != nil {
				return err
			}

			report, err := deps.Validation.Validate(cmd.Context(), input)
			if err != nil {
				return err
			}

			if strings.EqualFold(opts.OutputFormat, "json") {
				return printResult(cmd, opts, report)
			}
			return printResult(cmd, opts, formatReport(report))
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "conformer JSON file [REQUIRED]")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// readConformerInput loads and decodes a conformer description.
func readConformerInput(path string) (*validation.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	var input validation.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("decode input file: %w", err)
	}
	return &input, nil
}

// formatReport renders a validation report for terminal output.
func formatReport(r *validation.Report) string {
	var sb strings.Builder
	sb.WriteString("Geometry Validation Report\n")
	sb.WriteString("==========================\n")
	if r.SMILES != "" {
		fmt.Fprintf(&sb, "SMILES:          %s\n", r.SMILES)
	}
	if r.CanonicalSMILES != "" {
		fmt.Fprintf(&sb, "Canonical:       %s\n", r.CanonicalSMILES)
	}
	if r.InChIKey != "" {
		fmt.Fprintf(&sb, "InChIKey:        %s\n", r.InChIKey)
	}
	fmt.Fprintf(&sb, "Atoms:           %d\n", r.AtomCount)
	fmt.Fprintf(&sb, "Total loss:      %.6f\n", r.Total)
	sb.WriteString("Per-term breakdown:\n")
	fmt.Fprintf(&sb, "  bond length:   %.6f\n", r.Terms.BondLength)
	fmt.Fprintf(&sb, "  bond angle:    %.6f\n", r.Terms.BondAngle)
	fmt.Fprintf(&sb, "  ring planarity:%.6f\n", r.Terms.RingPlanarity)
	fmt.Fprintf(&sb, "  steric clash:  %.6f\n", r.Terms.StericClash)
	fmt.Fprintf(&sb, "  chirality:     %.6f\n", r.Terms.Chirality)
	return sb.String()
}
