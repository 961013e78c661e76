package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/motifchem/geomval/internal/application/refinement"
	"github.com/motifchem/geomval/internal/application/validation"
)

// newDemoCmd creates the demo command: validate and refine a built-in
// distorted ethane-like conformer, no input file needed.
func newDemoCmd(deps *Dependencies, opts *RootOptions) *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run validation and refinement on a built-in distorted conformer",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := demoInput()

			report, err := deps.Validation.Validate(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Before refinement:")
			if err := printResult(cmd, opts, formatReport(report)); err != nil {
				return err
			}

			refiner, err := refinement.NewRefiner(refinement.Params{
				MaxIterations:   1000,
				StepSize:        0.01,
				Tolerance:       1e-10,
				DivergenceLimit: 100,
			}, deps.GeomConfig, deps.Logger)
			if err != nil {
				return err
			}
			outcome, err := refiner.Refine(cmd.Context(),
				validation.ToPositions(input.Positions),
				validation.ToTopology(input.Bonds, input.Angles, input.Rings, input.Chirals, input.VDW))
			if err != nil {
				return err
			}

			if plotPath != "" {
				if plotErr := saveLossCurve(outcome.Curve, plotPath); plotErr != nil {
					return fmt.Errorf("save loss curve: %w", plotErr)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "loss curve written to %s\n", plotPath)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "After refinement:")
			if strings.EqualFold(opts.OutputFormat, "json") {
				return printResult(cmd, opts, toRefineResult(outcome))
			}
			return printResult(cmd, opts, formatRefineResult(toRefineResult(outcome)))
		},
	}

	cmd.Flags().StringVar(&plotPath, "plot", "", "write the loss curve as a PNG to this path")

	return cmd
}

// demoInput is a two-carbon fragment with a stretched bond and a bent angle,
// enough to make every distance-based term move during refinement.
func demoInput() *validation.Input {
	return &validation.Input{
		SMILES: "CC",
		Positions: [][3]float64{
			{0, 0, 0},
			{1.95, 0, 0},
			{2.6, 1.2, 0},
		},
		Bonds: []validation.BondInput{
			{I: 0, J: 1, Length: 1.54},
			{I: 1, J: 2, Length: 1.09},
		},
		Angles: []validation.AngleInput{
			{I: 0, J: 1, K: 2, Theta: 1.911},
		},
		VDW: []float64{1.7, 1.7, 1.2},
	}
}
