package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/motifchem/geomval/internal/application/refinement"
	"github.com/motifchem/geomval/internal/application/validation"
)

// refineResult is the wire/terminal form of a refinement outcome.
type refineResult struct {
	Positions       [][3]float64 `json:"positions"`
	InitialLoss     float64      `json:"initial_loss"`
	FinalLoss       float64      `json:"final_loss"`
	LossDropPercent float64      `json:"loss_drop_percent"`
	Iterations      int          `json:"iterations"`
	StopReason      string       `json:"stop_reason"`
}

// newRefineCmd creates the refine command: gradient-descent refinement of a
// conformer read from a JSON input file.
func newRefineCmd(deps *Dependencies, opts *RootOptions) *cobra.Command {
	var (
		inputPath       string
		plotPath        string
		maxIterations   int
		stepSize        float64
		tolerance       float64
		divergenceLimit float64
	)

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Refine a conformer by gradient descent on the geometry loss",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readConformerInput(inputPath)
			if err != nil {
				return err
			}

			refiner, err := refinement.NewRefiner(refinement.Params{
				MaxIterations:   maxIterations,
				StepSize:        stepSize,
				Tolerance:       tolerance,
				DivergenceLimit: divergenceLimit,
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

			result := toRefineResult(outcome)
			if strings.EqualFold(opts.OutputFormat, "json") {
				return printResult(cmd, opts, result)
			}
			return printResult(cmd, opts, formatRefineResult(result))
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&inputPath, "input", "i", "", "conformer JSON file [REQUIRED]")
	fl.StringVar(&plotPath, "plot", "", "write the loss curve as a PNG to this path")
	fl.IntVar(&maxIterations, "max-iterations", 500, "iteration cap")
	fl.Float64Var(&stepSize, "step-size", 0.01, "gradient descent step size")
	fl.Float64Var(&tolerance, "tolerance", 1e-8, "convergence tolerance on the loss delta")
	fl.Float64Var(&divergenceLimit, "divergence-limit", 100, "abort when loss exceeds this multiple of the initial loss")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func toRefineResult(outcome *refinement.Outcome) *refineResult {
	positions := make([][3]float64, len(outcome.Positions))
	for i, p := range outcome.Positions {
		positions[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return &refineResult{
		Positions:       positions,
		InitialLoss:     outcome.InitialLoss,
		FinalLoss:       outcome.FinalLoss,
		LossDropPercent: outcome.LossDropPercent(),
		Iterations:      outcome.Iterations,
		StopReason:      outcome.StopReason,
	}
}

func formatRefineResult(r *refineResult) string {
	var sb strings.Builder
	sb.WriteString("Refinement Result\n")
	sb.WriteString("=================\n")
	fmt.Fprintf(&sb, "Stop reason:   %s\n", r.StopReason)
	fmt.Fprintf(&sb, "Iterations:    %d\n", r.Iterations)
	fmt.Fprintf(&sb, "Initial loss:  %.6f\n", r.InitialLoss)
	fmt.Fprintf(&sb, "Final loss:    %.6f\n", r.FinalLoss)
	fmt.Fprintf(&sb, "Loss drop:     %.2f%%\n", r.LossDropPercent)
	return sb.String()
}

// saveLossCurve renders the per-iteration loss values as a line plot.
func saveLossCurve(curve []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Refinement Loss Curve"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "loss"

	points := make(plotter.XYs, len(curve))
	for i, v := range curve {
		points[i].X = float64(i)
		points[i].Y = v
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return err
	}
	p.Add(line)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
