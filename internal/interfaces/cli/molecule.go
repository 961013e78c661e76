package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMoleculeCmd creates the molecule command group for SMILES identity
// utilities.
func newMoleculeCmd(deps *Dependencies, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "molecule",
		Short: "SMILES identity utilities",
	}

	cmd.AddCommand(
		newMoleculeCanonicalCmd(deps, opts),
		newMoleculeValidateCmd(deps, opts),
		newMoleculeSameCmd(deps, opts),
	)

	return cmd
}

func newMoleculeCanonicalCmd(deps *Dependencies, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "canonical <smiles>",
		Short: "Print the canonical form and InChIKey of a SMILES string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canonical, err := deps.Identity.Canonical(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			key, err := deps.Identity.InChIKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, opts, map[string]string{
				"smiles":    args[0],
				"canonical": canonical,
				"inchi_key": key,
			})
		},
	}
}

func newMoleculeValidateCmd(deps *Dependencies, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <smiles>",
		Short: "Check whether a SMILES string parses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Identity.IsValid(cmd.Context(), args[0]) {
				return printResult(cmd, opts, fmt.Sprintf("%s: valid", args[0]))
			}
			return fmt.Errorf("%s: invalid SMILES", args[0])
		},
	}
}

func newMoleculeSameCmd(deps *Dependencies, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "same <smiles-a> <smiles-b>",
		Short: "Check whether two SMILES strings denote the same molecule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			same, err := deps.Identity.Same(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if same {
				return printResult(cmd, opts, "same molecule")
			}
			return printResult(cmd, opts, "different molecules")
		},
	}
}
