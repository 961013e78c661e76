package client

import "context"

// CanonicalResult carries the canonical form and identity key of a SMILES
// string.
type CanonicalResult struct {
	SMILES    string `json:"smiles"`
	Canonical string `json:"canonical"`
	InChIKey  string `json:"inchi_key"`
}

// Canonical returns the canonical form and InChIKey of a SMILES string.
func (c *Client) Canonical(ctx context.Context, smiles string) (*CanonicalResult, error) {
	var result CanonicalResult
	err := c.post(ctx, "/api/v1/molecules/canonical",
		map[string]string{"smiles": smiles}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateSMILES reports whether a SMILES string parses.
func (c *Client) ValidateSMILES(ctx context.Context, smiles string) (bool, error) {
	var result struct {
		Valid bool `json:"valid"`
	}
	err := c.post(ctx, "/api/v1/molecules/validate",
		map[string]string{"smiles": smiles}, &result)
	if err != nil {
		return false, err
	}
	return result.Valid, nil
}

// SameMolecule reports whether two SMILES strings denote the same molecule.
func (c *Client) SameMolecule(ctx context.Context, a, b string) (bool, error) {
	var result struct {
		Same bool `json:"same"`
	}
	err := c.post(ctx, "/api/v1/molecules/same",
		map[string]string{"a": a, "b": b}, &result)
	if err != nil {
		return false, err
	}
	return result.Same, nil
}
