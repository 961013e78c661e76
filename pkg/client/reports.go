package client

import (
	"context"
	"fmt"
	"net/url"
)

// StoredReport is a persisted validation report.
type StoredReport struct {
	ID              string     `json:"id"`
	SMILES          string     `json:"smiles"`
	CanonicalSMILES string     `json:"canonical_smiles,omitempty"`
	InChIKey        string     `json:"inchi_key,omitempty"`
	AtomCount       int        `json:"atom_count"`
	TotalLoss       float64    `json:"total_loss"`
	Terms           TermValues `json:"terms"`
}

// ListReportsOptions filters a report listing.
type ListReportsOptions struct {
	// Canonical restricts results to one molecule by canonical SMILES.
	Canonical string
	// Limit caps the number of results; the server default applies when 0.
	Limit int
}

// ListReports returns recent validation reports.
func (c *Client) ListReports(ctx context.Context, opts ListReportsOptions) ([]StoredReport, error) {
	query := url.Values{}
	if opts.Canonical != "" {
		query.Set("canonical", opts.Canonical)
	}
	if opts.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	path := "/api/v1/reports"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result struct {
		Reports []StoredReport `json:"reports"`
	}
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Reports, nil
}

// GetReport fetches one report by id.
func (c *Client) GetReport(ctx context.Context, id string) (*StoredReport, error) {
	var report StoredReport
	if err := c.get(ctx, "/api/v1/reports/"+id, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
