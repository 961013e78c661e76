package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motifchem/geomval/internal/application/identity"
	"github.com/motifchem/geomval/internal/application/refinement"
	"github.com/motifchem/geomval/internal/application/validation"
	"github.com/motifchem/geomval/internal/config"
	"github.com/motifchem/geomval/internal/domain/geometry"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	httpserver "github.com/motifchem/geomval/internal/interfaces/http"
	"github.com/motifchem/geomval/internal/interfaces/http/handlers"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logging.NewNop()

	refiner, err := refinement.NewRefiner(refinement.Params{
		MaxIterations:   500,
		StepSize:        0.05,
		Tolerance:       1e-10,
		DivergenceLimit: 100,
	}, geometry.DefaultConfig(), log)
	require.NoError(t, err)

	manager := refinement.NewManager(refiner, config.WorkerConfig{
		Concurrency: 1,
		QueueDepth:  4,
	}, log)
	manager.Start()
	t.Cleanup(manager.Stop)

	identitySvc := identity.NewService(log)
	validationSvc := validation.NewService(geometry.DefaultConfig(), log,
		validation.WithIdentity(identitySvc))

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ValidationHandler: handlers.NewValidationHandler(validationSvc),
		RefinementHandler: handlers.NewRefinementHandler(manager),
		MoleculeHandler:   handlers.NewMoleculeHandler(identitySvc),
		HealthHandler:     handlers.NewHealthHandler(log, nil),
		Logger:            log,
		Mode:              gin.TestMode,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, WithRetryMax(0))
	require.NoError(t, err)
	return c
}

func stretchedConformer() *Conformer {
	return &Conformer{
		SMILES:    "CC",
		Positions: [][3]float64{{0, 0, 0}, {1.5, 0, 0}},
		Bonds:     []Bond{{I: 0, J: 1, Length: 1.0}},
		VDW:       []float64{0, 0},
	}
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)

	c, err := NewClient("http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", c.baseURL)
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)

	conformer := stretchedConformer()
	conformer.Positions[1][0] = 1.2

	report, err := c.Validate(context.Background(), conformer)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, report.Total, 1e-12)
	assert.Equal(t, 2, report.AtomCount)
	assert.NotEmpty(t, report.CanonicalSMILES)
}

func TestValidateBadTopology(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)

	conformer := stretchedConformer()
	conformer.Bonds[0].J = 9

	_, err := c.Validate(context.Background(), conformer)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "GEO_001", apiErr.Code)
}

func TestRefinementRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	submitted, err := c.SubmitRefinement(ctx, stretchedConformer())
	require.NoError(t, err)
	assert.Equal(t, JobQueued, submitted.Status)

	job, err := c.WaitForRefinement(ctx, submitted.JobID, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, job.Status)
	require.NotNil(t, job.Outcome)
	assert.Less(t, job.Outcome.FinalLoss, 1e-6)
	assert.Equal(t, "converged", job.Outcome.StopReason)
}

func TestGetRefinementNotFound(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)

	_, err := c.GetRefinement(context.Background(), "00000000-0000-0000-0000-000000000000")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "REF_001", apiErr.Code)
}

func TestMoleculeHelpers(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	valid, err := c.ValidateSMILES(ctx, "CCO")
	require.NoError(t, err)
	assert.True(t, valid)

	result, err := c.Canonical(ctx, "CCO")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Canonical)
	assert.Len(t, result.InChIKey, 27)

	same, err := c.SameMolecule(ctx, "CCO", "OCC")
	require.NoError(t, err)
	assert.True(t, same)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryMax(3), WithRetryWait(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	valid, err := c.ValidateSMILES(context.Background(), "CCO")
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"COMMON_002","message":"bad request"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithRetryMax(3), WithRetryWait(time.Millisecond, 2*time.Millisecond))
	require.NoError(t, err)

	_, err = c.ValidateSMILES(context.Background(), "CCO")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
