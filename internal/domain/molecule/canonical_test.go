package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalFormInvalid(t *testing.T) {
	assert.Empty(t, CanonicalForm(""))
	assert.Empty(t, CanonicalForm("C(("))
	assert.Empty(t, CanonicalForm("[Zz]"))
}

func TestCanonicalFormEquatesRewrites(t *testing.T) {
	pairs := [][2]string{
		{"CCO", "OCC"},
		{"C(C)O", "OCC"},
		{"CNC", "N(C)C"},
		{"CC(N)O", "CC(O)N"},
		{"C1CCCCC1", "C2CCCCC2"},
		{"c1ccccc1", "c1ccccc1"},
		{"CC=O", "O=CC"},
		{"CCO.[Na+]", "[Na+].CCO"},
	}
	for _, p := range pairs {
		a := CanonicalForm(p[0])
		b := CanonicalForm(p[1])
		require.NotEmpty(t, a, p[0])
		assert.Equal(t, a, b, "%s vs %s", p[0], p[1])
	}
}

func TestCanonicalFormDistinguishesMolecules(t *testing.T) {
	pairs := [][2]string{
		{"CCO", "CCN"},
		{"CCO", "CC=O"},
		{"C1CCCCC1", "C1CCCCC1C"},
		{"c1ccccc1", "C1CCCCC1"},
		{"[NH4+]", "[NH3]"},
	}
	for _, p := range pairs {
		a := CanonicalForm(p[0])
		b := CanonicalForm(p[1])
		require.NotEmpty(t, a, p[0])
		require.NotEmpty(t, b, p[1])
		assert.NotEqual(t, a, b, "%s vs %s", p[0], p[1])
	}
}

func TestCanonicalFormIdempotent(t *testing.T) {
	for _, smi := range []string{
		"CCO",
		"CC(N)O",
		"c1ccccc1",
		"C1CCCCC1",
		"[NH4+]",
		"CC(=O)O",
		"CCO.[Na+]",
	} {
		once := CanonicalForm(smi)
		require.NotEmpty(t, once, smi)
		assert.Equal(t, once, CanonicalForm(once), smi)
	}
}

func TestCanonicalFormStartsAtLowestRank(t *testing.T) {
	// Whatever the exact rendering, it must be deterministic across calls.
	first := CanonicalForm("CC(C)C(=O)O")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, CanonicalForm("CC(C)C(=O)O"))
	}
}
