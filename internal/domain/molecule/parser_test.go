package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motifchem/geomval/pkg/errors"
)

func TestParseSMILESLinearChain(t *testing.T) {
	g, err := ParseSMILES("CCO")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 3)
	require.Len(t, g.Bonds, 2)
	assert.Equal(t, "C", g.Atoms[0].Symbol)
	assert.Equal(t, "O", g.Atoms[2].Symbol)
	assert.Equal(t, BondSingle, g.Bonds[0].Order)
}

func TestParseSMILESBondOrders(t *testing.T) {
	g, err := ParseSMILES("C=C")
	require.NoError(t, err)
	assert.Equal(t, BondDouble, g.Bonds[0].Order)

	g, err = ParseSMILES("C#N")
	require.NoError(t, err)
	assert.Equal(t, BondTriple, g.Bonds[0].Order)
}

func TestParseSMILESBranches(t *testing.T) {
	g, err := ParseSMILES("CC(N)O")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 4)
	require.Len(t, g.Bonds, 3)
	// The branch atom and the following atom both bond to atom 1.
	assert.ElementsMatch(t, []int{0, 2, 3}, g.Neighbors(1))
}

func TestParseSMILESRingClosure(t *testing.T) {
	g, err := ParseSMILES("C1CCCCC1")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 6)
	require.Len(t, g.Bonds, 6)
	assert.Len(t, g.Neighbors(0), 2)

	// Two-digit closure labels.
	g, err = ParseSMILES("C%12CCCCC%12")
	require.NoError(t, err)
	assert.Len(t, g.Bonds, 6)
}

func TestParseSMILESAromaticRing(t *testing.T) {
	g, err := ParseSMILES("c1ccccc1")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 6)
	for _, a := range g.Atoms {
		assert.Equal(t, "C", a.Symbol)
		assert.True(t, a.Aromatic)
	}
	for _, b := range g.Bonds {
		assert.Equal(t, BondAromatic, b.Order)
	}
}

func TestParseSMILESTwoLetterElements(t *testing.T) {
	g, err := ParseSMILES("ClCBr")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 3)
	assert.Equal(t, "Cl", g.Atoms[0].Symbol)
	assert.Equal(t, "Br", g.Atoms[2].Symbol)
}

func TestParseSMILESBracketAtoms(t *testing.T) {
	g, err := ParseSMILES("[NH4+]")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 1)
	a := g.Atoms[0]
	assert.Equal(t, "N", a.Symbol)
	assert.Equal(t, 4, a.HCount)
	assert.Equal(t, 1, a.Charge)
	assert.True(t, a.Bracket)

	g, err = ParseSMILES("[O-2]")
	require.NoError(t, err)
	assert.Equal(t, -2, g.Atoms[0].Charge)

	g, err = ParseSMILES("[13CH4]")
	require.NoError(t, err)
	assert.Equal(t, "C", g.Atoms[0].Symbol)
	assert.Equal(t, 4, g.Atoms[0].HCount)

	g, err = ParseSMILES("[C@H](N)(O)C")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Atoms[0].HCount)
	assert.Len(t, g.Neighbors(0), 3)
}

func TestParseSMILESDisconnectedComponents(t *testing.T) {
	g, err := ParseSMILES("CCO.[Na+]")
	require.NoError(t, err)
	require.Len(t, g.Atoms, 4)
	require.Len(t, g.Bonds, 2)
	assert.Empty(t, g.Neighbors(3))
}

func TestParseSMILESInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":               "",
		"bad character":       "C C",
		"unknown symbol":      "Cq",
		"unknown element":     "[Xx]",
		"unclosed branch":     "CC(N",
		"stray close":         "CC)N",
		"unpaired ring":       "C1CCC",
		"conflicting ring":    "C=1CCCCC#1",
		"dangling bond":       "CC=",
		"bond before dot":     "C=.C",
		"self ring":           "C11",
		"unclosed bracket":    "[NH4",
		"empty bracket":       "[]",
		"branch before atom":  "(C)C",
		"closure before atom": "1CC",
	}
	for name, smi := range cases {
		_, err := ParseSMILES(smi)
		require.Error(t, err, name)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES), name)
	}
}
