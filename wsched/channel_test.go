package wsched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseGuard_RequireCollectPanicsWithContractError(t *testing.T) {
	var g phaseGuard
	g.markPlanned()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		cerr, ok := r.(ContractError)
		require.True(t, ok)
		assert.Contains(t, cerr.Error(), "AddChannel")
	}()
	g.requireCollect("AddChannel")
}

func TestPhaseGuard_RequirePlannedPanicsWithContractError(t *testing.T) {
	var g phaseGuard
	g.resetForCollect()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		cerr, ok := r.(ContractError)
		require.True(t, ok)
		assert.Contains(t, cerr.Error(), "AllocateMessage")
	}()
	g.requirePlanned("AllocateMessage")
}

func TestPhaseGuard_ResetForCollectAllowsReuse(t *testing.T) {
	var g phaseGuard
	g.resetForCollect()
	g.requireCollect("AddChannel")
	g.markPlanned()
	g.requirePlanned("AllocateMessage")
	g.resetForCollect()
	assert.NotPanics(t, func() { g.requireCollect("AddChannel") })
}
