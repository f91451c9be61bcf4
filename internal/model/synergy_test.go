package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynergyStatusTransitions(t *testing.T) {
	tests := []struct {
		from    SynergyStatus
		to      SynergyStatus
		allowed bool
	}{
		{SynergyIdentified, SynergyPlanned, true},
		{SynergyIdentified, SynergyCancelled, true},
		{SynergyIdentified, SynergyRealized, false},
		{SynergyPlanned, SynergyInProgress, true},
		{SynergyInProgress, SynergyRealized, true},
		{SynergyInProgress, SynergyAtRisk, true},
		{SynergyAtRisk, SynergyDelayed, true},
		{SynergyAtRisk, SynergyInProgress, true},
		{SynergyDelayed, SynergyInProgress, true},
		{SynergyDelayed, SynergyRealized, false},
		{SynergyRealized, SynergyCancelled, false},
		{SynergyCancelled, SynergyIdentified, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestSynergyStatusTerminal(t *testing.T) {
	assert.True(t, SynergyRealized.Terminal())
	assert.True(t, SynergyCancelled.Terminal())
	assert.False(t, SynergyAtRisk.Terminal())
	assert.False(t, SynergyDelayed.Terminal())
}

func TestSynergyOpportunityTransition(t *testing.T) {
	opp := SynergyOpportunity{ID: "syn-1", Status: SynergyIdentified}

	require.NoError(t, opp.Transition(SynergyPlanned))
	assert.Equal(t, SynergyPlanned, opp.Status)

	err := opp.Transition(SynergyRealized)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot transition")
	assert.Equal(t, SynergyPlanned, opp.Status, "failed transition leaves status unchanged")
}

func TestParseSynergyTypeAndStatus(t *testing.T) {
	typ, err := ParseSynergyType("operational")
	require.NoError(t, err)
	assert.Equal(t, SynergyOperational, typ)

	_, err = ParseSynergyType("strategic")
	assert.Error(t, err)

	status, err := ParseSynergyStatus("at_risk")
	require.NoError(t, err)
	assert.Equal(t, SynergyAtRisk, status)

	_, err = ParseSynergyStatus("paused")
	assert.Error(t, err)
}

func TestSynergyTypesStableOrder(t *testing.T) {
	types := SynergyTypes()
	require.Len(t, types, 5)
	assert.Equal(t, SynergyRevenue, types[0])
	assert.Equal(t, SynergyOperational, types[4])
}
