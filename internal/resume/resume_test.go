package resume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/pkg/types"
)

func TestComputeSignatureDeterministic(t *testing.T) {
	audio := types.AudioProcessingSettings{Normalization: true}
	rendering := types.RenderingSettings{NarratorVoice: "v1", EnabledVoices: []string{"b", "a"}}

	sig1 := ComputeSignature("Hello world.", audio, rendering)
	sig2 := ComputeSignature("Hello world.", audio, rendering)
	assert.Equal(t, sig1, sig2)
}

func TestComputeSignatureIgnoresEnabledVoicesOrder(t *testing.T) {
	audio := types.AudioProcessingSettings{}
	r1 := types.RenderingSettings{EnabledVoices: []string{"a", "b"}}
	r2 := types.RenderingSettings{EnabledVoices: []string{"b", "a"}}

	sig1 := ComputeSignature("text", audio, r1)
	sig2 := ComputeSignature("text", audio, r2)
	assert.Equal(t, sig1.SettingsHash, sig2.SettingsHash)
}

func TestComputeSignatureChangesWithSettings(t *testing.T) {
	base := ComputeSignature("text", types.AudioProcessingSettings{}, types.RenderingSettings{})
	changed := ComputeSignature("text", types.AudioProcessingSettings{Normalization: true}, types.RenderingSettings{})
	assert.NotEqual(t, base.SettingsHash, changed.SettingsHash)
	assert.Equal(t, base.TextHash, changed.TextHash)
}

func TestComputeSignatureChangesWithText(t *testing.T) {
	base := ComputeSignature("one", types.AudioProcessingSettings{}, types.RenderingSettings{})
	changed := ComputeSignature("two", types.AudioProcessingSettings{}, types.RenderingSettings{})
	assert.NotEqual(t, base.TextHash, changed.TextHash)
}

func TestStoreRoundTripsSignatureAndState(t *testing.T) {
	store := NewStore(t.TempDir())
	sig := types.JobSignature{TextHash: "abc", SettingsHash: "def"}
	require.NoError(t, store.SaveSignature(sig))

	loaded, err := store.LoadSignature()
	require.NoError(t, err)
	assert.Equal(t, sig, loaded)

	state := types.NewPipelineState()
	state.FileNames = []string{"part-001"}
	require.NoError(t, store.SavePipelineState(state))
	assert.True(t, store.Exists())

	loadedState, err := store.LoadPipelineState()
	require.NoError(t, err)
	assert.Equal(t, []string{"part-001"}, loadedState.FileNames)
}

func TestStorePurgeRemovesWorkDir(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSignature(types.JobSignature{TextHash: "x"}))
	require.NoError(t, store.Purge())
	assert.False(t, store.Exists())
}

func TestResolveNoPriorState(t *testing.T) {
	store := NewStore(t.TempDir())
	decision, err := Resolve(store, types.JobSignature{TextHash: "x"}, func() (bool, error) {
		t.Fatal("confirm should not be called when no prior state exists")
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, decision.ShouldResume)
}

func TestResolveSignatureMismatchPurges(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSignature(types.JobSignature{TextHash: "old"}))
	require.NoError(t, store.SavePipelineState(types.NewPipelineState()))

	decision, err := Resolve(store, types.JobSignature{TextHash: "new"}, func() (bool, error) {
		t.Fatal("confirm should not be called on signature mismatch")
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, decision.ShouldResume)
	assert.False(t, store.Exists())
}

func TestResolveConfirmedResumeReturnsPriorState(t *testing.T) {
	store := NewStore(t.TempDir())
	sig := types.JobSignature{TextHash: "x", SettingsHash: "y"}
	require.NoError(t, store.SaveSignature(sig))
	state := types.NewPipelineState()
	state.FileNames = []string{"part-001"}
	require.NoError(t, store.SavePipelineState(state))

	decision, err := Resolve(store, sig, func() (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.True(t, decision.ShouldResume)
	require.NotNil(t, decision.PriorState)
	assert.Equal(t, []string{"part-001"}, decision.PriorState.FileNames)
}

func TestResolveDeclinedResumePurges(t *testing.T) {
	store := NewStore(t.TempDir())
	sig := types.JobSignature{TextHash: "x"}
	require.NoError(t, store.SaveSignature(sig))
	require.NoError(t, store.SavePipelineState(types.NewPipelineState()))

	decision, err := Resolve(store, sig, func() (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.False(t, decision.ShouldResume)
	assert.False(t, store.Exists())
}

func TestResolvePropagatesConfirmError(t *testing.T) {
	store := NewStore(t.TempDir())
	sig := types.JobSignature{TextHash: "x"}
	require.NoError(t, store.SaveSignature(sig))
	require.NoError(t, store.SavePipelineState(types.NewPipelineState()))

	_, err := Resolve(store, sig, func() (bool, error) { return false, errors.New("io error") })
	assert.Error(t, err)
}
