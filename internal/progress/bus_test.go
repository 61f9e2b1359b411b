package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/pkg/types"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(types.ProgressEvent{Stage: types.StageExtract, Current: 1, Total: 3})

	select {
	case e := <-events:
		assert.Equal(t, types.StageExtract, e.Stage)
		assert.Equal(t, 1, e.Current)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	unsubscribe()

	_, ok := <-events
	assert.False(t, ok)
}

func TestSnapshotReturnsLatestPerStage(t *testing.T) {
	bus := NewBus()
	bus.Publish(types.ProgressEvent{Stage: types.StageExtract, Current: 1, Total: 3})
	bus.Publish(types.ProgressEvent{Stage: types.StageExtract, Current: 2, Total: 3})
	bus.Publish(types.ProgressEvent{Stage: types.StageTTS, Current: 5, Total: 10})

	snap := bus.Snapshot()
	require.Contains(t, snap, types.StageExtract)
	assert.Equal(t, 2, snap[types.StageExtract].Current)
	assert.Equal(t, 5, snap[types.StageTTS].Current)
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(types.ProgressEvent{Stage: types.StageTTS, Current: i, Total: 100})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}
