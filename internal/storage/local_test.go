package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/internal/core"
)

func TestLocalAdapter(t *testing.T) {
	tmpDir := t.TempDir()
	adapter, err := NewLocalAdapter(tmpDir)
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()
	testPath := "jobs/job_1/raw.txt"
	testData := []byte("Hello, World!")

	t.Run("Put", func(t *testing.T) {
		require.NoError(t, adapter.Put(ctx, testPath, bytes.NewReader(testData)))
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := adapter.Exists(ctx, testPath)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Get", func(t *testing.T) {
		reader, err := adapter.Get(ctx, testPath)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, data)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, adapter.Put(ctx, "jobs/job_1/job.json", bytes.NewReader([]byte("{}"))))

		paths, err := adapter.List(ctx, "jobs/job_1/")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(paths), 2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, adapter.Delete(ctx, testPath))

		exists, err := adapter.Exists(ctx, testPath)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		_, err := adapter.Get(ctx, "jobs/missing/job.json")
		assert.Error(t, err)
	})

	t.Run("GetUnreadablePathWrapsFileSystemPermission", func(t *testing.T) {
		// A path component that is actually a file, not a directory, makes
		// the open fail for a reason other than not-exist.
		require.NoError(t, adapter.Put(ctx, "blocked", bytes.NewReader([]byte("x"))))
		_, err := adapter.Get(ctx, "blocked/child.txt")
		var fsErr core.FileSystemPermission
		assert.True(t, errors.As(err, &fsErr))
	})
}

func TestLocalAdapterCancelledContext(t *testing.T) {
	adapter, err := NewLocalAdapter(t.TempDir())
	require.NoError(t, err)
	defer adapter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = adapter.Put(ctx, "jobs/job_1/job.json", bytes.NewReader([]byte("{}")))
	assert.Equal(t, core.Cancelled{}, err)
}

func TestLocalAdapterConcurrency(t *testing.T) {
	adapter, err := NewLocalAdapter(t.TempDir())
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			path := bytes.NewBufferString("jobs/job_")
			path.WriteString(string(rune('0' + idx)))
			path.WriteString("/job.json")
			err := adapter.Put(ctx, path.String(), bytes.NewReader([]byte("{}")))
			assert.NoError(t, err)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
