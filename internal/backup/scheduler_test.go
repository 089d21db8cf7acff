package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracer/internal/structures"
	"tracer/internal/testutil"
)

func testConfig(filePath string, interval time.Duration) *structures.Config {
	return &structures.Config{
		Backup: structures.BackupConfig{
			FilePath: filePath,
			Interval: interval,
		},
	}
}

func TestScheduler_Persist_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.zst")
	store := newTestStore(t)
	seed(t, store)
	metrics := &testutil.MockMetrics{}
	fm := NewFileManager(&testutil.MockCompressor{}, store, &testutil.MockLogger{})

	s := NewScheduler(testConfig(path, 0), &testutil.MockLogger{}, fm, metrics)
	require.NoError(t, s.Persist())

	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, 1, metrics.Persists())
}

func TestScheduler_Persist_NoPathIsNoop(t *testing.T) {
	metrics := &testutil.MockMetrics{}
	fm := NewFileManager(&testutil.MockCompressor{}, newTestStore(t), &testutil.MockLogger{})

	s := NewScheduler(testConfig("", time.Second), &testutil.MockLogger{}, fm, metrics)
	require.NoError(t, s.Persist())
	assert.Equal(t, 0, metrics.Persists())
}

func TestScheduler_Persist_LogsFailure(t *testing.T) {
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, newTestStore(t), logger)

	s := NewScheduler(testConfig("/nonexistent/dir/backup.zst", 0), logger, fm, &testutil.MockMetrics{})
	assert.Error(t, s.Persist())
	assert.Equal(t, 1, logger.Count("error"))
}

func TestScheduler_InitDisabled(t *testing.T) {
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, newTestStore(t), logger)

	s := NewScheduler(testConfig("", 0), logger, fm, &testutil.MockMetrics{})
	s.Init()
	s.Stop()
	assert.Equal(t, 1, logger.Count("info"))
}

func TestScheduler_PeriodicBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.zst")
	metrics := &testutil.MockMetrics{}
	fm := NewFileManager(&testutil.MockCompressor{}, newTestStore(t), &testutil.MockLogger{})

	s := NewScheduler(testConfig(path, time.Second), &testutil.MockLogger{}, fm, metrics)
	s.Init()
	require.Eventually(t, func() bool { return metrics.Persists() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	// A run already in flight when Stop returns may still finish.
	after := metrics.Persists()
	time.Sleep(1500 * time.Millisecond)
	assert.LessOrEqual(t, metrics.Persists(), after+1)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestScheduler_StopWithoutInit(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, newTestStore(t), &testutil.MockLogger{})
	s := NewScheduler(testConfig("", 0), &testutil.MockLogger{}, fm, &testutil.MockMetrics{})
	assert.NotPanics(t, s.Stop)
}
