package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestSha256Helpers(t *testing.T) {
	assert.Equal(t, emptySHA256, Sha256OfBytes(nil))

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))
	sum, size, err := Sha256OfFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
	assert.Equal(t, Sha256OfBytes([]byte("abc")), sum)

	h := NewHasher()
	_, _ = h.Write([]byte("a"))
	_, _ = h.Write([]byte("bc"))
	assert.Equal(t, sum, h.Sum())

	_, _, err = Sha256OfFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mwf")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("new"), 0o644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = WriteFileAtomic(filepath.Join(t.TempDir(), "no", "dir", "x"), nil, 0o644)
	assert.Error(t, err)
}

func TestAuditLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	log := NewAuditLog(path)
	_, err := uuid.Parse(log.RunID())
	require.NoError(t, err)
	assert.Equal(t, path, log.Path())

	require.NoError(t, log.Record("a.mwf", "patientName", "PNM", []byte("TRWRU\x00"), make([]byte, 6)))
	require.NoError(t, log.Record("a.mwf", "sex", "SEX", []byte{0}, []byte{0}))
	assert.Error(t, log.Append(AuditEntry{}))

	var nilLog *AuditLog
	assert.Error(t, nilLog.Append(AuditEntry{Field: "x"}))
	assert.Empty(t, nilLog.RunID())

	entries, err := ReadAuditLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	first := entries[0]
	assert.Equal(t, log.RunID(), first.RunID)
	assert.Equal(t, "patientName", first.Field)
	assert.Equal(t, "PNM", first.Tag)
	assert.Equal(t, 6, first.Width)
	assert.True(t, first.Changed)
	assert.Equal(t, Sha256OfBytes([]byte("TRWRU\x00")), first.BeforeSHA256)
	assert.False(t, first.Ts.IsZero())
	assert.False(t, entries[1].Changed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "TRWRU")

	require.NoError(t, os.WriteFile(path, []byte("{broken\n"), 0o644))
	_, err = ReadAuditLog(path)
	assert.Error(t, err)
}

func TestAuditLogConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log := NewAuditLog(path)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, log.Record("a.mwf", "patientID", "PID", []byte("1"), []byte{0}))
		}()
	}
	wg.Wait()
	entries, err := ReadAuditLog(path)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestMetricsSnapshot(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.Start()
	nilMetrics.AddBlock(10)
	assert.Equal(t, MetricsSnapshot{}, nilMetrics.Snapshot())

	m := NewMetrics()
	m.SetTotalBytes(200)
	m.Start()
	m.AddBlock(50)
	m.AddBlock(0)
	m.IncSkipped()
	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap.Bytes)
	assert.Equal(t, int64(1), snap.Blocks)
	assert.Equal(t, int64(1), snap.Skipped)
	assert.InDelta(t, 0.25, snap.Completion(), 1e-12)

	m.SetTotalRows(4)
	m.AddRows(1)
	assert.InDelta(t, 0.25, m.Snapshot().Completion(), 1e-12)
	m.AddRows(10)
	assert.Equal(t, 1.0, m.Snapshot().Completion())

	m.Stop()
	d := m.Snapshot().Duration
	time.Sleep(2 * time.Millisecond)
	assert.Equal(t, d, m.Snapshot().Duration, "duration is frozen after Stop")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.50 KiB", FormatBytes(1536))
	assert.Equal(t, "2.00 MiB", FormatBytes(2*1024*1024))

	line := formatProgressLine(MetricsSnapshot{Rows: 5, TotalRows: 10})
	assert.Equal(t, "Export:  50.00% (5 / 10 rows)", line)
	line = formatProgressLine(MetricsSnapshot{Bytes: 1024, TotalBytes: 4096, Blocks: 3})
	assert.True(t, strings.HasPrefix(line, "Decode:  25.00% (1.00 KiB / 4.00 KiB, 3 blocks)"), line)
}

func TestProgressPrinter(t *testing.T) {
	var buf safeBuffer
	m := NewMetrics()
	m.SetTotalRows(2)
	m.AddRows(1)
	stop := StartProgressPrinter(&buf, m, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	stop()
	assert.Contains(t, buf.String(), "Export:  50.00%")

	noop := StartProgressPrinter(nil, m, 0)
	noop()
}

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() { SetLogOutput(nil) })
	Logf("decoded %d blocks", 3)
	assert.Contains(t, buf.String(), "[mwfgate] ")
	assert.Contains(t, buf.String(), "decoded 3 blocks")
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
