package recording_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/mfer"
	"example.com/mwfgate/internal/recording"
	"example.com/mwfgate/internal/samples"
)

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, samples.WriteFiles(dir))
	return filepath.Join(dir, samples.RecordingFileName)
}

func TestLoadAndRoundTrip(t *testing.T) {
	path := writeSample(t)
	metrics := common.NewMetrics()
	rec, err := recording.Load(path, recording.LoadOptions{Metrics: metrics})
	require.NoError(t, err)

	h := rec.Header()
	assert.Equal(t, samples.SequenceCount, h.SequenceCount)
	assert.Equal(t, samples.ChannelCount, h.ChannelCount)
	assert.Equal(t, samples.MeasurementTimeISO, h.MeasurementTime)
	assert.Equal(t, 0, h.Events)
	assert.Greater(t, metrics.Snapshot().Blocks, int64(0))

	sum, _, err := common.Sha256OfFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum, rec.SourceSHA256())

	out := filepath.Join(t.TempDir(), "copy.mwf")
	require.NoError(t, rec.WriteBinary(out))
	again, err := recording.Load(out, recording.LoadOptions{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, h.String(), again.Header().String())
	assert.Equal(t, rec.SourceSHA256(), again.SourceSHA256(), "unmodified model is written back byte for byte")
}

func TestLoadFailures(t *testing.T) {
	_, err := recording.Load(filepath.Join(t.TempDir(), "missing.mwf"), recording.LoadOptions{})
	require.ErrorIs(t, err, recording.ErrIO)
	var ioErr *recording.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "read", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)

	data := samples.BuildRecording(mfer.LittleEndian)
	truncated := filepath.Join(t.TempDir(), "truncated.mwf")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)-10], 0o644))
	_, err = recording.Load(truncated, recording.LoadOptions{})
	require.ErrorIs(t, err, mfer.ErrOutOfBounds)
	assert.False(t, errors.Is(err, recording.ErrIO))
}

func TestAnonymizeWritesAudit(t *testing.T) {
	path := writeSample(t)
	auditPath := filepath.Join(t.TempDir(), "audit", "anon.jsonl")
	audit := common.NewAuditLog(auditPath)
	rec, err := recording.Load(path, recording.LoadOptions{AuditLog: audit})
	require.NoError(t, err)

	require.NoError(t, rec.Anonymize())
	h := rec.Header()
	assert.Empty(t, h.PatientID)
	assert.Empty(t, h.PatientName)

	entries, err := common.ReadAuditLog(auditPath)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	changed := map[string]bool{}
	for _, e := range entries {
		assert.Equal(t, audit.RunID(), e.RunID)
		assert.Equal(t, path, e.Source)
		changed[e.Field] = e.Changed
	}
	assert.Equal(t, map[string]bool{"patientID": true, "patientName": true, "birthDate": false, "sex": false}, changed)
	assert.Equal(t, 16, entries[0].Width)
	assert.Equal(t, common.Sha256OfBytes(mfer.PadText(samples.PatientID, 16)), entries[0].BeforeSHA256)

	raw, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), samples.PatientName)

	out := filepath.Join(t.TempDir(), "anon.mwf")
	require.NoError(t, rec.WriteBinary(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), samples.PatientName)
}

func TestWriteCSVUsesSelection(t *testing.T) {
	rec, err := recording.Load(writeSample(t), recording.LoadOptions{})
	require.NoError(t, err)
	require.NoError(t, rec.SetChannelSelection(1, false))
	require.NoError(t, rec.SetIntervalSeconds(0, 0.003))
	assert.ErrorIs(t, rec.SetChannelSelection(9, true), mfer.ErrIndexOutOfRange)
	assert.ErrorIs(t, rec.SetIntervalSelection(3, 1), mfer.ErrInvalidRange)

	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, rec.WriteCSV(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Time: (s), ECG II: 2x10^-6 (V), ART: 125x10^-3 (mmHg), PAP: 125x10^-3 (mmHg), CVP: 125x10^-3 (mmHg), Pacing Status: N/A", lines[0])
	assert.Equal(t, "0, -0.002, 85, 90, 95, 0", lines[1])

	bin := filepath.Join(t.TempDir(), "full.mwf")
	require.NoError(t, rec.WriteBinary(bin))
	full, err := recording.Load(bin, recording.LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, full.Model.Sequences, samples.SequenceCount, "binary output ignores the selection")
}

func TestWriteFailuresAreIOErrors(t *testing.T) {
	rec, err := recording.Load(writeSample(t), recording.LoadOptions{})
	require.NoError(t, err)
	missing := filepath.Join(t.TempDir(), "no", "such", "dir")
	assert.ErrorIs(t, rec.WriteCSV(filepath.Join(missing, "a.csv")), recording.ErrIO)
	assert.ErrorIs(t, rec.WriteBinary(filepath.Join(missing, "a.mwf")), recording.ErrIO)
}
