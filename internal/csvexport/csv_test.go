package csvexport_test

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/csvexport"
	"example.com/mwfgate/internal/mfer"
	"example.com/mwfgate/internal/samples"
)

func sampleModel(t *testing.T) *mfer.Model {
	t.Helper()
	m, err := mfer.Decode(samples.BuildRecording(mfer.LittleEndian))
	require.NoError(t, err)
	return m
}

func collect(t *testing.T, rows *csvexport.Rows) []string {
	t.Helper()
	var out []string
	for {
		cells, err := rows.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, strings.Join(cells, csvexport.Separator))
	}
}

func TestExportHeaderRow(t *testing.T) {
	rows := csvexport.New(sampleModel(t), nil)
	header, err := rows.Next()
	require.NoError(t, err)
	assert.Equal(t, samples.HeaderRow, strings.Join(header, csvexport.Separator))
}

func TestExportWholeRecording(t *testing.T) {
	m := sampleModel(t)
	lines := collect(t, csvexport.New(m, nil))
	require.Len(t, lines, 1+m.TotalSamples())

	assert.Equal(t, "0, -0.002, -0.001978, 85, 90, 95, 0", lines[1])
	assert.Equal(t, "0.001, -0.001926, -0.001904, 85.875, 90.875, 95.875, ", lines[2])
	assert.Equal(t, "0.004, -0.001704, -0.001682, 88.5, 93.5, 98.5, 1", lines[5])
}

func TestExportSelection(t *testing.T) {
	m := sampleModel(t)
	sel := mfer.NewSelection(m)
	for _, c := range []int{1, 2, 3, 4} {
		require.NoError(t, sel.SetChannel(c, false))
	}
	require.NoError(t, sel.SetInterval(4, 6))

	rows := csvexport.New(m, sel)
	require.NoError(t, sel.SetInterval(0, 48))

	assert.Equal(t, []string{
		"Time: (s), ECG II: 2x10^-6 (V), Pacing Status: N/A",
		"0.004, -0.001704, 1",
		"0.005, -0.00163, ",
	}, collect(t, rows))
}

func TestExportNoActiveChannels(t *testing.T) {
	m := sampleModel(t)
	sel := mfer.NewSelection(m)
	for c := range m.Channels {
		require.NoError(t, sel.SetChannel(c, false))
	}
	require.NoError(t, sel.SetInterval(0, 2))
	assert.Equal(t, []string{"Time: (s)", "0", "0.001"}, collect(t, csvexport.New(m, sel)))
}

func TestExportIsSinglePass(t *testing.T) {
	m := sampleModel(t)
	sel := mfer.NewSelection(m)
	require.NoError(t, sel.SetInterval(0, 1))
	rows := csvexport.New(m, sel)
	assert.Len(t, collect(t, rows), 2)

	_, err := rows.Next()
	assert.Equal(t, io.EOF, err)
}

func TestExportMultiRate(t *testing.T) {
	m := mfer.NewModel(mfer.LittleEndian)
	m.AddChannel(mfer.NewChannel(mfer.LeadECGII, mfer.Int16, 4))
	m.AddChannel(mfer.NewChannel(mfer.LeadART, mfer.Int16, 2))
	m.AddChannel(mfer.NewChannel(mfer.LeadPacingStatus, mfer.Uint8, 1))
	require.NoError(t, m.AppendSequence(mfer.Sequence{Samples: [][]int64{{1, 2, 3, 4}, {8, 16}, {2}}}))

	var buf bytes.Buffer
	n, err := csvexport.Write(&buf, csvexport.New(m, nil))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, strings.Join([]string{
		"Time: (s), ECG II: 2x10^-6 (V), ART: 125x10^-3 (mmHg), Pacing Status: N/A",
		"0, 0.000002, 1, 2",
		"0.001, 0.000004, , ",
		"0.002, 0.000006, 2, ",
		"0.003, 0.000008, , ",
	}, "\n")+"\n", buf.String())
}

func TestExportChannelInterval(t *testing.T) {
	in := []byte{
		mfer.TagByteOrder, 1, byte(mfer.LittleEndian),
		mfer.TagChannelCount, 1, 1,
		mfer.TagSequenceCount, 1, 1,
		mfer.TagChannelAttr, 0, 8,
		mfer.TagBlockLength, 1, 2,
		mfer.TagInterval, 3, mfer.IntervalSeconds, 0xFD, 2,
		mfer.TagWaveform, 4, 1, 0, 2, 0,
		mfer.TagEnd,
	}
	m, err := mfer.Decode(in)
	require.NoError(t, err)
	assert.Equal(t, 0.004, m.Duration())

	assert.Equal(t, []string{"Time: (s), Channel 1: N/A", "0, 1", "0.002, 2"}, collect(t, csvexport.New(m, nil)))

	sel := mfer.NewSelection(m)
	require.NoError(t, sel.SetIntervalSeconds(0.002, 0.004))
	assert.Equal(t, []string{"Time: (s), Channel 1: N/A", "0.002, 2"}, collect(t, csvexport.New(m, sel)))
}

func TestExportFloatChannel(t *testing.T) {
	m := mfer.NewModel(mfer.BigEndian)
	ch := mfer.Channel{Name: "Temp", DataType: mfer.Float32, BlockLength: 1, Sensitivity: mfer.Scale{Unit: 8, Exponent: 0, Mantissa: 1}}
	m.AddChannel(ch)
	raw := int64(math.Float32bits(36.5))
	require.NoError(t, m.AppendSequence(mfer.Sequence{Samples: [][]int64{{raw}}}))

	lines := collect(t, csvexport.New(m, nil))
	assert.Equal(t, []string{"Time: (s), Temp: 1x10^0 (°C)", "0, 36.5"}, lines)
}

func TestExportMetrics(t *testing.T) {
	m := sampleModel(t)
	metrics := common.NewMetrics()
	rows := csvexport.New(m, nil)
	rows.SetMetrics(metrics)
	n, err := csvexport.Write(io.Discard, rows)
	require.NoError(t, err)
	assert.Equal(t, 48, n)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(48), snap.Rows)
	assert.Equal(t, int64(48), snap.TotalRows)
	assert.Equal(t, 1.0, snap.Completion())
}
