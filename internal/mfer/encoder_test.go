package mfer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mwfgate/internal/mfer"
	"example.com/mwfgate/internal/samples"
)

func TestEncodeReproducesInput(t *testing.T) {
	inputs := map[string][]byte{
		"little endian": samples.BuildRecording(mfer.LittleEndian),
		"big endian":    samples.BuildRecording(mfer.BigEndian),
		"long form lengths and null block": little(1, 1).
			raw(mfer.TagPatientID, 0x81, 0x03, 'a', 'b', 0).
			raw(mfer.TagPatientName, 0x82, 0x00, 0x02, 'z', 0).
			add(mfer.TagNull, 0xFF, 0xFF).
			add(mfer.TagWaveform, 0x34, 0x12).
			end().
			raw(0x00, 0x01, 0x02),
		"split sample blocks": little(1, 3).
			add(mfer.TagWaveform, 1, 0, 2, 0).
			add(mfer.TagWaveform, 3, 0).
			end(),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			m, err := mfer.Decode(in)
			require.NoError(t, err)
			out, err := mfer.Encode(m)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestEncodeHonoursCurrentByteOrder(t *testing.T) {
	m, err := mfer.Decode(samples.BuildRecording(mfer.LittleEndian))
	require.NoError(t, err)
	m.Header.ByteOrder = mfer.BigEndian

	out, err := mfer.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, samples.BuildRecording(mfer.BigEndian), out)
}

func TestEncodeRoundTripKeepsHeader(t *testing.T) {
	m, err := mfer.Decode(samples.BuildRecording(mfer.LittleEndian))
	require.NoError(t, err)
	out, err := mfer.Encode(m)
	require.NoError(t, err)
	again, err := mfer.Decode(out)
	require.NoError(t, err)

	assert.Equal(t, m.View(), again.View())
	assert.Equal(t, m.View().String(), again.View().String())
	assert.Equal(t, m.Header, again.Header)
}

func buildModel(t *testing.T) *mfer.Model {
	t.Helper()
	m := mfer.NewModel(mfer.BigEndian)
	m.Header.ModelInfo = mfer.FixedText("ACME^X1^1")
	m.Header.MeasurementTime = mfer.TimestampOf(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))
	m.Header.Patient.ID = mfer.PadText("P-1", 8)
	m.Header.Patient.Sex = mfer.SexFemale
	m.AddChannel(mfer.NewChannel(mfer.LeadECGII, mfer.Int16, 2))
	m.AddChannel(mfer.NewChannel(mfer.LeadPacingStatus, mfer.Uint8, 1))
	require.NoError(t, m.AppendSequence(mfer.Sequence{Samples: [][]int64{{-5, 7}, {1}}}))
	require.NoError(t, m.AppendSequence(mfer.Sequence{Samples: [][]int64{{300, -300}, {0}}}))
	m.AddEvent(mfer.Event{Code: 3, Start: 1, Info: mfer.FixedText("x"), Channel: mfer.NoChannel})
	return m
}

func TestEncodeBuiltModel(t *testing.T) {
	m := buildModel(t)
	data, err := mfer.Encode(m)
	require.NoError(t, err)

	decoded, err := mfer.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m.View(), decoded.View())
	assert.Equal(t, m.Sequences, decoded.Sequences)
	assert.Equal(t, m.Events(), decoded.Events())
	assert.Equal(t, "Female", decoded.View().Sex)
	assert.Equal(t, "2020-01-02T03:04:05", decoded.View().MeasurementTime)

	again, err := mfer.Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEncodeFullWidthFields(t *testing.T) {
	m := buildModel(t)
	m.Header.MeasurementTime = mfer.Timestamp{Year: 2024, Month: 2, Day: 29, Hour: 23, Minute: 59, Second: 59, Millisecond: 999, Microsecond: 999}
	m.Header.Patient.BirthDate = mfer.BirthDate{AgeYears: 0xFF, AgeDays: 0xFFFF, Year: 1980, Month: 2, Day: 29}
	m.AddEvent(mfer.Event{Code: 0xFFFF, Start: 0xFFFFFFFF, Duration: 0xFFFF, Info: mfer.FixedText("max"), Channel: mfer.NoChannel})

	data, err := mfer.Encode(m)
	require.NoError(t, err)
	decoded, err := mfer.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m.Header.MeasurementTime.Time(), decoded.Header.MeasurementTime.Time())
	assert.Equal(t, 999, decoded.Header.MeasurementTime.Microsecond)
	assert.Equal(t, "1980-02-29", decoded.View().BirthDate)
	assert.Equal(t, m.Events(), decoded.Events())

	m.Header.MeasurementTime.Year = 70000
	_, err = mfer.Encode(m)
	require.ErrorIs(t, err, mfer.ErrMalformedStream)
}

func TestEncodeRejectsInconsistentModel(t *testing.T) {
	t.Run("value does not fit data type", func(t *testing.T) {
		m := buildModel(t)
		m.Sequences[0].Samples[0][0] = 40000
		_, err := mfer.Encode(m)
		require.ErrorIs(t, err, mfer.ErrMalformedStream)
	})
	t.Run("negative unsigned value", func(t *testing.T) {
		m := buildModel(t)
		m.Sequences[1].Samples[1][0] = -1
		_, err := mfer.Encode(m)
		require.ErrorIs(t, err, mfer.ErrMalformedStream)
	})
	t.Run("sequence shape", func(t *testing.T) {
		m := buildModel(t)
		m.Sequences[0].Samples[0] = []int64{1}
		_, err := mfer.Encode(m)
		require.ErrorIs(t, err, mfer.ErrMalformedStream)
		require.ErrorIs(t, m.AppendSequence(mfer.Sequence{Samples: [][]int64{{1}}}), mfer.ErrMalformedStream)
	})
	t.Run("invalid time", func(t *testing.T) {
		m := buildModel(t)
		m.Header.MeasurementTime.Month = 13
		_, err := mfer.Encode(m)
		require.ErrorIs(t, err, mfer.ErrInvalidTimestamp)
	})
	t.Run("invalid byte order", func(t *testing.T) {
		m := buildModel(t)
		m.Header.ByteOrder = 7
		_, err := mfer.Encode(m)
		require.ErrorIs(t, err, mfer.ErrMalformedStream)
	})
}

func TestEncodeGrowsNarrowFields(t *testing.T) {
	in := little(1, 2).add(mfer.TagWaveform, 1, 0).end()
	m, err := mfer.Decode(in)
	require.NoError(t, err)
	m.Header.SequenceCount = 300

	out, err := mfer.Encode(m)
	require.NoError(t, err)
	again, err := mfer.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 300, again.Header.SequenceCount)
}
