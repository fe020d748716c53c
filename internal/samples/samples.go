package samples

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"example.com/mwfgate/internal/mfer"
)

const (
	RecordingFileName  = "sample.mwf"
	BigEndianFileName  = "sample-be.mwf"
	MeasurementTimeISO = "2019-06-19T13:20:00"
	PatientID          = "12345"
	PatientName        = "TRWRU"
	ModelInfo          = "NIHON KOHDEN^CNS6000^0, 5, 0, 9"
	SequenceCount      = 12
	ChannelCount       = 6
	BlockLength        = 4
	PacingChannel      = 5
	PacingBlockLength  = 1
	preambleWidth      = 32
	patientIDWidth     = 16
	patientNameWidth   = 32
)

// Leads of the six channels in index order.
var Leads = []uint16{
	mfer.LeadECGII,
	mfer.LeadECGV5,
	mfer.LeadART,
	mfer.LeadPAP,
	mfer.LeadCVP,
	mfer.LeadPacingStatus,
}

// HeaderRow is the CSV header the recording exports to.
const HeaderRow = "Time: (s), ECG II: 2x10^-6 (V), ECG V5: 2x10^-6 (V), ART: 125x10^-3 (mmHg), PAP: 125x10^-3 (mmHg), CVP: 125x10^-3 (mmHg), Pacing Status: N/A"

// Sample returns the raw word stored for channel c at position k of
// sequence s.
func Sample(c, s, k int) int64 {
	if c == PacingChannel {
		return int64(s % 3)
	}
	n := s*BlockLength + k
	switch c {
	case 0, 1:
		return int64((n*37+c*11)%2001 - 1000)
	default:
		return int64(600 + c*40 + (n*7)%50)
	}
}

// BuildRecording encodes the deterministic six channel monitor recording
// by hand so decoders can be checked against an independent writer.
func BuildRecording(order mfer.ByteOrder) []byte {
	w := &tlvWriter{order: order}
	w.block(mfer.TagPreamble, padded(mfer.DefaultPreamble, preambleWidth))
	w.block(mfer.TagByteOrder, []byte{byte(order)})
	w.block(mfer.TagCharacterCode, []byte("ASCII"))
	w.block(mfer.TagModelInfo, []byte(ModelInfo))
	w.block(mfer.TagPatientID, padded(PatientID, patientIDWidth))
	w.block(mfer.TagPatientName, padded(PatientName, patientNameWidth))
	w.block(mfer.TagBirthDate, bytes.Repeat([]byte{0xFF}, 7))
	w.block(mfer.TagSex, []byte{0})
	w.block(mfer.TagMeasuredTime, cat(w.u16(2019), []byte{6, 19, 13, 20, 0}))
	w.block(mfer.TagInterval, []byte{mfer.IntervalSeconds, 0xFD, 1}) // 1x10^-3 s
	w.block(mfer.TagChannelCount, []byte{ChannelCount})
	w.block(mfer.TagSequenceCount, []byte{SequenceCount})
	w.block(mfer.TagBlockLength, w.u16(BlockLength))
	w.block(mfer.TagDataType, []byte{byte(mfer.Int16)})

	for c, lead := range Leads {
		var attrs []byte
		attrs = append(attrs, nested(mfer.TagLead, w.u16(uint32(lead)))...)
		switch c {
		case 0:
			attrs = append(attrs, nested(mfer.TagSensitivity, []byte{0, 0xFA, 2})...)
		case PacingChannel:
			attrs = append(attrs, nested(mfer.TagBlockLength, w.u16(PacingBlockLength))...)
		}
		w.attr(c, attrs)
	}

	var data []byte
	for s := 0; s < SequenceCount; s++ {
		for c := range Leads {
			n := BlockLength
			if c == PacingChannel {
				n = PacingBlockLength
			}
			for k := 0; k < n; k++ {
				data = append(data, w.u16(uint32(uint16(Sample(c, s, k))))...)
			}
		}
	}
	w.block(mfer.TagWaveform, data)
	w.buf = append(w.buf, mfer.TagEnd)
	return w.buf
}

type tlvWriter struct {
	order mfer.ByteOrder
	buf   []byte
}

func (w *tlvWriter) u16(v uint32) []byte {
	if w.order == mfer.LittleEndian {
		return []byte{byte(v), byte(v >> 8)}
	}
	return []byte{byte(v >> 8), byte(v)}
}

func (w *tlvWriter) block(tag byte, body []byte) {
	w.buf = append(w.buf, tag)
	w.buf = append(w.buf, length(len(body))...)
	w.buf = append(w.buf, body...)
}

func (w *tlvWriter) attr(index int, body []byte) {
	w.buf = append(w.buf, mfer.TagChannelAttr, byte(index))
	w.buf = append(w.buf, length(len(body))...)
	w.buf = append(w.buf, body...)
}

func nested(tag byte, body []byte) []byte {
	return cat([]byte{tag}, length(len(body)), body)
}

func length(n int) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n <= 0xFFFF:
		return []byte{0x82, byte(n >> 8), byte(n)}
	default:
		return []byte{0x84, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

func padded(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// WriteFiles materializes the generated recordings under dir.
func WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string]mfer.ByteOrder{
		RecordingFileName: mfer.LittleEndian,
		BigEndianFileName: mfer.BigEndian,
	}
	for name, order := range files {
		if err := writeFileIfChanged(filepath.Join(dir, name), BuildRecording(order)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func writeFileIfChanged(path string, data []byte) error {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return nil
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
