package mfer

import (
	"fmt"
	"strings"

	"example.com/mwfgate/internal/common"
)

// ChannelView is the printable description of one channel.
type ChannelView struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Lead        uint16 `json:"lead"`
	DataType    string `json:"dataType"`
	BlockLength int    `json:"blockLength"`
	Sensitivity string `json:"sensitivity"`
}

// HeaderView is a stable text rendering of the header. Two views compare
// equal exactly when the decoded header fields are equal; FieldDigest
// covers the raw field bytes including padding.
type HeaderView struct {
	Preamble         string        `json:"preamble"`
	ByteOrder        string        `json:"byteOrder"`
	ModelInfo        string        `json:"modelInfo"`
	MeasurementTime  string        `json:"measurementTime"`
	PatientID        string        `json:"patientId"`
	PatientName      string        `json:"patientName"`
	BirthDate        string        `json:"birthDate"`
	Sex              string        `json:"sex"`
	SamplingInterval string        `json:"samplingInterval"`
	Events           int           `json:"events"`
	SequenceCount    int           `json:"sequenceCount"`
	ChannelCount     int           `json:"channelCount"`
	Channels         []ChannelView `json:"channels"`
	FieldDigest      string        `json:"fieldDigest"`
}

// View renders the header of m.
func (m *Model) View() HeaderView {
	h := m.Header
	enc := h.Encoding()
	v := HeaderView{
		Preamble:         h.Preamble.Decode(enc),
		ByteOrder:        h.ByteOrder.String(),
		ModelInfo:        h.ModelInfo.Decode(enc),
		MeasurementTime:  h.MeasurementTime.String(),
		PatientID:        h.Patient.ID.Decode(enc),
		PatientName:      h.Patient.Name.Decode(enc),
		BirthDate:        h.Patient.BirthDate.String(),
		Sex:              h.Patient.Sex.String(),
		SamplingInterval: h.SamplingInterval.String(),
		Events:           len(m.events),
		SequenceCount:    h.SequenceCount,
		ChannelCount:     h.ChannelCount,
		FieldDigest:      m.fieldDigest(),
	}
	for _, ch := range m.Channels {
		sens := "N/A"
		if !ch.Categorical {
			sens = ch.Sensitivity.String()
		}
		v.Channels = append(v.Channels, ChannelView{
			Index:       ch.Index,
			Name:        ch.Name,
			Lead:        ch.Lead,
			DataType:    ch.DataType.String(),
			BlockLength: ch.BlockLength,
			Sensitivity: sens,
		})
	}
	return v
}

// fieldDigest hashes the encoded header fields, i.e. every block except
// sample data, events and the end marker.
func (m *Model) fieldDigest() string {
	layout := m.layout
	if len(layout) == 0 {
		layout = m.canonicalLayout()
	}
	e := &encoder{m: m, w: NewWriter(m.Header.ByteOrder, 256)}
	for _, b := range layout {
		switch b.tag {
		case TagWaveform, TagEvent, TagEnd:
			continue
		}
		if err := e.block(b); err != nil {
			return ""
		}
	}
	return common.Sha256OfBytes(e.w.Bytes())
}

func (v HeaderView) String() string {
	var sb strings.Builder
	line := func(k, val string) { fmt.Fprintf(&sb, "%-18s %s\n", k+":", val) }
	line("Preamble", v.Preamble)
	line("Byte Order", v.ByteOrder)
	line("Model Info", v.ModelInfo)
	line("Measurement Time", v.MeasurementTime)
	line("Patient ID", v.PatientID)
	line("Patient Name", v.PatientName)
	line("Birth Date", v.BirthDate)
	line("Patient Sex", v.Sex)
	line("Sampling Interval", v.SamplingInterval)
	line("Events", fmt.Sprint(v.Events))
	line("Sequences", fmt.Sprint(v.SequenceCount))
	line("Channels", fmt.Sprint(v.ChannelCount))
	for _, ch := range v.Channels {
		fmt.Fprintf(&sb, "  [%d] %s (%s x%d) %s\n", ch.Index, ch.Name, ch.DataType, ch.BlockLength, ch.Sensitivity)
	}
	line("Field Digest", v.FieldDigest)
	return sb.String()
}
