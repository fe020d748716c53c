// Package report describes a loaded recording as JSON or as a printable
// PDF sheet.
package report

import (
	"encoding/json"
	"os"
	"time"

	"example.com/mwfgate/internal/mfer"
)

// EventRow is one event in start order.
type EventRow struct {
	Code     uint16  `json:"code"`
	Start    uint32  `json:"start"`
	StartSec float64 `json:"startSeconds"`
	Duration uint16  `json:"duration"`
	Info     string  `json:"info,omitempty"`
}

// Report is the header summary of one recording.
type Report struct {
	Source          string          `json:"source"`
	SourceSHA256    string          `json:"sourceSha256"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	DurationSeconds float64         `json:"durationSeconds"`
	Header          mfer.HeaderView `json:"header"`
	Events          []EventRow      `json:"events"`
}

// Build summarizes m, which was read from source with the given digest.
func Build(source, sha256 string, m *mfer.Model) Report {
	rep := Report{
		Source:          source,
		SourceSHA256:    sha256,
		GeneratedAt:     time.Now().UTC(),
		DurationSeconds: m.Duration(),
		Header:          m.View(),
		Events:          []EventRow{},
	}
	enc := m.Header.Encoding()
	axis := m.AxisInterval()
	for _, ev := range m.Events() {
		rep.Events = append(rep.Events, EventRow{
			Code:     ev.Code,
			Start:    ev.Start,
			StartSec: axis.At(int64(ev.Start)),
			Duration: ev.Duration,
			Info:     ev.Info.Decode(enc),
		})
	}
	return rep
}

func SaveJSON(rep Report, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadJSON(path string) (Report, error) {
	var rep Report
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}
