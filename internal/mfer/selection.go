package mfer

import (
	"fmt"
	"math"
)

// Selection is the export state of a model: which channels are active and
// which half-open range [Start, End) of the global sample index is in
// scope. The global index counts samples of the fastest channel.
type Selection struct {
	m      *Model
	active []bool
	start  int
	end    int
}

// NewSelection selects every channel over the whole recording.
func NewSelection(m *Model) *Selection {
	s := &Selection{m: m}
	s.Reset()
	return s
}

// Reset restores the initial state.
func (s *Selection) Reset() {
	s.active = make([]bool, len(s.m.Channels))
	for i := range s.active {
		s.active[i] = true
	}
	s.start, s.end = 0, s.m.TotalSamples()
}

// SetChannel activates or deactivates one channel.
func (s *Selection) SetChannel(index int, active bool) error {
	if index < 0 || index >= len(s.active) {
		return fmt.Errorf("%w: %d of %d channels", ErrIndexOutOfRange, index, len(s.active))
	}
	s.active[index] = active
	return nil
}

// ChannelActive reports whether index is selected.
func (s *Selection) ChannelActive(index int) bool {
	return index >= 0 && index < len(s.active) && s.active[index]
}

// ActiveChannels returns the selected channel indices in ascending order.
func (s *Selection) ActiveChannels() []int {
	var out []int
	for i, on := range s.active {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// SetInterval selects samples [start, end). Both bounds must lie within
// the recording and start must not exceed end.
func (s *Selection) SetInterval(start, end int) error {
	total := s.m.TotalSamples()
	if start < 0 || start > end || end > total {
		return fmt.Errorf("%w: [%d, %d) of %d samples", ErrInvalidRange, start, end, total)
	}
	s.start, s.end = start, end
	return nil
}

// SetIntervalSeconds selects a time range, rounding each bound to the
// nearest sample.
func (s *Selection) SetIntervalSeconds(start, end float64) error {
	step := s.m.AxisInterval().Seconds()
	if step <= 0 || math.IsNaN(start) || math.IsNaN(end) || start < 0 || start > end {
		return fmt.Errorf("%w: %gs to %gs", ErrInvalidRange, start, end)
	}
	return s.SetInterval(int(math.Round(start/step)), int(math.Round(end/step)))
}

// Interval returns the selected range.
func (s *Selection) Interval() (start, end int) {
	return s.start, s.end
}
