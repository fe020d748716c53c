package mfer

import (
	"cmp"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf16"

	"golang.org/x/exp/slices"
)

// DefaultPreamble is the preamble written by Nihon Kohden monitors.
const DefaultPreamble = "MFR Monitoring Waveform"

// FixedText is a fixed-width text field kept together with its padding so
// that it can be written back unchanged.
type FixedText []byte

// String returns the text without NUL padding.
func (t FixedText) String() string {
	return strings.Trim(string(t), "\x00")
}

// Decode interprets the field using the recording's character code.
func (t FixedText) Decode(enc TextEncoding) string {
	if enc != UTF16LE {
		return t.String()
	}
	units := make([]uint16, 0, len(t)/2)
	for i := 0; i+1 < len(t); i += 2 {
		units = append(units, uint16(t[i])|uint16(t[i+1])<<8)
	}
	return strings.Trim(string(utf16.Decode(units)), "\x00")
}

// Blank reports whether every byte of the field is zero.
func (t FixedText) Blank() bool {
	for _, b := range t {
		if b != 0 {
			return false
		}
	}
	return true
}

// PadText returns s as a NUL padded field of width n.
func PadText(s string, n int) FixedText {
	out := make([]byte, n)
	copy(out, s)
	return out
}

// TextEncoding is the character code announced by the TXC block.
type TextEncoding int

const (
	ASCII TextEncoding = iota
	UTF8
	UTF16LE
)

func parseEncoding(t FixedText) TextEncoding {
	s := strings.ToUpper(t.String())
	switch {
	case strings.Contains(s, "UTF-16LE"):
		return UTF16LE
	case strings.Contains(s, "UTF-8"):
		return UTF8
	}
	return ASCII
}

// Scale is a mantissa × 10^exponent quantity with a unit code.
type Scale struct {
	Unit     uint8
	Exponent int8
	Mantissa int64
	width    int
}

// Apply converts a raw sample word to physical units. The product is
// formed in float64 so wide words cannot overflow.
func (s Scale) Apply(raw int64) float64 {
	return scaledFloat(float64(raw)*float64(s.Mantissa), int(s.Exponent))
}

// ApplyFloat scales an already fractional value.
func (s Scale) ApplyFloat(v float64) float64 {
	p := scaled(1, absInt(int(s.Exponent)))
	if s.Exponent < 0 {
		return v * float64(s.Mantissa) / p
	}
	return v * float64(s.Mantissa) * p
}

// Factor returns mantissa × 10^exponent.
func (s Scale) Factor() float64 {
	return scaled(s.Mantissa, int(s.Exponent))
}

// Notation renders the scale as "2x10^-6".
func (s Scale) Notation() string {
	return fmt.Sprintf("%dx10^%d", s.Mantissa, s.Exponent)
}

func (s Scale) String() string {
	return fmt.Sprintf("%s (%s)", s.Notation(), UnitName(s.Unit))
}

func (s Scale) mantissaWidth() int {
	if s.width > 0 {
		return s.width
	}
	return minWidth(uint64(s.Mantissa))
}

// Interval is the sampling interval. Its unit code selects seconds,
// metres or a frequency in hertz.
type Interval Scale

// At returns the axis position of sample index i, in seconds for time
// and frequency based intervals.
func (iv Interval) At(i int64) float64 {
	if iv.Mantissa == 0 {
		return 0
	}
	if iv.Unit == IntervalHertz {
		if iv.Exponent >= 0 {
			return float64(i) / scaled(iv.Mantissa, int(iv.Exponent))
		}
		return scaled(i, -int(iv.Exponent)) / float64(iv.Mantissa)
	}
	return scaledFloat(float64(i)*float64(iv.Mantissa), int(iv.Exponent))
}

// Seconds returns the length of one sample step.
func (iv Interval) Seconds() float64 {
	return iv.At(1)
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s (%s)", Scale(iv).Notation(), intervalUnitName(iv.Unit))
}

// Timestamp is the calendar measurement time. Millisecond and
// microsecond fields are only present on the wire when width says so.
type Timestamp struct {
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Millisecond int
	Microsecond int
	width       int
}

// TimestampOf builds a timestamp with second precision.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		width:  7,
	}
}

func (t Timestamp) IsZero() bool {
	return t.Month == 0
}

func (t Timestamp) Time() time.Time {
	nsec := t.Millisecond*int(time.Millisecond) + t.Microsecond*int(time.Microsecond)
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, nsec, time.UTC)
}

// String renders the timestamp as ISO-8601 without zone.
func (t Timestamp) String() string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Time().Format("2006-01-02T15:04:05")
}

func (t Timestamp) validate() error {
	switch {
	case t.Month < 1 || t.Month > 12:
		return fmt.Errorf("%w: month %d", ErrInvalidTimestamp, t.Month)
	case t.Day < 1 || t.Day > daysIn(t.Year, t.Month):
		return fmt.Errorf("%w: day %d of %04d-%02d", ErrInvalidTimestamp, t.Day, t.Year, t.Month)
	case t.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrInvalidTimestamp, t.Hour)
	case t.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrInvalidTimestamp, t.Minute)
	case t.Second > 59:
		return fmt.Errorf("%w: second %d", ErrInvalidTimestamp, t.Second)
	case t.Millisecond > 999:
		return fmt.Errorf("%w: millisecond %d", ErrInvalidTimestamp, t.Millisecond)
	case t.Microsecond > 999:
		return fmt.Errorf("%w: microsecond %d", ErrInvalidTimestamp, t.Microsecond)
	}
	return nil
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

const birthDateWidth = 7

// BirthDate holds either an age (years and days) or a calendar birth
// date. Every byte set to 0xFF means unknown.
type BirthDate struct {
	AgeYears uint8
	AgeDays  uint16
	Year     uint16
	Month    uint8
	Day      uint8
}

// UnknownBirthDate returns the all-ones sentinel.
func UnknownBirthDate() BirthDate {
	return BirthDate{AgeYears: 0xFF, AgeDays: 0xFFFF, Year: 0xFFFF, Month: 0xFF, Day: 0xFF}
}

// Unknown reports whether neither an age nor a date is recorded.
func (b BirthDate) Unknown() bool {
	return b.AgeYears == 0xFF && b.Year == 0xFFFF
}

func (b BirthDate) String() string {
	if b.AgeYears != 0xFF {
		return fmt.Sprintf("%d years, %d days", b.AgeYears, b.AgeDays)
	}
	if b.Year == 0xFFFF {
		return "N/A"
	}
	return fmt.Sprintf("%04d-%02d-%02d", b.Year, b.Month, b.Day)
}

// Sex is the patient sex code.
type Sex uint8

const (
	SexUnknown Sex = 0
	SexMale    Sex = 1
	SexFemale  Sex = 2
	SexOther   Sex = 3
)

func (s Sex) String() string {
	switch s {
	case SexUnknown:
		return "Unknown"
	case SexMale:
		return "Male"
	case SexFemale:
		return "Female"
	}
	return "Other"
}

// PatientInfo is the identifying part of the header and the only part
// Anonymize touches.
type PatientInfo struct {
	ID        FixedText
	Name      FixedText
	BirthDate BirthDate
	Sex       Sex
}

// Header holds the recording-level fields.
type Header struct {
	Preamble         FixedText
	ByteOrder        ByteOrder
	CharacterCode    FixedText
	ModelInfo        FixedText
	WaveformType     uint8
	MeasurementTime  Timestamp
	Patient          PatientInfo
	SamplingInterval Interval
	SequenceCount    int
	ChannelCount     int
}

// Encoding returns the character code used for text fields.
func (h Header) Encoding() TextEncoding {
	return parseEncoding(h.CharacterCode)
}

// Model splits the caret-delimited model information into manufacturer,
// model and revision.
func (h Header) Model() (manufacturer, model, revision string) {
	parts := strings.SplitN(h.ModelInfo.Decode(h.Encoding()), "^", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// Channel describes one waveform channel.
type Channel struct {
	Index       int
	Lead        uint16
	Name        string
	DataType    DataType
	BlockLength int
	Sensitivity Scale
	Interval    *Interval
	Categorical bool

	label FixedText
	attrs []block
}

// Unit returns the sensitivity unit symbol, or "N/A" for categorical
// channels.
func (c Channel) Unit() string {
	if c.Categorical {
		return "N/A"
	}
	return UnitName(c.Sensitivity.Unit)
}

// Value converts a raw word of this channel to physical units.
func (c Channel) Value(raw int64) float64 {
	switch c.DataType {
	case Float32:
		return c.Sensitivity.ApplyFloat(float64(math.Float32frombits(uint32(raw))))
	case Float64:
		return c.Sensitivity.ApplyFloat(math.Float64frombits(uint64(raw)))
	}
	return c.Sensitivity.Apply(raw)
}

// NewChannel returns a channel for a known lead with its table defaults.
func NewChannel(lead uint16, dt DataType, blockLength int) Channel {
	ch := Channel{Lead: lead, DataType: dt, BlockLength: blockLength}
	if info, ok := LookupLead(lead); ok {
		ch.Name = info.Name
		ch.Sensitivity = info.Sensitivity
		ch.Categorical = info.Categorical
	} else {
		ch.Name = fmt.Sprintf("Lead 0x%04X", lead)
		ch.Categorical = true
	}
	if dt == Status16 {
		ch.Categorical = true
	}
	return ch
}

// Sequence is one time segment. Samples[c] holds BlockLength raw words
// of channel c.
type Sequence struct {
	Samples [][]int64
}

// NoChannel marks an event that is not tied to a channel.
const NoChannel = -1

// Event is an annotation such as an NIBP measurement. Start is in
// sampling interval units from the beginning of the recording.
type Event struct {
	Code     uint16
	Start    uint32
	Duration uint16
	Info     FixedText
	Channel  int
}

type channelDefaults struct {
	blockLength int
	dataType    DataType
	sensitivity Scale
	blockWidth  int
}

// block records one entry of the stream so that a decoded model can be
// written back in its original shape.
type block struct {
	tag   byte
	ext   int
	size  int
	index int
	first int
	count int
	raw   []byte
}

// Model is the in-memory waveform recording.
type Model struct {
	Header    Header
	Channels  []Channel
	Sequences []Sequence

	events   []Event
	defaults channelDefaults
	layout   []block
	trailer  []byte
}

// NewModel returns an empty recording with the default preamble and an
// unknown patient.
func NewModel(order ByteOrder) *Model {
	m := &Model{}
	m.Header.Preamble = PadText(DefaultPreamble, 32)
	m.Header.ByteOrder = order
	m.Header.SamplingInterval = Interval{Unit: IntervalSeconds, Exponent: -3, Mantissa: 1}
	m.Header.Patient.BirthDate = UnknownBirthDate()
	return m
}

// AddChannel appends ch and returns its index.
func (m *Model) AddChannel(ch Channel) int {
	ch.Index = len(m.Channels)
	m.Channels = append(m.Channels, ch)
	if m.Header.ChannelCount < len(m.Channels) {
		m.Header.ChannelCount = len(m.Channels)
	}
	return ch.Index
}

// AppendSequence adds a time segment after checking its shape against
// the channel table.
func (m *Model) AppendSequence(seq Sequence) error {
	if err := m.checkSequence(seq); err != nil {
		return err
	}
	m.Sequences = append(m.Sequences, seq)
	if m.Header.SequenceCount < len(m.Sequences) {
		m.Header.SequenceCount = len(m.Sequences)
	}
	return nil
}

func (m *Model) checkSequence(seq Sequence) error {
	if len(seq.Samples) != len(m.Channels) {
		return fmt.Errorf("%w: sequence has %d channels, table has %d", ErrMalformedStream, len(seq.Samples), len(m.Channels))
	}
	for c, ch := range m.Channels {
		if len(seq.Samples[c]) != ch.BlockLength {
			return fmt.Errorf("%w: channel %d has %d samples, block length is %d", ErrMalformedStream, c, len(seq.Samples[c]), ch.BlockLength)
		}
	}
	return nil
}

// AddEvent appends an event.
func (m *Model) AddEvent(e Event) {
	m.events = append(m.events, e)
}

// Events returns the events ordered by start time.
func (m *Model) Events() []Event {
	out := make([]Event, len(m.events))
	copy(out, m.events)
	slices.SortStableFunc(out, func(a, b Event) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}

// MaxBlockLength returns the samples per sequence of the fastest channel.
func (m *Model) MaxBlockLength() int {
	max := 0
	for _, ch := range m.Channels {
		if ch.BlockLength > max {
			max = ch.BlockLength
		}
	}
	return max
}

// TotalSamples is the length of the global sample axis.
func (m *Model) TotalSamples() int {
	return len(m.Sequences) * m.MaxBlockLength()
}

// Duration returns the recording length in seconds.
func (m *Model) Duration() float64 {
	return m.AxisInterval().At(int64(m.TotalSamples()))
}

// AxisInterval returns the step between global sample indices. It is the
// interval of the fastest channel when that channel declares its own,
// otherwise the header interval.
func (m *Model) AxisInterval() Interval {
	fastest := -1
	for i, ch := range m.Channels {
		if fastest < 0 || ch.BlockLength > m.Channels[fastest].BlockLength {
			fastest = i
		}
	}
	if fastest >= 0 && m.Channels[fastest].Interval != nil {
		return *m.Channels[fastest].Interval
	}
	return m.Header.SamplingInterval
}

var pow10tab = [...]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10, 1e11,
	1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19, 1e20, 1e21, 1e22,
}

// scaled returns n × 10^exp. Powers of ten up to 1e22 are exact, so the
// result is the float nearest to the decimal value.
func scaled(n int64, exp int) float64 {
	return scaledFloat(float64(n), exp)
}

func scaledFloat(v float64, exp int) float64 {
	p := math.Pow10(absInt(exp))
	if absInt(exp) < len(pow10tab) {
		p = pow10tab[absInt(exp)]
	}
	if exp >= 0 {
		return v * p
	}
	return v / p
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minWidth(v uint64) int {
	w := 1
	for v > 0xFF {
		v >>= 8
		w++
	}
	return w
}
