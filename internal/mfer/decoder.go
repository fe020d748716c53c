package mfer

import (
	"fmt"
	"io"
	"math"

	"example.com/mwfgate/internal/common"
)

// maxLengthBytes bounds the long form so a length always fits an int.
const maxLengthBytes = 4

// maxChannels is the number of channels a one byte attribute index can
// address.
const maxChannels = 256

// Options tunes decoding.
type Options struct {
	// Strict rejects unknown tags instead of skipping them.
	Strict bool
}

// BlockInfo describes one top-level block returned by Decoder.Next.
type BlockInfo struct {
	Offset int
	Tag    byte
	Index  int
	Length int
}

// Decoder walks a waveform stream one top-level block at a time and
// builds the model as it goes.
type Decoder struct {
	cur      *Cursor
	opts     Options
	metrics  *common.Metrics
	model    *Model
	orderSet bool
	seqSet   bool
	chnSet   bool
	sealed   bool
	done     bool
	err      error
	declared map[int]*Channel
	hasBLK   bool
	hasDTP   bool
	hasSEN   bool
}

// NewDecoder returns a decoder over buf. buf must not be modified while
// decoding.
func NewDecoder(buf []byte, opts Options) *Decoder {
	return &Decoder{
		cur:      NewReader(buf, BigEndian),
		opts:     opts,
		model:    &Model{},
		declared: make(map[int]*Channel),
	}
}

// SetMetrics attaches a metrics recorder to the decoder.
func (d *Decoder) SetMetrics(m *common.Metrics) {
	d.metrics = m
	if m != nil {
		m.SetTotalBytes(int64(len(d.cur.Bytes())))
	}
}

// Decode parses a complete stream.
func Decode(buf []byte) (*Model, error) {
	return DecodeWithOptions(buf, Options{})
}

// DecodeWithOptions parses a complete stream. On any failure no model is
// returned.
func DecodeWithOptions(buf []byte, opts Options) (*Model, error) {
	d := NewDecoder(buf, opts)
	for {
		_, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return d.Model()
}

// Next decodes the next top-level block. It returns io.EOF after the end
// marker or at the end of the buffer. Errors are sticky.
func (d *Decoder) Next() (BlockInfo, error) {
	if d.err != nil {
		return BlockInfo{}, d.err
	}
	if d.done || d.cur.Remaining() == 0 {
		d.done = true
		return BlockInfo{}, io.EOF
	}
	off := d.cur.Pos()
	info := BlockInfo{Offset: off, Index: -1}
	tag, _ := d.cur.ReadByte()
	info.Tag = tag

	if tag == TagEnd {
		d.done = true
		d.model.layout = append(d.model.layout, block{tag: TagEnd})
		d.model.trailer, _ = d.cur.ReadBytes(d.cur.Remaining())
		d.metrics.AddBlock(int64(d.cur.Pos() - off))
		return info, nil
	}

	if tag == TagChannelAttr {
		idx, err := d.cur.ReadByte()
		if err != nil {
			return info, d.fail(off, tag, err)
		}
		info.Index = int(idx)
	}
	length, ext, err := readLength(d.cur)
	if err != nil {
		return info, d.fail(off, tag, err)
	}
	info.Length = length
	content, err := d.cur.ReadBytes(length)
	if err != nil {
		return info, d.fail(off, tag, err)
	}
	if err := d.apply(tag, info.Index, ext, content); err != nil {
		return info, d.fail(off, tag, err)
	}
	d.metrics.AddBlock(int64(d.cur.Pos() - off))
	return info, nil
}

// Model finishes decoding and returns the recording. It fails if Next
// returned an error.
func (d *Decoder) Model() (*Model, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.seal()
	m := d.model
	if got := len(m.Sequences); got < m.Header.SequenceCount {
		common.Logf("recording declares %d sequences but holds %d", m.Header.SequenceCount, got)
	}
	return m, nil
}

func (d *Decoder) fail(off int, tag byte, err error) error {
	d.err = &DecodeError{Offset: off, Tag: tag, Err: err}
	return d.err
}

// readLength reads a short or long form length and returns the number of
// extra bytes used by the long form.
func readLength(c *Cursor) (int, int, error) {
	b, err := c.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	if b&0x80 == 0 {
		return int(b), 0, nil
	}
	n := int(b & 0x7F)
	if n == 0 || n > maxLengthBytes {
		return 0, 0, fmt.Errorf("%w: long form length with %d bytes", ErrMalformedStream, n)
	}
	raw, err := c.ReadBytes(n)
	if err != nil {
		return 0, 0, err
	}
	return int(decodeUint(raw, BigEndian)), n, nil
}

// readCount reads an unsigned count of the given width. Counts above
// limit cannot describe data that fits the stream.
func readCount(r *Cursor, width, limit int, what string) (int, error) {
	n, err := r.ReadUint(width)
	if err != nil {
		return 0, err
	}
	if n > uint64(limit) {
		return 0, fmt.Errorf("%w: %s %d exceeds %d", ErrMalformedStream, what, n, limit)
	}
	return int(n), nil
}

func knownTopLevel(tag byte) bool {
	_, ok := tagNames[tag]
	return ok && tag != TagLead
}

func (d *Decoder) apply(tag byte, index, ext int, content []byte) error {
	if !knownTopLevel(tag) {
		return d.unknown(tag, ext, content)
	}
	if orderSensitive(tag) && !d.orderSet {
		return fmt.Errorf("%w: %s before byte order", ErrOrderNotEstablished, TagName(tag))
	}
	m := d.model
	h := &m.Header
	r := NewReader(content, d.cur.ByteOrder())
	b := block{tag: tag, ext: ext, size: len(content), index: -1}

	switch tag {
	case TagPreamble:
		h.Preamble = FixedText(content)
	case TagByteOrder:
		if len(content) != 1 || !ByteOrder(content[0]).Valid() {
			return fmt.Errorf("%w: byte order block % X", ErrMalformedStream, content)
		}
		h.ByteOrder = ByteOrder(content[0])
		d.cur.SetByteOrder(h.ByteOrder)
		d.orderSet = true
	case TagCharacterCode:
		h.CharacterCode = FixedText(content)
	case TagModelInfo:
		h.ModelInfo = FixedText(content)
	case TagWaveformType:
		if len(content) != 1 {
			return fmt.Errorf("%w: waveform type is %d bytes", ErrMalformedStream, len(content))
		}
		h.WaveformType = content[0]
	case TagMeasuredTime:
		ts, err := decodeTimestamp(r)
		if err != nil {
			return err
		}
		h.MeasurementTime = ts
	case TagPatientID:
		h.Patient.ID = FixedText(content)
	case TagPatientName:
		h.Patient.Name = FixedText(content)
	case TagBirthDate:
		bd, err := decodeBirthDate(r)
		if err != nil {
			return err
		}
		h.Patient.BirthDate = bd
	case TagSex:
		if len(content) != 1 {
			return fmt.Errorf("%w: sex is %d bytes", ErrMalformedStream, len(content))
		}
		h.Patient.Sex = Sex(content[0])
	case TagInterval:
		s, err := decodeScale(r)
		if err != nil {
			return err
		}
		h.SamplingInterval = Interval(s)
	case TagSequenceCount:
		if d.seqSet {
			return ErrDuplicateCountTag
		}
		n, err := readCount(r, len(content), math.MaxInt32, "sequence count")
		if err != nil {
			return err
		}
		h.SequenceCount = n
		d.seqSet = true
	case TagChannelCount:
		if d.chnSet {
			return ErrDuplicateCountTag
		}
		n, err := readCount(r, len(content), maxChannels, "channel count")
		if err != nil {
			return err
		}
		h.ChannelCount = n
		d.chnSet = true
	case TagBlockLength:
		n, err := readCount(r, len(content), d.cur.Remaining(), "block length")
		if err != nil {
			return err
		}
		m.defaults.blockLength = n
		d.hasBLK = true
	case TagDataType:
		if len(content) != 1 {
			return fmt.Errorf("%w: data type is %d bytes", ErrMalformedStream, len(content))
		}
		m.defaults.dataType = DataType(content[0])
		d.hasDTP = true
	case TagSensitivity:
		s, err := decodeScale(r)
		if err != nil {
			return err
		}
		m.defaults.sensitivity = s
		d.hasSEN = true
	case TagNull:
		b.raw = content
	case TagChannelAttr:
		if err := d.declareChannel(index, content); err != nil {
			return err
		}
		b.index = index
	case TagWaveform:
		first, count, err := d.decodeSamples(r)
		if err != nil {
			return err
		}
		b.first, b.count = first, count
	case TagEvent:
		ev, err := decodeEvent(r)
		if err != nil {
			return err
		}
		b.first = len(m.events)
		m.events = append(m.events, ev)
	}
	m.layout = append(m.layout, b)
	return nil
}

func (d *Decoder) unknown(tag byte, ext int, content []byte) error {
	if !d.orderSet {
		return fmt.Errorf("%w: unknown tag 0x%02X before byte order", ErrMalformedStream, tag)
	}
	if d.opts.Strict {
		return fmt.Errorf("%w: unknown tag 0x%02X", ErrMalformedStream, tag)
	}
	common.Logf("skipping unknown block 0x%02X (%d bytes)", tag, len(content))
	d.metrics.IncSkipped()
	d.model.layout = append(d.model.layout, block{tag: tag, ext: ext, size: len(content), index: -1, raw: content})
	return nil
}

func (d *Decoder) declareChannel(index int, content []byte) error {
	if d.sealed {
		return fmt.Errorf("%w: channel %d attributes after sample data", ErrMalformedStream, index)
	}
	if index >= d.model.Header.ChannelCount {
		return fmt.Errorf("%w: index %d, %d channels declared", ErrChannelIndexOverflow, index, d.model.Header.ChannelCount)
	}
	if _, dup := d.declared[index]; dup {
		return fmt.Errorf("%w: channel %d declared twice", ErrMalformedStream, index)
	}
	ch := &Channel{Index: index}
	r := NewReader(content, d.cur.ByteOrder())
	for r.Remaining() > 0 {
		tag, _ := r.ReadByte()
		length, ext, err := readLength(r)
		if err != nil {
			return err
		}
		body, err := r.ReadBytes(length)
		if err != nil {
			return err
		}
		a := block{tag: tag, ext: ext, size: length, index: -1}
		br := NewReader(body, d.cur.ByteOrder())
		switch tag {
		case TagLead:
			code, err := br.ReadUint(2)
			if err != nil {
				return err
			}
			ch.Lead = uint16(code)
			ch.label = FixedText(body[2:])
		case TagDataType:
			if length != 1 {
				return fmt.Errorf("%w: channel %d data type is %d bytes", ErrMalformedStream, index, length)
			}
			ch.DataType = DataType(body[0])
		case TagBlockLength:
			n, err := readCount(br, length, d.cur.Remaining(), "block length")
			if err != nil {
				return err
			}
			ch.BlockLength = n
		case TagInterval:
			s, err := decodeScale(br)
			if err != nil {
				return err
			}
			iv := Interval(s)
			ch.Interval = &iv
		case TagSensitivity:
			s, err := decodeScale(br)
			if err != nil {
				return err
			}
			ch.Sensitivity = s
		default:
			if d.opts.Strict {
				return fmt.Errorf("%w: unknown channel attribute 0x%02X", ErrMalformedStream, tag)
			}
			common.Logf("channel %d: keeping unknown attribute 0x%02X (%d bytes)", index, tag, length)
			a.raw = body
		}
		ch.attrs = append(ch.attrs, a)
	}
	d.declared[index] = ch
	return nil
}

// seal builds the channel table once no more attribute blocks may follow.
// Channels without their own attributes take the top-level defaults.
func (d *Decoder) seal() {
	if d.sealed {
		return
	}
	d.sealed = true
	m := d.model
	m.Channels = make([]Channel, m.Header.ChannelCount)
	for i := range m.Channels {
		ch, ok := d.declared[i]
		if !ok {
			ch = &Channel{Index: i}
		}
		d.resolve(ch)
		m.Channels[i] = *ch
	}
}

func (d *Decoder) resolve(ch *Channel) {
	defs := d.model.defaults
	if !ch.declares(TagBlockLength) {
		ch.BlockLength = 1
		if d.hasBLK {
			ch.BlockLength = defs.blockLength
		}
	}
	if !ch.declares(TagDataType) {
		ch.DataType = Int16
		if d.hasDTP {
			ch.DataType = defs.dataType
		}
	}
	info, known := LookupLead(ch.Lead)
	hasSens := ch.declares(TagSensitivity)
	if !hasSens && known && !info.Categorical {
		ch.Sensitivity = info.Sensitivity
		hasSens = true
	}
	if !hasSens && d.hasSEN {
		ch.Sensitivity = defs.sensitivity
		hasSens = true
	}
	ch.Categorical = !hasSens || ch.DataType == Status16 || (known && info.Categorical)

	switch {
	case ch.label.String() != "":
		ch.Name = ch.label.Decode(d.model.Header.Encoding())
	case known:
		ch.Name = info.Name
	case ch.declares(TagLead):
		ch.Name = fmt.Sprintf("Lead 0x%04X", ch.Lead)
	default:
		ch.Name = fmt.Sprintf("Channel %d", ch.Index+1)
	}
}

func (c *Channel) declares(tag byte) bool {
	for _, a := range c.attrs {
		if a.tag == tag {
			return true
		}
	}
	return false
}

func (d *Decoder) decodeSamples(r *Cursor) (int, int, error) {
	d.seal()
	m := d.model
	if len(m.Channels) == 0 {
		return 0, 0, fmt.Errorf("%w: sample data with no channels declared", ErrChannelIndexOverflow)
	}
	frame, err := frameSize(m.Channels)
	if err != nil {
		return 0, 0, err
	}
	if r.Remaining()%frame != 0 {
		return 0, 0, fmt.Errorf("%w: %d bytes with %d byte sequences", ErrTruncatedSampleBlock, r.Remaining(), frame)
	}
	count := r.Remaining() / frame
	first := len(m.Sequences)
	if first+count > m.Header.SequenceCount {
		return 0, 0, fmt.Errorf("%w: sequence %d of %d declared", ErrSequenceOverflow, first+count, m.Header.SequenceCount)
	}
	for s := 0; s < count; s++ {
		seq := Sequence{Samples: make([][]int64, len(m.Channels))}
		for c, ch := range m.Channels {
			words := make([]int64, ch.BlockLength)
			for k := range words {
				v, err := readSample(r, ch.DataType)
				if err != nil {
					return 0, 0, err
				}
				words[k] = v
			}
			seq.Samples[c] = words
		}
		m.Sequences = append(m.Sequences, seq)
	}
	return first, count, nil
}

func frameSize(channels []Channel) (int, error) {
	frame := 0
	for _, ch := range channels {
		w := ch.DataType.Width()
		if w == 0 {
			return 0, fmt.Errorf("%w: channel %d has unknown data type %d", ErrMalformedStream, ch.Index, uint8(ch.DataType))
		}
		frame += w * ch.BlockLength
	}
	if frame == 0 {
		return 0, fmt.Errorf("%w: sequences carry no samples", ErrMalformedStream)
	}
	return frame, nil
}

func readSample(r *Cursor, dt DataType) (int64, error) {
	if dt.Signed() {
		return r.ReadInt(dt.Width())
	}
	v, err := r.ReadUint(dt.Width())
	return int64(v), err
}

func decodeScale(r *Cursor) (Scale, error) {
	var s Scale
	unit, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	exp, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	width := r.Remaining()
	if width == 0 {
		return s, fmt.Errorf("%w: scale without mantissa", ErrOutOfBounds)
	}
	mant, err := r.ReadUint(width)
	if err != nil {
		return s, err
	}
	if mant > math.MaxInt64 {
		return s, fmt.Errorf("%w: mantissa %d out of range", ErrMalformedStream, mant)
	}
	return Scale{Unit: unit, Exponent: int8(exp), Mantissa: int64(mant), width: width}, nil
}

func decodeTimestamp(r *Cursor) (Timestamp, error) {
	var t Timestamp
	size := r.Remaining()
	if size > 7 && size != 9 && size != 11 {
		return t, fmt.Errorf("%w: measurement time is %d bytes", ErrMalformedStream, size)
	}
	year, err := r.ReadUint(2)
	if err != nil {
		return t, err
	}
	t.Year = int(year)
	for _, f := range []*int{&t.Month, &t.Day, &t.Hour, &t.Minute, &t.Second} {
		b, err := r.ReadByte()
		if err != nil {
			return t, err
		}
		*f = int(b)
	}
	if r.Remaining() > 0 {
		ms, _ := r.ReadUint(2)
		t.Millisecond = int(ms)
	}
	if r.Remaining() > 0 {
		us, _ := r.ReadUint(2)
		t.Microsecond = int(us)
	}
	t.width = size
	return t, t.validate()
}

func decodeBirthDate(r *Cursor) (BirthDate, error) {
	var b BirthDate
	if size := r.Remaining(); size > birthDateWidth {
		return b, fmt.Errorf("%w: birth date is %d bytes", ErrMalformedStream, size)
	}
	var err error
	if b.AgeYears, err = r.ReadByte(); err != nil {
		return b, err
	}
	days, err := r.ReadUint(2)
	if err != nil {
		return b, err
	}
	year, err := r.ReadUint(2)
	if err != nil {
		return b, err
	}
	b.AgeDays, b.Year = uint16(days), uint16(year)
	if b.Month, err = r.ReadByte(); err != nil {
		return b, err
	}
	if b.Day, err = r.ReadByte(); err != nil {
		return b, err
	}
	return b, nil
}

func decodeEvent(r *Cursor) (Event, error) {
	ev := Event{Channel: NoChannel}
	code, err := r.ReadUint(2)
	if err != nil {
		return ev, err
	}
	start, err := r.ReadUint(4)
	if err != nil {
		return ev, err
	}
	dur, err := r.ReadUint(2)
	if err != nil {
		return ev, err
	}
	ev.Code, ev.Start, ev.Duration = uint16(code), uint32(start), uint16(dur)
	ev.Info, _ = r.ReadFixedText(r.Remaining())
	return ev, nil
}
