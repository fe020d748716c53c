package mfer

import "fmt"

// Encode serializes m. A decoded model is written back in the block
// order and framing it was read with, so an unmodified model reproduces
// its input byte for byte. A model built in code is written in the
// canonical order.
func Encode(m *Model) ([]byte, error) {
	if !m.Header.ByteOrder.Valid() {
		return nil, fmt.Errorf("%w: byte order %d", ErrMalformedStream, uint8(m.Header.ByteOrder))
	}
	e := &encoder{m: m, w: NewWriter(m.Header.ByteOrder, m.sizeHint())}
	layout := m.layout
	if len(layout) == 0 {
		layout = m.canonicalLayout()
	}
	for _, b := range layout {
		if err := e.block(b); err != nil {
			return nil, err
		}
	}
	e.w.WriteBytes(m.trailer)
	return e.w.Bytes(), nil
}

type encoder struct {
	m *Model
	w *Cursor
}

func (m *Model) sizeHint() int {
	n := 1024 + 64*len(m.Channels)
	if frame, err := frameSize(m.Channels); err == nil {
		n += frame * len(m.Sequences)
	}
	return n
}

// canonicalLayout lists the blocks of a model that was not decoded.
func (m *Model) canonicalLayout() []block {
	h := m.Header
	var out []block
	add := func(tag byte) { out = append(out, block{tag: tag, index: -1}) }
	if h.Preamble != nil {
		add(TagPreamble)
	}
	add(TagByteOrder)
	if h.CharacterCode != nil {
		add(TagCharacterCode)
	}
	if h.ModelInfo != nil {
		add(TagModelInfo)
	}
	if h.WaveformType != 0 {
		add(TagWaveformType)
	}
	add(TagPatientID)
	add(TagPatientName)
	add(TagBirthDate)
	add(TagSex)
	if !h.MeasurementTime.IsZero() {
		add(TagMeasuredTime)
	}
	add(TagInterval)
	add(TagChannelCount)
	add(TagSequenceCount)
	for _, ch := range m.Channels {
		out = append(out, block{tag: TagChannelAttr, index: ch.Index})
	}
	for i := range m.Sequences {
		out = append(out, block{tag: TagWaveform, index: -1, first: i, count: 1})
	}
	for i := range m.events {
		out = append(out, block{tag: TagEvent, index: -1, first: i})
	}
	add(TagEnd)
	return out
}

func (e *encoder) block(b block) error {
	if b.tag == TagEnd {
		return e.w.WriteByte(TagEnd)
	}
	body, err := e.content(b)
	if err != nil {
		return fmt.Errorf("encode %s: %w", TagName(b.tag), err)
	}
	return writeFrame(e.w, b.tag, b.index, b.ext, body)
}

// writeFrame writes tag, the channel index for attribute blocks, the
// length and the value. ext keeps a long form length of that width.
func writeFrame(w *Cursor, tag byte, index, ext int, body []byte) error {
	w.WriteByte(tag)
	if tag == TagChannelAttr {
		if index < 0 || index > 0xFF {
			return fmt.Errorf("%w: channel index %d", ErrChannelIndexOverflow, index)
		}
		w.WriteByte(byte(index))
	}
	n := len(body)
	if ext == 0 && n < 0x80 {
		w.WriteByte(byte(n))
	} else {
		width := minWidth(uint64(n))
		if ext > width {
			width = ext
		}
		if width > maxLengthBytes {
			return fmt.Errorf("%w: block of %d bytes", ErrMalformedStream, n)
		}
		w.WriteByte(0x80 | byte(width))
		w.buf = appendUint(w.buf, uint64(n), width, BigEndian)
	}
	w.WriteBytes(body)
	return nil
}

func (e *encoder) sub() *Cursor {
	return NewWriter(e.m.Header.ByteOrder, 16)
}

func (e *encoder) content(b block) ([]byte, error) {
	m := e.m
	h := &m.Header
	switch b.tag {
	case TagPreamble:
		return h.Preamble, nil
	case TagByteOrder:
		return []byte{byte(h.ByteOrder)}, nil
	case TagCharacterCode:
		return h.CharacterCode, nil
	case TagModelInfo:
		return h.ModelInfo, nil
	case TagWaveformType:
		return []byte{h.WaveformType}, nil
	case TagMeasuredTime:
		return e.timestamp(h.MeasurementTime)
	case TagPatientID:
		return h.Patient.ID, nil
	case TagPatientName:
		return h.Patient.Name, nil
	case TagBirthDate:
		return e.birthDate(h.Patient.BirthDate), nil
	case TagSex:
		return []byte{byte(h.Patient.Sex)}, nil
	case TagInterval:
		return e.scale(Scale(h.SamplingInterval))
	case TagSequenceCount:
		return e.count(h.SequenceCount, b.size)
	case TagChannelCount:
		return e.count(h.ChannelCount, b.size)
	case TagBlockLength:
		return e.count(m.defaults.blockLength, b.size)
	case TagDataType:
		return []byte{byte(m.defaults.dataType)}, nil
	case TagSensitivity:
		return e.scale(m.defaults.sensitivity)
	case TagChannelAttr:
		ch, ok := m.channel(b.index)
		if !ok {
			return nil, fmt.Errorf("%w: no channel %d", ErrChannelIndexOverflow, b.index)
		}
		return e.channel(ch)
	case TagWaveform:
		return e.samples(b.first, b.count)
	case TagEvent:
		if b.first >= len(m.events) {
			return nil, fmt.Errorf("%w: no event %d", ErrMalformedStream, b.first)
		}
		return e.event(m.events[b.first])
	}
	return b.raw, nil
}

func (m *Model) channel(index int) (Channel, bool) {
	if index >= 0 && index < len(m.Channels) && m.Channels[index].Index == index {
		return m.Channels[index], true
	}
	for _, ch := range m.Channels {
		if ch.Index == index {
			return ch, true
		}
	}
	return Channel{}, false
}

func (e *encoder) count(v, size int) ([]byte, error) {
	if v < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrMalformedStream, v)
	}
	width := size
	if width < 1 || width > 8 || (width < 8 && uint64(v)>>(8*uint(width)) != 0) {
		width = minWidth(uint64(v))
	}
	w := e.sub()
	if err := w.WriteUint(uint64(v), width); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (e *encoder) scale(s Scale) ([]byte, error) {
	if s.Mantissa < 0 {
		return nil, fmt.Errorf("%w: negative mantissa %d", ErrMalformedStream, s.Mantissa)
	}
	width := s.mantissaWidth()
	if width < 8 && uint64(s.Mantissa)>>(8*uint(width)) != 0 {
		width = minWidth(uint64(s.Mantissa))
	}
	w := e.sub()
	w.WriteByte(s.Unit)
	w.WriteByte(byte(s.Exponent))
	if err := w.WriteUint(uint64(s.Mantissa), width); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (e *encoder) timestamp(t Timestamp) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	width := t.width
	if width == 0 {
		width = 7
		if t.Millisecond != 0 {
			width = 9
		}
		if t.Microsecond != 0 {
			width = 11
		}
	}
	w := e.sub()
	if err := w.WriteUint(uint64(t.Year), 2); err != nil {
		return nil, err
	}
	for _, f := range []int{t.Month, t.Day, t.Hour, t.Minute, t.Second} {
		w.WriteByte(byte(f))
	}
	if width >= 9 {
		if err := w.WriteUint(uint64(t.Millisecond), 2); err != nil {
			return nil, err
		}
	}
	if width >= 11 {
		if err := w.WriteUint(uint64(t.Microsecond), 2); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func (e *encoder) birthDate(b BirthDate) []byte {
	return encodeBirthDate(b, e.m.Header.ByteOrder)
}

// encodeBirthDate lays out the fixed seven byte field. Every part is at
// most 16 bits wide so it cannot fail.
func encodeBirthDate(b BirthDate, order ByteOrder) []byte {
	out := make([]byte, 0, birthDateWidth)
	out = append(out, b.AgeYears)
	out = appendUint(out, uint64(b.AgeDays), 2, order)
	out = appendUint(out, uint64(b.Year), 2, order)
	return append(out, b.Month, b.Day)
}

func (e *encoder) channel(ch Channel) ([]byte, error) {
	attrs := ch.attrs
	if attrs == nil {
		attrs = canonicalAttrs(ch)
	}
	w := e.sub()
	for _, a := range attrs {
		var body []byte
		var err error
		switch a.tag {
		case TagLead:
			lw := e.sub()
			if err := lw.WriteUint(uint64(ch.Lead), 2); err != nil {
				return nil, err
			}
			lw.WriteBytes(ch.label)
			body = lw.Bytes()
		case TagDataType:
			body = []byte{byte(ch.DataType)}
		case TagBlockLength:
			body, err = e.count(ch.BlockLength, a.size)
		case TagInterval:
			if ch.Interval == nil {
				return nil, fmt.Errorf("%w: channel %d lost its interval", ErrMalformedStream, ch.Index)
			}
			body, err = e.scale(Scale(*ch.Interval))
		case TagSensitivity:
			body, err = e.scale(ch.Sensitivity)
		default:
			body = a.raw
		}
		if err != nil {
			return nil, err
		}
		if err := writeFrame(w, a.tag, -1, a.ext, body); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

func canonicalAttrs(ch Channel) []block {
	var out []block
	if ch.Lead != 0 {
		out = append(out, block{tag: TagLead})
	}
	out = append(out, block{tag: TagDataType}, block{tag: TagBlockLength})
	if !ch.Categorical {
		out = append(out, block{tag: TagSensitivity})
	}
	if ch.Interval != nil {
		out = append(out, block{tag: TagInterval})
	}
	return out
}

func (e *encoder) samples(first, count int) ([]byte, error) {
	m := e.m
	if first < 0 || count < 1 || first+count > len(m.Sequences) {
		return nil, fmt.Errorf("%w: sequences %d..%d of %d", ErrMalformedStream, first, first+count, len(m.Sequences))
	}
	frame, err := frameSize(m.Channels)
	if err != nil {
		return nil, err
	}
	w := NewWriter(m.Header.ByteOrder, frame*count)
	for _, seq := range m.Sequences[first : first+count] {
		if err := m.checkSequence(seq); err != nil {
			return nil, err
		}
		for c, ch := range m.Channels {
			width := ch.DataType.Width()
			for k, v := range seq.Samples[c] {
				if ch.DataType.Signed() {
					err = w.WriteInt(v, width)
				} else if v < 0 && width < 8 {
					err = fmt.Errorf("%w: negative value %d for %s", ErrMalformedStream, v, ch.DataType)
				} else {
					err = w.WriteUint(uint64(v), width)
				}
				if err != nil {
					return nil, fmt.Errorf("channel %d sample %d: %w", c, k, err)
				}
			}
		}
	}
	return w.Bytes(), nil
}

func (e *encoder) event(ev Event) ([]byte, error) {
	w := e.sub()
	if err := w.WriteUint(uint64(ev.Code), 2); err != nil {
		return nil, err
	}
	if err := w.WriteUint(uint64(ev.Start), 4); err != nil {
		return nil, err
	}
	if err := w.WriteUint(uint64(ev.Duration), 2); err != nil {
		return nil, err
	}
	w.WriteBytes(ev.Info)
	return w.Bytes(), nil
}
