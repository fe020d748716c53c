package mfer

import "fmt"

// Top-level block tags.
const (
	TagPreamble      byte = 0x40
	TagByteOrder     byte = 0x01
	TagCharacterCode byte = 0x03
	TagModelInfo     byte = 0x17
	TagWaveformType  byte = 0x08
	TagMeasuredTime  byte = 0x85
	TagPatientID     byte = 0x82
	TagPatientName   byte = 0x81
	TagBirthDate     byte = 0x83
	TagSex           byte = 0x84
	TagInterval      byte = 0x0B
	TagSequenceCount byte = 0x06
	TagChannelCount  byte = 0x05
	TagBlockLength   byte = 0x04
	TagDataType      byte = 0x0A
	TagSensitivity   byte = 0x0C
	TagNull          byte = 0x12
	TagChannelAttr   byte = 0x3F
	TagWaveform      byte = 0x1E
	TagEvent         byte = 0x41
	TagEnd           byte = 0x80
	TagLead          byte = 0x09 // only inside a channel attribute block
)

var tagNames = map[byte]string{
	TagPreamble:      "PRE",
	TagByteOrder:     "BLE",
	TagCharacterCode: "TXC",
	TagModelInfo:     "MAN",
	TagWaveformType:  "WFM",
	TagMeasuredTime:  "TIM",
	TagPatientID:     "PID",
	TagPatientName:   "PNM",
	TagBirthDate:     "AGE",
	TagSex:           "SEX",
	TagInterval:      "IVL",
	TagSequenceCount: "SEQ",
	TagChannelCount:  "CHN",
	TagBlockLength:   "BLK",
	TagDataType:      "DTP",
	TagSensitivity:   "SEN",
	TagNull:          "NUL",
	TagChannelAttr:   "ATT",
	TagWaveform:      "WAV",
	TagEvent:         "EVT",
	TagEnd:           "END",
	TagLead:          "LDN",
}

// TagName returns the three letter mnemonic for a tag.
func TagName(tag byte) string {
	if n, ok := tagNames[tag]; ok {
		return n
	}
	return fmt.Sprintf("0x%02X", tag)
}

// orderSensitive reports whether decoding the block needs an established
// byte order.
func orderSensitive(tag byte) bool {
	switch tag {
	case TagPreamble, TagByteOrder, TagCharacterCode, TagModelInfo,
		TagWaveformType, TagPatientID, TagPatientName, TagSex, TagDataType, TagEnd:
		return false
	}
	return true
}

// DataType is the storage type of one sample word.
type DataType uint8

const (
	Int16    DataType = 0x00
	Uint16   DataType = 0x01
	Int32    DataType = 0x02
	Uint8    DataType = 0x03
	Status16 DataType = 0x04
	Int8     DataType = 0x05
	Uint32   DataType = 0x06
	Float32  DataType = 0x07
	Float64  DataType = 0x08
	AHA8     DataType = 0x09
)

// Width returns the sample size in bytes, or 0 for unknown types.
func (t DataType) Width() int {
	switch t {
	case Int8, Uint8, AHA8:
		return 1
	case Int16, Uint16, Status16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// Signed reports whether raw words of this type are sign extended.
func (t DataType) Signed() bool {
	return t == Int16 || t == Int32 || t == Int8
}

// Float reports whether raw words hold IEEE-754 bit patterns.
func (t DataType) Float() bool {
	return t == Float32 || t == Float64
}

func (t DataType) String() string {
	switch t {
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint8:
		return "uint8"
	case Status16:
		return "status16"
	case Int8:
		return "int8"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case AHA8:
		return "aha8"
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

var unitNames = map[uint8]string{
	0:  "V",
	1:  "mmHg",
	2:  "Pa",
	3:  "cmH₂O",
	4:  "mmHg/s",
	5:  "dyne",
	6:  "N",
	7:  "%",
	8:  "°C",
	9:  "1/min",
	10: "1/s",
	11: "Ω",
	12: "A",
	13: "rpm",
	14: "W",
	15: "dB",
	16: "kg",
	17: "J",
	18: "dyne·s·m⁻²·cm⁻⁵",
	19: "L",
	20: "L/s",
	21: "L/min",
	22: "cd",
}

// UnitName returns the symbol of a sensitivity unit code.
func UnitName(code uint8) string {
	if n, ok := unitNames[code]; ok {
		return n
	}
	return fmt.Sprintf("unit#%d", code)
}

// Sampling interval unit codes.
const (
	IntervalHertz   uint8 = 0
	IntervalSeconds uint8 = 1
	IntervalMeters  uint8 = 2
)

func intervalUnitName(code uint8) string {
	switch code {
	case IntervalHertz:
		return "Hz"
	case IntervalSeconds:
		return "s"
	case IntervalMeters:
		return "m"
	}
	return fmt.Sprintf("unit#%d", code)
}
