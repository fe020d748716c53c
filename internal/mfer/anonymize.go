package mfer

// PatientField is the encoded value of one identifying header field.
type PatientField struct {
	Name  string
	Tag   byte
	Bytes []byte
}

// Fields returns the patient fields as they appear on the wire.
func (p PatientInfo) Fields(order ByteOrder) []PatientField {
	return []PatientField{
		{Name: "patientID", Tag: TagPatientID, Bytes: append([]byte(nil), p.ID...)},
		{Name: "patientName", Tag: TagPatientName, Bytes: append([]byte(nil), p.Name...)},
		{Name: "birthDate", Tag: TagBirthDate, Bytes: encodeBirthDate(p.BirthDate, order)},
		{Name: "sex", Tag: TagSex, Bytes: []byte{byte(p.Sex)}},
	}
}

// Anonymize blanks the patient identity in place. Text fields keep their
// width and are zero filled, the birth date becomes the unknown sentinel
// and sex becomes unknown. Nothing else in the model changes, and calling
// it twice is the same as calling it once.
func Anonymize(m *Model) {
	p := &m.Header.Patient
	if p.ID != nil {
		p.ID = make(FixedText, len(p.ID))
	}
	if p.Name != nil {
		p.Name = make(FixedText, len(p.Name))
	}
	p.BirthDate = UnknownBirthDate()
	p.Sex = SexUnknown
}
