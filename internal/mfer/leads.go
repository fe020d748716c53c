package mfer

// Lead codes carried by the LDN attribute of a channel.
const (
	LeadPacingStatus    uint16 = 0x1040
	LeadPacingBodyPos   uint16 = 0x1041
	LeadPacingBodyMvmnt uint16 = 0x1042
	LeadPacingResp      uint16 = 0x1043
	LeadPacingIRW       uint16 = 0x00A0
	LeadPacingBP        uint16 = 0x008F
	LeadPacingSpO2      uint16 = 0x00AF
	LeadPacingECG1      uint16 = 0x1046
	LeadPacingECG2      uint16 = 0x1047
	LeadPacingECG3      uint16 = 0x1048
	LeadPacingECG4      uint16 = 0x1049
	LeadECGI            uint16 = 0x0001
	LeadECGII           uint16 = 0x0002
	LeadECGIII          uint16 = 0x003D
	LeadECGAVR          uint16 = 0x003E
	LeadECGAVL          uint16 = 0x003F
	LeadECGAVF          uint16 = 0x0040
	LeadECGV1           uint16 = 0x0003
	LeadECGV2           uint16 = 0x0004
	LeadECGV3           uint16 = 0x0005
	LeadECGV4           uint16 = 0x0006
	LeadECGV5           uint16 = 0x0007
	LeadECGV6           uint16 = 0x0008
	LeadECGV            uint16 = 0xC000
	LeadECGMCL          uint16 = 0x005B
	LeadECGTrace1       uint16 = 0xC003
	LeadECGTrace2       uint16 = 0xC004
	LeadResp            uint16 = 0xC005
	LeadRespImp         uint16 = 0xC006
	LeadRespTherm       uint16 = 0xC007
	LeadSpO2            uint16 = 0xC008
	LeadSpO2Second      uint16 = 0xC009
	LeadART             uint16 = 0xC00A
	LeadART2            uint16 = 0xC00B
	LeadRAD             uint16 = 0xC00C
	LeadDORS            uint16 = 0xC00D
	LeadAO              uint16 = 0xC00E
	LeadFEM             uint16 = 0xC00F
	LeadUA              uint16 = 0xC010
	LeadUV              uint16 = 0xC011
	LeadPAP             uint16 = 0xC012
	LeadCVP             uint16 = 0xC013
	LeadRAP             uint16 = 0xC014
	LeadRVP             uint16 = 0xC015
	LeadLAP             uint16 = 0xC016
	LeadLVP             uint16 = 0xC017
	LeadICP             uint16 = 0xC018
	LeadICP2            uint16 = 0xC019
	LeadICP3            uint16 = 0xC01A
	LeadICP4            uint16 = 0xC01B
	LeadPress           uint16 = 0xC01C
	LeadPress2          uint16 = 0xC01D
	LeadPress3          uint16 = 0xC01E
	LeadPress4          uint16 = 0xC01F
	LeadPress5          uint16 = 0xC020
	LeadPress6          uint16 = 0xC021
	LeadPress7          uint16 = 0xC022
	LeadPress8          uint16 = 0xC023
	LeadCO2             uint16 = 0xC024
	LeadFiO2            uint16 = 0xC025
	LeadFlow1           uint16 = 0xC026
	LeadFlow2           uint16 = 0xC027
	LeadPAW             uint16 = 0xC028
	LeadVent1           uint16 = 0xC029
	LeadVent2           uint16 = 0xC02A
	LeadVent3           uint16 = 0xC02B
	LeadAnes1           uint16 = 0xC02C
	LeadAnes2           uint16 = 0xC02D
	LeadAnes3           uint16 = 0xC02E
	LeadAnes4           uint16 = 0xC02F
	LeadAnes5           uint16 = 0xC030
	LeadAnes6           uint16 = 0xC031
	LeadAnes7           uint16 = 0xC032
	LeadBIS             uint16 = 0xC033
	LeadExt9000A        uint16 = 0xC034
	LeadExt9000B        uint16 = 0xC035
	LeadExt9000C        uint16 = 0xC036
	LeadExt9000D        uint16 = 0xC037
	LeadEEG             uint16 = 0xC038
	LeadEEG2            uint16 = 0xC039
	LeadPiCCO           uint16 = 0xC03A
	LeadEEG3            uint16 = 0xC03B
	LeadEEG4            uint16 = 0xC03C
	LeadEEG5            uint16 = 0xC03D
	LeadEEG6            uint16 = 0xC03E
	LeadEEG7            uint16 = 0xC03F
	LeadEEG8            uint16 = 0xC040
)

// LeadInfo describes how a lead is labelled and scaled when the recording
// does not say otherwise.
type LeadInfo struct {
	Name        string
	Sensitivity Scale
	Categorical bool // status codes rather than physical values
}

var leadTable = map[uint16]LeadInfo{
	LeadPacingStatus:    {Name: "Pacing Status", Categorical: true},
	LeadPacingBodyPos:   {Name: "Pacing Body Position", Categorical: true},
	LeadPacingBodyMvmnt: {Name: "Pacing Body Movement", Categorical: true},
	LeadPacingResp:      {Name: "Pacing Respiration", Categorical: true},
	LeadPacingIRW:       {Name: "Pacing Impedance Respiration Waveform", Categorical: true},
	LeadPacingBP:        {Name: "Pacing Blood Pressure", Categorical: true},
	LeadPacingSpO2:      {Name: "Pacing SpO2", Categorical: true},
	LeadPacingECG1:      {Name: "Pacing ECG1", Categorical: true},
	LeadPacingECG2:      {Name: "Pacing ECG2", Categorical: true},
	LeadPacingECG3:      {Name: "Pacing ECG3", Categorical: true},
	LeadPacingECG4:      {Name: "Pacing ECG4", Categorical: true},
	LeadECGI:            {Name: "ECG I", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGII:           {Name: "ECG II", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGIII:          {Name: "ECG III", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGAVR:          {Name: "ECG AVR", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGAVL:          {Name: "ECG AVL", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGAVF:          {Name: "ECG AVF", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGV1:           {Name: "ECG V1", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGV2:           {Name: "ECG V2", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGV3:           {Name: "ECG V3", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGV4:           {Name: "ECG V4", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGV5:           {Name: "ECG V5", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGV6:           {Name: "ECG V6", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGV:            {Name: "ECG V", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGMCL:          {Name: "ECG MCL", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGTrace1:       {Name: "ECG Trace 1", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadECGTrace2:       {Name: "ECG Trace 2", Sensitivity: Scale{Unit: 0, Exponent: -6, Mantissa: 2}},
	LeadResp:            {Name: "Respiration", Sensitivity: Scale{Unit: 11, Exponent: -4, Mantissa: 25}},
	LeadRespImp:         {Name: "Impedance Respiration", Sensitivity: Scale{Unit: 11, Exponent: -4, Mantissa: 25}},
	LeadRespTherm:       {Name: "Thermistor Respiration", Sensitivity: Scale{Unit: 11, Exponent: -4, Mantissa: 25}},
	LeadSpO2:            {Name: "SpO₂", Sensitivity: Scale{Unit: 7, Exponent: -7, Mantissa: 6105}},
	LeadSpO2Second:      {Name: "SpO₂-2", Sensitivity: Scale{Unit: 7, Exponent: -7, Mantissa: 6105}},
	LeadART:             {Name: "ART", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadART2:            {Name: "ART-2", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadRAD:             {Name: "RAD", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadDORS:            {Name: "DORS", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadAO:              {Name: "AO", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadFEM:             {Name: "FEM", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadUA:              {Name: "UA", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadUV:              {Name: "UV", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPAP:             {Name: "PAP", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadCVP:             {Name: "CVP", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadRAP:             {Name: "RAP", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadRVP:             {Name: "RVP", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadLAP:             {Name: "LAP", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadLVP:             {Name: "LVP", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadICP:             {Name: "ICP", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadICP2:            {Name: "ICP-2", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadICP3:            {Name: "ICP-3", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadICP4:            {Name: "ICP-4", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress:           {Name: "Press", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress2:          {Name: "Press-2", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress3:          {Name: "Press-3", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress4:          {Name: "Press-4", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress5:          {Name: "Press-5", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress6:          {Name: "Press-6", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress7:          {Name: "Press-7", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadPress8:          {Name: "Press-8", Sensitivity: Scale{Unit: 1, Exponent: -3, Mantissa: 125}},
	LeadCO2:             {Name: "CO₂", Sensitivity: Scale{Unit: 1, Exponent: -1, Mantissa: 1}},
	LeadFiO2:            {Name: "FiO₂", Sensitivity: Scale{Unit: 7, Exponent: -2, Mantissa: 1}},
	LeadFlow1:           {Name: "Flow", Sensitivity: Scale{Unit: 19, Exponent: -3, Mantissa: 1}},
	LeadFlow2:           {Name: "Flow", Sensitivity: Scale{Unit: 19, Exponent: -3, Mantissa: 1}},
	LeadPAW:             {Name: "PAW", Sensitivity: Scale{Unit: 3, Exponent: -2, Mantissa: 1}},
	LeadVent1:           {Name: "Ventilator", Sensitivity: Scale{Unit: 1, Exponent: -1, Mantissa: 1}},
	LeadVent2:           {Name: "Ventilator", Sensitivity: Scale{Unit: 19, Exponent: -3, Mantissa: 1}},
	LeadVent3:           {Name: "Ventilator", Sensitivity: Scale{Unit: 3, Exponent: -2, Mantissa: 1}},
	LeadAnes1:           {Name: "Anesthesia", Sensitivity: Scale{Unit: 1, Exponent: -1, Mantissa: 1}},
	LeadAnes2:           {Name: "Anesthesia", Sensitivity: Scale{Unit: 7, Exponent: -2, Mantissa: 1}},
	LeadAnes3:           {Name: "Anesthesia", Sensitivity: Scale{Unit: 7, Exponent: 0, Mantissa: 1}},
	LeadAnes4:           {Name: "Anesthesia", Sensitivity: Scale{Unit: 7, Exponent: -2, Mantissa: 1}},
	LeadAnes5:           {Name: "Anesthesia", Sensitivity: Scale{Unit: 19, Exponent: -3, Mantissa: 1}},
	LeadAnes6:           {Name: "Anesthesia", Sensitivity: Scale{Unit: 3, Exponent: -2, Mantissa: 1}},
	LeadAnes7:           {Name: "Anesthesia", Sensitivity: Scale{Unit: 7, Exponent: -2, Mantissa: 1}},
	LeadBIS:             {Name: "BIS", Sensitivity: Scale{Unit: 0, Exponent: -7, Mantissa: 1}},
	LeadExt9000A:        {Name: "External-9000", Sensitivity: Scale{Unit: 0, Exponent: -7, Mantissa: 3125}},
	LeadExt9000B:        {Name: "External-9000", Sensitivity: Scale{Unit: 0, Exponent: -7, Mantissa: 3125}},
	LeadExt9000C:        {Name: "External-9000", Sensitivity: Scale{Unit: 0, Exponent: -7, Mantissa: 3125}},
	LeadExt9000D:        {Name: "External-9000", Sensitivity: Scale{Unit: 0, Exponent: -7, Mantissa: 3125}},
	LeadEEG:             {Name: "EEG", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
	LeadEEG2:            {Name: "EEG-2", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
	LeadPiCCO:           {Name: "PiCCO", Sensitivity: Scale{Unit: 1, Exponent: -2, Mantissa: 1}},
	LeadEEG3:            {Name: "EEG-3", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
	LeadEEG4:            {Name: "EEG-4", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
	LeadEEG5:            {Name: "EEG-5", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
	LeadEEG6:            {Name: "EEG-6", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
	LeadEEG7:            {Name: "EEG-7", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
	LeadEEG8:            {Name: "EEG-8", Sensitivity: Scale{Unit: 0, Exponent: -9, Mantissa: 125}},
}

// LookupLead returns the table entry for code.
func LookupLead(code uint16) (LeadInfo, bool) {
	info, ok := leadTable[code]
	return info, ok
}
