package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/mfer"
	"example.com/mwfgate/internal/report"
	"example.com/mwfgate/internal/samples"
)

func sampleReport(t *testing.T) report.Report {
	t.Helper()
	data := samples.BuildRecording(mfer.LittleEndian)
	m, err := mfer.Decode(data)
	require.NoError(t, err)
	m.AddEvent(mfer.Event{Code: 0x0102, Start: 8, Duration: 2, Info: mfer.FixedText("alarm"), Channel: mfer.NoChannel})
	m.AddEvent(mfer.Event{Code: 0x0101, Start: 2, Channel: mfer.NoChannel})
	return report.Build(samples.RecordingFileName, common.Sha256OfBytes(data), m)
}

func TestBuild(t *testing.T) {
	rep := sampleReport(t)
	assert.Equal(t, samples.RecordingFileName, rep.Source)
	assert.Len(t, rep.SourceSHA256, 64)
	assert.Equal(t, samples.PatientID, rep.Header.PatientID)
	assert.Len(t, rep.Header.Channels, samples.ChannelCount)
	assert.InDelta(t, 0.048, rep.DurationSeconds, 1e-9)

	require.Len(t, rep.Events, 2)
	assert.Equal(t, uint16(0x0101), rep.Events[0].Code)
	assert.InDelta(t, 0.002, rep.Events[0].StartSec, 1e-12)
	assert.Equal(t, "alarm", rep.Events[1].Info)
}

func TestJSONRoundTrip(t *testing.T) {
	rep := sampleReport(t)
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.SaveJSON(rep, path))
	loaded, err := report.LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, rep.SourceSHA256, loaded.SourceSHA256)
	assert.Equal(t, rep.Header, loaded.Header)
	assert.Equal(t, rep.Events, loaded.Events)
	assert.True(t, rep.GeneratedAt.Equal(loaded.GeneratedAt))

	_, err = report.LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSavePDF(t *testing.T) {
	rep := sampleReport(t)
	for _, lang := range []report.Language{report.LangEnglish, report.LangGerman} {
		t.Run(string(lang), func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "report.pdf")
			require.NoError(t, report.SavePDF(rep, out, lang))
			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
		})
	}

	empty := rep
	empty.Events = nil
	empty.SourceSHA256 = ""
	out := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, report.SavePDF(empty, out, report.LangEnglish))

	assert.ErrorIs(t, report.SavePDF(rep, out, report.Language("xx")), report.ErrUnsupportedLanguage)
}

func TestDigestToQR(t *testing.T) {
	png, err := report.DigestToQR("  ab12-cd34 ", 64)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	_, err = report.DigestToQR("zz--", 64)
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	lang, err := report.ParseLanguage("Deutsch")
	require.NoError(t, err)
	assert.Equal(t, report.LangGerman, lang)
	lang, err = report.ParseLanguage("")
	require.NoError(t, err)
	assert.Equal(t, report.LangEnglish, lang)
	_, err = report.ParseLanguage("tr")
	assert.ErrorIs(t, err, report.ErrUnsupportedLanguage)

	de, err := report.NewLabels(report.LangGerman)
	require.NoError(t, err)
	assert.Equal(t, report.LangGerman, de.Lang())
	assert.Equal(t, "Ereignisse", de.T("section.events"))
	assert.Equal(t, "1.500 s", de.Format("duration.seconds", 1.5))
	assert.Equal(t, "no.such.key", de.T("no.such.key"))
}
