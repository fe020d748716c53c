package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/manifest"
	"example.com/mwfgate/internal/recording"
	"example.com/mwfgate/internal/report"
)

var errRoundTripMismatch = errors.New("re-encoded header differs from input")

func (a *app) infoCmd(args []string) error {
	fs := a.flags("info")
	in := fs.String("in", "", "input waveform file")
	jsonOut := fs.String("json", "", "write the header report as JSON")
	strict := fs.Bool("strict", a.cfg.Strict, "reject unknown blocks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return required("--in")
	}
	rec, err := recording.Load(*in, recording.LoadOptions{Strict: *strict})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%-18s %s\n", "SHA-256:", rec.SourceSHA256())
	fmt.Fprint(a.stdout, rec.Header().String())
	if *jsonOut != "" {
		if err := report.SaveJSON(report.Build(*in, rec.SourceSHA256(), rec.Model), *jsonOut); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		fmt.Fprintln(a.stdout, "Wrote", *jsonOut)
	}
	return nil
}

func (a *app) anonymizeCmd(args []string) error {
	fs := a.flags("anonymize")
	in := fs.String("in", "", "input waveform file")
	out := fs.String("out", "", "anonymized output file")
	auditPath := fs.String("audit", a.cfg.AuditLog, "audit log output (jsonl)")
	strict := fs.Bool("strict", a.cfg.Strict, "reject unknown blocks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return required("--in", "--out")
	}
	logPath := *auditPath
	if logPath == "" {
		logPath = *out + ".audit.jsonl"
	}
	audit := common.NewAuditLog(logPath)
	rec, err := recording.Load(*in, recording.LoadOptions{Strict: *strict, AuditLog: audit})
	if err != nil {
		return err
	}
	if err := rec.Anonymize(); err != nil {
		return err
	}
	if err := rec.WriteBinary(*out); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Wrote", *out)
	fmt.Fprintln(a.stdout, "Audit log:", audit.Path())
	return nil
}

func (a *app) csvCmd(args []string) error {
	fs := a.flags("csv")
	in := fs.String("in", "", "input waveform file")
	out := fs.String("out", "", "output CSV file")
	channels := fs.String("channels", "", "comma-separated channel indexes to export (default all)")
	start := fs.Int("start", 0, "first sample index")
	end := fs.Int("end", 0, "sample index after the last exported sample")
	startSec := fs.Float64("start-sec", 0, "interval start in seconds")
	endSec := fs.Float64("end-sec", 0, "interval end in seconds")
	strict := fs.Bool("strict", a.cfg.Strict, "reject unknown blocks")
	progressFlag := fs.Bool("progress", false, "display export progress updates")
	metricsFlag := fs.Bool("metrics", false, "print decode and export metrics")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return required("--in", "--out")
	}
	set := flagsSet(fs)
	if (set["start"] || set["end"]) && (set["start-sec"] || set["end-sec"]) {
		return fmt.Errorf("%w: --start/--end and --start-sec/--end-sec cannot be combined", errUsage)
	}

	var metrics *common.Metrics
	if *progressFlag || *metricsFlag {
		metrics = common.NewMetrics()
	}
	var stopProgress func()
	if *progressFlag {
		stopProgress = common.StartProgressPrinter(a.stderr, metrics, a.cfg.ProgressInterval)
	}
	err := exportCSV(*in, *out, *strict, metrics, func(rec *recording.Recording) error {
		if *channels != "" {
			if err := selectChannels(rec, splitList(*channels)); err != nil {
				return err
			}
		}
		total := rec.Model.TotalSamples()
		switch {
		case set["start-sec"] || set["end-sec"]:
			last := *endSec
			if !set["end-sec"] {
				last = rec.Model.Duration()
			}
			return rec.SetIntervalSeconds(*startSec, last)
		case set["start"] || set["end"]:
			last := *end
			if !set["end"] {
				last = total
			}
			return rec.SetIntervalSelection(*start, last)
		}
		return nil
	})
	if stopProgress != nil {
		stopProgress()
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Wrote", *out)
	if *metricsFlag {
		snap := metrics.Snapshot()
		fmt.Fprintf(a.stdout, "Metrics: duration=%s blocks=%d skipped=%d decoded=%s rows=%d\n",
			snap.Duration.Round(10*time.Millisecond),
			snap.Blocks,
			snap.Skipped,
			common.FormatBytes(snap.Bytes),
			snap.Rows,
		)
	}
	return nil
}

func exportCSV(in, out string, strict bool, metrics *common.Metrics, configure func(*recording.Recording) error) error {
	rec, err := recording.Load(in, recording.LoadOptions{Strict: strict, Metrics: metrics})
	if err != nil {
		return err
	}
	if configure != nil {
		if err := configure(rec); err != nil {
			return err
		}
	}
	return rec.WriteCSV(out)
}

func selectChannels(rec *recording.Recording, indexes []string) error {
	keep := make(map[int]bool)
	for _, s := range indexes {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: bad channel index %q", errUsage, s)
		}
		keep[n] = true
	}
	for n := range keep {
		if err := rec.SetChannelSelection(n, true); err != nil {
			return err
		}
	}
	for i := range rec.Model.Channels {
		if !keep[i] {
			if err := rec.SetChannelSelection(i, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) roundtripCmd(args []string) error {
	fs := a.flags("roundtrip")
	in := fs.String("in", "", "input waveform file")
	out := fs.String("out", "", "re-encoded output file")
	strict := fs.Bool("strict", a.cfg.Strict, "reject unknown blocks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return required("--in", "--out")
	}
	rec, err := recording.Load(*in, recording.LoadOptions{Strict: *strict})
	if err != nil {
		return err
	}
	if err := rec.WriteBinary(*out); err != nil {
		return err
	}
	again, err := recording.Load(*out, recording.LoadOptions{Strict: *strict})
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if rec.Header().String() != again.Header().String() {
		return errRoundTripMismatch
	}
	fmt.Fprintln(a.stdout, "Wrote", *out)
	fmt.Fprintf(a.stdout, "Input SHA256:  %s\n", rec.SourceSHA256())
	fmt.Fprintf(a.stdout, "Output SHA256: %s\n", again.SourceSHA256())
	if rec.SourceSHA256() == again.SourceSHA256() {
		fmt.Fprintln(a.stdout, "Byte-identical: yes")
	} else {
		fmt.Fprintln(a.stdout, "Byte-identical: no (headers match)")
	}
	return nil
}

func (a *app) reportCmd(args []string) error {
	fs := a.flags("report")
	in := fs.String("in", "", "input waveform file")
	pdfPath := fs.String("pdf", "", "output report PDF")
	jsonPath := fs.String("json", "", "output report JSON")
	langFlag := fs.String("lang", a.cfg.Lang, "report language (en, de)")
	strict := fs.Bool("strict", a.cfg.Strict, "reject unknown blocks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || (*pdfPath == "" && *jsonPath == "") {
		return required("--in", "--pdf or --json")
	}
	lang, err := report.ParseLanguage(*langFlag)
	if err != nil {
		return err
	}
	rec, err := recording.Load(*in, recording.LoadOptions{Strict: *strict})
	if err != nil {
		return err
	}
	rep := report.Build(*in, rec.SourceSHA256(), rec.Model)
	if *jsonPath != "" {
		if err := report.SaveJSON(rep, *jsonPath); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		fmt.Fprintln(a.stdout, "Wrote JSON:", *jsonPath)
	}
	if *pdfPath != "" {
		if err := report.SavePDF(rep, *pdfPath, lang); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		fmt.Fprintln(a.stdout, "Wrote PDF:", *pdfPath)
	}
	return nil
}

func (a *app) manifestCmd(args []string) error {
	fs := a.flags("manifest")
	inputs := fs.String("inputs", "", "comma-separated paths")
	out := fs.String("out", "manifest.json", "output json")
	sign := fs.Bool("sign", false, "sign manifest (detached JWS over JSON)")
	keyPath := fs.String("key", a.cfg.ManifestSigning.PrivateKey, "PEM private key for signing (requires --sign)")
	certPath := fs.String("cert", a.cfg.ManifestSigning.Certificate, "PEM certificate describing signer (requires --sign)")
	jwsOut := fs.String("jws-out", "", "output JWS file (defaults to manifest path with .jws)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := splitList(*inputs)
	if len(paths) == 0 {
		return required("--inputs")
	}
	m, err := manifest.Build(paths)
	if err != nil {
		return fmt.Errorf("manifest build: %w", err)
	}
	if !*sign {
		if err := manifest.Save(m, *out); err != nil {
			return fmt.Errorf("manifest save: %w", err)
		}
		fmt.Fprintln(a.stdout, "Wrote", *out)
		return nil
	}
	if *keyPath == "" || *certPath == "" {
		return fmt.Errorf("%w: --sign requires --key and --cert", errUsage)
	}
	sigPath := *jwsOut
	if sigPath == "" {
		sigPath = manifest.SignaturePath(*out)
	}
	if err := signManifest(&m, *out, sigPath, *keyPath, *certPath); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Wrote", *out)
	fmt.Fprintln(a.stdout, "Wrote signature", sigPath)
	return nil
}

// signManifest records the signer in m, then writes the manifest and its
// detached signature.
func signManifest(m *manifest.Manifest, out, sigPath, keyPath, certPath string) error {
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	certBytes, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("read cert: %w", err)
	}
	cert, err := manifest.ParseCertificate(certBytes)
	if err != nil {
		return err
	}
	m.Signature = &manifest.Signature{
		Type:          "jws-detached",
		CertSubject:   cert.Subject.String(),
		Issuer:        cert.Issuer.String(),
		SignatureFile: sigPath,
	}
	payload, err := manifest.Marshal(*m)
	if err != nil {
		return fmt.Errorf("manifest marshal: %w", err)
	}
	jws, err := manifest.SignDetachedJWS(payload, keyBytes)
	if err != nil {
		return fmt.Errorf("manifest sign: %w", err)
	}
	jwsBytes, err := json.MarshalIndent(jws, "", "  ")
	if err != nil {
		return fmt.Errorf("jws marshal: %w", err)
	}
	if err := os.WriteFile(sigPath, jwsBytes, 0644); err != nil {
		return fmt.Errorf("write jws: %w", err)
	}
	if err := os.WriteFile(out, payload, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (a *app) verifySignatureCmd(args []string) error {
	fs := a.flags("verify-signature")
	manifestPath := fs.String("manifest", "", "manifest JSON file")
	jwsPath := fs.String("jws", "", "manifest JWS signature file")
	certPath := fs.String("cert", a.cfg.ManifestSigning.Certificate, "signer certificate (PEM)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *manifestPath == "" || *jwsPath == "" || *certPath == "" {
		return required("--manifest", "--jws", "--cert")
	}
	manifestBytes, err := os.ReadFile(*manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	jwsBytes, err := os.ReadFile(*jwsPath)
	if err != nil {
		return fmt.Errorf("read jws: %w", err)
	}
	certBytes, err := os.ReadFile(*certPath)
	if err != nil {
		return fmt.Errorf("read cert: %w", err)
	}
	var jws manifest.JWS
	if err := json.Unmarshal(jwsBytes, &jws); err != nil {
		return fmt.Errorf("parse jws: %w", err)
	}
	if err := manifest.VerifyDetachedJWS(manifestBytes, jws, certBytes); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	fmt.Fprintln(a.stdout, "Signature OK")
	return nil
}
