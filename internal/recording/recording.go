// Package recording is the file level entry point: it loads a waveform
// file, applies selections and redaction, and writes binary or CSV output.
package recording

import (
	"errors"
	"fmt"
	"io"
	"os"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/csvexport"
	"example.com/mwfgate/internal/mfer"
)

// ErrIO matches every storage failure reported by this package.
var ErrIO = errors.New("storage error")

// IOError describes a failed read or write of a recording file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// LoadOptions configures Load.
type LoadOptions struct {
	Strict   bool
	AuditLog *common.AuditLog
	Metrics  *common.Metrics
}

// Recording is one loaded file together with its export selection.
type Recording struct {
	Path      string
	Model     *mfer.Model
	Selection *mfer.Selection

	sha256  string
	audit   *common.AuditLog
	metrics *common.Metrics
}

// Load reads and decodes path.
func Load(path string, opts LoadOptions) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	opts.Metrics.Start()
	dec := mfer.NewDecoder(data, mfer.Options{Strict: opts.Strict})
	dec.SetMetrics(opts.Metrics)
	for {
		_, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			opts.Metrics.Stop()
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	opts.Metrics.Stop()
	m, err := dec.Model()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	common.Logf("loaded %s: %d channels, %d sequences, %d events", path, len(m.Channels), len(m.Sequences), len(m.Events()))
	return &Recording{
		Path:      path,
		Model:     m,
		Selection: mfer.NewSelection(m),
		sha256:    common.Sha256OfBytes(data),
		audit:     opts.AuditLog,
		metrics:   opts.Metrics,
	}, nil
}

// SourceSHA256 is the digest of the file as loaded.
func (r *Recording) SourceSHA256() string {
	return r.sha256
}

// Header returns the printable header.
func (r *Recording) Header() mfer.HeaderView {
	return r.Model.View()
}

func (r *Recording) SetChannelSelection(index int, active bool) error {
	return r.Selection.SetChannel(index, active)
}

func (r *Recording) SetIntervalSelection(start, end int) error {
	return r.Selection.SetInterval(start, end)
}

func (r *Recording) SetIntervalSeconds(start, end float64) error {
	return r.Selection.SetIntervalSeconds(start, end)
}

// Anonymize scrubs the patient fields. The model is always redacted; the
// returned error only reports a failure to write the audit log.
func (r *Recording) Anonymize() error {
	order := r.Model.Header.ByteOrder
	before := r.Model.Header.Patient.Fields(order)
	mfer.Anonymize(r.Model)
	if r.audit == nil {
		return nil
	}
	after := r.Model.Header.Patient.Fields(order)
	for i, f := range before {
		if err := r.audit.Record(r.Path, f.Name, mfer.TagName(f.Tag), f.Bytes, after[i].Bytes); err != nil {
			return &IOError{Op: "audit", Path: r.audit.Path(), Err: err}
		}
	}
	common.Logf("anonymized %s (audit run %s)", r.Path, r.audit.RunID())
	return nil
}

// WriteBinary encodes the full model, ignoring the selection.
func (r *Recording) WriteBinary(path string) error {
	data, err := mfer.Encode(r.Model)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := common.WriteFileAtomic(path, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// WriteCSV exports the selected channels and interval.
func (r *Recording) WriteCSV(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: cerr}
		}
	}()
	rows := csvexport.New(r.Model, r.Selection)
	if r.metrics != nil {
		rows.SetMetrics(r.metrics)
	}
	n, err := csvexport.Write(f, rows)
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	common.Logf("wrote %d rows to %s", n, path)
	return nil
}
