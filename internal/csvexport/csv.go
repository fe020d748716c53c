// Package csvexport renders the selected part of a waveform recording as
// comma separated physical values.
package csvexport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/mfer"
)

// Separator joins the cells of a row.
const Separator = ", "

// Rows is a single pass stream of CSV rows. The first row is the header.
// Selection changes made after New do not affect an open stream.
type Rows struct {
	m        *mfer.Model
	channels []int
	next     int
	end      int
	stride   int
	axis     mfer.Interval
	header   bool
	metrics  *common.Metrics
}

// New snapshots the selection and returns the row stream. A nil selection
// exports everything.
func New(m *mfer.Model, sel *mfer.Selection) *Rows {
	if sel == nil {
		sel = mfer.NewSelection(m)
	}
	start, end := sel.Interval()
	if total := m.TotalSamples(); end > total {
		end = total
	}
	if start > end {
		start = end
	}
	return &Rows{
		m:        m,
		channels: sel.ActiveChannels(),
		next:     start,
		end:      end,
		stride:   m.MaxBlockLength(),
		axis:     m.AxisInterval(),
	}
}

// SetMetrics attaches a row counter.
func (r *Rows) SetMetrics(m *common.Metrics) {
	r.metrics = m
	m.SetTotalRows(int64(r.end - r.next))
}

// Header returns the header cells for the active channels.
func (r *Rows) Header() []string {
	cells := []string{"Time: (s)"}
	for _, c := range r.channels {
		ch := r.m.Channels[c]
		if ch.Categorical {
			cells = append(cells, fmt.Sprintf("%s: N/A", ch.Name))
			continue
		}
		cells = append(cells, fmt.Sprintf("%s: %s", ch.Name, ch.Sensitivity))
	}
	return cells
}

// Next returns the header on the first call, then one row per sample
// index of the selected interval, then io.EOF.
func (r *Rows) Next() ([]string, error) {
	if !r.header {
		r.header = true
		return r.Header(), nil
	}
	if r.next >= r.end {
		return nil, io.EOF
	}
	i := r.next
	r.next++
	r.metrics.AddRows(1)
	return r.row(i), nil
}

func (r *Rows) row(i int) []string {
	cells := make([]string, 0, len(r.channels)+1)
	cells = append(cells, formatFloat(r.axis.At(int64(i))))
	seq := r.m.Sequences[i/r.stride]
	pos := i % r.stride
	for _, c := range r.channels {
		ch := r.m.Channels[c]
		k, ok := sampleAt(pos, ch.BlockLength, r.stride)
		if !ok {
			cells = append(cells, "")
			continue
		}
		raw := seq.Samples[c][k]
		if ch.Categorical {
			cells = append(cells, strconv.FormatInt(raw, 10))
			continue
		}
		cells = append(cells, formatFloat(ch.Value(raw)))
	}
	return cells
}

// sampleAt maps position pos of a sequence on the fastest channel's grid
// to the sample of a channel with blockLength samples per sequence. Sample
// k of that channel sits at floor(k*stride/blockLength).
func sampleAt(pos, blockLength, stride int) (int, bool) {
	if blockLength <= 0 {
		return 0, false
	}
	k := (pos*blockLength + stride - 1) / stride
	if k >= blockLength || k*stride/blockLength != pos {
		return 0, false
	}
	return k, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Write streams the whole export to w and returns the number of data
// rows written.
func Write(w io.Writer, rows *Rows) (int, error) {
	bw := bufio.NewWriter(w)
	n := -1
	for {
		cells, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return max(n, 0), err
		}
		if _, err := bw.WriteString(strings.Join(cells, Separator) + "\n"); err != nil {
			return max(n, 0), err
		}
		n++
	}
	return max(n, 0), bw.Flush()
}
