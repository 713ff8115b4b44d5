// Package gbxmetrics exports gbx codec activity as Prometheus metrics.
package gbxmetrics

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pg9182/gbx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Observer implements gbx.Observer.
type Observer struct {
	ChunksTotal      *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	BodyBytesTotal   *prometheus.CounterVec
	BodyCompressions prometheus.Histogram
}

var _ gbx.Observer = (*Observer)(nil)

// New creates an Observer with metrics registered on reg.
func New(reg prometheus.Registerer) *Observer {
	return &Observer{
		ChunksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbx_chunks_total",
				Help: "Total number of chunks read",
			},
			[]string{"section", "disposition"}, // header/body; fixed, skippable, unknown
		),
		ErrorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbx_errors_total",
				Help: "Total number of codec errors, including recovered ones",
			},
			[]string{"kind"},
		),
		BodyBytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gbx_body_bytes_total",
				Help: "Total size of bodies read or written",
			},
			[]string{"form"}, // compressed, uncompressed
		),
		BodyCompressions: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gbx_body_compression_ratio",
				Help:    "Compressed to uncompressed size ratio of compressed bodies",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0},
			},
		),
	}
}

// ObserveChunk implements gbx.Observer.
func (o *Observer) ObserveChunk(class, chunk gbx.ClassID, d gbx.Disposition, header bool) {
	section := "body"
	if header {
		section = "header"
	}
	o.ChunksTotal.WithLabelValues(section, d.String()).Inc()
}

// ObserveError implements gbx.Observer.
func (o *Observer) ObserveError(err error) {
	o.ErrorsTotal.WithLabelValues(ErrorKind(err)).Inc()
}

// ObserveBody implements gbx.Observer.
func (o *Observer) ObserveBody(compressed bool, compressedSize, uncompressedSize int) {
	o.BodyBytesTotal.WithLabelValues("uncompressed").Add(float64(uncompressedSize))
	if compressed {
		o.BodyBytesTotal.WithLabelValues("compressed").Add(float64(compressedSize))
		if uncompressedSize != 0 {
			o.BodyCompressions.Observe(float64(compressedSize) / float64(uncompressedSize))
		}
	}
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{gbx.ErrCorruptedIndex, "corrupted_index"},
	{gbx.ErrIdVersion, "id_version"},
	{gbx.ErrClassNotImplemented, "class_not_implemented"},
	{gbx.ErrCompressionUnavailable, "compression_unavailable"},
	{gbx.ErrRefTableResolution, "ref_table_resolution"},
	{gbx.ErrRefTableStructure, "ref_table_structure"},
	{gbx.ErrTruncated, "truncated"},
	{gbx.ErrChunkParse, "chunk_parse"},
	{gbx.ErrChunkRead, "chunk_read"},
	{gbx.ErrWriteUnsupported, "write_unsupported"},
}

// ErrorKind returns the metric label for err. The most specific cause wins.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}

// WriteText writes a plain-text summary of the gbx metrics in g.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), "gbx_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			if _, err := fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m)); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatLabels(ls []*dto.LabelPair) string {
	if len(ls) == 0 {
		return ""
	}
	ss := make([]string, 0, len(ls))
	for _, l := range ls {
		ss = append(ss, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(ss)
	return "{" + strings.Join(ss, ",") + "}"
}

func formatValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprint(m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprint(m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		if h.GetSampleCount() == 0 {
			return "count=0"
		}
		return fmt.Sprintf("count=%d mean=%.3f", h.GetSampleCount(), h.GetSampleSum()/float64(h.GetSampleCount()))
	default:
		return "?"
	}
}
