package gbxmetrics

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pg9182/gbx"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m, err := c.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)

	var metric dto.Metric
	require.NoError(t, m.Write(&metric))
	return metric.GetCounter().GetValue()
}

func TestObserver(t *testing.T) {
	o := New(prometheus.NewRegistry())

	o.ObserveChunk(0x03043000, 0x03043003, gbx.DispositionFixed, false)
	o.ObserveChunk(0x03043000, 0x03043018, gbx.DispositionSkippable, false)
	o.ObserveChunk(0x03043000, 0x03043002, gbx.DispositionSkippable, true)
	o.ObserveChunk(0x03043000, 0x03043099, gbx.DispositionUnknown, false)
	o.ObserveChunk(0x03043000, 0x03043003, gbx.DispositionFixed, false)

	assert.Equal(t, 2.0, counterValue(t, o.ChunksTotal, "body", "fixed"))
	assert.Equal(t, 1.0, counterValue(t, o.ChunksTotal, "body", "skippable"))
	assert.Equal(t, 1.0, counterValue(t, o.ChunksTotal, "header", "skippable"))
	assert.Equal(t, 1.0, counterValue(t, o.ChunksTotal, "body", "unknown"))

	o.ObserveBody(true, 25, 100)
	o.ObserveBody(false, 10, 10)
	assert.Equal(t, 110.0, counterValue(t, o.BodyBytesTotal, "uncompressed"))
	assert.Equal(t, 25.0, counterValue(t, o.BodyBytesTotal, "compressed"))
}

func TestErrorKind(t *testing.T) {
	for _, x := range []struct {
		Err  error
		Kind string
	}{
		{gbx.ErrCorruptedIndex, "corrupted_index"},
		{fmt.Errorf("read id: %w", gbx.ErrCorruptedIndex), "corrupted_index"},
		{&gbx.ChunkError{Kind: gbx.ErrChunkRead, Err: fmt.Errorf("read id: %w", gbx.ErrCorruptedIndex)}, "corrupted_index"},
		{&gbx.ChunkError{Kind: gbx.ErrChunkParse, Err: fmt.Errorf("missing magic")}, "chunk_parse"},
		{fmt.Errorf("%w: a/b.Gbx", gbx.ErrRefTableResolution), "ref_table_resolution"},
		{fmt.Errorf("something else"), "other"},
	} {
		assert.Equal(t, x.Kind, ErrorKind(x.Err), "%v", x.Err)
	}
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New(reg)
	o.ObserveChunk(0x03043000, 0x03043003, gbx.DispositionFixed, false)
	o.ObserveError(gbx.ErrChunkRead)
	o.ObserveBody(true, 50, 100)

	var b bytes.Buffer
	require.NoError(t, WriteText(&b, reg))

	s := b.String()
	assert.Contains(t, s, `gbx_chunks_total{disposition="fixed",section="body"} 1`)
	assert.Contains(t, s, `gbx_errors_total{kind="chunk_read"} 1`)
	assert.Contains(t, s, `gbx_body_compression_ratio count=1 mean=0.500`)
}
